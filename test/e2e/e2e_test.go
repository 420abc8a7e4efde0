// Package e2e drives the career workers through a real Zeebe broker, PostgreSQL and Redis.
// Set E2E_ZEEBE_ADDRESS to run it; database settings come from the normal config/env layers.
package e2e

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"career-matching/internal/common/camunda"
	"career-matching/internal/common/config"
	"career-matching/internal/common/database"
	"career-matching/internal/common/logger"
	"career-matching/internal/matching/catalog"
	"career-matching/internal/matching/classifier"
	"career-matching/internal/matching/encoders"
	"career-matching/internal/matching/matchingtest"
	"career-matching/internal/matching/predictionlog"
	"career-matching/internal/matching/profiles"
	"career-matching/internal/matching/recommender"
	"career-matching/internal/matching/similarity"

	ecm "career-matching/internal/workers/career/evaluate-career-match"
	rc "career-matching/internal/workers/career/recommend-careers"
	rp "career-matching/internal/workers/career/record-prediction"
)

const processID = "career-matching-e2e"

var schema = []string{
	`DROP TABLE IF EXISTS e2e_careers, e2e_user_profiles, e2e_prediction_results`,
	`CREATE TABLE e2e_careers (
		id SERIAL PRIMARY KEY,
		career_name TEXT NOT NULL,
		description TEXT,
		required_skills TEXT,
		qualifications TEXT,
		industry_type TEXT
	)`,
	`CREATE TABLE e2e_user_profiles (
		id BIGINT PRIMARY KEY,
		name TEXT,
		age DOUBLE PRECISION,
		gender TEXT,
		education_level TEXT,
		experience DOUBLE PRECISION,
		career_preference TEXT,
		skills TEXT,
		interests TEXT,
		actual_career TEXT
	)`,
	`CREATE TABLE e2e_prediction_results (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		predicted_career TEXT NOT NULL,
		confidence_score DOUBLE PRECISION,
		source TEXT,
		rank INT,
		model_version TEXT,
		created_at TIMESTAMPTZ
	)`,
	`INSERT INTO e2e_user_profiles (id, name, age, education_level, experience, career_preference, skills, interests, actual_career)
	 VALUES (101, 'E2E User', 27, 'Bachelor''s', 3, 'software', 'java, python, algorithms', 'web', 'Software Engineer')`,
}

func TestCareerMatchingProcess(t *testing.T) {
	address := os.Getenv("E2E_ZEEBE_ADDRESS")
	if address == "" {
		t.Skip("E2E_ZEEBE_ADDRESS not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, err := config.Load()
	require.NoError(t, err)
	log := logger.NewTestLogger(t)

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err)
	defer pg.Close()
	require.NoError(t, pg.Ping(ctx), "PostgreSQL ping failed")
	for _, stmt := range schema {
		_, err := pg.DB.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}

	redis, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err)
	defer redis.Close()
	require.NoError(t, redis.Ping(ctx), "Redis ping failed")

	// ==========================
	// Pipeline
	// ==========================

	pgCatalog, err := catalog.NewPostgresSource(pg, "e2e_careers")
	require.NoError(t, err)
	n, err := pgCatalog.Replace(ctx, matchingtest.SampleCatalog())
	require.NoError(t, err)
	require.Equal(t, 4, n)
	source := catalog.NewCachedSource(pgCatalog, redis, time.Minute, log)
	require.NoError(t, source.Invalidate(ctx))

	dir := t.TempDir()
	matchingtest.WriteBundle(t, dir, matchingtest.DefaultBundle())
	registry, err := encoders.NewRegistry(dir, encoders.LoadOptions{
		ModelLoader: classifier.NewModelLoader(config.ONNXConfig{}),
	}, log)
	require.NoError(t, err)
	defer registry.Close()

	store, err := profiles.NewStore(pg, redis, "e2e_user_profiles", time.Minute, log)
	require.NoError(t, err)
	require.NoError(t, store.Invalidate(ctx, "101"))

	writer, err := predictionlog.NewWriter(pg, "e2e_prediction_results", log)
	require.NoError(t, err)

	svc := recommender.New(config.MatchingConfig{
		TopK:            3,
		SimilarityTopN:  5,
		DefaultStrategy: config.StrategyBoth,
		DefaultAge:      25,
	}, registry, source, similarity.NewFitCache(2), log)

	// ==========================
	// Zeebe
	// ==========================

	zeebe, err := camunda.NewClientWithConfig(&camunda.ClientConfig{
		GatewayAddress:         address,
		UsePlaintextConnection: true,
		ConnectionTimeout:      10 * time.Second,
		RequestTimeout:         30 * time.Second,
	})
	require.NoError(t, err, "Zeebe connection failed")
	defer zeebe.Close()
	client := zeebe.GetClient()

	_, err = client.NewDeployResourceCommand().AddResourceFile("testdata/career-matching.bpmn").Send(ctx)
	require.NoError(t, err)

	zapLog := zaptest.NewLogger(t)
	wcfg := config.WorkerConfig{Enabled: true, MaxJobsActive: 2, Timeout: 30000}
	workers := []worker.JobWorker{
		camunda.StartWorker(client, rc.TaskType, wcfg,
			rc.NewHandler(rc.LoadConfig(wcfg), svc, store, nil, log).Handle, nil, zapLog),
		camunda.StartWorker(client, rp.TaskType, wcfg,
			rp.NewHandler(rp.LoadConfig(wcfg), writer, log).Handle, nil, zapLog),
		camunda.StartWorker(client, ecm.TaskType, wcfg,
			ecm.NewHandler(ecm.LoadConfig(wcfg), svc, store, nil, log).Handle, nil, zapLog),
	}
	defer func() {
		for _, w := range workers {
			w.Close()
			w.AwaitClose()
		}
	}()

	result := runProcess(ctx, t, client, map[string]interface{}{
		"userId":   "101",
		"strategy": config.StrategySimilarity,
		"topK":     3,
	})

	// ==========================
	// Assertions
	// ==========================

	assert.Equal(t, "test-v1", result["modelVersion"])
	assert.EqualValues(t, 3, result["recordedCount"])
	assert.EqualValues(t, 1, result["precisionAtK"])
	predicted, ok := result["predictedCareers"].([]interface{})
	require.True(t, ok)
	require.NotEmpty(t, predicted)
	assert.Equal(t, "Software Engineer", predicted[0])

	var rows int
	require.NoError(t, pg.DB.GetContext(ctx, &rows,
		`SELECT COUNT(*) FROM e2e_prediction_results WHERE user_id = $1 AND source = 'similarity'`, "101"))
	assert.Equal(t, 3, rows)
}

func runProcess(ctx context.Context, t *testing.T, client zbc.Client, vars map[string]interface{}) map[string]interface{} {
	t.Helper()
	cmd, err := client.NewCreateInstanceCommand().
		BPMNProcessId(processID).
		LatestVersion().
		VariablesFromMap(vars)
	require.NoError(t, err)

	res, err := cmd.WithResult().Send(ctx)
	require.NoError(t, err, "process did not complete")

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(res.GetVariables()), &out))
	return out
}
