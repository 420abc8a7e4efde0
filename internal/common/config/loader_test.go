package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeConfig(t, `
artifacts:
  directory: /models/v3
workers:
  recommend-careers:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "career-matching", cfg.App.Name)
	assert.Equal(t, 3, cfg.Matching.TopK)
	assert.Equal(t, 5, cfg.Matching.SimilarityTopN)
	assert.Equal(t, StrategyBoth, cfg.Matching.DefaultStrategy)
	assert.Equal(t, 25.0, cfg.Matching.DefaultAge)
	assert.Equal(t, SimilarityWeightConfig{Skills: 0.5, Qualifications: 0.3, Industry: 0.2}, cfg.Matching.Weights)
	assert.Equal(t, CatalogSourcePostgres, cfg.Catalog.Source)
	assert.Equal(t, "input", cfg.Artifacts.ONNX.InputName)
	assert.Equal(t, "user_profiles", cfg.Profiles.Table)
	assert.Equal(t, "prediction_results", cfg.Profiles.PredictionTable)
	assert.Equal(t, []string{"output", "probabilities"}, cfg.Artifacts.ONNX.OutputNames)

	wc := cfg.Workers["recommend-careers"]
	assert.True(t, wc.Enabled)
	assert.Equal(t, 5, wc.MaxJobsActive)
	assert.Equal(t, 30000, wc.Timeout)
	assert.Equal(t, 3, wc.MaxRetries)
}

func TestLoadFromFile_ExpandsEnv(t *testing.T) {
	t.Setenv("CAREER_MODEL_DIR", "/srv/models")
	path := writeConfig(t, `
artifacts:
  directory: ${CAREER_MODEL_DIR}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/models", cfg.Artifacts.Directory)
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{Artifacts: ArtifactsConfig{Directory: "/models"}}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing artifacts", func(c *Config) { c.Artifacts.Directory = "" }, "artifacts.directory"},
		{"bad strategy", func(c *Config) { c.Matching.DefaultStrategy = "ensemble" }, "default_strategy"},
		{"negative weight", func(c *Config) { c.Matching.Weights.Industry = -0.1 }, "non-negative"},
		{"csv without path", func(c *Config) { c.Catalog.Source = CatalogSourceCSV }, "csv_path"},
		{"unknown source", func(c *Config) { c.Catalog.Source = "mongo" }, "not supported"},
		{"alerting without target", func(c *Config) { c.Alerting.Enabled = true }, "alerting"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ValidateForWorkers(t *testing.T) {
	cfg := &Config{
		Camunda: CamundaConfig{BrokerAddress: "localhost:26500"},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{Host: "db", Database: "careers", User: "app"},
			Redis:    RedisConfig{Address: "redis:6379"},
		},
		Catalog: CatalogConfig{Source: CatalogSourcePostgres},
	}
	assert.NoError(t, cfg.ValidateForWorkers())

	cfg.Catalog.Source = CatalogSourceElasticsearch
	assert.ErrorContains(t, cfg.ValidateForWorkers(), "elasticsearch")

	cfg.Database.Elasticsearch.Addresses = []string{"http://es:9200"}
	assert.NoError(t, cfg.ValidateForWorkers())

	cfg.Camunda.BrokerAddress = ""
	assert.ErrorContains(t, cfg.ValidateForWorkers(), "broker_address")
}

func TestGetWorkerConfig(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"match-careers": {Enabled: false, MaxJobsActive: 2, Timeout: 1000},
	}}

	assert.False(t, IsWorkerEnabled(cfg, "match-careers"))
	assert.True(t, IsWorkerEnabled(cfg, "record-prediction"))
	assert.Equal(t, 2, GetWorkerConfig(cfg, "match-careers").MaxJobsActive)
	assert.Equal(t, 5, GetWorkerConfig(cfg, "record-prediction").MaxJobsActive)
	assert.Equal(t, time.Second, GetDuration(1000))
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "careers", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=careers sslmode=disable", p.GetDSN())
}
