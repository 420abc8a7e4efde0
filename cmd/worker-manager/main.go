package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"career-matching/internal/common/camunda"
	"career-matching/internal/common/config"
	"career-matching/internal/common/database"
	"career-matching/internal/common/logger"
	"career-matching/internal/common/observability"
	"career-matching/internal/matching/alerting"
	"career-matching/internal/matching/catalog"
	"career-matching/internal/matching/classifier"
	"career-matching/internal/matching/encoders"
	"career-matching/internal/matching/predictionlog"
	"career-matching/internal/matching/profiles"
	"career-matching/internal/matching/recommender"
	"career-matching/internal/matching/similarity"

	ecm "career-matching/internal/workers/career/evaluate-career-match"
	mc "career-matching/internal/workers/career/match-careers"
	rc "career-matching/internal/workers/career/recommend-careers"
	rp "career-matching/internal/workers/career/record-prediction"
)

func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// retireAfter keeps a replaced model open until every job that could hold it has timed out.
func retireAfter(workers map[string]config.WorkerConfig) time.Duration {
	longest := 30 * time.Second
	for _, w := range workers {
		longest = max(longest, config.GetDuration(w.Timeout))
	}
	return longest + encoders.RetireMargin
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...", zap.String("version", cfg.App.Version))

	if err := cfg.Validate(); err != nil {
		zapLog.Fatal("invalid configuration", zap.Error(err))
	}
	if err := cfg.ValidateForWorkers(); err != nil {
		zapLog.Fatal("invalid worker configuration", zap.Error(err))
	}

	obs, err := observability.New(observability.Options{
		ServiceName:    cfg.Observability.ServiceName,
		JaegerEndpoint: cfg.Observability.JaegerEndpoint,
	})
	if err != nil {
		zapLog.Fatal("observability setup failed", zap.Error(err))
	}
	defer obs.Shutdown()

	ctx := context.Background()

	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(camunda.ConfigFrom(cfg.Camunda))
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	var esClient *database.ElasticsearchClient
	if cfg.Catalog.Source == config.CatalogSourceElasticsearch {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")
	}

	registry, err := encoders.NewRegistry(cfg.Artifacts.Directory, encoders.LoadOptions{
		Files:       cfg.Artifacts.Files,
		ModelLoader: classifier.NewModelLoader(cfg.Artifacts.ONNX),
		RetireAfter: retireAfter(cfg.Workers),
	}, log)
	if err != nil {
		zapLog.Fatal("encoder artifacts failed to load", zap.Error(err))
	}
	defer registry.Close()

	source, err := catalog.NewSource(cfg.Catalog, catalog.Deps{
		Postgres:      pg,
		Elasticsearch: esClient,
		Redis:         redis,
	}, log)
	if err != nil {
		zapLog.Fatal("catalog source setup failed", zap.Error(err))
	}

	profileStore, err := profiles.NewStore(pg, redis, cfg.Profiles.Table,
		time.Duration(cfg.Profiles.CacheTTL)*time.Second, log)
	if err != nil {
		zapLog.Fatal("profile store setup failed", zap.Error(err))
	}

	predictionWriter, err := predictionlog.NewWriter(pg, cfg.Profiles.PredictionTable, log)
	if err != nil {
		zapLog.Fatal("prediction log setup failed", zap.Error(err))
	}

	alerter, err := alerting.NewFromConfig(ctx, cfg.Alerting, log)
	if err != nil {
		zapLog.Fatal("alerting setup failed", zap.Error(err))
	}

	svc := recommender.New(cfg.Matching, registry, source, similarity.NewFitCache(cfg.Matching.FitCacheSize), log)

	zapLog.Info("All pipeline components initialized",
		zap.String("modelVersion", svc.ModelVersion()),
		zap.String("catalogSource", source.Name()),
	)

	client := zeebe.GetClient()
	var workers []worker.JobWorker
	start := func(taskType string, h camunda.HandlerFunc) {
		if jw := camunda.StartWorker(client, taskType, cfg.Workers[taskType], h, obs, zapLog); jw != nil {
			workers = append(workers, jw)
		}
	}

	if wcfg := cfg.Workers[rc.TaskType]; wcfg.Enabled {
		handler := rc.NewHandler(rc.LoadConfig(wcfg), svc, profileStore, alerter, log)
		start(rc.TaskType, handler.Handle)
	}
	if wcfg := cfg.Workers[mc.TaskType]; wcfg.Enabled {
		handler := mc.NewHandler(mc.LoadConfig(wcfg), svc, profileStore, alerter, log)
		start(mc.TaskType, handler.Handle)
	}
	if wcfg := cfg.Workers[ecm.TaskType]; wcfg.Enabled {
		handler := ecm.NewHandler(ecm.LoadConfig(wcfg), svc, profileStore, alerter, log)
		start(ecm.TaskType, handler.Handle)
	}
	if wcfg := cfg.Workers[rp.TaskType]; wcfg.Enabled {
		handler := rp.NewHandler(rp.LoadConfig(wcfg), predictionWriter, log)
		start(rp.TaskType, handler.Handle)
	}

	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			status, code := "ready", http.StatusOK
			if !registry.Ready() {
				status, code = "artifacts not loaded", http.StatusServiceUnavailable
			} else if err := zeebe.HealthCheck(r.Context()); err != nil {
				status, code = "zeebe unavailable", http.StatusServiceUnavailable
			}
			w.WriteHeader(code)
			json.NewEncoder(w).Encode(map[string]string{
				"status":       status,
				"modelVersion": svc.ModelVersion(),
				"time":         time.Now().Format(time.RFC3339),
			})
		})
		mux.Handle("/metrics", promhttp.Handler())
		mux.Handle("/debug/pprof/", http.DefaultServeMux)

		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.App.HTTPAddress))
		if err := http.ListenAndServe(cfg.App.HTTPAddress, mux); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range sigCh {
		if sig == syscall.SIGHUP {
			// Reload keeps the previous set on failure.
			if set, err := registry.Reload(); err != nil {
				zapLog.Error("artifact reload failed", zap.Error(err))
			} else {
				zapLog.Info("artifacts reloaded", zap.String("version", set.Version()))
			}
			continue
		}
		break
	}

	zapLog.Info("Shutdown signal received, stopping workers...")
	for _, jw := range workers {
		jw.Close()
		jw.AwaitClose()
	}

	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	zapLog.Info("Worker manager stopped gracefully")
}
