package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StrategyClassifier = "classifier"
	StrategySimilarity = "similarity"
	StrategyBoth       = "both"

	CatalogSourcePostgres      = "postgres"
	CatalogSourceElasticsearch = "elasticsearch"
	CatalogSourceCSV           = "csv"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml and applies env overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finalize(v)
}

// LoadFromFile reads one explicit YAML file.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finalize(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func finalize(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

func overrideEmptyConfig(cfg *Config) {
	if cfg.Database.Postgres.User == "" {
		cfg.Database.Postgres.User = os.Getenv("DB_USER")
	}
	if cfg.Database.Postgres.Password == "" {
		cfg.Database.Postgres.Password = os.Getenv("DB_PASSWORD")
	}
	if cfg.Artifacts.Directory == "" {
		cfg.Artifacts.Directory = os.Getenv("MODEL_ARTIFACTS_DIR")
	}
	if cfg.Artifacts.ONNX.SharedLibraryPath == "" {
		cfg.Artifacts.ONNX.SharedLibraryPath = os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")
	}
	if cfg.Alerting.SNS.TopicARN == "" {
		cfg.Alerting.SNS.TopicARN = os.Getenv("DRIFT_ALERT_TOPIC_ARN")
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "career-matching"
	}
	if cfg.App.HTTPAddress == "" {
		cfg.App.HTTPAddress = ":8080"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	if cfg.Artifacts.ONNX.InputName == "" {
		cfg.Artifacts.ONNX.InputName = "input"
	}
	if len(cfg.Artifacts.ONNX.OutputNames) == 0 {
		cfg.Artifacts.ONNX.OutputNames = []string{"output", "probabilities"}
	}

	if cfg.Matching.TopK == 0 {
		cfg.Matching.TopK = 3
	}
	if cfg.Matching.SimilarityTopN == 0 {
		cfg.Matching.SimilarityTopN = 5
	}
	if cfg.Matching.DefaultStrategy == "" {
		cfg.Matching.DefaultStrategy = StrategyBoth
	}
	if cfg.Matching.DefaultAge == 0 {
		cfg.Matching.DefaultAge = 25
	}
	if cfg.Matching.Weights == (SimilarityWeightConfig{}) {
		cfg.Matching.Weights = SimilarityWeightConfig{Skills: 0.5, Qualifications: 0.3, Industry: 0.2}
	}
	if cfg.Matching.FitCacheSize == 0 {
		cfg.Matching.FitCacheSize = 4
	}

	if cfg.Catalog.Source == "" {
		cfg.Catalog.Source = CatalogSourcePostgres
	}
	if cfg.Catalog.Table == "" {
		cfg.Catalog.Table = "careers"
	}
	if cfg.Catalog.Index == "" {
		cfg.Catalog.Index = "careers"
	}

	if cfg.Profiles.Table == "" {
		cfg.Profiles.Table = "user_profiles"
	}
	if cfg.Profiles.PredictionTable == "" {
		cfg.Profiles.PredictionTable = "prediction_results"
	}

	if cfg.Alerting.Region == "" {
		cfg.Alerting.Region = "us-east-1"
	}
	if cfg.Alerting.ThrottleSeconds == 0 {
		cfg.Alerting.ThrottleSeconds = 300
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = cfg.App.Name
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

// Validate checks settings every entry point needs.
func (cfg *Config) Validate() error {
	if cfg.Artifacts.Directory == "" {
		return fmt.Errorf("artifacts.directory is required")
	}

	switch cfg.Matching.DefaultStrategy {
	case StrategyClassifier, StrategySimilarity, StrategyBoth:
	default:
		return fmt.Errorf("matching.default_strategy must be one of classifier, similarity, both")
	}
	if cfg.Matching.TopK < 0 || cfg.Matching.SimilarityTopN < 0 {
		return fmt.Errorf("matching.top_k and matching.similarity_top_n must be positive")
	}
	w := cfg.Matching.Weights
	if w.Skills < 0 || w.Qualifications < 0 || w.Industry < 0 {
		return fmt.Errorf("matching.weights must be non-negative")
	}

	switch cfg.Catalog.Source {
	case CatalogSourcePostgres, CatalogSourceElasticsearch:
	case CatalogSourceCSV:
		if cfg.Catalog.CSVPath == "" {
			return fmt.Errorf("catalog.csv_path is required for csv source")
		}
	default:
		return fmt.Errorf("catalog.source %q is not supported", cfg.Catalog.Source)
	}

	if cfg.Alerting.Enabled && cfg.Alerting.SNS.TopicARN == "" && cfg.Alerting.SES.FromEmail == "" {
		return fmt.Errorf("alerting requires alerting.sns.topic_arn or alerting.ses.from_email")
	}

	return nil
}

// ValidateForWorkers adds the infrastructure the worker manager cannot start without.
func (cfg *Config) ValidateForWorkers() error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}

	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}

	if cfg.Catalog.Source == CatalogSourceElasticsearch &&
		len(cfg.Database.Elasticsearch.Addresses) == 0 && cfg.Database.Elasticsearch.URL == "" {
		return fmt.Errorf("database.elasticsearch.addresses or url is required for elasticsearch catalog")
	}

	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	return nil
}

func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
