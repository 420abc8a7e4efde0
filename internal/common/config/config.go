package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Artifacts     ArtifactsConfig         `mapstructure:"artifacts"`
	Matching      MatchingConfig          `mapstructure:"matching"`
	Catalog       CatalogConfig           `mapstructure:"catalog"`
	Profiles      ProfilesConfig          `mapstructure:"profiles"`
	Alerting      AlertingConfig          `mapstructure:"alerting"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	HTTPAddress string `mapstructure:"http_address"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	Plaintext      bool   `mapstructure:"plaintext"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// --- Matching pipeline ---

// ArtifactsConfig locates the pre-fit encoders, schema and classifier.
type ArtifactsConfig struct {
	Directory string            `mapstructure:"directory"`
	Files     map[string]string `mapstructure:"files"` // artifact key -> file name override
	ONNX      ONNXConfig        `mapstructure:"onnx"`
}

// ONNXConfig configures the ONNX Runtime classifier backend.
type ONNXConfig struct {
	SharedLibraryPath string   `mapstructure:"shared_library_path"`
	InputName         string   `mapstructure:"input_name"`
	OutputNames       []string `mapstructure:"output_names"`
}

// MatchingConfig holds scoring parameters shared by both recommendation paths.
type MatchingConfig struct {
	TopK            int                    `mapstructure:"top_k"`
	SimilarityTopN  int                    `mapstructure:"similarity_top_n"`
	DefaultStrategy string                 `mapstructure:"default_strategy"` // classifier | similarity | both
	DefaultAge      float64                `mapstructure:"default_age"`
	Weights         SimilarityWeightConfig `mapstructure:"weights"`
	FitCacheSize    int                    `mapstructure:"fit_cache_size"`
}

type SimilarityWeightConfig struct {
	Skills         float64 `mapstructure:"skills"`
	Qualifications float64 `mapstructure:"qualifications"`
	Industry       float64 `mapstructure:"industry"`
}

// CatalogConfig selects where career entries are read from.
type CatalogConfig struct {
	Source   string `mapstructure:"source"` // postgres | elasticsearch | csv
	Table    string `mapstructure:"table"`
	Index    string `mapstructure:"index"`
	CSVPath  string `mapstructure:"csv_path"`
	CacheTTL int    `mapstructure:"cache_ttl"` // seconds, 0 disables the Redis snapshot cache
}

// ProfilesConfig locates stored user profiles and the prediction log.
type ProfilesConfig struct {
	Table           string `mapstructure:"table"`
	PredictionTable string `mapstructure:"prediction_table"`
	CacheTTL        int    `mapstructure:"cache_ttl"` // seconds, 0 disables the Redis profile cache
}

// AlertingConfig routes drift alerts (schema and prediction failures).
type AlertingConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Region          string `mapstructure:"region"`
	ThrottleSeconds int    `mapstructure:"throttle_seconds"` // one alert per code per window
	SNS             struct {
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
	SES struct {
		FromEmail string   `mapstructure:"from_email"`
		To        []string `mapstructure:"to"`
	} `mapstructure:"ses"`
}

// ObservabilityConfig configures OpenTelemetry exporters.
type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
