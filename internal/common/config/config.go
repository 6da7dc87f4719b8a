// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Database DatabaseConfig          `mapstructure:"database"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	Analysis AnalysisConfig          `mapstructure:"analysis"`
	Economic EconomicConfig          `mapstructure:"economic"`
	Search   SearchConfig            `mapstructure:"search"`
	Alerts   AlertsConfig            `mapstructure:"alerts"`
	Logging  LoggingConfig           `mapstructure:"logging"`
	Server   ServerConfig            `mapstructure:"server"`

	Observability ObservabilityConfig `mapstructure:"observability"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
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
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Specific Configuration Sections ---

// AnalysisConfig bounds the collaborators of the analysis cache.
type AnalysisConfig struct {
	EconomicTimeout int `mapstructure:"economic_timeout"` // milliseconds
	PersistTimeout  int `mapstructure:"persist_timeout"`  // milliseconds
	StaleAfterDays  int `mapstructure:"stale_after_days"`
	RecordCacheTTL  int `mapstructure:"record_cache_ttl"` // seconds, 0 disables the redis layer
}

// EconomicConfig seeds the economic snapshot. KeyRateURL enables the live policy rate.
type EconomicConfig struct {
	KeyRateURL        string             `mapstructure:"key_rate_url"`
	KeyRateTimeout    int                `mapstructure:"key_rate_timeout"` // milliseconds
	RefreshSchedule   string             `mapstructure:"refresh_schedule"`
	GDPGrowth         float64            `mapstructure:"gdp_growth"`
	Inflation         float64            `mapstructure:"inflation"`
	PolicyRate        float64            `mapstructure:"policy_rate"`
	Unemployment      float64            `mapstructure:"unemployment"`
	MarketSentiment   string             `mapstructure:"market_sentiment"`
	SectorPerformance map[string]float64 `mapstructure:"sector_performance"`
}

type SearchConfig struct {
	Index string `mapstructure:"index"`
}

// AlertsConfig holds settings for the send-risk-alert worker.
type AlertsConfig struct {
	AWSRegion    string `mapstructure:"aws_region"`
	FromEmail    string `mapstructure:"from_email"`
	SNSTopicARN  string `mapstructure:"sns_topic_arn"`
	EmailEnabled bool   `mapstructure:"email_enabled"`
	SMSEnabled   bool   `mapstructure:"sms_enabled"`
	MinRiskLevel string `mapstructure:"min_risk_level"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ObservabilityConfig selects where finished spans go: "none" or "stdout" (written to stderr).
type ObservabilityConfig struct {
	TraceExporter string `mapstructure:"trace_exporter"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}
