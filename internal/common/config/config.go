// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Mail     MailConfig              `mapstructure:"mail"`
	Gateway  GatewayConfig           `mapstructure:"gateway"`
	Links    LinksConfig             `mapstructure:"links"`
	Database DatabaseConfig          `mapstructure:"database"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	Alerts   AlertsConfig            `mapstructure:"alerts"`
	Dedup    DedupConfig             `mapstructure:"dedup"`
	Logging  LoggingConfig           `mapstructure:"logging"`
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
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	Index      string   `mapstructure:"index"`
	Enabled    bool     `mapstructure:"enabled"`
	URL        string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
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

// MailConfig holds settings for the SES notifier and template catalog.
type MailConfig struct {
	AWSRegion         string   `mapstructure:"aws_region"`
	BlockedDomains    []string `mapstructure:"blocked_domains"`
	LogoPath          string   `mapstructure:"logo_path"`
	ConfirmationPath  string   `mapstructure:"confirmation_path"`
	ResetPasswordPath string   `mapstructure:"reset_password_path"`
}

// GatewayConfig holds settings for the directory gateway client.
type GatewayConfig struct {
	GraphQLURL string `mapstructure:"graphql_url"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds

	Auth struct {
		TokenURL     string `mapstructure:"token_url"`
		ClientID     string `mapstructure:"client_id"`
		ClientSecret string `mapstructure:"client_secret"`
	} `mapstructure:"auth"`
}

// LinksConfig holds the public site base URL used for deep links in mails.
type LinksConfig struct {
	SiteBaseURL string `mapstructure:"site_base_url"`
}

// AlertsConfig holds settings for replay alerts on failed events.
type AlertsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	TopicARN  string `mapstructure:"topic_arn"`
	AWSRegion string `mapstructure:"aws_region"`
}

// DedupConfig holds settings for the redis event dedup guard.
type DedupConfig struct {
	TTLHours int `mapstructure:"ttl_hours"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
