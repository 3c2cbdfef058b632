// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Report    ReportConfig    `mapstructure:"report"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
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

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// StaffCacheTTL is how long resolved staff phone numbers stay cached,
	// in seconds.
	StaffCacheTTL int `mapstructure:"staff_cache_ttl"`
}

// ElasticsearchConfig is optional; when no address is configured the
// dispatch audit trail is disabled.
type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	Index      string   `mapstructure:"index"`
}

// Enabled reports whether an audit cluster is configured.
func (e ElasticsearchConfig) Enabled() bool {
	return len(e.Addresses) > 0
}

// --- Messaging Gateway Config ---

// GatewayConfig selects and configures the outbound message provider.
type GatewayConfig struct {
	// Provider is "whatsapp" or "sns".
	Provider string `mapstructure:"provider"`

	WhatsApp struct {
		APIURL   string `mapstructure:"api_url"`
		APIToken string `mapstructure:"api_token"`
		Timeout  int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"whatsapp"`

	SNS struct {
		Region   string `mapstructure:"region"`
		SenderID string `mapstructure:"sender_id"`
	} `mapstructure:"sns"`
}

const (
	GatewayProviderWhatsApp = "whatsapp"
	GatewayProviderSNS      = "sns"
)

// --- Scheduler Config ---

// SchedulerConfig holds the trigger and dispatch pacing settings.
type SchedulerConfig struct {
	// Mode is "batch" (one daily pipeline run over today's due cards) or
	// "per-record" (one timer armed per unnotified card).
	Mode string `mapstructure:"mode"`
	// DailySpec is the cron expression for the daily trigger.
	DailySpec string `mapstructure:"daily_spec"`
	Timezone  string `mapstructure:"timezone"`
	// MessageDelay is the pause between consecutive sends, in milliseconds.
	MessageDelay int `mapstructure:"message_delay"`
	// DefaultPhoneNumber receives per-record reminders whose assignee has no
	// directory entry.
	DefaultPhoneNumber string      `mapstructure:"default_phone_number"`
	Retry              RetryConfig `mapstructure:"retry"`
}

const (
	SchedulerModeBatch     = "batch"
	SchedulerModePerRecord = "per-record"
)

type RetryConfig struct {
	MaxAttempts int `mapstructure:"max_attempts"`
	Backoff     int `mapstructure:"backoff"` // milliseconds
}

// ReportConfig holds settings for the retry-exhaustion email report.
type ReportConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		Region    string `mapstructure:"region"`
		FromEmail string `mapstructure:"from_email"`
		ToEmail   string `mapstructure:"to_email"`
	} `mapstructure:"email"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
