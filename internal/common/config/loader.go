// internal/common/config/loader.go
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

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like WHATSAPP_API_TOKEN
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay, e.g. config.production.yaml
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig() // ignore error if not found

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the first location that has one, so the binary
// works from the repo root, cmd/ and test directories alike.
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

// Find project root by looking for go.mod
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

// expandEnvVars resolves ${VAR} placeholders left in yaml values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// overrideEmptyConfig fills secrets from plain env vars when the yaml left
// them empty.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Gateway.WhatsApp.APIToken == "" {
		if val := os.Getenv("WHATSAPP_API_TOKEN"); val != "" {
			cfg.Gateway.WhatsApp.APIToken = val
		}
	}
	if cfg.Gateway.WhatsApp.APIURL == "" {
		if val := os.Getenv("WHATSAPP_API_URL"); val != "" {
			cfg.Gateway.WhatsApp.APIURL = val
		}
	}

	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}

	if cfg.Scheduler.DefaultPhoneNumber == "" {
		if val := os.Getenv("DEFAULT_PHONE_NUMBER"); val != "" {
			cfg.Scheduler.DefaultPhoneNumber = val
		}
	}
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Redis.StaffCacheTTL == 0 {
		cfg.Database.Redis.StaffCacheTTL = 1800
	}
	if cfg.Database.Elasticsearch.Index == "" {
		cfg.Database.Elasticsearch.Index = "reminder-dispatch-attempts"
	}

	// Gateway defaults
	if cfg.Gateway.Provider == "" {
		cfg.Gateway.Provider = GatewayProviderWhatsApp
	}
	if cfg.Gateway.WhatsApp.Timeout == 0 {
		cfg.Gateway.WhatsApp.Timeout = 30000
	}

	// Scheduler defaults match the original deployment: 08:30 daily trigger,
	// 3 second gap between messages, hourly retries up to 3 attempts.
	if cfg.Scheduler.Mode == "" {
		cfg.Scheduler.Mode = SchedulerModeBatch
	}
	if cfg.Scheduler.DailySpec == "" {
		cfg.Scheduler.DailySpec = "30 8 * * *"
	}
	if cfg.Scheduler.MessageDelay == 0 {
		cfg.Scheduler.MessageDelay = 3000
	}
	if cfg.Scheduler.Retry.MaxAttempts == 0 {
		cfg.Scheduler.Retry.MaxAttempts = 3
	}
	if cfg.Scheduler.Retry.Backoff == 0 {
		cfg.Scheduler.Retry.Backoff = 3600000
	}

	// Server defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}

	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	switch cfg.Gateway.Provider {
	case GatewayProviderWhatsApp:
		if cfg.Gateway.WhatsApp.APIURL == "" {
			return fmt.Errorf("gateway.whatsapp.api_url is required")
		}
		if cfg.Gateway.WhatsApp.APIToken == "" {
			return fmt.Errorf("gateway.whatsapp.api_token is required")
		}
	case GatewayProviderSNS:
		if cfg.Gateway.SNS.Region == "" {
			return fmt.Errorf("gateway.sns.region is required")
		}
	default:
		return fmt.Errorf("unsupported gateway.provider: %s", cfg.Gateway.Provider)
	}

	switch cfg.Scheduler.Mode {
	case SchedulerModeBatch, SchedulerModePerRecord:
		// valid
	default:
		return fmt.Errorf("unsupported scheduler.mode: %s", cfg.Scheduler.Mode)
	}

	if cfg.Scheduler.Mode == SchedulerModePerRecord && cfg.Scheduler.DefaultPhoneNumber == "" {
		return fmt.Errorf("scheduler.default_phone_number is required in per-record mode")
	}

	if cfg.Report.Email.Enabled {
		if cfg.Report.Email.FromEmail == "" || cfg.Report.Email.ToEmail == "" {
			return fmt.Errorf("report.email.from_email and to_email are required when the report is enabled")
		}
		if cfg.Report.Email.Region == "" {
			return fmt.Errorf("report.email.region is required when the report is enabled")
		}
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetSeconds converts seconds from config to time.Duration
func GetSeconds(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
