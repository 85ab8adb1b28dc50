package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/prepmyapp/notification/internal/domain"
)

// Config holds all application configuration.
// In Go, we use structs to group related data.
// The `mapstructure` tags tell Viper how to map env vars to struct fields.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	SendGrid SendGridConfig
	Firebase FirebaseConfig
	Twilio   TwilioConfig
	Audit    AuditConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Port         int    `mapstructure:"PORT"`
	Environment  string `mapstructure:"ENVIRONMENT"`
	AllowOrigins string `mapstructure:"ALLOW_ORIGINS"`
}

type DatabaseConfig struct {
	URL             string `mapstructure:"DATABASE_URL"`
	MaxOpenConns    int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime int    `mapstructure:"DB_CONN_MAX_LIFETIME"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"REDIS_ADDR"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
	TTL      time.Duration
	TTLSecs  int `mapstructure:"REDIS_CACHE_TTL_SECONDS"`
}

type SendGridConfig struct {
	APIKey    string `mapstructure:"SENDGRID_API_KEY"`
	FromEmail string `mapstructure:"SENDGRID_FROM_EMAIL"`
	FromName  string `mapstructure:"SENDGRID_FROM_NAME"`
	// Templates maps a domain.EmailTemplate to a SendGrid dynamic
	// template id, read from SENDGRID_TEMPLATE_<TEMPLATE_NAME>
	// (SENDGRID_TEMPLATE_GENERIC for the unspecified template).
	Templates map[domain.EmailTemplate]string
}

type FirebaseConfig struct {
	CredentialsPath string `mapstructure:"FIREBASE_CREDENTIALS_PATH"`
	CredentialsJSON string `mapstructure:"FIREBASE_CREDENTIALS_JSON"` // Alternative: JSON string for Replit Secrets
}

type TwilioConfig struct {
	AccountSID string `mapstructure:"TWILIO_ACCOUNT_SID"`
	AuthToken  string `mapstructure:"TWILIO_AUTH_TOKEN"`
	FromNumber string `mapstructure:"TWILIO_FROM_NUMBER"`
	RateLimit  int    `mapstructure:"TWILIO_RATE_LIMIT"`
}

type AuditConfig struct {
	BaseURL string `mapstructure:"AUDIT_SERVICE_URL"`
	APIKey  string `mapstructure:"AUDIT_SERVICE_API_KEY"`
}

type AuthConfig struct {
	JWTSecret string   `mapstructure:"JWT_SECRET"`
	APIKeys   []string // Parsed from comma-separated INTERNAL_API_KEYS
}

// emailTemplateEnvNames maps each domain.EmailTemplate to the
// environment variable carrying its SendGrid dynamic template id.
var emailTemplateEnvNames = map[domain.EmailTemplate]string{
	domain.EmailTemplateAdminInvite:   "SENDGRID_TEMPLATE_ADMIN_INVITE",
	domain.EmailTemplatePartnerInvite: "SENDGRID_TEMPLATE_PARTNER_INVITE",
	domain.EmailTemplatePasswordReset: "SENDGRID_TEMPLATE_PASSWORD_RESET",
	domain.EmailTemplateMFACode:       "SENDGRID_TEMPLATE_MFA_CODE",
	domain.EmailTemplateAccountLocked: "SENDGRID_TEMPLATE_ACCOUNT_LOCKED",
	domain.EmailTemplateUnspecified:   "SENDGRID_TEMPLATE_GENERIC",
}

// Load reads configuration from environment variables.
// This follows the 12-factor app methodology.
func Load() (*Config, error) {
	// Set defaults
	viper.SetDefault("PORT", 5003)
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 20)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", 300) // 5 minutes in seconds
	viper.SetDefault("ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5001")
	viper.SetDefault("SENDGRID_FROM_NAME", "PrepMyApp")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_CACHE_TTL_SECONDS", 300)
	viper.SetDefault("TWILIO_RATE_LIMIT", 10)

	// Read from .env file if it exists (for local development)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")

	// Ignore error if .env doesn't exist - we'll use env vars
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Enable reading from environment variables
	viper.AutomaticEnv()

	cfg := &Config{}

	if err := viper.Unmarshal(&cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to unmarshal server config: %w", err)
	}
	if err := viper.Unmarshal(&cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to unmarshal database config: %w", err)
	}

	// Build DATABASE_URL from individual PG* variables if not set (for Replit)
	if cfg.Database.URL == "" {
		pgHost := viper.GetString("PGHOST")
		pgPort := viper.GetString("PGPORT")
		pgUser := viper.GetString("PGUSER")
		pgPassword := viper.GetString("PGPASSWORD")
		pgDatabase := viper.GetString("PGDATABASE")

		if pgHost != "" && pgDatabase != "" {
			if pgPort == "" {
				pgPort = "5432"
			}
			cfg.Database.URL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=require",
				pgUser, pgPassword, pgHost, pgPort, pgDatabase)
		}
	}

	if err := viper.Unmarshal(&cfg.Redis); err != nil {
		return nil, fmt.Errorf("failed to unmarshal redis config: %w", err)
	}
	cfg.Redis.TTL = time.Duration(cfg.Redis.TTLSecs) * time.Second

	if err := viper.Unmarshal(&cfg.SendGrid); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sendgrid config: %w", err)
	}
	if err := viper.Unmarshal(&cfg.Firebase); err != nil {
		return nil, fmt.Errorf("failed to unmarshal firebase config: %w", err)
	}
	if err := viper.Unmarshal(&cfg.Twilio); err != nil {
		return nil, fmt.Errorf("failed to unmarshal twilio config: %w", err)
	}
	if err := viper.Unmarshal(&cfg.Audit); err != nil {
		return nil, fmt.Errorf("failed to unmarshal audit config: %w", err)
	}
	if err := viper.Unmarshal(&cfg.Auth); err != nil {
		return nil, fmt.Errorf("failed to unmarshal auth config: %w", err)
	}

	// Read secrets directly from environment
	// (Viper's Unmarshal doesn't properly read env vars for nested struct fields)
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = viper.GetString("JWT_SECRET")
	}
	if cfg.SendGrid.APIKey == "" {
		cfg.SendGrid.APIKey = viper.GetString("SENDGRID_API_KEY")
	}
	if cfg.Firebase.CredentialsJSON == "" {
		cfg.Firebase.CredentialsJSON = viper.GetString("FIREBASE_CREDENTIALS_JSON")
	}
	if cfg.Firebase.CredentialsPath == "" {
		cfg.Firebase.CredentialsPath = viper.GetString("FIREBASE_CREDENTIALS_PATH")
	}
	if cfg.Twilio.AccountSID == "" {
		cfg.Twilio.AccountSID = viper.GetString("TWILIO_ACCOUNT_SID")
	}
	if cfg.Twilio.AuthToken == "" {
		cfg.Twilio.AuthToken = viper.GetString("TWILIO_AUTH_TOKEN")
	}
	if cfg.Audit.APIKey == "" {
		cfg.Audit.APIKey = viper.GetString("AUDIT_SERVICE_API_KEY")
	}

	cfg.SendGrid.Templates = make(map[domain.EmailTemplate]string, len(emailTemplateEnvNames))
	for template, envName := range emailTemplateEnvNames {
		if id := viper.GetString(envName); id != "" {
			cfg.SendGrid.Templates[template] = id
		}
	}

	// Parse comma-separated API keys
	apiKeysStr := viper.GetString("INTERNAL_API_KEYS")
	if apiKeysStr != "" {
		cfg.Auth.APIKeys = strings.Split(apiKeysStr, ",")
		for i, key := range cfg.Auth.APIKeys {
			cfg.Auth.APIKeys[i] = strings.TrimSpace(key)
		}
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
// In Go, methods are defined outside the struct, with a receiver.
func (c *Config) Validate() error {
	var missing []string

	// In production, only DATABASE_URL is strictly required.
	// The provider integrations are optional; the service degrades to
	// fewer working channels rather than refusing to start.
	if c.Server.Environment == "production" {
		if c.Database.URL == "" {
			missing = append(missing, "DATABASE_URL")
		}
		if c.Auth.JWTSecret == "" {
			log.Warn().Msg("JWT_SECRET not set, JWT authentication will not work")
		}
		if c.SendGrid.APIKey == "" {
			log.Warn().Msg("SENDGRID_API_KEY not set, email notifications will not work")
		}
		if c.Twilio.AccountSID == "" {
			log.Warn().Msg("TWILIO_ACCOUNT_SID not set, SMS notifications will not work")
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
