package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Config holds the runtime settings of the marketplace server.
type Config struct {
	AppPort     string
	DBDriver    string
	DatabaseDSN string

	JWTSecret          string
	TokenTTL           time.Duration
	AuthHeader         string
	AllowedEmailDomain string
	BcryptCost         int

	RecaptchaSecret    string
	RecaptchaVerifyURL string
	CASValidateURL     string
	CASServiceURL      string
	FrontendURL        string

	RabbitMQURL    string
	EventsExchange string

	LogLevel    string
	CORSOrigins string
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "file:campusmart.db")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("AUTH_HEADER", "token")
	v.SetDefault("ALLOWED_EMAIL_DOMAIN", "iiit.ac.in")
	v.SetDefault("BCRYPT_COST", bcrypt.DefaultCost)
	v.SetDefault("RECAPTCHA_SECRET", "")
	v.SetDefault("RECAPTCHA_VERIFY_URL", "https://www.google.com/recaptcha/api/siteverify")
	v.SetDefault("CAS_VALIDATE_URL", "https://login.iiit.ac.in/cas/serviceValidate")
	v.SetDefault("CAS_SERVICE_URL", "http://localhost:5173/cas")
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("EVENTS_EXCHANGE", "campusmart.events")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ORIGINS", "*")
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		AppPort:            v.GetString("APP_PORT"),
		DBDriver:           strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseDSN:        v.GetString("DATABASE_DSN"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		TokenTTL:           v.GetDuration("TOKEN_TTL"),
		AuthHeader:         v.GetString("AUTH_HEADER"),
		AllowedEmailDomain: strings.ToLower(strings.TrimPrefix(v.GetString("ALLOWED_EMAIL_DOMAIN"), "@")),
		BcryptCost:         v.GetInt("BCRYPT_COST"),
		RecaptchaSecret:    v.GetString("RECAPTCHA_SECRET"),
		RecaptchaVerifyURL: v.GetString("RECAPTCHA_VERIFY_URL"),
		CASValidateURL:     v.GetString("CAS_VALIDATE_URL"),
		CASServiceURL:      v.GetString("CAS_SERVICE_URL"),
		FrontendURL:        strings.TrimRight(v.GetString("FRONTEND_URL"), "/"),
		RabbitMQURL:        v.GetString("RABBITMQ_URL"),
		EventsExchange:     v.GetString("EVENTS_EXCHANGE"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		CORSOrigins:        v.GetString("CORS_ORIGINS"),
	}
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want sqlite or postgres)", c.DBDriver)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.AuthHeader == "" {
		return fmt.Errorf("AUTH_HEADER must not be empty")
	}
	return nil
}

// CaptchaEnabled reports whether login tokens are checked against reCAPTCHA.
func (c *Config) CaptchaEnabled() bool {
	return c.RecaptchaSecret != ""
}

// EventsEnabled reports whether marketplace events go to RabbitMQ.
func (c *Config) EventsEnabled() bool {
	return c.RabbitMQURL != ""
}
