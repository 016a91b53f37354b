package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
	DBSlowQueryMs     int
	DBLogQueries      bool

	SMTP      SMTPConfig
	Stripe    StripeConfig
	PayPal    PayPalConfig
	Datatrans DatatransConfig
	Scheduler SchedulerConfig
}

// SMTPConfig configures the outbound mail provider.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	Enabled  bool
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
}

type PayPalConfig struct {
	ClientID  string
	Secret    string
	BaseURL   string
	ReturnURL string
	CancelURL string
}

type DatatransConfig struct {
	MerchantID string
	Password   string
	BaseURL    string
	SuccessURL string
	ErrorURL   string
	CancelURL  string
}

// SchedulerConfig tunes the background job runner.
type SchedulerConfig struct {
	Enabled      bool
	BatchSize    int
	JobTimeout   time.Duration
	RenewSpec    string
	WarningSpec  string
	OverdueSpec  string
	ReminderSpec string
	PurgeSpec    string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "membership"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "membership"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 10),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 50),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 600),
		DBSlowQueryMs:     getenvInt("DATABASE_SLOW_QUERY_MS", 200),
		DBLogQueries:      getenvBool("DATABASE_LOG_QUERIES", false),

		SMTP: SMTPConfig{
			Host:     getenv("SMTP_HOST", "localhost"),
			Port:     getenv("SMTP_PORT", "1025"),
			Username: getenv("SMTP_USERNAME", ""),
			Password: getenv("SMTP_PASSWORD", ""),
			From:     getenv("SMTP_FROM", "noreply@membership.local"),
			Enabled:  getenvBool("SMTP_ENABLED", false),
		},
		Stripe: StripeConfig{
			SecretKey:     strings.TrimSpace(getenv("STRIPE_SECRET_KEY", "")),
			WebhookSecret: strings.TrimSpace(getenv("STRIPE_WEBHOOK_SECRET", "")),
			SuccessURL:    getenv("STRIPE_SUCCESS_URL", "http://localhost:8080/payments/success"),
			CancelURL:     getenv("STRIPE_CANCEL_URL", "http://localhost:8080/payments/cancel"),
		},
		PayPal: PayPalConfig{
			ClientID:  strings.TrimSpace(getenv("PAYPAL_CLIENT_ID", "")),
			Secret:    strings.TrimSpace(getenv("PAYPAL_SECRET", "")),
			BaseURL:   getenv("PAYPAL_BASE_URL", "https://api-m.sandbox.paypal.com"),
			ReturnURL: getenv("PAYPAL_RETURN_URL", "http://localhost:8080/payments/paypal/return"),
			CancelURL: getenv("PAYPAL_CANCEL_URL", "http://localhost:8080/payments/cancel"),
		},
		Datatrans: DatatransConfig{
			MerchantID: strings.TrimSpace(getenv("DATATRANS_MERCHANT_ID", "")),
			Password:   strings.TrimSpace(getenv("DATATRANS_PASSWORD", "")),
			BaseURL:    getenv("DATATRANS_BASE_URL", "https://api.sandbox.datatrans.com"),
			SuccessURL: getenv("DATATRANS_SUCCESS_URL", "http://localhost:8080/payments/success"),
			ErrorURL:   getenv("DATATRANS_ERROR_URL", "http://localhost:8080/payments/error"),
			CancelURL:  getenv("DATATRANS_CANCEL_URL", "http://localhost:8080/payments/cancel"),
		},
		Scheduler: SchedulerConfig{
			Enabled:      getenvBool("SCHEDULER_ENABLED", true),
			BatchSize:    getenvInt("SCHEDULER_BATCH_SIZE", 100),
			JobTimeout:   time.Duration(getenvInt("SCHEDULER_JOB_TIMEOUT_SECONDS", 300)) * time.Second,
			RenewSpec:    getenv("SCHEDULER_RENEW_SPEC", "5 2 * * *"),
			WarningSpec:  getenv("SCHEDULER_WARNING_SPEC", "0 6 * * *"),
			OverdueSpec:  getenv("SCHEDULER_OVERDUE_SPEC", "0 0 * * *"),
			ReminderSpec: getenv("SCHEDULER_REMINDER_SPEC", "0 9 * * *"),
			PurgeSpec:    getenv("SCHEDULER_PURGE_SPEC", "0 3 * * 0"),
		},
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
