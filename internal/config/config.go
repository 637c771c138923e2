package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// SecretPrefix marks a value that names a Secret Manager secret instead of
// holding the secret itself, e.g. STRIPESECRETKEY=sm://stripe-secret-key.
const SecretPrefix = "sm://"

type Config struct {
	ProjectID  string
	LogLevel   string
	LogFormat  string
	Port       string
	Timezone   string
	KMSKeyName string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripePriceID       string
	StripeSuccessURL    string
	StripeCancelURL     string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	WorkerSchedule    string
	WorkerConcurrency int
	WorkerRate        float64
	WarningLeadDays   int
	BreakerCooldown   time.Duration
}

// New reads the environment. A .env file in the working directory is loaded
// first when present; real environment variables win over it.
func New() *Config {
	_ = godotenv.Load()

	return &Config{
		ProjectID:  os.Getenv("PROJECTID"),
		LogLevel:   os.Getenv("LOGLEVEL"),
		LogFormat:  getEnv("LOGFORMAT", "json"),
		Port:       getEnv("PORT", "8080"),
		Timezone:   getEnv("TIMEZONE", "UTC"),
		KMSKeyName: os.Getenv("KMSKEYNAME"),

		StripeSecretKey:     os.Getenv("STRIPESECRETKEY"),
		StripeWebhookSecret: os.Getenv("STRIPEWEBHOOKSECRET"),
		StripePriceID:       os.Getenv("STRIPEPRICEID"),
		StripeSuccessURL:    os.Getenv("STRIPESUCCESSURL"),
		StripeCancelURL:     os.Getenv("STRIPECANCELURL"),

		SMTPHost:     os.Getenv("SMTPHOST"),
		SMTPPort:     getEnv("SMTPPORT", "587"),
		SMTPUsername: os.Getenv("SMTPUSERNAME"),
		SMTPPassword: os.Getenv("SMTPPASSWORD"),
		SMTPFrom:     os.Getenv("SMTPFROM"),

		WorkerSchedule:    getEnv("WORKERSCHEDULE", "5 0 * * *"),
		WorkerConcurrency: getInt("WORKERCONCURRENCY", 8),
		WorkerRate:        getFloat("WORKERRATE", 20),
		WarningLeadDays:   getInt("WARNINGLEADDAYS", 3),
		BreakerCooldown:   getDuration("BREAKERCOOLDOWN", 10*time.Minute),
	}
}

// Location resolves Timezone, falling back to UTC for unknown names.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return fallback
}
