package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	DBDriver     string
	DBHost       string
	DBUser       string
	DBPassword   string
	DBName       string
	DBPort       string
	AppPort      string
	AppEnv       string
	StoreDriver  string
	SecretKey    string
	InternalKey  string
	RedisAddr    string
	KafkaBrokers []string
	NotifyTopic  string
	OTLPEndpoint string
	ServiceName  string
}

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBDriver:     getenv("DB_DRIVER", "postgres"),
		DBHost:       os.Getenv("DB_HOST"),
		DBUser:       os.Getenv("DB_USER"),
		DBPassword:   os.Getenv("DB_PASSWORD"),
		DBName:       os.Getenv("DB_NAME"),
		DBPort:       os.Getenv("DB_PORT"),
		AppPort:      getenv("APP_PORT", "8080"),
		AppEnv:       os.Getenv("APP_ENV"),
		StoreDriver:  getenv("STORE_DRIVER", StoreDriverPostgres),
		SecretKey:    os.Getenv("SECRET_KEY"),
		InternalKey:  os.Getenv("INTERNAL_SERVICE_KEY"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		KafkaBrokers: splitCSV(os.Getenv("KAFKA_BROKERS")),
		NotifyTopic:  getenv("NOTIFY_TOPIC", "storefront.notifications"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:  getenv("SERVICE_NAME", "storefront-be"),
	}

	if cfg.StoreDriver == StoreDriverPostgres && cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
