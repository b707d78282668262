package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"qrdine-order-service/internal/storage"
)

type Config struct {
	Env         string
	LogLevel    string
	HTTPAddr    string
	DatabaseURL string

	DatabaseMaxConns    int32
	DatabaseAutoMigrate bool

	JWTSecret          string
	JWTExpirySeconds   int64
	ReceiptTokenSecret string
	ReceiptTokenTTL    time.Duration
	StaffAPIKey        string
	KitchenAPIKey      string

	RabbitMQURL        string
	RabbitMQWorkerMode string
	CorsAllowedOrigins []string

	WSHeartbeatInterval  time.Duration
	SessionIdleTTL       time.Duration
	SessionSweepInterval time.Duration

	CatalogLatency      time.Duration
	WaiterCallWindow    time.Duration
	PromoRotateInterval time.Duration
	OrderETA            time.Duration
	TaxRate             float64
	BcryptCost          int

	ObjectStoreEndpoint        string
	ObjectStoreRegion          string
	ObjectStoreAccessKeyID     string
	ObjectStoreSecretAccessKey string
	ObjectStoreBucket          string
	ObjectStorePublicBaseURL   string
	ObjectStoreStorageClass    string
}

// ObjectStore returns the receipt bucket settings.
func (c Config) ObjectStore() storage.Config {
	return storage.Config{
		Endpoint:        c.ObjectStoreEndpoint,
		Region:          c.ObjectStoreRegion,
		AccessKeyID:     c.ObjectStoreAccessKeyID,
		SecretAccessKey: c.ObjectStoreSecretAccessKey,
		Bucket:          c.ObjectStoreBucket,
		PublicBaseURL:   c.ObjectStorePublicBaseURL,
		StorageClass:    c.ObjectStoreStorageClass,
	}
}

func Load() Config {
	cfg := Config{
		Env:         getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", ""),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8086"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		DatabaseMaxConns:    int32(getEnvInt64("DB_MAX_CONNS", 10)),
		DatabaseAutoMigrate: getEnvBool("DB_AUTO_MIGRATE", false),

		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTExpirySeconds:   getEnvInt64("JWT_EXPIRY", 4*3600),
		ReceiptTokenSecret: getEnv("RECEIPT_TOKEN_SECRET", ""),
		ReceiptTokenTTL:    getEnvDuration("RECEIPT_TOKEN_TTL", 24*time.Hour),
		StaffAPIKey:        getEnv("STAFF_API_KEY", ""),
		KitchenAPIKey:      getEnv("KITCHEN_API_KEY", ""),

		RabbitMQURL:        getEnv("RABBITMQ_URL", ""),
		RabbitMQWorkerMode: getEnv("RABBITMQ_WORKER_MODE", "daemon"),
		CorsAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),

		WSHeartbeatInterval:  getEnvDuration("WS_HEARTBEAT_INTERVAL", 30*time.Second),
		SessionIdleTTL:       getEnvDuration("SESSION_IDLE_TTL", 2*time.Hour),
		SessionSweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute),

		CatalogLatency:      getEnvDuration("CATALOG_LATENCY", 0),
		WaiterCallWindow:    getEnvDuration("WAITER_CALL_WINDOW", 300*time.Second),
		PromoRotateInterval: getEnvDuration("PROMO_ROTATE_INTERVAL", 5*time.Second),
		OrderETA:            getEnvDuration("ORDER_ETA", 30*time.Minute),
		TaxRate:             getEnvFloat("TAX_RATE", 0.10),
		BcryptCost:          int(getEnvInt64("BCRYPT_COST", 10)),

		ObjectStoreEndpoint:        getEnvFirst([]string{"OBJECT_STORE_ENDPOINT", "R2_S3_ENDPOINT"}, ""),
		ObjectStoreRegion:          getEnvFirst([]string{"OBJECT_STORE_REGION", "R2_REGION"}, "auto"),
		ObjectStoreAccessKeyID:     getEnvFirst([]string{"OBJECT_STORE_ACCESS_KEY_ID", "R2_ACCESS_KEY_ID"}, ""),
		ObjectStoreSecretAccessKey: getEnvFirst([]string{"OBJECT_STORE_SECRET_ACCESS_KEY", "R2_SECRET_ACCESS_KEY"}, ""),
		ObjectStoreBucket:          getEnvFirst([]string{"OBJECT_STORE_BUCKET", "R2_BUCKET"}, ""),
		ObjectStorePublicBaseURL:   getEnvFirst([]string{"OBJECT_STORE_PUBLIC_BASE_URL", "R2_PUBLIC_BASE_URL"}, ""),
		ObjectStoreStorageClass:    getEnvFirst([]string{"OBJECT_STORE_STORAGE_CLASS", "R2_STORAGE_CLASS"}, "STANDARD"),
	}

	// Receipt links fall back to the JWT secret so one secret is enough in dev.
	if cfg.ReceiptTokenSecret == "" {
		cfg.ReceiptTokenSecret = cfg.JWTSecret
	}
	if cfg.TaxRate < 0 || cfg.TaxRate >= 1 {
		cfg.TaxRate = 0.10
	}
	if cfg.JWTExpirySeconds <= 0 {
		cfg.JWTExpirySeconds = 4 * 3600
	}

	if strings.TrimSpace(cfg.ObjectStoreEndpoint) == "" {
		accountID := strings.TrimSpace(os.Getenv("R2_ACCOUNT_ID"))
		if accountID != "" {
			cfg.ObjectStoreEndpoint = "https://" + accountID + ".r2.cloudflarestorage.com"
		}
	}

	return cfg
}

func (c Config) JWTExpiry() time.Duration {
	return time.Duration(c.JWTExpirySeconds) * time.Second
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvFirst(keys []string, fallback string) string {
	for _, k := range keys {
		value := strings.TrimSpace(os.Getenv(k))
		if value != "" {
			return value
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func splitCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
