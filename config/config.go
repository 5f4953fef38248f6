package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Env        string
	ServerPort int
	Database   DatabaseConfig
	Auth       AuthConfig
	Storage    StorageConfig
	Events     EventsConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string

	// UseSSL selects sslmode=require instead of disable.
	UseSSL bool

	// UsePooler marks the target as a transaction pooler (pgbouncer).
	// Reported by the database health endpoint.
	UsePooler bool

	// LibpqCompat adds the libpq compatibility flag some managed
	// poolers need to accept TLS connections.
	LibpqCompat bool
}

type AuthConfig struct {
	// Secret signs session tokens. The server refuses to start
	// without it.
	Secret string

	// TokenTTLHours bounds session lifetime.
	TokenTTLHours int
}

type StorageConfig struct {
	// Backend selects the object store: "minio", "gcs" or "" for none.
	Backend string

	// StrictDelete makes a storage delete failure abort image removal
	// instead of proceeding with the database delete.
	StrictDelete bool

	Minio MinioConfig
	GCS   GCSConfig
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool

	// PublicBaseURL is the externally reachable base used to derive
	// object URLs without a round trip.
	PublicBaseURL string
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

type EventsConfig struct {
	// Backend selects the notification broker: "rabbitmq", "pubsub"
	// or "" for none.
	Backend string

	// Topic is the channel content-change notifications are sent to.
	Topic string

	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
}

type PubSubConfig struct {
	ProjectID       string
	CredentialsFile string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	return Config{
		Env:        getEnv("ENV", "development"),
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnvInt("DB_PORT", 5432),
			User:        getEnv("DB_USER", "backoffice"),
			Password:    getEnv("DB_PASSWORD", "password"),
			DBName:      getEnv("DB_NAME", "backoffice_db"),
			UseSSL:      getEnvBool("DB_USE_SSL", false),
			UsePooler:   getEnvBool("DB_USE_POOLER", false),
			LibpqCompat: getEnvBool("DB_LIBPQ_COMPAT", false),
		},
		Auth: AuthConfig{
			Secret:        os.Getenv("AUTH_SECRET"),
			TokenTTLHours: getEnvInt("AUTH_TOKEN_TTL_HOURS", 24),
		},
		Storage: StorageConfig{
			Backend:      getEnv("STORAGE_BACKEND", ""),
			StrictDelete: getEnvBool("STORAGE_STRICT_DELETE", false),
			Minio: MinioConfig{
				Endpoint:      getEnv("MINIO_ENDPOINT", ""),
				AccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey:     getEnv("MINIO_SECRET_KEY", ""),
				Bucket:        getEnv("MINIO_BUCKET", "portfolio"),
				UseSSL:        getEnvBool("MINIO_USE_SSL", false),
				PublicBaseURL: getEnv("MINIO_PUBLIC_BASE_URL", ""),
			},
			GCS: GCSConfig{
				Bucket:          getEnv("GCS_BUCKET", ""),
				ProjectID:       getEnv("GCS_PROJECT_ID", ""),
				CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
			},
		},
		Events: EventsConfig{
			Backend: getEnv("EVENTS_BACKEND", ""),
			Topic:   getEnv("EVENTS_TOPIC", "content-changes"),
			RabbitMQ: RabbitMQConfig{
				URL:             getEnv("RABBITMQ_URL", ""),
				QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
				QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTO_DELETE", false),
			},
			PubSub: PubSubConfig{
				ProjectID:       getEnv("PUBSUB_PROJECT_ID", ""),
				CredentialsFile: getEnv("PUBSUB_CREDENTIALS_FILE", ""),
			},
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}
