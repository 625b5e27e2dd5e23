package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDev        = "dev"
	EnvProduction = "production"
)

type Config struct {
	Env        string
	ServerPort int
	JWTSecret  string
	Database   DatabaseConfig
	Inference  InferenceConfig
	Storage    StorageConfig
	MQ         MQConfig
	Log        LogConfig
}

// IsProduction reports whether session cookies must be marked Secure.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	UseSSL     bool
	SQLitePath string
}

type InferenceConfig struct {
	Provider            string
	HuggingFaceAPIKey   string
	HuggingFaceModelURL string
	OpenAIAPIKey        string
	OpenAIBaseURL       string
	OpenAIModel         string
}

type StorageConfig struct {
	Backend string
	Minio   MinioConfig
	GCS     GCSConfig
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

type MQConfig struct {
	Backend  string
	Channel  string
	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
	PrefetchCount   int
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

type LogConfig struct {
	Level  string
	Format string
}

func init() {
	viper.AutomaticEnv()
	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", EnvDev)
	v.SetDefault("SERVER_PORT", 8080)

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "kodbank")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "kodbank_db")
	v.SetDefault("DB_USE_SSL", false)
	v.SetDefault("SQLITE_PATH", "kodbank.db")

	v.SetDefault("INFERENCE_PROVIDER", "huggingface")
	v.SetDefault("HUGGINGFACE_MODEL_URL", "https://api-inference.huggingface.co/models/microsoft/DialoGPT-medium")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")

	v.SetDefault("STORAGE_BACKEND", "none")
	v.SetDefault("MINIO_BUCKET", "kodbank-statements")
	v.SetDefault("GCS_BUCKET", "kodbank-statements")

	v.SetDefault("MQ_BACKEND", "none")
	v.SetDefault("MQ_CHANNEL", "kodbank.events")
	v.SetDefault("RABBITMQ_QUEUE_DURABLE", true)
	v.SetDefault("RABBITMQ_PREFETCH_COUNT", 10)
	v.SetDefault("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
}

// LoadConfig reads configuration from the environment. Flags bound with
// viper.BindPFlag take precedence over environment variables.
func LoadConfig() Config {
	if os.Getenv("APP_ENV") == EnvDev {
		godotenv.Load()
	}
	return load(viper.GetViper())
}

func load(v *viper.Viper) Config {
	dbConfig := DatabaseConfig{
		Driver:     strings.ToLower(strings.TrimSpace(v.GetString("DB_DRIVER"))),
		Host:       v.GetString("DB_HOST"),
		Port:       v.GetInt("DB_PORT"),
		User:       v.GetString("DB_USER"),
		Password:   v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		UseSSL:     v.GetBool("DB_USE_SSL"),
		SQLitePath: v.GetString("SQLITE_PATH"),
	}

	inferenceConfig := InferenceConfig{
		Provider:            strings.ToLower(strings.TrimSpace(v.GetString("INFERENCE_PROVIDER"))),
		HuggingFaceAPIKey:   v.GetString("HUGGINGFACE_API_KEY"),
		HuggingFaceModelURL: v.GetString("HUGGINGFACE_MODEL_URL"),
		OpenAIAPIKey:        v.GetString("OPENAI_API_KEY"),
		OpenAIBaseURL:       v.GetString("OPENAI_BASE_URL"),
		OpenAIModel:         v.GetString("OPENAI_MODEL"),
	}

	storageConfig := StorageConfig{
		Backend: strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_BACKEND"))),
		Minio: MinioConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
		},
		GCS: GCSConfig{
			Bucket:          v.GetString("GCS_BUCKET"),
			ProjectID:       v.GetString("GCS_PROJECT_ID"),
			CredentialsFile: v.GetString("GCS_CREDENTIALS_FILE"),
		},
	}

	mqConfig := MQConfig{
		Backend: strings.ToLower(strings.TrimSpace(v.GetString("MQ_BACKEND"))),
		Channel: v.GetString("MQ_CHANNEL"),
		RabbitMQ: RabbitMQConfig{
			URL:             v.GetString("RABBITMQ_URL"),
			QueueDurable:    v.GetBool("RABBITMQ_QUEUE_DURABLE"),
			QueueAutoDelete: v.GetBool("RABBITMQ_QUEUE_AUTO_DELETE"),
			PrefetchCount:   v.GetInt("RABBITMQ_PREFETCH_COUNT"),
		},
		PubSub: PubSubConfig{
			ProjectID:          v.GetString("PUBSUB_PROJECT_ID"),
			CredentialsFile:    v.GetString("PUBSUB_CREDENTIALS_FILE"),
			SubscriptionSuffix: v.GetString("PUBSUB_SUBSCRIPTION_SUFFIX"),
		},
	}

	return Config{
		Env:        strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV"))),
		ServerPort: v.GetInt("SERVER_PORT"),
		JWTSecret:  strings.TrimSpace(v.GetString("JWT_SECRET")),
		Database:   dbConfig,
		Inference:  inferenceConfig,
		Storage:    storageConfig,
		MQ:         mqConfig,
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}
