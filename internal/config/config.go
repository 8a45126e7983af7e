package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Consul   ConsulConfig
	Remote   RemoteConfig
}

type ServerConfig struct {
	Port           string
	ServiceName    string
	ServiceID      string
	ServiceAddress string
}

type MongoDBConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
	PageTTL  time.Duration
}

type RabbitMQConfig struct {
	URI      string
	Exchange string
}

type ConsulConfig struct {
	Address string
}

// RemoteConfig points at the external collaborators: the remote
// configuration source (rules + store catalog) and the verse content
// provider.
type RemoteConfig struct {
	ConfigURL  string
	ContentURL string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			ServiceName:    getEnv("SERVICE_NAME", "recitation-service"),
			ServiceID:      getEnv("SERVICE_ID", "recitation-service-1"),
			ServiceAddress: getEnv("SERVICE_ADDRESS", "localhost"),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGO_URI", ""),
			Database: getEnv("MONGO_DATABASE", "recitation_service"),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDRESS", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			PageTTL:  time.Duration(getEnvInt("PAGE_CACHE_TTL_SECONDS", 3600)) * time.Second,
		},
		RabbitMQ: RabbitMQConfig{
			URI:      getEnv("RABBITMQ_URI", ""),
			Exchange: getEnv("RABBITMQ_EXCHANGE", ""),
		},
		Consul: ConsulConfig{
			Address: getEnv("CONSUL_ADDRESS", ""),
		},
		Remote: RemoteConfig{
			ConfigURL:  getEnv("CONFIG_SOURCE_URL", ""),
			ContentURL: getEnv("CONTENT_PROVIDER_URL", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
