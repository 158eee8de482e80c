package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DatabaseConfig PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN builds the lib/pq connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig broker connection settings
type MQTTConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	TLS      bool

	// Topics the subscriber attaches to (comma-separated via MQTT_TOPICS,
	// legacy single-topic fallback via MQTT_TOPIC)
	Topics []string

	// Topic names that select the routing class
	VitalsTopic string
	ECGTopic    string
}

// BrokerURL returns the paho broker URL (ssl:// when TLS is on)
func (c *MQTTConfig) BrokerURL() string {
	scheme := "tcp"
	if c.TLS {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.Port)
}

// HasCredentials reports whether the broker connection is configured.
// Host, username and password are all required; without them the
// subscriber is not started and the service serves queries only.
func (c *MQTTConfig) HasCredentials() bool {
	return c.Host != "" && c.Username != "" && c.Password != ""
}

// Config RPM backend service configuration
type Config struct {
	MQTT MQTTConfig

	DBEnabled bool
	Database  DatabaseConfig

	RedisEnabled bool
	Redis        RedisConfig

	// Redis Streams fan-out target for accepted vitals messages
	VitalsStream string

	HTTP struct {
		Addr string
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load reads configuration from environment variables with defaults
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.MQTT.Host = getEnv("MQTT_HOST", "")
	cfg.MQTT.Port = getEnvInt("MQTT_PORT", 8883)
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.TLS = getEnv("MQTT_TLS", "true") == "true"
	cfg.MQTT.Topics = parseTopics()
	cfg.MQTT.VitalsTopic = getEnv("VITALS_TOPIC", "patient/vitals")
	cfg.MQTT.ECGTopic = getEnv("ECG_TOPIC", "patient/ecg_stream")

	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "rpm")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 10)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 5)

	cfg.RedisEnabled = getEnv("REDIS_ENABLED", "false") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)
	cfg.VitalsStream = getEnv("VITALS_STREAM", "vitals:data:stream")

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8000")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

// parseTopics prefers MQTT_TOPICS=topic1,topic2 and falls back to the
// legacy single MQTT_TOPIC variable
func parseTopics() []string {
	if raw := strings.TrimSpace(os.Getenv("MQTT_TOPICS")); raw != "" {
		var topics []string
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				topics = append(topics, t)
			}
		}
		if len(topics) > 0 {
			return topics
		}
	}
	return []string{getEnv("MQTT_TOPIC", "patient/vitals")}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return defaultValue
}
