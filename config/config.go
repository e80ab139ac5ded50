package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BrokerLocal = "local"
	BrokerRedis = "redis"
)

type Config struct {
	Port              string
	Environment       string
	AllowedOrigins    []string
	LogLevel          string
	LeaveOnDisconnect bool
	Broker            string
	Signal            SignalConfig
	Redis             RedisConfig
}

// SignalConfig holds the transport endpoint and destination paths.
type SignalConfig struct {
	Endpoint             string
	InboundDestination   string
	BroadcastDestination string

	PingInterval     time.Duration
	ReadTimeout      time.Duration
	MaxMessageBytes  int64
	SubscriberBuffer int

	PollTimeout    time.Duration
	PollSessionTTL time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Channel  string
}

func Load() *Config {
	// Parse allowed origins (comma-separated)
	originsStr := getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173,http://localhost:8080")
	var origins []string
	for _, origin := range strings.Split(originsStr, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}

	return &Config{
		Port:              getEnv("PORT", "8080"),
		Environment:       getEnv("ENVIRONMENT", "development"),
		AllowedOrigins:    origins,
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LeaveOnDisconnect: getEnvBool("LEAVE_ON_DISCONNECT", true),
		Broker:            strings.ToLower(getEnv("BROKER", BrokerLocal)),
		Signal: SignalConfig{
			Endpoint:             getEnv("SIGNAL_ENDPOINT", "/ws"),
			InboundDestination:   getEnv("SIGNAL_INBOUND_DESTINATION", "/app/message"),
			BroadcastDestination: getEnv("SIGNAL_BROADCAST_DESTINATION", "/topic/message"),
			PingInterval:         getEnvDuration("WS_PING_INTERVAL", 54*time.Second),
			ReadTimeout:          getEnvDuration("WS_READ_TIMEOUT", 60*time.Second),
			MaxMessageBytes:      int64(getEnvInt("WS_MAX_MESSAGE_BYTES", 64*1024)),
			SubscriberBuffer:     getEnvInt("SUBSCRIBER_BUFFER", 256),
			PollTimeout:          getEnvDuration("POLL_TIMEOUT", 25*time.Second),
			PollSessionTTL:       getEnvDuration("POLL_SESSION_TTL", 60*time.Second),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Channel:  getEnv("REDIS_CHANNEL", "signal:topic:message"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n < 0 {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
