package config

import (
	"os"
	"strconv"
)

type Config struct {
	APIPort     string
	LogLevel    string
	ServiceName string
	APIKey      string

	OpenAIBaseURL     string
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAITemperature float64
	OpenAITimeoutSec  int

	HFBaseURL  string
	HFAPIToken string
	HFModel    string

	DefaultAgent         string
	AgentTimeoutSec      int
	ClassifierTimeoutSec int
	AgentProfilesPath    string

	RateLimitPerMinute int
	RateLimitPerHour   int
	RateLimitPerDay    int

	APIRateLimitRPS    int
	APIRateLimitBurst  int
	APIMaxInFlight     int
	APIQueueTimeoutMS  int

	PostgresDSN string

	NATSURL     string
	NATSSubject string

	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	ComputerUseEnabled    bool
	ComputerUseSafetyMode bool
	MCPServerURL          string

	MetricsNamespace string
}

func Load() Config {
	return Config{
		APIPort:     mustEnv("API_PORT", "8080"),
		LogLevel:    mustEnv("LOG_LEVEL", "info"),
		ServiceName: mustEnv("SERVICE_NAME", "agent-orchestrator"),
		APIKey:      mustEnv("API_KEY", ""),

		OpenAIBaseURL:     mustEnv("OPENAI_BASE_URL", "https://api.openai.com"),
		OpenAIAPIKey:      mustEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       mustEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAITemperature: mustEnvFloat("OPENAI_TEMPERATURE", 0.7),
		OpenAITimeoutSec:  mustEnvInt("OPENAI_TIMEOUT_SECONDS", 60),

		HFBaseURL:  mustEnv("HF_BASE_URL", "https://api-inference.huggingface.co"),
		HFAPIToken: mustEnv("HF_API_TOKEN", ""),
		HFModel:    mustEnv("HF_MODEL", "mistralai/Mistral-7B-Instruct-v0.3"),

		DefaultAgent:         mustEnv("DEFAULT_AGENT", "knowledge"),
		AgentTimeoutSec:      mustEnvInt("AGENT_TIMEOUT_SECONDS", 45),
		ClassifierTimeoutSec: mustEnvInt("CLASSIFIER_TIMEOUT_SECONDS", 15),
		AgentProfilesPath:    mustEnv("AGENT_PROFILES_PATH", ""),

		RateLimitPerMinute: mustEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		RateLimitPerHour:   mustEnvInt("RATE_LIMIT_PER_HOUR", 1000),
		RateLimitPerDay:    mustEnvInt("RATE_LIMIT_PER_DAY", 10000),

		APIRateLimitRPS:   mustEnvInt("API_RATE_LIMIT_RPS", 50),
		APIRateLimitBurst: mustEnvInt("API_RATE_LIMIT_BURST", 100),
		APIMaxInFlight:    mustEnvInt("API_MAX_IN_FLIGHT", 64),
		APIQueueTimeoutMS: mustEnvInt("API_QUEUE_TIMEOUT_MS", 200),

		PostgresDSN: mustEnv("POSTGRES_DSN", ""),

		NATSURL:     mustEnv("NATS_URL", ""),
		NATSSubject: mustEnv("NATS_SUBJECT", "orchestrator.turns"),

		Neo4jURI:      mustEnv("NEO4J_URI", ""),
		Neo4jUser:     mustEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword: mustEnv("NEO4J_PASSWORD", ""),

		ComputerUseEnabled:    mustEnvBool("COMPUTER_USE_ENABLED", false),
		ComputerUseSafetyMode: mustEnvBool("COMPUTER_USE_SAFETY_MODE", true),
		MCPServerURL:          mustEnv("MCP_SERVER_URL", ""),

		MetricsNamespace: mustEnv("METRICS_NAMESPACE", "aorch"),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
