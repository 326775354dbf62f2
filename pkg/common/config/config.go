package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProfileSourcePostgres = "postgres"
	ProfileSourceRemote   = "remote"
	ProfileSourceNone     = "none"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64
	RateLimitRPS   int
	RateLimitBurst int

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaBrokers           []string
	KafkaGroupID           string
	AssessmentRequestTopic string
	AssessmentResultTopic  string

	// Model artifacts and lookup tables
	ModelArtifactDir       string
	HeartFeaturesPath      string
	ExtractionPatternsPath string
	DefaultsPath           string

	// Profile store
	ProfileSource         string
	ProfileBaseURL        string
	ProfileClientID       string
	ProfileClientSecret   string
	ProfileTokenURL       string
	ProfileCacheTTL       time.Duration
	ProfileRequestTimeout time.Duration

	PersistAssessments bool
	PublishAssessments bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8090"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 30*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 8*1024*1024)),
		RateLimitRPS:   getIntEnv("RATE_LIMIT_RPS", 50),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 100),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "synaptica"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "synaptica123"),
		PostgresDB:       getEnv("POSTGRES_DB", "synaptica"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers:           getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID:           getEnv("KAFKA_GROUP_ID", "risk-assessment"),
		AssessmentRequestTopic: getEnv("ASSESSMENT_REQUEST_TOPIC", "assessment-requests"),
		AssessmentResultTopic:  getEnv("ASSESSMENT_RESULT_TOPIC", "assessment-results"),

		ModelArtifactDir:       getEnv("MODEL_ARTIFACT_DIR", "models"),
		HeartFeaturesPath:      getEnv("HEART_FEATURES_PATH", "models/heart_features.json"),
		ExtractionPatternsPath: getEnv("EXTRACTION_PATTERNS_PATH", ""),
		DefaultsPath:           getEnv("DEFAULTS_PATH", ""),

		ProfileSource:         strings.ToLower(getEnv("PROFILE_SOURCE", ProfileSourcePostgres)),
		ProfileBaseURL:        getEnv("PROFILE_BASE_URL", "http://localhost:5000"),
		ProfileClientID:       getEnv("PROFILE_CLIENT_ID", ""),
		ProfileClientSecret:   getEnv("PROFILE_CLIENT_SECRET", ""),
		ProfileTokenURL:       getEnv("PROFILE_TOKEN_URL", ""),
		ProfileCacheTTL:       getDuration("PROFILE_CACHE_TTL", 10*time.Minute),
		ProfileRequestTimeout: getDuration("PROFILE_REQUEST_TIMEOUT", 3*time.Second),

		PersistAssessments: getBoolEnv("PERSIST_ASSESSMENTS", true),
		PublishAssessments: getBoolEnv("PUBLISH_ASSESSMENTS", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
