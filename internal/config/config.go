package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Port          string
	StorageDriver string // sqlite | redis | memory
	DBDSN         string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	StorageKey    string
	SessionPrefix string
	MediaDir      string

	LogLevel  string
	LogPretty bool
	LogFile   string

	RemoteAPIURL  string
	RemoteTimeout time.Duration
	EnrichBatch   int
	BcryptCost    int
}

func Load() Config {
	driver := strings.ToLower(getEnv("STORAGE_DRIVER", "sqlite"))
	switch driver {
	case "sqlite", "redis", "memory":
	default:
		driver = "sqlite"
	}
	cost := getEnvInt("BCRYPT_COST", bcrypt.DefaultCost)
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return Config{
		Port:          getEnv("PORT", "8081"),
		StorageDriver: driver,
		DBDSN:         getEnv("DB_DSN", "alquitones.db"), // sqlite file in project root
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		StorageKey:    getEnv("STORAGE_KEY", "alquitones:db"),
		SessionPrefix: getEnv("SESSION_PREFIX", "alquitones:session"),
		MediaDir:      getEnv("MEDIA_DIR", "media"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvBool("LOG_PRETTY", false),
		LogFile:   os.Getenv("LOG_FILE"),

		RemoteAPIURL:  strings.TrimRight(os.Getenv("REMOTE_API_URL"), "/"),
		RemoteTimeout: time.Duration(max(1, getEnvInt("REMOTE_TIMEOUT_SECONDS", 5))) * time.Second,
		EnrichBatch:   max(1, getEnvInt("ENRICH_BATCH_SIZE", 5)),
		BcryptCost:    cost,
	}
}

// Log writes the effective configuration. Secrets are masked.
func (c Config) Log(l zerolog.Logger) {
	redisPass := ""
	if c.RedisPassword != "" {
		redisPass = "***"
	}
	l.Info().
		Str("port", c.Port).
		Str("storage_driver", c.StorageDriver).
		Str("db_dsn", c.DBDSN).
		Str("redis_addr", c.RedisAddr).
		Str("redis_password", redisPass).
		Int("redis_db", c.RedisDB).
		Str("storage_key", c.StorageKey).
		Str("session_prefix", c.SessionPrefix).
		Str("media_dir", c.MediaDir).
		Str("log_level", c.LogLevel).
		Str("log_file", c.LogFile).
		Str("remote_api_url", c.RemoteAPIURL).
		Dur("remote_timeout", c.RemoteTimeout).
		Int("enrich_batch", c.EnrichBatch).
		Msg("config.loaded")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}
