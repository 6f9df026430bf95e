package config

import (
	"fmt"
	"os"
	"strconv"
)

type DBConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifeTime int // минут
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// TTL кэша отчётов, секунд.
	ReportTTLSec int
}

type IdentityConfig struct {
	BaseURL    string
	TimeoutSec int
}

type ServerConfig struct {
	GRPCAddr   string
	ExportAddr string
}

type LogConfig struct {
	Level  string
	Format string
}

type Config struct {
	DB       DBConfig
	Redis    RedisConfig
	Identity IdentityConfig
	Server   ServerConfig
	Log      LogConfig
}

func Load() (*Config, error) {
	cfg := &Config{
		DB: DBConfig{
			Host:            getEnv("DB_HOST", "postgres"),
			User:            getEnv("DB_USER", "cleanshift"),
			Password:        getEnv("DB_PASSWORD", "cleanshift"),
			Name:            getEnv("DB_NAME", "cleanshift_db"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			TimeZone:        getEnv("DB_TIMEZONE", "UTC"),
			Port:            getEnvInt("DB_PORT", 5432),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifeTime: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 30),
		},
		Redis: RedisConfig{
			Addr:         getEnv("REDIS_ADDR", "redis:6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvInt("REDIS_DB", 0),
			ReportTTLSec: getEnvInt("REPORT_CACHE_TTL_SEC", 60),
		},
		Identity: IdentityConfig{
			BaseURL:    getEnv("IDENTITY_BASE_URL", "http://identity:8080"),
			TimeoutSec: getEnvInt("IDENTITY_TIMEOUT_SEC", 5),
		},
		Server: ServerConfig{
			GRPCAddr:   getEnv("CORE_GRPC_ADDR", ":50051"),
			ExportAddr: getEnv("CORE_EXPORT_ADDR", ":8081"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// минимальная валидация
	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, fmt.Errorf("invalid DB config: host/user/name must not be empty")
	}
	if cfg.Identity.BaseURL == "" {
		return nil, fmt.Errorf("invalid identity config: base URL must not be empty")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
