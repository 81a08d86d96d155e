package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type AuthConfig struct {
	AccessSecret string
}

type StorageMode string

const (
	StorageModeLocal StorageMode = "local"
	StorageModeGCS   StorageMode = "gcs"
)

type StorageConfig struct {
	Mode               StorageMode
	LocalDir           string
	PublicBaseURL      string
	GCSBucket          string
	GCSCredentialsFile string
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Storage     StorageConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")

	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("STORAGE_MODE", string(StorageModeLocal))
	v.SetDefault("STORAGE_LOCAL_DIR", "./media")
	v.SetDefault("STORAGE_PUBLIC_BASE_URL", "/media")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			AutoMigrate:     v.GetBool("DB_AUTO_MIGRATE"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Storage: StorageConfig{
			Mode:               StorageMode(v.GetString("STORAGE_MODE")),
			LocalDir:           v.GetString("STORAGE_LOCAL_DIR"),
			PublicBaseURL:      v.GetString("STORAGE_PUBLIC_BASE_URL"),
			GCSBucket:          v.GetString("GCS_BUCKET"),
			GCSCredentialsFile: v.GetString("GCS_CREDENTIALS_FILE"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	switch cfg.Storage.Mode {
	case StorageModeLocal:
		if cfg.Storage.LocalDir == "" {
			return fmt.Errorf("STORAGE_LOCAL_DIR is required for local storage")
		}
	case StorageModeGCS:
		if cfg.Storage.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required for gcs storage")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_MODE %q", cfg.Storage.Mode)
	}
	return nil
}
