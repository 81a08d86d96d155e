package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/vot")
	t.Setenv("JWT_ACCESS_SECRET", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HTTP.Host != "0.0.0.0" || cfg.HTTP.Port != 8080 {
		t.Fatalf("unexpected http config %+v", cfg.HTTP)
	}
	if cfg.Environment != "development" {
		t.Fatalf("expected development env, got %q", cfg.Environment)
	}
	if cfg.DB.ConnMaxLifetime != 30*time.Minute {
		t.Fatalf("expected 30m lifetime, got %s", cfg.DB.ConnMaxLifetime)
	}
	if cfg.Storage.Mode != StorageModeLocal {
		t.Fatalf("expected local storage, got %q", cfg.Storage.Mode)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/vot")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("STORAGE_MODE", "gcs")
	t.Setenv("GCS_BUCKET", "vot-photos")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.HTTP.Port)
	}
	if cfg.Storage.GCSBucket != "vot-photos" {
		t.Fatalf("expected bucket, got %q", cfg.Storage.GCSBucket)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "missing dsn", env: map[string]string{"JWT_ACCESS_SECRET": "s"}, want: "DB_DSN"},
		{name: "missing secret", env: map[string]string{"DB_DSN": "d"}, want: "JWT_ACCESS_SECRET"},
		{name: "gcs without bucket", env: map[string]string{"DB_DSN": "d", "JWT_ACCESS_SECRET": "s", "STORAGE_MODE": "gcs"}, want: "GCS_BUCKET"},
		{name: "unknown mode", env: map[string]string{"DB_DSN": "d", "JWT_ACCESS_SECRET": "s", "STORAGE_MODE": "ftp"}, want: "STORAGE_MODE"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("DB_DSN", "")
			t.Setenv("JWT_ACCESS_SECRET", "")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %s, got %v", tc.want, err)
			}
		})
	}
}
