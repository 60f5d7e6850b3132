package config

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("PROFILE", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ChatAPIBaseURL != "http://localhost:8000" {
		t.Fatalf("unexpected base url %q", cfg.ChatAPIBaseURL)
	}
	if cfg.ChatAPITimeout != 60*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.ChatAPITimeout)
	}
	if cfg.StorageBackend != StorageFile || cfg.Profile != "default" {
		t.Fatalf("unexpected storage defaults: backend=%q profile=%q", cfg.StorageBackend, cfg.Profile)
	}
}

func TestLoadConfig_RedisRequiresAddr(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", StorageRedis)
	t.Setenv("REDIS_ADDR", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error without REDIS_ADDR")
	}

	t.Setenv("REDIS_ADDR", "localhost:6379")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("unexpected redis addr %q", cfg.RedisAddr)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "memory", cfg: Config{StorageBackend: StorageMemory, Profile: "p"}},
		{name: "postgres without dsn", cfg: Config{StorageBackend: StoragePostgres, Profile: "p"}, wantErr: true},
		{name: "postgres", cfg: Config{StorageBackend: StoragePostgres, Profile: "p", DatabaseURL: "postgres://x"}},
		{name: "unknown", cfg: Config{StorageBackend: "etcd", Profile: "p"}, wantErr: true},
		{name: "empty profile", cfg: Config{StorageBackend: StorageFile}, wantErr: true},
	}
	for _, tc := range cases {
		err := tc.cfg.Validate()
		if (err != nil) != tc.wantErr {
			t.Fatalf("%s: wantErr=%v got %v", tc.name, tc.wantErr, err)
		}
	}
}
