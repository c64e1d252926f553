package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	backupDir := t.TempDir()
	path := writeConfigFile(t, `
backup_dir: `+backupDir+`
store_kind: neo4j
jwt_secret_key: secret
db_name: neo4j
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIHost != DefaultAPIHost || cfg.APIPort != DefaultAPIPort {
		t.Errorf("api defaults not applied: %s:%d", cfg.APIHost, cfg.APIPort)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("log level = %s", cfg.LogLevel)
	}
	if cfg.JWTAlgorithm != DefaultJWTAlgorithm {
		t.Errorf("jwt algorithm = %s", cfg.JWTAlgorithm)
	}
	if cfg.LockTTL() != time.Duration(DefaultLockTTLMinutes)*time.Minute {
		t.Errorf("lock ttl = %s", cfg.LockTTL())
	}
	if cfg.ConfigPath != path {
		t.Errorf("config path = %s", cfg.ConfigPath)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	backupDir := t.TempDir()
	valid := func() Config {
		return Config{
			BackupDir:      backupDir,
			StoreKind:      "postgresql",
			JWTSecretKey:   "secret",
			DBName:         "app",
			LockTTLMinutes: 120,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing backup dir", func(c *Config) { c.BackupDir = "" }, "backup_dir is required"},
		{"nonexistent backup dir", func(c *Config) { c.BackupDir = "/no/such/dir" }, "does not exist"},
		{"missing store kind", func(c *Config) { c.StoreKind = "" }, "store_kind is required"},
		{"unsupported store kind", func(c *Config) { c.StoreKind = "oracle" }, "store_kind must be one of"},
		{"missing jwt secret", func(c *Config) { c.JWTSecretKey = "" }, "jwt_secret_key is required"},
		{"missing db name", func(c *Config) { c.DBName = "" }, "db_name is required"},
		{"zero lock ttl", func(c *Config) { c.LockTTLMinutes = 0 }, "lock_ttl_minutes must be positive"},
		{"ssl cert without key", func(c *Config) { c.SSLCert = "/tmp/cert.pem" }, "both ssl_cert and ssl_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
