package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}
	if cfg.App.Port != "5000" {
		t.Fatalf("expected default port 5000, got %q", cfg.App.Port)
	}
	if cfg.DB.Driver != DriverSQLite {
		t.Fatalf("expected sqlite driver by default, got %q", cfg.DB.Driver)
	}
	if cfg.DB.DSN != DefaultSQLiteDSN {
		t.Fatalf("expected default sqlite dsn, got %q", cfg.DB.DSN)
	}
	if got := cfg.Reconcile.Interval; got != time.Hour {
		t.Fatalf("expected reconcile interval 1h, got %v", got)
	}
	if cfg.Redis.Enabled() {
		t.Fatalf("expected redis disabled without url")
	}
	if len(cfg.App.CORSOrigins) != 1 || cfg.App.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected default cors origins %v", cfg.App.CORSOrigins)
	}
	if cfg.App.DetectRateLimit != 30 || cfg.App.DetectRateWindow != time.Minute {
		t.Fatalf("unexpected detect rate limit %d/%v", cfg.App.DetectRateLimit, cfg.App.DetectRateWindow)
	}
	if cfg.Admin.Username != "admin" || cfg.Admin.LoginEnabled() {
		t.Fatalf("admin login should default to disabled for user admin, got %+v", cfg.Admin)
	}
	if cfg.Admin.Password.ArgonTime != 3 || cfg.Admin.Password.ArgonKeyLen != 32 {
		t.Fatalf("unexpected argon defaults %+v", cfg.Admin.Password)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_PostgresFromParts(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvDBDriver, "postgres")
	t.Setenv(EnvDBHost, "db.internal")
	t.Setenv(EnvDBUser, "lab")
	t.Setenv(EnvDBName, "ledger")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if !strings.HasPrefix(cfg.DB.DSN, "postgres://lab@db.internal:5432/ledger") {
		t.Fatalf("unexpected dsn %q", cfg.DB.DSN)
	}
	if cfg.DB.IsSQLite() {
		t.Fatalf("expected postgres driver")
	}
}

func TestLoad_PostgresMissingParts(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvDBDriver, "postgres")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when postgres dsn and parts are missing")
	}
}

func TestLoad_UnknownDriver(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvDBDriver, "oracle")

	if _, err := Load(); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvJWTSecret, "secret")
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
	if prodConfig.IsDev() {
		t.Fatalf("expected IsDev false for %q", prodConfig.Env)
	}
}
