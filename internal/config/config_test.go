package config

import (
	"errors"
	"flag"
	"os"
	"strings"
	"testing"
	"time"
)

// resetFlagSet создаёт новый FlagSet перед каждым вызовом NewConfig,
// чтобы избежать повторной регистрации одних и тех же флагов между тестами.
func resetFlagSet(t *testing.T) {
	t.Helper()
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	// подавляем вывод парсера флагов в тестах
	flag.CommandLine.SetOutput(os.Stderr)
}

// clearEnv обнуляет все переменные, которые читает конфиг.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PASSWORK_URL", "PASSWORK_API_KEY", "PASSWORK_MASTER_PASSWORD",
		"PASSWORK_VERIFY_TLS", "PASSWORK_TIMEOUT", "PASSWORK_PAGE_SIZE",
		"PASSWORK_EXPORT_DIR", "KEEPER_IMPORT_FILE",
		"SANDBOX_ADDR", "DATABASE_URI", "AUTH_SECRET", "SANDBOX_SEED", "SANDBOX_TOKEN_TTL",
		"LOG_LEVEL",
	} {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}

func TestNewConfig_Defaults(t *testing.T) {
	clearEnv(t)
	resetFlagSet(t)
	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}

	if cfg.ExportDir != "export" {
		t.Fatalf("ExportDir default expected 'export', got %q", cfg.ExportDir)
	}
	if cfg.OutputFile != "keeper-import.json" {
		t.Fatalf("OutputFile default expected 'keeper-import.json', got %q", cfg.OutputFile)
	}
	if !cfg.VerifyTLS {
		t.Fatalf("VerifyTLS must default to true")
	}
	if cfg.Timeout != 60*time.Second {
		t.Fatalf("Timeout default expected 60s, got %s", cfg.Timeout)
	}
	if cfg.PageSize != 100 {
		t.Fatalf("PageSize default expected 100, got %d", cfg.PageSize)
	}
	if cfg.AuthSecret != "dev-secret-key" {
		t.Fatalf("AuthSecret default expected 'dev-secret-key', got %q", cfg.AuthSecret)
	}
	if cfg.SandboxAddr != "localhost:8082" {
		t.Fatalf("SandboxAddr default expected 'localhost:8082', got %q", cfg.SandboxAddr)
	}
	if cfg.TokenTTL != 15*time.Minute {
		t.Fatalf("TokenTTL default expected 15m, got %s", cfg.TokenTTL)
	}
}

func TestNewConfig_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PASSWORK_URL", "https://company.passwork.pro///")
	t.Setenv("PASSWORK_API_KEY", "key")
	t.Setenv("PASSWORK_MASTER_PASSWORD", "master")
	t.Setenv("PASSWORK_VERIFY_TLS", "false")
	t.Setenv("PASSWORK_PAGE_SIZE", "25")
	t.Setenv("PASSWORK_EXPORT_DIR", "/tmp/pw")

	resetFlagSet(t)
	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}

	if cfg.PassworkURL != "https://company.passwork.pro" {
		t.Fatalf("trailing slashes must be trimmed, got %q", cfg.PassworkURL)
	}
	if cfg.VerifyTLS {
		t.Fatalf("VerifyTLS expected false from env")
	}
	if cfg.PageSize != 25 {
		t.Fatalf("PageSize expected 25, got %d", cfg.PageSize)
	}
	if cfg.ExportDir != "/tmp/pw" {
		t.Fatalf("ExportDir expected '/tmp/pw', got %q", cfg.ExportDir)
	}
	if err := cfg.ValidateExport(); err != nil {
		t.Fatalf("ValidateExport: %v", err)
	}
}

func TestValidateExport_ListsMissing(t *testing.T) {
	cfg := &Config{PassworkURL: "https://x"}
	err := cfg.ValidateExport()
	if !errors.Is(err, ErrMissingEnv) {
		t.Fatalf("expected ErrMissingEnv, got %v", err)
	}
	if !strings.Contains(err.Error(), "PASSWORK_API_KEY") || !strings.Contains(err.Error(), "PASSWORK_MASTER_PASSWORD") {
		t.Fatalf("error must name missing vars, got %q", err.Error())
	}
	if strings.Contains(err.Error(), "PASSWORK_URL") {
		t.Fatalf("PASSWORK_URL is set and must not be reported, got %q", err.Error())
	}
}

func TestNewConfig_FlagOverridesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PASSWORK_EXPORT_DIR", "/from/env")
	t.Setenv("PASSWORK_PAGE_SIZE", "25")

	resetFlagSet(t)
	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })
	os.Args = []string{"migrate", "-export-dir", "/from/flag"}

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.ExportDir != "/from/flag" {
		t.Fatalf("flag must override env, got %q", cfg.ExportDir)
	}
	// без флага остаётся значение из env
	if cfg.PageSize != 25 {
		t.Fatalf("PageSize expected 25 from env, got %d", cfg.PageSize)
	}
}

func TestNewConfig_InvalidEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PASSWORK_TIMEOUT", "soon")

	resetFlagSet(t)
	cfg, err := NewConfig()
	if err == nil {
		t.Fatalf("expected error for malformed PASSWORK_TIMEOUT, got config %+v", cfg)
	}
	if !strings.HasPrefix(err.Error(), "config: ") {
		t.Fatalf("unexpected error %q", err.Error())
	}
}
