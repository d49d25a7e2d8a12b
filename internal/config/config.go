package config

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// ErrMissingEnv возвращается, когда не заданы обязательные переменные окружения.
var ErrMissingEnv = errors.New("missing required environment variables")

type Config struct {
	// Exporter (Passwork source)
	PassworkURL    string        `env:"PASSWORK_URL"`
	APIKey         string        `env:"PASSWORK_API_KEY"`
	MasterPassword string        `env:"PASSWORK_MASTER_PASSWORD"`
	VerifyTLS      bool          `env:"PASSWORK_VERIFY_TLS" envDefault:"true"`
	Timeout        time.Duration `env:"PASSWORK_TIMEOUT" envDefault:"60s"`
	PageSize       int           `env:"PASSWORK_PAGE_SIZE" envDefault:"100"`

	// Shared: export tree location
	ExportDir string `env:"PASSWORK_EXPORT_DIR" envDefault:"export"`

	// Converter (Keeper destination)
	OutputFile string `env:"KEEPER_IMPORT_FILE" envDefault:"keeper-import.json"`

	// Sandbox server
	SandboxAddr string        `env:"SANDBOX_ADDR" envDefault:"localhost:8082"`
	DatabaseDSN string        `env:"DATABASE_URI" envDefault:"sandbox.db"`
	AuthSecret  string        `env:"AUTH_SECRET"`
	SeedFile    string        `env:"SANDBOX_SEED"`
	TokenTTL    time.Duration `env:"SANDBOX_TOKEN_TTL" envDefault:"15m"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Version  bool   `env:"-"` // show version and exit (flag only)
}

// NewConfig читает .env, окружение и флаги. Значения из env служат
// умолчаниями для флагов, поэтому явно заданный флаг перекрывает env.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	// Exporter flags
	flag.StringVar(&cfg.PassworkURL, "url", cfg.PassworkURL, "base URL of the Passwork instance")
	flag.StringVar(&cfg.APIKey, "api-key", cfg.APIKey, "Passwork API key")
	flag.StringVar(&cfg.MasterPassword, "master-password", cfg.MasterPassword, "Passwork master password")
	flag.BoolVar(&cfg.VerifyTLS, "verify-tls", cfg.VerifyTLS, "verify the TLS certificate of the Passwork instance")
	flag.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP timeout per Passwork request")
	flag.IntVar(&cfg.PageSize, "page-size", cfg.PageSize, "page size for Passwork list requests")
	// Shared/converter flags
	flag.StringVar(&cfg.ExportDir, "export-dir", cfg.ExportDir, "directory of the decrypted export tree")
	flag.StringVar(&cfg.OutputFile, "out", cfg.OutputFile, "Keeper import file written by convert")
	// Sandbox flags
	flag.StringVar(&cfg.SandboxAddr, "addr", cfg.SandboxAddr, "sandbox listen address (host:port)")
	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "строка подключения к БД песочницы (путь SQLite или postgres DSN)")
	flag.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "секрет для подписи JWT песочницы")
	flag.StringVar(&cfg.SeedFile, "seed", cfg.SeedFile, "YAML fixture loaded into the sandbox on start")
	flag.DurationVar(&cfg.TokenTTL, "token-ttl", cfg.TokenTTL, "lifetime of sandbox access tokens")

	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug|info|warn|error")
	flag.BoolVar(&cfg.Version, "version", cfg.Version, "Show version and exit")

	flag.Parse()

	// Defaults
	if cfg.AuthSecret == "" {
		cfg.AuthSecret = "dev-secret-key"
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.ExportDir == "" {
		cfg.ExportDir = "export"
	}
	if cfg.OutputFile == "" {
		cfg.OutputFile = "keeper-import.json"
	}
	cfg.PassworkURL = strings.TrimRight(cfg.PassworkURL, "/")

	return cfg, nil
}

// ValidateExport проверяет, что заданы все параметры, без которых экспорт невозможен.
func (c *Config) ValidateExport() error {
	var missing []string
	if c.PassworkURL == "" {
		missing = append(missing, "PASSWORK_URL")
	}
	if c.APIKey == "" {
		missing = append(missing, "PASSWORK_API_KEY")
	}
	if c.MasterPassword == "" {
		missing = append(missing, "PASSWORK_MASTER_PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}
	return nil
}
