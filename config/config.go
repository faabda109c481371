/*
config.go - Server configuration

PURPOSE:
  Loads the server settings from flags, environment variables and an
  optional .env file, in that order of precedence.

KEYS:
  LEAVE_PORT              HTTP port (8080)
  LEAVE_DB                SQLite path or :memory:, empty keeps data in process
  LEAVE_LOG_LEVEL         debug | info | warn | error (info)
  LEAVE_ENV               production | development (production)
  LEAVE_SEED              Load the default demo scenario at startup
  LEAVE_STRICT_DECISIONS  Accept only Approved and Rejected as decisions
  LEAVE_SHUTDOWN_TIMEOUT  Graceful shutdown deadline (30s)
  LEAVE_VERIFY_INTERVAL   Background balance verification, 0 disables it
  LEAVE_CORS_ORIGINS      Comma separated allowed origins

SEE ALSO:
  - cmd/server/main.go: Uses Load and NewLogger
*/
package config

import (
	"fmt"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the server settings.
type Config struct {
	Port            int           `help:"HTTP port to listen on." default:"8080" env:"LEAVE_PORT"`
	DB              string        `name:"db" help:"SQLite database path or :memory:. Empty uses the in-process store." env:"LEAVE_DB"`
	LogLevel        string        `help:"Log level." default:"info" enum:"debug,info,warn,error" env:"LEAVE_LOG_LEVEL"`
	Environment     string        `name:"env" help:"Logger profile." default:"production" enum:"production,development" env:"LEAVE_ENV"`
	Seed            bool          `help:"Load the default demo scenario at startup." env:"LEAVE_SEED"`
	StrictDecisions bool          `help:"Accept only Approved and Rejected decisions." env:"LEAVE_STRICT_DECISIONS"`
	ShutdownTimeout time.Duration `help:"Graceful shutdown deadline." default:"30s" env:"LEAVE_SHUTDOWN_TIMEOUT"`
	VerifyInterval  time.Duration `help:"Interval of background balance verification. 0 disables it." default:"0s" env:"LEAVE_VERIFY_INTERVAL"`
	CORSOrigins     []string      `name:"cors-origins" help:"Allowed CORS origins." sep:"," env:"LEAVE_CORS_ORIGINS"`
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// UsesSQLite reports whether DB selects the SQLite store.
func (c *Config) UsesSQLite() bool {
	return c.DB != ""
}

// Load parses args over the environment. envFiles are loaded first without
// overriding variables already set. With no envFiles an optional ./.env is
// read and its absence ignored.
func Load(args []string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}

	var cfg Config
	parser, err := kong.New(&cfg,
		kong.Name("leave-server"),
		kong.Description("Employee leave management API."),
	)
	if err != nil {
		return nil, fmt.Errorf("build config parser: %w", err)
	}
	if _, err := parser.Parse(args); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("parse config: invalid port %d", cfg.Port)
	}
	return &cfg, nil
}

// NewLogger builds the JSON zap logger for cfg.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid level %q: %w", cfg.LogLevel, err)
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Environment == "development" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Encoding = "json"
	zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.DisableStacktrace = true

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
