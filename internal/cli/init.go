// Package cli wires configuration, logging and the ledger store into the
// spendlog commands and the mirror worker.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"spendlog/internal/amqp"
	"spendlog/internal/backend"
	"spendlog/internal/config"
	applog "spendlog/internal/log"
	"spendlog/internal/services"
)

// LoadEnvFile loads a .env file for local development. A missing file is
// not an error; other paths are reported.
func LoadEnvFile(path string) error {
	if path == "" {
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the process logger from cfg and installs it as the
// slog default. Logs go to stderr so command output stays clean.
func SetupLogger(cfg *config.Config, component string) (*applog.Logger, error) {
	level, err := applog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := applog.New(applog.Config{
		Level:     level,
		Format:    strings.ToLower(cfg.LogFormat),
		Component: component,
		Output:    os.Stderr,
	})
	applog.SetDefault(logger)
	return logger, nil
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// runtime bundles what the ledger commands share.
type runtime struct {
	cfg       *config.Config
	logger    *applog.Logger
	backend   *backend.Result
	publisher *amqp.Client
	svc       *services.LedgerService
}

func (rt *runtime) Close() {
	if rt.publisher != nil {
		if err := rt.publisher.Close(); err != nil {
			rt.logger.Warn("Failed to close AMQP client", applog.FieldError, err)
		}
	}
	if err := rt.backend.Close(); err != nil {
		rt.logger.Warn("Failed to close backend", applog.FieldError, err)
	}
}

// openRuntime loads config, connects the configured backend and, when
// AMQP_URL is set, the change publisher. A broker that cannot be reached
// only disables publishing.
func openRuntime(ctx context.Context, opts *rootOptions, component string) (*runtime, error) {
	if err := LoadEnvFile(opts.envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.backend != "" {
		cfg.DataBackend = opts.backend
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := SetupLogger(cfg, component)
	if err != nil {
		return nil, err
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Slog()).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}
	if res.Unavailable != nil {
		logger.Warn("Backend unreachable, changes will not persist",
			applog.FieldBackend, bcfg.Type.String(), applog.FieldError, res.Unavailable)
	} else {
		logger.Info("Backend ready", applog.FieldBackend, bcfg.Type.String())
	}

	rt := &runtime{cfg: cfg, logger: logger, backend: res}
	svcOpts := services.LedgerOptions{
		Logger:  logger.WithComponent(applog.ComponentLedger).Slog(),
		Timeout: cfg.StoreTimeout,
	}
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
			logger.WithComponent(applog.ComponentAMQP).Slog())
		if err != nil {
			logger.Warn("AMQP unavailable, ledger changes will not be announced", applog.FieldError, err)
		} else {
			rt.publisher = client
			svcOpts.Publisher = client
		}
	}
	rt.svc = services.NewLedgerService(res.Store, svcOpts)
	return rt, nil
}
