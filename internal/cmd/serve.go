package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/daybreakhq/daybreak/internal/affirm"
	"github.com/daybreakhq/daybreak/internal/affirm/opener"
	"github.com/daybreakhq/daybreak/internal/affirm/prompt"
	"github.com/daybreakhq/daybreak/internal/config"
	errwrap "github.com/daybreakhq/daybreak/internal/errors"
	"github.com/daybreakhq/daybreak/internal/llm"
	"github.com/daybreakhq/daybreak/internal/observability"
	"github.com/daybreakhq/daybreak/internal/ratelimit"
	"github.com/daybreakhq/daybreak/internal/server"
	"github.com/daybreakhq/daybreak/internal/server/handlers"
)

var (
	serverPort int
	serverHost string
)

// signalHealthChecker implements HealthChecker for signal system
type signalHealthChecker struct{}

func (s signalHealthChecker) CheckHealth(ctx context.Context) error {
	// Check if signal system is responsive
	// This is a basic check - in production you might want more sophisticated checks
	return nil // Signal handlers are registered and ready
}

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

// identityHealthChecker validates app identity metadata
type identityHealthChecker struct {
	binaryName string
	envPrefix  string
	configName string
}

func (i identityHealthChecker) CheckHealth(ctx context.Context) error {
	switch {
	case i.binaryName == "":
		return errwrap.NewConfigInvalidError("app identity missing binary name")
	case i.envPrefix == "":
		return errwrap.NewConfigInvalidError("app identity missing env prefix")
	case i.configName == "":
		return errwrap.NewConfigInvalidError("app identity missing config name")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the affirmation HTTP server with graceful shutdown support.

The server exposes POST /v1/affirmations plus the standard health, version,
and metrics endpoints.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Config reload (placeholder - restart recommended)

The server will cleanly shut down the HTTP server and flush logs on shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Get app identity for telemetry namespace
		identity := GetAppIdentity()
		namespace := identity.TelemetryNamespace()

		// Load and validate typed configuration (flags are bound to viper)
		cfg, err := config.Load(cmd.Context())
		if err != nil {
			return errwrap.WrapConfigInvalid(cmd.Context(), err, "configuration invalid")
		}

		// Initialize server logger with namespace
		observability.InitServerLogger(identity.BinaryName, cfg.Logging.Level, "", namespace)

		metricsPort := cfg.Metrics.Port
		if metricsPort == 0 {
			metricsPort = 9090
		}

		// Initialize metrics with namespace
		if err := observability.InitMetrics(identity.BinaryName, metricsPort, namespace); err != nil {
			observability.ServerLogger.Error("Failed to initialize metrics",
				zap.Error(err))
			return errwrap.WrapInternal(cmd.Context(), err, "metrics initialization failed")
		}

		observability.ServerLogger.Info("Initializing server",
			zap.String("service", identity.BinaryName),
			zap.String("namespace", namespace),
			zap.String("version", versionInfo.Version),
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
			zap.Int("metrics_port", metricsPort))

		// Shared Redis client when any store is backed by Redis
		var redisClient *redis.Client
		if cfg.RateLimit.Store == config.StoreRedis || cfg.Opener.Store == config.StoreRedis {
			redisClient = redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
		}

		// Build the generation pipeline
		limiter := buildLimiter(cfg, redisClient)
		rotator := buildRotator(cfg, redisClient)

		registry, err := buildPromptRegistry(cfg)
		if err != nil {
			return errwrap.WrapConfigInvalid(cmd.Context(), err, "prompt definitions invalid")
		}

		drv, err := llm.New(llm.Config{
			Provider: cfg.LLM.Provider,
			BaseURL:  cfg.LLM.BaseURL,
			APIKey:   cfg.LLM.APIKey,
			Timeout:  cfg.LLM.Timeout,
		})
		if err != nil {
			return errwrap.WrapConfigInvalid(cmd.Context(), err, "llm provider invalid")
		}

		service := affirm.NewService(registry, rotator, drv, affirm.Config{
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     cfg.LLM.Timeout,
		})
		affirmations := handlers.NewAffirmationsHandler(service, limiter)

		observability.ServerLogger.Info("Generation pipeline ready",
			zap.String("provider", cfg.LLM.Provider),
			zap.String("model", cfg.LLM.Model),
			zap.String("ratelimit_store", cfg.RateLimit.Store),
			zap.String("opener_store", cfg.Opener.Store),
			zap.Int("ratelimit_limit", cfg.RateLimit.Limit),
			zap.Duration("ratelimit_window", cfg.RateLimit.Window))

		// Initialize health manager
		handlers.InitHealthManager(versionInfo.Version)
		hm := handlers.GetHealthManager()
		hm.RegisterChecker("signal_handlers", signalHealthChecker{})
		hm.RegisterChecker("telemetry", telemetryHealthChecker{})
		hm.RegisterChecker("app_identity", identityHealthChecker{
			binaryName: identity.BinaryName,
			envPrefix:  identity.EnvPrefix,
			configName: identity.ConfigName,
		})
		hm.RegisterChecker("prompts", handlers.CheckerFunc(func(ctx context.Context) error {
			for _, intent := range []string{affirm.IntentMotivate, affirm.IntentRefocus, affirm.IntentReflect, affirm.IntentSoothe} {
				if _, err := registry.Get(intent); err != nil {
					return err
				}
			}
			return nil
		}))
		if redisClient != nil {
			hm.RegisterChecker("redis", handlers.CheckerFunc(func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}))
		}

		// Create server
		srv := server.New(server.Options{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			CORSOrigins:  cfg.CORS.Origins,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
			Affirmations: affirmations,
		})

		// Set app identity for handlers
		handlers.SetAppIdentity(identity)

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if shutdownTimeout == 0 {
			shutdownTimeout = 10 * time.Second
		}

		// Register graceful shutdown handlers (LIFO order - last registered, first executed)
		// Handler 1: Flush logger (executed last)
		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Flushing logger...")
			if err := observability.ServerLogger.Sync(); err != nil {
				// Sync errors are often benign (stdout/stderr already closed)
				observability.ServerLogger.Warn("Logger sync returned error (may be benign)",
					zap.Error(err))
			}
			return nil
		})

		// Handler 2: Release pipeline resources (executed second)
		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Closing generation pipeline...")
			service.Close()
			limiter.Close()
			if redisClient != nil {
				if err := redisClient.Close(); err != nil {
					observability.ServerLogger.Warn("Redis close returned error",
						zap.Error(err))
				}
			}
			return nil
		})

		// Handler 3: Shutdown HTTP server (executed first)
		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Shutting down HTTP server...")
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errwrap.WrapInternal(ctx, err, "server shutdown failed")
			}

			observability.ServerLogger.Info("HTTP server stopped gracefully")
			return nil
		})

		// Register config reload handler (SIGHUP)
		signals.OnReload(func(ctx context.Context) error {
			observability.ServerLogger.Info("Received SIGHUP: attempting config reload")

			// Attempt to reload configuration
			if err := viper.ReadInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); ok {
					observability.ServerLogger.Info("No config file found - using defaults and environment variables")
					return nil
				}
				observability.ServerLogger.Error("Failed to reload config file",
					zap.String("file", viper.ConfigFileUsed()),
					zap.Error(err))
				return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
			}

			if _, err := config.Load(ctx); err != nil {
				observability.ServerLogger.Error("Reloaded config failed validation",
					zap.Error(err))
				return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
			}

			observability.ServerLogger.Info("Configuration reloaded successfully",
				zap.String("file", viper.ConfigFileUsed()))

			// Running components keep their construction-time settings; a
			// restart is required for store or provider changes to take effect.
			return nil
		})

		// Enable double-tap force quit (Ctrl+C within 2 seconds)
		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			observability.ServerLogger.Warn("Failed to enable double-tap force quit",
				zap.Error(err))
		}

		// Start server in background goroutine
		errChan := make(chan error, 1)
		go func() {
			observability.ServerLogger.Info("Starting HTTP server...",
				zap.String("host", cfg.Server.Host),
				zap.Int("port", cfg.Server.Port))
			if err := srv.Start(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()

		// Start signal listener in background
		go func() {
			if err := signals.Listen(cmd.Context()); err != nil {
				observability.ServerLogger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		// Wait for error or shutdown completion
		if err := <-errChan; err != nil {
			return errwrap.WrapInternal(cmd.Context(), err, "server error")
		}

		return nil
	},
}

// buildLimiter constructs the fixed-window limiter for the configured store.
func buildLimiter(cfg *config.Config, redisClient *redis.Client) ratelimit.Limiter {
	if cfg.RateLimit.Store == config.StoreRedis && redisClient != nil {
		return ratelimit.NewRedisLimiter(redisClient, cfg.RateLimit.Limit, cfg.RateLimit.Window)
	}
	return ratelimit.NewMemoryLimiter(cfg.RateLimit.Limit, cfg.RateLimit.Window, cfg.RateLimit.SweepInterval)
}

// buildRotator constructs the opener rotator for the configured store.
func buildRotator(cfg *config.Config, redisClient *redis.Client) *opener.Rotator {
	return opener.New(buildOpenerStore(cfg, redisClient), cfg.Opener.HistoryCap, cfg.Opener.RetryBudget)
}

// buildOpenerStore selects the history backend for the opener rotator.
func buildOpenerStore(cfg *config.Config, redisClient *redis.Client) opener.Store {
	if cfg.Opener.Store == config.StoreRedis && redisClient != nil {
		return opener.NewRedisStore(redisClient, cfg.Opener.HistoryTTL)
	}
	return opener.NewMemoryStore(cfg.Opener.HistoryTTL, cfg.Opener.SweepInterval)
}

// buildPromptRegistry loads prompt definitions from the configured directory,
// falling back to the embedded defaults.
func buildPromptRegistry(cfg *config.Config) (prompt.Registry, error) {
	if cfg.PromptsDir != "" {
		prompts, err := prompt.LoadFromDir(cfg.PromptsDir)
		if err != nil {
			return nil, err
		}
		return prompt.NewRegistry(prompts)
	}
	return prompt.DefaultRegistry()
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "localhost", "server host")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "server port")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}
