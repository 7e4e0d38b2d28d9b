package cmd

import (
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/daybreakhq/daybreak/internal/affirm"
	"github.com/daybreakhq/daybreak/internal/config"
	errwrap "github.com/daybreakhq/daybreak/internal/errors"
	"github.com/daybreakhq/daybreak/internal/observability"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run self-health check",
	Long:  "Run a self-health check to verify the application can start successfully.",
	Run: func(cmd *cobra.Command, args []string) {
		observability.CLILogger.Info("Running health check...")

		// Check 1: Version info available
		if versionInfo.Version == "" {
			observability.CLILogger.Error("❌ FAIL: Version information missing")
			ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Version information missing", errwrap.NewConfigInvalidError("Version information missing"))
			return
		}
		observability.CLILogger.Debug("Version check passed", zap.String("version", versionInfo.Version))
		observability.CLILogger.Info("✅ Version information available")

		// Check 2: Configuration loads and validates
		cfg, err := config.Load(cmd.Context())
		if err != nil {
			observability.CLILogger.Error("❌ FAIL: Configuration invalid", zap.Error(err))
			ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Configuration invalid", err)
			return
		}
		observability.CLILogger.Info("✅ Configuration loaded and valid")

		// Check 3: Prompt definitions load and cover every intent
		registry, err := buildPromptRegistry(cfg)
		if err != nil {
			observability.CLILogger.Error("❌ FAIL: Prompt definitions invalid", zap.Error(err))
			ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Prompt definitions invalid", err)
			return
		}
		for _, intent := range []string{affirm.IntentMotivate, affirm.IntentRefocus, affirm.IntentReflect, affirm.IntentSoothe} {
			if _, err := registry.Get(intent); err != nil {
				observability.CLILogger.Error("❌ FAIL: Missing prompt definition",
					zap.String("intent", intent), zap.Error(err))
				ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Missing prompt definition", err)
				return
			}
		}
		observability.CLILogger.Info("✅ Prompt definitions cover all intents")

		// Overall status
		observability.CLILogger.Info("")
		observability.CLILogger.Info("✅ All health checks passed")
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
