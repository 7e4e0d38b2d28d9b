package cmd

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/daybreakhq/daybreak/internal/affirm"
	"github.com/daybreakhq/daybreak/internal/config"
	errwrap "github.com/daybreakhq/daybreak/internal/errors"
	"github.com/daybreakhq/daybreak/internal/llm"
	"github.com/daybreakhq/daybreak/internal/observability"
	"github.com/daybreakhq/daybreak/internal/output"
)

var (
	affirmTone      string
	affirmPeriod    string
	affirmLanguage  string
	affirmSentences int
	affirmClient    string
	affirmFormat    string
)

var affirmCmd = &cobra.Command{
	Use:   "affirm",
	Short: "Generate one affirmation from the terminal",
	Long: `Generate a single affirmation without starting the HTTP server.

Uses the same generation pipeline as the server: the period is mapped to an
intent, an opener is rotated from that intent's bank, and the rendered prompt
is sent to the configured completion provider.

Opener history only persists across invocations when the opener store is
redis; the default in-memory store starts empty every run.`,
	Example: `  daybreak affirm
  daybreak affirm --period morning --tone confident
  daybreak affirm --period night --language de --sentences 3 --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd.Context())
		if err != nil {
			return errwrap.WrapConfigInvalid(cmd.Context(), err, "configuration invalid")
		}

		format, err := output.ParseFormat(affirmFormat)
		if err != nil {
			return errwrap.WrapValidationError(cmd.Context(), err, "invalid output format")
		}

		var redisClient *redis.Client
		if cfg.Opener.Store == config.StoreRedis {
			redisClient = redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer func() { _ = redisClient.Close() }()
		}

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

		service := affirm.NewService(registry, buildRotator(cfg, redisClient), drv, affirm.Config{
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     cfg.LLM.Timeout,
		})
		defer service.Close()

		if verbose {
			observability.CLILogger.Debug("Generating affirmation",
				zap.String("provider", cfg.LLM.Provider),
				zap.String("model", cfg.LLM.Model),
				zap.String("tone", affirmTone),
				zap.String("period", affirmPeriod))
		}

		resp, err := service.Generate(cmd.Context(), affirm.Request{
			Tone:      affirmTone,
			Period:    affirmPeriod,
			Language:  affirmLanguage,
			Sentences: affirmSentences,
			ClientKey: affirmClient,
		})
		if err != nil {
			return errwrap.WrapExternalService(cmd.Context(), err, "generation failed")
		}

		rendered, err := output.NewFormatter(format).FormatAffirmation(resp)
		if err != nil {
			return errwrap.WrapInternal(cmd.Context(), err, "output formatting failed")
		}

		fmt.Println(rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(affirmCmd)

	affirmCmd.Flags().StringVarP(&affirmTone, "tone", "t", "", "tone: gentle, confident, playful, or poetic")
	affirmCmd.Flags().StringVarP(&affirmPeriod, "period", "P", "", "day period: morning, afternoon, evening, or night (default: current UTC hour)")
	affirmCmd.Flags().StringVarP(&affirmLanguage, "language", "l", "", "output language tag, e.g. en or pt-br")
	affirmCmd.Flags().IntVarP(&affirmSentences, "sentences", "n", 0, "number of sentences, 1-4")
	affirmCmd.Flags().StringVar(&affirmClient, "client", "cli", "client key for opener rotation")
	affirmCmd.Flags().StringVarP(&affirmFormat, "format", "f", "table", "output format: table, json, or markdown")
}
