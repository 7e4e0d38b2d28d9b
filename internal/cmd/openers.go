package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daybreakhq/daybreak/internal/config"
	errwrap "github.com/daybreakhq/daybreak/internal/errors"
	"github.com/daybreakhq/daybreak/internal/output"
)

var openersFormat string

var openersCmd = &cobra.Command{
	Use:   "openers [slug]",
	Short: "List opener banks",
	Long: `List the opener banks the prompt definitions carry.

Without arguments, prints one row per intent with its strategy and bank size.
With a slug (motivate, refocus, reflect, soothe), prints that intent's full
opener list.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd.Context())
		if err != nil {
			return errwrap.WrapConfigInvalid(cmd.Context(), err, "configuration invalid")
		}

		format, err := output.ParseFormat(openersFormat)
		if err != nil {
			return errwrap.WrapValidationError(cmd.Context(), err, "invalid output format")
		}

		registry, err := buildPromptRegistry(cfg)
		if err != nil {
			return errwrap.WrapConfigInvalid(cmd.Context(), err, "prompt definitions invalid")
		}

		if len(args) == 1 {
			def, err := registry.Get(args[0])
			if err != nil {
				return errwrap.WrapInvalidInput(cmd.Context(), err, "unknown intent")
			}
			rendered, err := output.FormatBank(format, output.BankFromPrompt(def, true))
			if err != nil {
				return errwrap.WrapInternal(cmd.Context(), err, "output formatting failed")
			}
			fmt.Println(rendered)
			return nil
		}

		banks := make([]output.Bank, 0, len(registry.List()))
		for _, def := range registry.List() {
			banks = append(banks, output.BankFromPrompt(def, false))
		}
		rendered, err := output.FormatBankList(format, banks)
		if err != nil {
			return errwrap.WrapInternal(cmd.Context(), err, "output formatting failed")
		}
		fmt.Println(rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(openersCmd)
	openersCmd.Flags().StringVarP(&openersFormat, "format", "f", "table", "output format: table, json, or markdown")
}
