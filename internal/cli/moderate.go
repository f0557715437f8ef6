package cli

import (
	"github.com/spf13/cobra"

	"github.com/evcraddock/commentboard/internal/config"
	"github.com/evcraddock/commentboard/internal/moderation"
)

func newModerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "moderate <text>",
		Short: "Classify text with the configured moderator",
		Long:  "Send text to the configured moderation provider once and print the verdict. Failures are reported the same way the board handles them: the text is admitted.",
		Args:  cobra.ExactArgs(1),
		RunE:  runModerate,
	}
}

func runModerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	moderator, err := newModerator(cmd, cfg)
	if err != nil {
		return err
	}

	verdict := moderator.Classify(cmd.Context(), args[0])

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"safe":    verdict.Safe,
			"reason":  verdict.Reason,
			"outcome": verdict.Outcome,
		})
	}

	printVerdict(cmd.OutOrStdout(), verdict)
	return nil
}

// newModerator builds the moderator from config. A missing API key
// yields a moderator that admits everything.
func newModerator(cmd *cobra.Command, cfg *config.Config) (*moderation.Moderator, error) {
	classifier, err := moderation.NewClassifier(cmd.Context(), moderation.ProviderConfig{
		Provider: cfg.Moderation.Provider,
		APIKey:   cfg.Moderation.APIKey,
		BaseURL:  cfg.Moderation.BaseURL,
		Model:    cfg.Moderation.Model,
	})
	if err != nil {
		return nil, err
	}

	return moderation.New(classifier, moderation.Options{
		Timeout:     cfg.Moderation.Timeout,
		MaxTokens:   cfg.Moderation.MaxTokens,
		Temperature: cfg.Moderation.Temperature,
	}), nil
}
