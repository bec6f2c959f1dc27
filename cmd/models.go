package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/chabeau/chabeau/internal/credentials"
	"github.com/chabeau/chabeau/internal/httpchat"
	"github.com/chabeau/chabeau/internal/provider"
)

// runListModels implements "-m/--model [with no value] -> list models"
// (spec §6), querying the currently-resolved provider's /models endpoint
// (spec §6 "Wire... Models listing").
func runListModels(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store := credentials.NewStore(credentials.ServiceProviders)
	resolved, err := provider.Resolve(cfg, provider.KeyringAuthSource{Store: store}, flags.provider)
	if err != nil {
		printQuickFixes(cmd, err)
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	models, err := httpchat.ListModels(ctx, nil, resolved.BaseURL, resolved.APIKey, resolved.Auth)
	if err != nil {
		return fmt.Errorf("listing models for %s: %w", resolved.ProviderID, err)
	}

	out := cmd.OutOrStdout()
	defaultModel, _ := cfg.GetDefaultModel(resolved.ProviderID)
	for _, m := range models {
		marker := " "
		if m.ID == defaultModel {
			marker = "*"
		}
		label := m.ID
		if m.DisplayName != "" {
			label = fmt.Sprintf("%s (%s)", m.ID, m.DisplayName)
		}
		fmt.Fprintf(out, "%s %s\n", marker, label)
	}
	return nil
}
