// auth.go implements the "auth" and "deauth" subcommands (spec §6). The
// real OAuth browser-redirect flow is out of scope here per spec §1
// ("OAuth browser-redirect flow details... only the token lifecycle is
// specified"); this CLI path stores a plain API key, which is what every
// built-in provider (spec §1's OpenAI/Anthropic/OpenRouter/Poe) actually
// authenticates with.
package cmd

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chabeau/chabeau/internal/config"
	"github.com/chabeau/chabeau/internal/credentials"
	"github.com/chabeau/chabeau/internal/provider"
)

var authProvider string

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Store an API key for a provider in the OS keyring",
	RunE:  runAuth,
}

var deauthProvider string

var deauthCmd = &cobra.Command{
	Use:   "deauth",
	Short: "Remove a provider's stored API key",
	RunE:  runDeauth,
}

func init() {
	authCmd.Flags().StringVarP(&authProvider, "provider", "p", "", "provider id to authenticate (prompted if omitted)")
	deauthCmd.Flags().StringVar(&deauthProvider, "provider", "", "provider id to remove credentials for")
	rootCmd.AddCommand(authCmd, deauthCmd)
}

func runAuth(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	id := authProvider
	if id == "" {
		id = prompt(cmd, bufio.NewReader(cmd.InOrStdin()), "Provider id (openai, anthropic, openrouter, poe, or a custom id): ")
	}
	id = config.CanonicalProviderID(id)
	if _, ok := provider.Find(cfg, id); !ok {
		return fmt.Errorf("unknown provider %q; configure it first with \"chabeau provider add\"", id)
	}

	key, err := readSecret(cmd, "API key: ")
	if err != nil {
		return fmt.Errorf("reading API key: %w", err)
	}
	if key == "" {
		return fmt.Errorf("API key must not be empty")
	}

	store := credentials.NewStore(credentials.ServiceProviders)
	if err := store.Set(id, key); err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "authenticated %q\n", id)
	return nil
}

func runDeauth(cmd *cobra.Command, args []string) error {
	if deauthProvider == "" {
		return fmt.Errorf("--provider is required")
	}
	id := config.CanonicalProviderID(deauthProvider)
	store := credentials.NewStore(credentials.ServiceProviders)
	if err := store.Remove(id); err != nil {
		return fmt.Errorf("removing credential: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed credentials for %q\n", id)
	return nil
}
