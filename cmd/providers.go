package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/chabeau/chabeau/internal/config"
	"github.com/chabeau/chabeau/internal/credentials"
	"github.com/chabeau/chabeau/internal/provider"
)

// providerCmd groups the provider-management subcommands spec §6 names:
// "provider {add [-a|--advanced] [id], token {add <id>|list [id]}}".
var providerCmd = &cobra.Command{
	Use:   "provider",
	Short: "Manage configured providers",
}

var providerAddAdvanced bool

var providerAddCmd = &cobra.Command{
	Use:   "add [id]",
	Short: "Add a custom provider",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProviderAdd,
}

var providerTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage a provider's stored API key",
}

var providerTokenAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Store an API key for a provider",
	Args:  cobra.ExactArgs(1),
	RunE:  runProviderTokenAdd,
}

var providerTokenListCmd = &cobra.Command{
	Use:   "list [id]",
	Short: "List which providers have a stored API key",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProviderTokenList,
}

func init() {
	providerAddCmd.Flags().BoolVarP(&providerAddAdvanced, "advanced", "a", false, "prompt for anthropic-style auth and base URL too")
	providerCmd.AddCommand(providerAddCmd, providerTokenCmd)
	providerTokenCmd.AddCommand(providerTokenAddCmd, providerTokenListCmd)
	rootCmd.AddCommand(providerCmd)
}

// runListProviders implements "-p/--provider [with no value] -> list
// providers" (spec §6).
func runListProviders(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store := credentials.NewStore(credentials.ServiceProviders)
	out := cmd.OutOrStdout()
	for _, d := range provider.All(cfg) {
		_, hasKey, _ := store.Get(d.ID)
		marker := " "
		if d.ID == cfg.DefaultProvider {
			marker = "*"
		}
		state := "no credential"
		if hasKey {
			state = "configured"
		}
		fmt.Fprintf(out, "%s %-16s %-24s %s\n", marker, d.ID, d.BaseURL, state)
	}
	return nil
}

func runProviderAdd(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(cmd.InOrStdin())
	id := argOrEmpty(args, 0)
	if id == "" {
		id = prompt(cmd, reader, "Provider id: ")
	}
	id = config.CanonicalCustomID(id)
	if id == "" {
		return fmt.Errorf("provider id is required")
	}

	display := prompt(cmd, reader, fmt.Sprintf("Display name [%s]: ", id))
	if display == "" {
		display = id
	}
	baseURL := prompt(cmd, reader, "Base URL: ")
	if baseURL == "" {
		return fmt.Errorf("base URL is required")
	}

	anthropicAuth := false
	if providerAddAdvanced {
		ans := prompt(cmd, reader, "Use Anthropic-style auth headers (x-api-key)? [y/N]: ")
		anthropicAuth = strings.EqualFold(strings.TrimSpace(ans), "y")
	}

	entry := config.Provider{ID: id, Display: display, BaseURL: baseURL, AnthropicAuth: anthropicAuth}
	err := config.Mutate(func(c *config.Config) error {
		for i, existing := range c.CustomProviders {
			if existing.ID == id {
				c.CustomProviders[i] = entry
				return nil
			}
		}
		c.CustomProviders = append(c.CustomProviders, entry)
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving provider: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "added provider %q\n", id)
	return nil
}

func runProviderTokenAdd(cmd *cobra.Command, args []string) error {
	id := config.CanonicalProviderID(args[0])
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if _, ok := provider.Find(cfg, id); !ok {
		return fmt.Errorf("unknown provider %q; add it first with \"chabeau provider add\"", id)
	}
	key, err := readSecret(cmd, "API key: ")
	if err != nil {
		return err
	}
	store := credentials.NewStore(credentials.ServiceProviders)
	if err := store.Set(id, key); err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "stored API key for %q\n", id)
	return nil
}

func runProviderTokenList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store := credentials.NewStore(credentials.ServiceProviders)
	ids := []string{}
	if len(args) == 1 {
		ids = []string{config.CanonicalProviderID(args[0])}
	} else {
		for _, d := range provider.All(cfg) {
			ids = append(ids, d.ID)
		}
	}
	out := cmd.OutOrStdout()
	for _, id := range ids {
		_, ok, _ := store.Get(id)
		status := "absent"
		if ok {
			status = "present"
		}
		fmt.Fprintf(out, "%-16s %s\n", id, status)
	}
	return nil
}

func argOrEmpty(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func prompt(cmd *cobra.Command, reader *bufio.Reader, label string) string {
	fmt.Fprint(cmd.OutOrStdout(), label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

// readSecret reads a line without echoing it when stdin is a terminal
// (golang.org/x/term.ReadPassword), falling back to plain bufio for piped
// input (e.g. tests).
func readSecret(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), label)
	if f, ok := cmd.InOrStdin().(interface{ Fd() uintptr }); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
