// Package cmd implements chabeau's CLI surface (spec §6): a thin Cobra
// tree whose only job is to assemble the core runtime (internal/action,
// internal/tui, internal/provider, ...) and invoke it. Per spec §1 these
// subcommands are "out of scope as external collaborators" — their
// internals (arg parsing, one-shot listing output) are specified here only
// as much as is needed to drive the core, not re-specified in depth.
// Grounded on the teacher's cmd/root.go Cobra tree (rootCmd +
// rootCmd.AddCommand per subcommand, PersistentFlags for globals).
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chabeau/chabeau/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "chabeau",
	Short: "An interactive terminal chat client for OpenAI-style chat-completion APIs",
	Long: `chabeau is a full-screen terminal chat client for OpenAI-style streaming
chat-completion APIs (OpenAI, Anthropic, OpenRouter, Poe, and user-configured
compatible providers), with optional Model Context Protocol (MCP) tool
integration.

Running chabeau with no subcommand starts an interactive chat session
(equivalent to "chabeau chat").`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runChat,
}

// Execute runs the root command, returning the process exit code per
// spec §6 ("Exit codes: 0 success, 1 generic error, 2 missing/ambiguous
// provider configuration").
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if code, ok := exitCode(err); ok {
			return code
		}
		return 1
	}
	return 0
}

// exitCode maps a resolution failure to spec §6's exit code 2; every other
// error is a generic exit code 1.
func exitCode(err error) (int, bool) {
	if isProviderResolutionError(err) {
		return 2, true
	}
	return 0, false
}

func init() {
	rootCmd.PersistentFlags().Bool("no-color", false, "accepted but has no effect: colored output is not disabled (CHABEAU_COLOR=16 limits colors to the 16-color palette)")
	rootCmd.PersistentFlags().StringVar(&cfgPathOverride, "config", "", "path to the config file (overrides the default per-user location)")
}

var cfgPathOverride string

// loadConfig loads the config snapshot, honoring --config.
func loadConfig() (*config.Config, error) {
	if cfgPathOverride != "" {
		config.SetPathOverride(cfgPathOverride)
	}
	return config.Load()
}
