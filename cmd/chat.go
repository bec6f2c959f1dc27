package cmd

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/chabeau/chabeau/internal/action"
	"github.com/chabeau/chabeau/internal/appsession"
	"github.com/chabeau/chabeau/internal/credentials"
	"github.com/chabeau/chabeau/internal/logging"
	"github.com/chabeau/chabeau/internal/mcpclient"
	"github.com/chabeau/chabeau/internal/profile"
	"github.com/chabeau/chabeau/internal/provider"
	"github.com/chabeau/chabeau/internal/theme"
	"github.com/chabeau/chabeau/internal/tui"
)

// chatFlags holds the "chat" subcommand's flags (spec §6 "Flags:
// -m/--model [name]..., -p/--provider [id]..., -l/--log <file>,
// -c/--character <name>, --persona <id>, --preset <id>, -d/--disable-mcp").
// NoOptDefVal on model/provider implements "no value -> list X" by giving
// the flag a sentinel value when passed bare.
type chatFlags struct {
	model       string
	provider    string
	logPath     string
	character   string
	persona     string
	preset      string
	disableMCP  bool
}

const listSentinel = "\x00list"

var flags chatFlags

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	RunE:  runChat,
}

func init() {
	registerChatFlags(rootCmd)
	registerChatFlags(chatCmd)
	rootCmd.AddCommand(chatCmd)
}

func registerChatFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flags.model, "model", "m", "", "model to use (no value lists available models)")
	cmd.Flags().Lookup("model").NoOptDefVal = listSentinel
	cmd.Flags().StringVarP(&flags.provider, "provider", "p", "", "provider id to use (no value lists configured providers)")
	cmd.Flags().Lookup("provider").NoOptDefVal = listSentinel
	cmd.Flags().StringVarP(&flags.logPath, "log", "l", "", "append-only session log file")
	cmd.Flags().StringVarP(&flags.character, "character", "c", "", "character card to load")
	cmd.Flags().StringVar(&flags.persona, "persona", "", "persona to apply")
	cmd.Flags().StringVar(&flags.preset, "preset", "", "preset to apply")
	cmd.Flags().BoolVarP(&flags.disableMCP, "disable-mcp", "d", false, "disable MCP server connections for this session")
}

// runChat is the CLI entry point for both the bare root command and the
// explicit "chat" subcommand.
func runChat(cmd *cobra.Command, args []string) error {
	if flags.provider == listSentinel {
		return runListProviders(cmd)
	}
	if flags.model == listSentinel {
		return runListModels(cmd)
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	credStore := credentials.NewStore(credentials.ServiceProviders)
	resolved, err := provider.Resolve(cfg, provider.KeyringAuthSource{Store: credStore}, flags.provider)
	if err != nil {
		printQuickFixes(cmd, err)
		return err
	}

	model := flags.model
	if model == "" {
		if m, ok := cfg.GetDefaultModel(resolved.ProviderID); ok {
			model = m
		}
	}

	sess := appsession.New(resolved, model)

	if flags.logPath != "" {
		logger, err := appsession.OpenLogger(flags.logPath)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		sess.SetLogger(logger)
		defer logger.Close()
	}

	var mgr *mcpclient.Manager
	if !flags.disableMCP && len(cfg.MCPServers) > 0 {
		mgr = mcpclient.NewManager(cfg.MCPServers, credentials.NewStore(credentials.ServiceMCP))
		mgr.ConnectAll(logging.WithContext(cmd.Context(), "mcpclient"))
		defer mgr.StopAll()
	}

	app := action.NewApp(sess, cfg, mgr)
	app.Credentials = credStore

	themeID := cfg.Theme
	if themeID == "" {
		themeID = "gruvbox"
	}
	if tc, ok := theme.Resolve(cfg, themeID); ok {
		app.UI.Theme = theme.Build(tc, theme.DetectDepth())
		app.UI.CurrentThemeID = themeID
	}
	app.UI.UserDisplayName = userDisplayName()

	cardsDir, err := profile.CardsDir()
	if err == nil {
		app.Characters = profile.LoadCharacterService(cardsDir)
	}
	if flags.character != "" {
		if _, ok := app.Characters.Find(flags.character); ok {
			app.ActiveCharacter = flags.character
		}
	}
	if flags.persona != "" {
		if _, ok := app.Personas.Find(flags.persona); ok {
			app.ActivePersona = flags.persona
		}
	}
	if flags.preset != "" {
		if _, ok := app.Presets.Find(flags.preset); ok {
			app.ActivePreset = flags.preset
		}
	}

	model2 := tui.New(app)
	p := tea.NewProgram(model2, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func userDisplayName() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "You"
}

// printQuickFixes renders the "quick fixes" list spec §4.4 describes as
// "rendered by the CLI, not by the core" when resolution fails with
// MissingAuthentication.
func printQuickFixes(cmd *cobra.Command, err error) {
	if !errors.Is(err, provider.ErrMissingAuthentication) {
		return
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "No provider is configured. Try one of:")
	for _, qf := range provider.QuickFixes {
		fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n    %s\n", qf.Summary, qf.Command)
	}
}

func isProviderResolutionError(err error) bool {
	return errors.Is(err, provider.ErrMissingAuthentication) ||
		errors.Is(err, provider.ErrProviderNotConfigured) ||
		errors.Is(err, provider.ErrDefaultProviderMissing)
}
