// set.go implements "set <key> <values...>", "unset <key> [value]" and
// "set-default-model [provider]" (spec §6). Settings handlers are a
// registry keyed by a static string, each implementing set/unset/format
// (spec §9 "Dynamic dispatch... Setting handlers are a registry keyed by a
// static string; each implements set/unset/format"), matching the key
// taxonomy from spec §7's SettingError variants.
package cmd

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chabeau/chabeau/internal/config"
	"github.com/chabeau/chabeau/internal/provider"
	"github.com/chabeau/chabeau/internal/theme"
)

// SettingErrorKind enumerates spec §7's SettingError taxonomy.
type SettingErrorKind string

const (
	ErrUnknownKey      SettingErrorKind = "unknown_key"
	ErrUnknownProvider SettingErrorKind = "unknown_provider"
	ErrUnknownTheme    SettingErrorKind = "unknown_theme"
	ErrUnknownItem     SettingErrorKind = "unknown_item"
	ErrInvalidBoolean  SettingErrorKind = "invalid_boolean"
	ErrMissingArgs     SettingErrorKind = "missing_args"
	ErrConfigError     SettingErrorKind = "config_error"
)

// SettingError is spec §7's SettingError: "printed by the CLI; exit code 1".
type SettingError struct {
	Kind    SettingErrorKind
	Message string
}

func (e *SettingError) Error() string { return e.Message }

// settingHandler is one registry entry's contract.
type settingHandler interface {
	set(cfg *config.Config, values []string) error
	unset(cfg *config.Config, value string) error
	format(cfg *config.Config) string
}

var settingHandlers = map[string]settingHandler{
	"provider":            defaultProviderSetting{},
	"theme":               themeSetting{},
	"markdown":            boolSetting{getFn: func(c *config.Config) *bool { return c.Markdown }, setFn: func(c *config.Config, v *bool) { c.Markdown = v }},
	"syntax":              boolSetting{getFn: func(c *config.Config) *bool { return c.Syntax }, setFn: func(c *config.Config, v *bool) { c.Syntax = v }},
	"builtin-presets":     boolSetting{getFn: func(c *config.Config) *bool { return c.BuiltinPresets }, setFn: func(c *config.Config, v *bool) { c.BuiltinPresets = v }},
	"refine-instructions": stringSetting{getFn: func(c *config.Config) string { return c.RefineInstructions }, setFn: func(c *config.Config, v string) { c.RefineInstructions = v }},
	"refine-prefix":       stringSetting{getFn: func(c *config.Config) string { return c.RefinePrefix }, setFn: func(c *config.Config, v string) { c.RefinePrefix = v }},
}

var setCmd = &cobra.Command{
	Use:   "set <key> <values...>",
	Short: "Set a configuration value",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSet,
}

var unsetCmd = &cobra.Command{
	Use:   "unset <key> [value]",
	Short: "Clear a configuration value back to its default",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runUnset,
}

var setDefaultModelCmd = &cobra.Command{
	Use:   "set-default-model [provider]",
	Short: "Set the default model for a provider",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSetDefaultModel,
}

func init() {
	rootCmd.AddCommand(setCmd, unsetCmd, setDefaultModelCmd)
}

func runSet(cmd *cobra.Command, args []string) error {
	key, values := args[0], args[1:]
	h, ok := settingHandlers[key]
	if !ok {
		return &SettingError{Kind: ErrUnknownKey, Message: fmt.Sprintf("unknown setting %q", key)}
	}
	if len(values) == 0 {
		return &SettingError{Kind: ErrMissingArgs, Message: fmt.Sprintf("set %s requires a value", key)}
	}
	err := config.Mutate(func(cfg *config.Config) error {
		return h.set(cfg, values)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, formatHandler(h))
	return nil
}

func runUnset(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := ""
	if len(args) == 2 {
		value = args[1]
	}
	h, ok := settingHandlers[key]
	if !ok {
		return &SettingError{Kind: ErrUnknownKey, Message: fmt.Sprintf("unknown setting %q", key)}
	}
	err := config.Mutate(func(cfg *config.Config) error {
		return h.unset(cfg, value)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, formatHandler(h))
	return nil
}

// formatHandler re-loads the just-persisted config to render the
// post-mutation value, since defaults (spec §4.7 "Defaults printed for
// display are derived... unset defaults never persist the defaulted
// value") only resolve against a loaded snapshot.
func formatHandler(h settingHandler) string {
	cfg, err := config.Load()
	if err != nil {
		return "?"
	}
	return h.format(cfg)
}

func runSetDefaultModel(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	providerID := argOrEmpty(args, 0)
	if providerID == "" {
		providerID = cfg.DefaultProvider
	}
	if providerID == "" {
		return &SettingError{Kind: ErrMissingArgs, Message: "no provider given and no default_provider configured"}
	}
	providerID = config.CanonicalProviderID(providerID)
	if _, ok := provider.Find(cfg, providerID); !ok {
		return &SettingError{Kind: ErrUnknownProvider, Message: fmt.Sprintf("unknown provider %q", providerID)}
	}

	reader := strings.TrimSpace(prompt(cmd, bufio.NewReader(cmd.InOrStdin()), fmt.Sprintf("Default model for %s: ", providerID)))
	if reader == "" {
		return &SettingError{Kind: ErrMissingArgs, Message: "model name is required"}
	}
	err = config.Mutate(func(c *config.Config) error {
		c.SetDefaultModel(providerID, reader)
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "default model for %s = %s\n", providerID, reader)
	return nil
}

// defaultProviderSetting: `set provider <id>` / `unset provider`.
type defaultProviderSetting struct{}

func (defaultProviderSetting) set(cfg *config.Config, values []string) error {
	id := config.CanonicalProviderID(values[0])
	if _, ok := provider.Find(cfg, id); !ok {
		return &SettingError{Kind: ErrUnknownProvider, Message: fmt.Sprintf("unknown provider %q", id)}
	}
	cfg.DefaultProvider = id
	return nil
}

func (defaultProviderSetting) unset(cfg *config.Config, _ string) error {
	cfg.DefaultProvider = ""
	return nil
}

func (defaultProviderSetting) format(cfg *config.Config) string {
	if cfg.DefaultProvider == "" {
		return "(unset)"
	}
	return cfg.DefaultProvider
}

// themeSetting: `set theme <id>` / `unset theme`.
type themeSetting struct{}

func (themeSetting) set(cfg *config.Config, values []string) error {
	id := config.CanonicalThemeID(values[0])
	if _, ok := theme.Resolve(cfg, id); !ok {
		return &SettingError{Kind: ErrUnknownTheme, Message: fmt.Sprintf("unknown theme %q", id)}
	}
	cfg.Theme = id
	return nil
}

func (themeSetting) unset(cfg *config.Config, _ string) error {
	cfg.Theme = ""
	return nil
}

func (themeSetting) format(cfg *config.Config) string {
	if cfg.Theme == "" {
		return "gruvbox (default)"
	}
	return cfg.Theme
}

// boolSetting backs markdown/syntax/builtin-presets: spec §4.7 "Defaults
// printed for display are derived (e.g., markdown: on when unset); unset
// defaults never persist the defaulted value" — the field itself stays a
// *bool so nil means "unset".
type boolSetting struct {
	getFn func(*config.Config) *bool
	setFn func(*config.Config, *bool)
}

func (b boolSetting) set(cfg *config.Config, values []string) error {
	v, err := parseBool(values[0])
	if err != nil {
		return &SettingError{Kind: ErrInvalidBoolean, Message: err.Error()}
	}
	b.setFn(cfg, &v)
	return nil
}

func (b boolSetting) unset(cfg *config.Config, _ string) error {
	b.setFn(cfg, nil)
	return nil
}

func (b boolSetting) format(cfg *config.Config) string {
	v := b.getFn(cfg)
	if v == nil {
		return "on (default)"
	}
	if *v {
		return "on"
	}
	return "off"
}

// stringSetting backs refine-instructions/refine-prefix.
type stringSetting struct {
	getFn func(*config.Config) string
	setFn func(*config.Config, string)
}

func (s stringSetting) set(cfg *config.Config, values []string) error {
	s.setFn(cfg, strings.Join(values, " "))
	return nil
}

func (s stringSetting) unset(cfg *config.Config, _ string) error {
	s.setFn(cfg, "")
	return nil
}

func (s stringSetting) format(cfg *config.Config) string {
	v := s.getFn(cfg)
	if v == "" {
		return "(unset)"
	}
	return v
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	if v, err := strconv.ParseBool(s); err == nil {
		return v, nil
	}
	return false, fmt.Errorf("%q is not a valid boolean (use on/off)", s)
}
