// Package theme implements chabeau's theme subsystem (C7): named color
// presets, resolution of custom theme overrides from config, and
// terminal-color-depth quantization (spec §4.5 "Color quantization").
// Grounded on the teacher's ThemeConfig/ThemePreset/ThemeFromConfig in
// internal/ui/styles.go and internal/ui/theme_presets.go, carried over
// essentially unchanged as the built-in preset table; quantization itself
// is new, since the teacher renders directly via lipgloss.Color without
// depth-aware downsampling.
package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/chabeau/chabeau/internal/config"
)

// Config is a theme's named color roles (hex or ANSI index strings),
// grounded on the teacher's ThemeConfig in internal/ui/styles.go.
type Config struct {
	Primary   string
	Secondary string
	Success   string
	Error     string
	Warning   string
	Muted     string
	Text      string
	Spinner   string
	UserMsgBg string
}

// Preset is one built-in, named theme.
type Preset struct {
	ID          string
	Description string
	Config      Config
}

// PresetOrder lists the built-in theme ids. The theme picker adds them in
// this order before any custom themes, then sorts all entries by label.
var PresetOrder = []string{"gruvbox", "dracula", "nord", "solarized", "monokai", "classic"}

// Presets mirrors the teacher's PresetThemes table in
// internal/ui/theme_presets.go verbatim — these are chabeau's built-in
// color schemes, unrelated to any spec semantics.
var Presets = map[string]Preset{
	"classic": {
		ID:          "classic",
		Description: "Classic green terminal style",
		Config: Config{
			Primary: "10", Secondary: "4", Success: "10", Error: "9",
			Warning: "11", Muted: "245", Text: "15", Spinner: "205",
		},
	},
	"dracula": {
		ID:          "dracula",
		Description: "Popular dark theme with purple accents",
		Config: Config{
			Primary: "#bd93f9", Secondary: "#8be9fd", Success: "#50fa7b", Error: "#ff5555",
			Warning: "#f1fa8c", Muted: "#6272a4", Text: "#f8f8f2", Spinner: "#ff79c6",
		},
	},
	"nord": {
		ID:          "nord",
		Description: "Arctic, north-bluish color palette",
		Config: Config{
			Primary: "#88c0d0", Secondary: "#81a1c1", Success: "#a3be8c", Error: "#bf616a",
			Warning: "#ebcb8b", Muted: "#4c566a", Text: "#eceff4", Spinner: "#b48ead",
		},
	},
	"solarized": {
		ID:          "solarized",
		Description: "Precision colors for machines and people",
		Config: Config{
			Primary: "#268bd2", Secondary: "#2aa198", Success: "#859900", Error: "#dc322f",
			Warning: "#b58900", Muted: "#586e75", Text: "#839496", Spinner: "#d33682",
		},
	},
	"monokai": {
		ID:          "monokai",
		Description: "Vibrant colors inspired by Sublime Text",
		Config: Config{
			Primary: "#a6e22e", Secondary: "#66d9ef", Success: "#a6e22e", Error: "#f92672",
			Warning: "#e6db74", Muted: "#75715e", Text: "#f8f8f2", Spinner: "#ae81ff",
		},
	},
	"gruvbox": {
		ID:          "gruvbox",
		Description: "Retro groove color scheme (default)",
		Config: Config{
			Primary: "#b8bb26", Secondary: "#83a598", Success: "#b8bb26", Error: "#fb4934",
			Warning: "#fabd2f", Muted: "#a89984", Text: "#ebdbb2", Spinner: "#d3869b",
		},
	},
}

// Resolve looks up a theme by id: built-in presets first, then the
// config's custom_themes list (spec §4.7 theme canonicalization:
// lowercased ids).
func Resolve(cfg *config.Config, id string) (Config, bool) {
	id = config.CanonicalThemeID(id)
	if p, ok := Presets[id]; ok {
		return p.Config, true
	}
	if cfg == nil {
		return Config{}, false
	}
	for _, t := range cfg.CustomThemes {
		if t.ID == id {
			return loadCustomTheme(t.Path)
		}
	}
	return Config{}, false
}

// Styles is the set of lipgloss styles derived from a resolved, quantized
// theme (grounded on the teacher's Theme struct in internal/ui/styles.go).
type Styles struct {
	Primary   lipgloss.Style
	Secondary lipgloss.Style
	Success   lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
	Muted     lipgloss.Style
	Text      lipgloss.Style
	Spinner   lipgloss.Style
}

// Build quantizes cfg to depth and returns ready-to-use lipgloss styles.
func Build(cfg Config, depth Depth) Styles {
	mk := func(hex string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(QuantizeHex(hex, depth)))
	}
	return Styles{
		Primary:   mk(cfg.Primary),
		Secondary: mk(cfg.Secondary),
		Success:   mk(cfg.Success),
		Error:     mk(cfg.Error),
		Warning:   mk(cfg.Warning),
		Muted:     mk(cfg.Muted),
		Text:      mk(cfg.Text),
		Spinner:   mk(cfg.Spinner),
	}
}
