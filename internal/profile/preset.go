package profile

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/chabeau/chabeau/internal/config"
)

// Preset is a named bundle of generation settings (system prompt plus an
// optional temperature override) the user can swap in (spec §4.6
// "Persona/preset pickers").
type Preset struct {
	ID           string   `toml:"id"`
	Name         string   `toml:"name"`
	SystemPrompt string   `toml:"system_prompt"`
	Temperature  *float64 `toml:"temperature,omitempty"`
}

// TurnOffPresetID is the preset picker's reserved "turn off" id (spec
// §4.6).
const TurnOffPresetID = "__none__"

// PresetManager loads and looks up configured presets (spec §3
// "PresetManager"), built-ins optionally suppressed via
// config.BuiltinPresetsEnabled (spec §3 ConfigSnapshot.builtin_presets).
type PresetManager struct {
	byID map[string]Preset
	ids  []string
}

// builtinPresets ships a small, always-available set (spec §3
// "builtin_presets?" flag gates these off when false).
var builtinPresets = []Preset{
	{ID: "concise", Name: "Concise", SystemPrompt: "Answer as concisely as possible."},
	{ID: "explain", Name: "Explain in depth", SystemPrompt: "Explain your reasoning thoroughly before answering."},
}

// LoadPresetManager reads every preset file named in cfg.Presets, plus the
// built-ins unless disabled.
func LoadPresetManager(cfg *config.Config) *PresetManager {
	m := &PresetManager{byID: map[string]Preset{}}
	if cfg == nil || cfg.BuiltinPresetsEnabled() {
		for _, p := range builtinPresets {
			m.byID[p.ID] = p
			m.ids = append(m.ids, p.ID)
		}
	}
	if cfg == nil {
		return m
	}
	for _, path := range cfg.Presets {
		var p Preset
		if _, err := toml.DecodeFile(path, &p); err != nil {
			continue
		}
		if p.ID == "" {
			continue
		}
		m.byID[p.ID] = p
		m.ids = append(m.ids, p.ID)
	}
	return m
}

// All returns every loaded preset in load order (built-ins first).
func (m *PresetManager) All() []Preset {
	out := make([]Preset, 0, len(m.ids))
	for _, id := range m.ids {
		out = append(out, m.byID[id])
	}
	return out
}

// Find looks up a preset by id.
func (m *PresetManager) Find(id string) (Preset, bool) {
	p, ok := m.byID[id]
	return p, ok
}

// SavePreset writes a preset body to path.
func SavePreset(path string, p Preset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("profile: creating %s: %w", path, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(p); err != nil {
		return fmt.Errorf("profile: encoding %s: %w", path, err)
	}
	return nil
}
