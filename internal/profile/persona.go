// Package profile implements chabeau's persona, preset and character
// managers: the three App-owned services named in spec §3 ("Ownership:
// App exclusively owns... PersonaManager, PresetManager, CharacterService")
// and used by their matching picker modes (spec §4.6). Each is a thin
// TOML-file-backed catalog, grounded on internal/theme/custom.go's
// load-a-named-file-from-config pattern (BurntSushi/toml), generalized
// from "one theme body per file" to "one named profile file per
// persona/preset/character".
package profile

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/chabeau/chabeau/internal/config"
)

// Persona is a system-prompt override the user can swap in (spec §4.6
// "Persona/preset pickers").
type Persona struct {
	ID     string `toml:"id"`
	Name   string `toml:"name"`
	Prompt string `toml:"prompt"`
}

// TurnOffPersonaID is the reserved id the persona picker's synthetic
// "turn off" entry applies (spec §4.6 "their own reserved 'turn off' ids").
const TurnOffPersonaID = "__none__"

// PersonaManager loads and looks up configured personas (spec §3
// "PersonaManager").
type PersonaManager struct {
	byID map[string]Persona
	ids  []string
}

// LoadPersonaManager reads every persona file named in cfg.Personas (each
// a path to a TOML file), skipping ones that fail to parse.
func LoadPersonaManager(cfg *config.Config) *PersonaManager {
	m := &PersonaManager{byID: map[string]Persona{}}
	if cfg == nil {
		return m
	}
	for _, path := range cfg.Personas {
		var p Persona
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

// All returns every loaded persona in load order.
func (m *PersonaManager) All() []Persona {
	out := make([]Persona, 0, len(m.ids))
	for _, id := range m.ids {
		out = append(out, m.byID[id])
	}
	return out
}

// Find looks up a persona by id.
func (m *PersonaManager) Find(id string) (Persona, bool) {
	p, ok := m.byID[id]
	return p, ok
}

// SavePersona writes a persona body to path, the persistence primitive
// behind a future persona-editing flow (out of scope here, analogous to
// theme.SaveCustomTheme).
func SavePersona(path string, p Persona) error {
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
