package picker

import (
	"fmt"

	"github.com/chabeau/chabeau/internal/config"
	"github.com/chabeau/chabeau/internal/credentials"
	"github.com/chabeau/chabeau/internal/httpchat"
	"github.com/chabeau/chabeau/internal/profile"
	"github.com/chabeau/chabeau/internal/provider"
	"github.com/chabeau/chabeau/internal/theme"
)

// dateKey renders a created-at epoch as the 20-digit zero-padded decimal
// sort key spec §4.6 names ("20-digit zero-padded decimal created-at as
// key (fallback to created_at string or owner)").
func dateKey(created int64, fallback string) string {
	if created > 0 {
		return fmt.Sprintf("%020d", created)
	}
	return fmt.Sprintf("%020s", fallback)
}

// NewModelPicker builds a model picker session from a provider's model
// list (spec §4.6 "Model picker"). defaultModel marks the asterisk-suffixed
// entry.
func NewModelPicker(models []httpchat.Model, defaultModel string) *Session {
	items := make([]Item, len(models))
	sortMode := SortName
	for i, m := range models {
		label := m.DisplayName
		if label == "" {
			label = m.ID
		}
		if m.Created != 0 {
			sortMode = SortDate
		}
		items[i] = Item{
			ID:        m.ID,
			Label:     label,
			CreatedAt: dateKey(m.Created, m.OwnedBy),
			IsDefault: m.ID == defaultModel,
			Metadata:  map[string]string{"owned_by": m.OwnedBy},
		}
	}
	return newSession(ModeModel, "Select model", items, sortMode)
}

// NewProviderPicker builds a provider picker session listing only
// providers with a stored credential (spec §4.6 "Provider picker: lists
// only providers with a stored credential").
func NewProviderPicker(cfg *config.Config, store *credentials.Store, currentProvider string) *Session {
	var items []Item
	for _, d := range provider.All(cfg) {
		if _, ok, err := store.Get(d.ID); err != nil || !ok {
			continue
		}
		items = append(items, Item{ID: d.ID, Label: d.Display, IsDefault: d.ID == currentProvider})
	}
	return newSession(ModeProvider, "Select provider", items, SortName)
}

// NewThemePicker builds a theme picker session over built-in presets plus
// configured custom themes (spec §4.6 "Theme picker"). The cursor, in both
// State and the Before snapshot, starts on currentTheme when it is listed,
// so Escape re-applies the theme that was in use at open.
func NewThemePicker(cfg *config.Config, currentTheme string) *Session {
	var items []Item
	for _, id := range theme.PresetOrder {
		p := theme.Presets[id]
		items = append(items, Item{ID: p.ID, Label: p.Description, IsDefault: p.ID == currentTheme})
	}
	if cfg != nil {
		for _, t := range cfg.CustomThemes {
			items = append(items, Item{ID: t.ID, Label: t.ID, IsDefault: t.ID == currentTheme})
		}
	}
	s := newSession(ModeTheme, "Select theme", items, SortName)
	for i, it := range s.State.Items {
		if it.IsDefault {
			s.State.Selected, s.Before.Selected = i, i
			break
		}
	}
	return s
}

// NewCharacterPicker builds a character picker session, prepending the
// reserved "turn off" entry (spec §4.6 "Character picker").
func NewCharacterPicker(svc *profile.CharacterService, active string) *Session {
	items := []Item{{ID: profile.TurnOffCharacterID, Label: "(turn off character)", ReservedTurnOff: true, IsDefault: active == ""}}
	for _, c := range svc.All() {
		items = append(items, Item{ID: c.ID, Label: c.Name, IsDefault: c.ID == active})
	}
	return newSession(ModeCharacter, "Select character", items, SortName)
}

// NewPersonaPicker builds a persona picker session, analogous to the
// character picker (spec §4.6 "Persona/preset pickers: analogous with
// their own reserved 'turn off' ids").
func NewPersonaPicker(mgr *profile.PersonaManager, active string) *Session {
	items := []Item{{ID: profile.TurnOffPersonaID, Label: "(turn off persona)", ReservedTurnOff: true, IsDefault: active == ""}}
	for _, p := range mgr.All() {
		items = append(items, Item{ID: p.ID, Label: p.Name, IsDefault: p.ID == active})
	}
	return newSession(ModePersona, "Select persona", items, SortName)
}

// NewPresetPicker builds a preset picker session, analogous to the
// character/persona pickers.
func NewPresetPicker(mgr *profile.PresetManager, active string) *Session {
	items := []Item{{ID: profile.TurnOffPresetID, Label: "(turn off preset)", ReservedTurnOff: true, IsDefault: active == ""}}
	for _, p := range mgr.All() {
		items = append(items, Item{ID: p.ID, Label: p.Name, IsDefault: p.ID == active})
	}
	return newSession(ModePreset, "Select preset", items, SortName)
}
