package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chabeau/chabeau/internal/action"
	"github.com/chabeau/chabeau/internal/appsession"
	"github.com/chabeau/chabeau/internal/picker"
	"github.com/chabeau/chabeau/internal/provider"
	"github.com/chabeau/chabeau/internal/uistate"
)

func newTestModel() *Model {
	sess := appsession.New(provider.Session{ProviderID: "openai", BaseURL: "https://api.openai.com/v1"}, "gpt-4o")
	app := action.NewApp(sess, nil, nil)
	m := New(app)
	m.width, m.height, m.ready = 80, 24, true
	return m
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_TypingInsertsRune(t *testing.T) {
	m := newTestModel()
	m.handleKey(runeKey("h"))
	m.handleKey(runeKey("i"))
	assert.Equal(t, "hi", m.app.UI.InputText)
}

func TestModel_BackspaceRemovesRune(t *testing.T) {
	m := newTestModel()
	m.handleKey(runeKey("h"))
	m.handleKey(runeKey("i"))
	m.handleKey(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "h", m.app.UI.InputText)
}

func TestModel_CancelNoOpWithoutStream(t *testing.T) {
	m := newTestModel()
	cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
}

func TestModel_PickerRuneFiltersQuery(t *testing.T) {
	m := newTestModel()
	m.app.Picker = picker.NewThemePicker(nil, "")
	m.app.UI.EnterModal(uistate.ModePicker)

	m.handleKey(runeKey("d"))
	m.handleKey(runeKey("r"))
	require.NotNil(t, m.app.Picker)
	assert.Equal(t, "dr", m.app.Picker.State.Query)
}

func TestModel_PickerBackspaceTrimsQuery(t *testing.T) {
	m := newTestModel()
	m.app.Picker = picker.NewThemePicker(nil, "")
	m.app.UI.EnterModal(uistate.ModePicker)
	m.app.Picker.SetQuery("drac")

	m.handleKey(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "dra", m.app.Picker.State.Query)
}

func TestModel_PickerEscapeClosesPicker(t *testing.T) {
	m := newTestModel()
	m.app.Picker = picker.NewThemePicker(nil, "")
	m.app.UI.EnterModal(uistate.ModePicker)

	m.handleKey(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, m.app.Picker)
	assert.True(t, m.app.UI.InTyping())
}

func TestModel_ViewRendersWithoutPanicking(t *testing.T) {
	m := newTestModel()
	assert.NotPanics(t, func() { m.View() })
}
