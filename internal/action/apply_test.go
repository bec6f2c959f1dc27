package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chabeau/chabeau/internal/appsession"
	"github.com/chabeau/chabeau/internal/chatlog"
	"github.com/chabeau/chabeau/internal/picker"
	"github.com/chabeau/chabeau/internal/provider"
	"github.com/chabeau/chabeau/internal/uistate"
)

func newTestApp() *App {
	sess := appsession.New(provider.Session{ProviderID: "openai", BaseURL: "https://api.openai.com/v1"}, "gpt-4o")
	return NewApp(sess, nil, nil)
}

func TestApplyAction_StreamIDGating(t *testing.T) {
	app := newTestApp()

	cmd := ApplyAction(app, SubmitMessage{Text: "hi"}, Context{})
	spawn, ok := cmd.(SpawnStream)
	require.True(t, ok)
	currentID := spawn.StreamID

	// A chunk tagged with a stale stream id must be discarded (spec §8
	// "Stream id gating" law): Conversation is left unchanged.
	before := append([]string(nil), renderedContents(app)...)
	ApplyAction(app, AppendResponseChunk{Content: "stale", StreamID: currentID - 1}, Context{})
	assert.Equal(t, before, renderedContents(app))

	// A chunk tagged with the current stream id is applied.
	ApplyAction(app, AppendResponseChunk{Content: "hello", StreamID: currentID}, Context{})
	msgs := app.Conversation.Messages()
	assert.Equal(t, "hello", msgs[len(msgs)-1].Content)
}

func renderedContents(app *App) []string {
	msgs := app.Conversation.Messages()
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Content
	}
	return out
}

func TestApplyAction_SubmitMessageStartsStream(t *testing.T) {
	app := newTestApp()
	cmd := ApplyAction(app, SubmitMessage{Text: "hello"}, Context{})
	spawn, ok := cmd.(SpawnStream)
	require.True(t, ok)
	assert.Equal(t, uint64(1), spawn.StreamID)
	assert.True(t, app.Session.StreamActive())

	msgs := app.Conversation.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Content)
}

func TestApplyAction_SubmitMessageIgnoresBlank(t *testing.T) {
	app := newTestApp()
	cmd := ApplyAction(app, SubmitMessage{Text: "   "}, Context{})
	assert.Nil(t, cmd)
	assert.Equal(t, 0, app.Conversation.Len())
}

func TestApplyAction_PickerEscapeReverts(t *testing.T) {
	app := newTestApp()
	app.Picker = picker.NewThemePicker(nil, "gruvbox")
	app.UI.EnterModal(uistate.ModePicker)

	app.Picker.SetQuery("drac")
	app.Picker.MoveDown()

	ApplyAction(app, PickerEscape{}, Context{})

	assert.Nil(t, app.Picker)
	assert.Equal(t, "gruvbox", app.UI.CurrentThemeID)
}

func TestApplyAction_PickerApplyModel_SetsSessionModel(t *testing.T) {
	app := newTestApp()
	app.Picker = picker.NewModelPicker(nil, "")
	app.Picker.State.AllItems = []picker.Item{{ID: "gpt-4o-mini", Label: "gpt-4o-mini"}}
	app.Picker.SetQuery("")

	cmd := ApplyAction(app, PickerApply{Persistent: false}, Context{})
	assert.Nil(t, cmd)
	assert.Equal(t, "gpt-4o-mini", app.Session.Model)
	assert.Nil(t, app.Picker)
}

func TestApplyAction_CancelStreamingClearsActiveFlag(t *testing.T) {
	app := newTestApp()
	ApplyAction(app, SubmitMessage{Text: "hi"}, Context{})
	require.True(t, app.Session.StreamActive())

	ApplyAction(app, CancelStreaming{}, Context{})
	assert.False(t, app.Session.StreamActive())
}

func TestApplyAction_ProcessCommandQuit(t *testing.T) {
	app := newTestApp()
	ApplyAction(app, ProcessCommand{Line: "/quit"}, Context{})
	assert.True(t, app.Quit)
}

func TestApplyAction_ProcessCommandClear(t *testing.T) {
	app := newTestApp()
	app.Conversation.Append(chatlog.Message{Role: chatlog.RoleUser, Content: "leftover"})
	ApplyAction(app, ProcessCommand{Line: "/clear"}, Context{})
	assert.Equal(t, 0, app.Conversation.Len())
}
