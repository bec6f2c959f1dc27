package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	chatrender "github.com/chabeau/chabeau/internal/render/chat"
	"github.com/chabeau/chabeau/internal/uistate"
)

// View renders one frame: the chat body (or, when a modal is active, the
// picker/inspect overlay in its place), a status line, and the input line
// (spec §4.5 "Rendering").
func (m *Model) View() string {
	if !m.ready {
		return "starting chabeau...\n"
	}

	reserved := 2 // status line + input line
	bodyHeight := m.height - reserved
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	var body string
	if mode, ok := m.app.UI.ActiveModal(); ok && mode == uistate.ModePicker {
		body = m.renderPicker(bodyHeight)
	} else if ok && mode == uistate.ModeInspect {
		body = m.renderInspect(bodyHeight)
	} else {
		body = m.renderChat(bodyHeight)
	}

	status := ansi.Truncate(m.renderStatus(), m.width, "…")
	input := ansi.Truncate(m.renderInput(), m.width, "…")
	return lipgloss.JoinVertical(lipgloss.Left, body, status, input)
}

func (m *Model) renderChat(height int) string {
	lines := m.app.Renderer.Render(m.app.Conversation, m.app.UI.Theme, m.markdown, m.syntaxEnabled, m.app.UI.UserDisplayName, m.width)
	total := len(lines)
	maxOffset := chatrender.MaxOffset(total, height)
	offset := m.app.UI.ScrollOffset
	if m.app.UI.AutoScroll {
		offset = maxOffset
	}
	start, end := chatrender.ScrollWindow(total, offset, height)

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(lines[i].Rendered())
		b.WriteString("\n")
	}
	for i := end - start; i < height; i++ {
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderPicker(height int) string {
	p := m.app.Picker
	if p == nil {
		return ""
	}
	styles := m.app.UI.Theme
	var b strings.Builder
	b.WriteString(styles.Primary.Render(p.State.Title))
	b.WriteString("  ")
	b.WriteString(styles.Muted.Render("(sort: " + string(p.State.Sort) + ", filter: " + p.State.Query + ")"))
	b.WriteString("\n")

	rows := height - 1
	if rows < 1 {
		rows = 1
	}
	for i, item := range p.State.Items {
		if i >= rows {
			break
		}
		line := item.Label
		if item.IsDefault {
			line += " *"
		}
		if i == p.State.Selected {
			line = styles.Success.Render("> " + line)
		} else {
			line = styles.Text.Render("  " + line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderInspect(height int) string {
	in := m.app.Inspect
	if in == nil {
		return ""
	}
	styles := m.app.UI.Theme
	content := in.Content
	if in.ToolCall != nil {
		content = fmt.Sprintf("view: %s (kind: %s)", in.ToolCall.View, in.ToolCall.Kind)
	}
	lines := strings.Split(content, "\n")
	in.Clamp(chatrender.MaxOffset(len(lines), height-1))
	start, end := chatrender.ScrollWindow(len(lines), in.ScrollOffset, height-1)

	var b strings.Builder
	b.WriteString(styles.Primary.Render(in.Title))
	b.WriteString("\n")
	for i := start; i < end; i++ {
		b.WriteString(lines[i])
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderStatus() string {
	ui := m.app.UI
	styles := ui.Theme
	var status string
	switch {
	case ui.Status != "":
		status = ui.Status
	case m.app.Session.StreamActive():
		status = m.spin.View() + " streaming... (esc to cancel)"
	default:
		status = fmt.Sprintf("%s / %s", m.app.Session.ProviderID, m.app.Session.Model)
	}
	if m.app.UI.ComposeMode {
		status += "  [compose]"
	}
	return styles.Muted.Render(status)
}

func (m *Model) renderInput() string {
	switch {
	case !m.app.UI.InTyping():
		if mode, ok := m.app.UI.ActiveModal(); ok && mode == uistate.ModeFilePrompt {
			return "filename: " + m.app.UI.InputText
		}
		return ""
	default:
		r := []rune(m.app.UI.InputText)
		cursor := m.app.UI.Cursor
		if cursor > len(r) {
			cursor = len(r)
		}
		return "> " + string(r[:cursor]) + "█" + string(r[cursor:])
	}
}
