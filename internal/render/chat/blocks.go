package chat

import (
	"strings"

	"github.com/chabeau/chabeau/internal/chatlog"
)

// CodeBlockRef identifies one fenced code block in the conversation, in
// conversation order, for block-select navigation (spec §4.1 "block_select
// mode context: navigate and save the conversation's fenced code blocks").
type CodeBlockRef struct {
	MessageIndex int
	Lang         string
	Content      string
}

// CodeBlocks extracts every fenced code block from the conversation's
// assistant messages, grounded on the same splitFencedCodeBlocks
// buildAssistantLines uses for syntax highlighting, but run over each
// message's raw (unrendered) Content so block-select always saves exactly
// what the model wrote rather than glamour's re-rendering of it. A fenced
// block with no language tag is indistinguishable from a plain prose
// paragraph by this splitter (the same limitation buildAssistantLines
// already has), so only blocks carrying a language tag are returned.
func CodeBlocks(messages []chatlog.Message) []CodeBlockRef {
	var out []CodeBlockRef
	for i, m := range messages {
		if m.Role != chatlog.RoleAssistant || m.Content == "" {
			continue
		}
		for _, b := range splitFencedCodeBlocks(m.Content) {
			if b.lang == "" || strings.TrimSpace(b.text) == "" {
				continue
			}
			out = append(out, CodeBlockRef{MessageIndex: i, Lang: b.lang, Content: b.text})
		}
	}
	return out
}
