package mcpclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePromptCommand(t *testing.T) {
	cases := []struct {
		name       string
		input      string
		wantServer string
		wantPrompt string
		wantArgs   map[string]string
		wantErr    bool
	}{
		{
			name:       "no arguments",
			input:      "docs summarize",
			wantServer: "docs",
			wantPrompt: "summarize",
			wantArgs:   map[string]string{},
		},
		{
			name:       "key value pairs",
			input:      "docs summarize topic=soil lang=en",
			wantServer: "docs",
			wantPrompt: "summarize",
			wantArgs:   map[string]string{"topic": "soil", "lang": "en"},
		},
		{
			name:       "quoted value with spaces",
			input:      `docs summarize topic='soil health'`,
			wantServer: "docs",
			wantPrompt: "summarize",
			wantArgs:   map[string]string{"topic": "soil health"},
		},
		{
			name:    "missing prompt name",
			input:   "docs",
			wantErr: true,
		},
		{
			name:    "argument missing equals",
			input:   "docs summarize topic",
			wantErr: true,
		},
		{
			name:    "unclosed quote",
			input:   `docs summarize topic='open`,
			wantErr: true,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			server, prompt, args, err := ParsePromptCommand(c.input)
			if c.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.wantServer, server)
			assert.Equal(t, c.wantPrompt, prompt)
			assert.Equal(t, c.wantArgs, args)
		})
	}
}
