package theme

import (
	"path/filepath"
	"testing"

	"github.com/chabeau/chabeau/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_BuiltinPresetsCaseInsensitive(t *testing.T) {
	cfg, ok := Resolve(nil, "Gruvbox")
	require.True(t, ok)
	assert.Equal(t, "#b8bb26", cfg.Primary)
}

func TestResolve_AllPresetOrderEntriesExist(t *testing.T) {
	for _, id := range PresetOrder {
		_, ok := Presets[id]
		assert.True(t, ok, "missing preset %s", id)
	}
	assert.Len(t, PresetOrder, len(Presets))
}

func TestResolve_CustomThemeFromConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mytheme.toml")
	require.NoError(t, SaveCustomTheme(path, Config{Primary: "#112233"}))

	cfg := &config.Config{CustomThemes: []config.Theme{{ID: "mytheme", Path: path}}}
	resolved, ok := Resolve(cfg, "mytheme")
	require.True(t, ok)
	assert.Equal(t, "#112233", resolved.Primary)
}

func TestResolve_UnknownReturnsFalse(t *testing.T) {
	_, ok := Resolve(nil, "doesnotexist")
	assert.False(t, ok)
}

func TestBuild_ProducesStylesForAllRoles(t *testing.T) {
	styles := Build(Presets["dracula"].Config, X256)
	assert.NotNil(t, styles.Primary)
	assert.NotNil(t, styles.Error)
}
