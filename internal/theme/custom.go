package theme

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// loadCustomTheme reads a user-defined theme body from a standalone TOML
// file on disk (spec §4.7 "custom themes load from a file referenced by
// config"), grounded on the teacher's own use of BurntSushi/toml for
// config persistence, reused here for theme files.
func loadCustomTheme(path string) (Config, bool) {
	if path == "" {
		return Config{}, false
	}
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, false
	}
	return cfg, true
}

// SaveCustomTheme writes a theme body to path, the counterpart of
// loadCustomTheme (spec §4.6 theme picker "custom theme" affordance is out of scope
// for C7 itself but the persistence primitive belongs here).
func SaveCustomTheme(path string, cfg Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("theme: creating %s: %w", path, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("theme: encoding %s: %w", path, err)
	}
	return nil
}
