package profile

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/chabeau/chabeau/internal/config"
)

// Character is a named character card: a system prompt plus a display
// identity (spec §4.6 "Character picker").
type Character struct {
	ID     string `toml:"id"`
	Name   string `toml:"name"`
	Prompt string `toml:"prompt"`
}

// TurnOffCharacterID is the character picker's reserved "turn off" id
// (spec §4.6 "a synthetic 'turn off' item with a reserved id").
const TurnOffCharacterID = "__none__"

// CharacterService loads character cards from a directory (spec §6
// "CHABEAU_CARDS_DIR (character cards root)"), one TOML file per card.
type CharacterService struct {
	byID map[string]Character
	ids  []string
}

// defaultCardsDirName is appended to the config dir when CHABEAU_CARDS_DIR
// is unset.
const defaultCardsDirName = "cards"

// CardsDir resolves the character cards root: CHABEAU_CARDS_DIR if set,
// else "<config dir>/cards".
func CardsDir() (string, error) {
	if dir := os.Getenv("CHABEAU_CARDS_DIR"); dir != "" {
		return dir, nil
	}
	cfgDir, err := config.GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, defaultCardsDirName), nil
}

// LoadCharacterService scans dir for *.toml character cards, skipping any
// file that fails to parse.
func LoadCharacterService(dir string) *CharacterService {
	s := &CharacterService{byID: map[string]Character{}}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return s
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
			continue
		}
		var c Character
		path := filepath.Join(dir, e.Name())
		if _, err := toml.DecodeFile(path, &c); err != nil {
			continue
		}
		if c.ID == "" {
			c.ID = strings.TrimSuffix(e.Name(), ".toml")
		}
		s.byID[c.ID] = c
		s.ids = append(s.ids, c.ID)
	}
	return s
}

// All returns every loaded character card.
func (s *CharacterService) All() []Character {
	out := make([]Character, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.byID[id])
	}
	return out
}

// Find looks up a character card by id.
func (s *CharacterService) Find(id string) (Character, bool) {
	c, ok := s.byID[id]
	return c, ok
}
