// Package config implements chabeau's persistent settings store (C1):
// a typed snapshot of user settings backed by a single TOML file, with a
// process-wide mtime-checked cache and atomic (temp-file + rename) writes.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// Provider is a user-configured provider descriptor. Built-in providers
// (openai, anthropic, openrouter, poe) are supplied by internal/provider's
// registry and are not stored here unless the user overrides them.
type Provider struct {
	ID        string `mapstructure:"id" toml:"id"`
	Display   string `mapstructure:"display" toml:"display"`
	BaseURL   string `mapstructure:"base_url" toml:"base_url"`
	AnthropicAuth bool `mapstructure:"anthropic_auth" toml:"anthropic_auth"`
}

// Theme is a user-defined theme reference stored in config (the theme body
// itself lives in a separate themes directory; see internal/theme).
type Theme struct {
	ID   string `mapstructure:"id" toml:"id"`
	Path string `mapstructure:"path" toml:"path"`
}

// MCPServer is a configured MCP server entry (spec §3 McpServerState.config).
type MCPServer struct {
	ID              string            `mapstructure:"id" toml:"id"`
	Transport       string            `mapstructure:"transport" toml:"transport"` // "stdio" | "http"
	Command         string            `mapstructure:"command" toml:"command"`
	Args            []string          `mapstructure:"args" toml:"args"`
	Env             map[string]string `mapstructure:"env" toml:"env"`
	URL             string            `mapstructure:"url" toml:"url"`
	Enabled         bool              `mapstructure:"enabled" toml:"enabled"`
	ToolPayloadWindow int             `mapstructure:"tool_payload_window" toml:"tool_payload_window"`
}

// NameModelMap is map[provider]map[model]name, used for default
// characters/personas/presets scoped per (provider, model) pair.
type NameModelMap map[string]map[string]string

// Config is the full persisted settings snapshot (spec §3 ConfigSnapshot).
type Config struct {
	DefaultProvider    string                  `mapstructure:"default_provider" toml:"default_provider,omitempty"`
	DefaultModels      map[string]string       `mapstructure:"default_models" toml:"default_models,omitempty"`
	DefaultCharacters  NameModelMap            `mapstructure:"default_characters" toml:"default_characters,omitempty"`
	DefaultPersonas    NameModelMap            `mapstructure:"default_personas" toml:"default_personas,omitempty"`
	DefaultPresets     NameModelMap            `mapstructure:"default_presets" toml:"default_presets,omitempty"`
	Theme              string                  `mapstructure:"theme" toml:"theme,omitempty"`
	Markdown           *bool                   `mapstructure:"markdown" toml:"markdown,omitempty"`
	Syntax             *bool                   `mapstructure:"syntax" toml:"syntax,omitempty"`
	BuiltinPresets     *bool                   `mapstructure:"builtin_presets" toml:"builtin_presets,omitempty"`
	CustomProviders    []Provider              `mapstructure:"custom_providers" toml:"custom_providers,omitempty"`
	CustomThemes       []Theme                 `mapstructure:"custom_themes" toml:"custom_themes,omitempty"`
	Personas           []string                `mapstructure:"personas" toml:"personas,omitempty"`
	Presets            []string                `mapstructure:"presets" toml:"presets,omitempty"`
	MCPServers         []MCPServer             `mapstructure:"mcp_servers" toml:"mcp_servers,omitempty"`
	RefineInstructions string                  `mapstructure:"refine_instructions" toml:"refine_instructions,omitempty"`
	RefinePrefix       string                  `mapstructure:"refine_prefix" toml:"refine_prefix,omitempty"`
}

// defaults mirrors what unset keys render as when displayed (spec §4.7).
// These are never persisted: Save only ever writes fields the user set.
var defaults = map[string]any{
	"markdown":        true,
	"syntax":          true,
	"builtin_presets": true,
}

// cacheEntry holds the last-loaded config alongside the file mtime it was
// read at, guarded by mu. This is the process-wide cache named in spec §9
// ("Global state... process-wide with a lock").
type cacheEntry struct {
	cfg   *Config
	mtime time.Time
}

var (
	mu        sync.Mutex
	cache     *cacheEntry
	overridePath string // test harness override, see SetPathOverride
)

// SetPathOverride forces GetConfigPath to return the given path, for tests.
// Passing "" restores normal resolution.
func SetPathOverride(path string) {
	mu.Lock()
	defer mu.Unlock()
	overridePath = path
	cache = nil
}

// GetConfigDir returns the directory chabeau's config file lives in,
// honoring XDG_CONFIG_HOME.
func GetConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "chabeau"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "chabeau"), nil
}

// GetConfigPath returns the full path to config.toml.
func GetConfigPath() (string, error) {
	mu.Lock()
	override := overridePath
	mu.Unlock()
	if override != "" {
		return override, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func fileMtime(path string) (time.Time, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// Load returns the current config snapshot, reading from disk only when the
// on-disk mtime differs from the cached one (spec §4.7 read path).
func Load() (*Config, error) {
	mu.Lock()
	defer mu.Unlock()
	return loadLocked()
}

func loadLocked() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	mtime, exists := fileMtime(path)
	if cache != nil && (!exists || cache.mtime.Equal(mtime)) {
		return cloneConfig(cache.cfg), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	if exists {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	normalize(&cfg)

	cache = &cacheEntry{cfg: cloneConfig(&cfg), mtime: mtime}
	return cloneConfig(&cfg), nil
}

func normalize(cfg *Config) {
	if cfg.DefaultModels == nil {
		cfg.DefaultModels = map[string]string{}
	}
	if cfg.DefaultCharacters == nil {
		cfg.DefaultCharacters = NameModelMap{}
	}
	if cfg.DefaultPersonas == nil {
		cfg.DefaultPersonas = NameModelMap{}
	}
	if cfg.DefaultPresets == nil {
		cfg.DefaultPresets = NameModelMap{}
	}
	cfg.DefaultProvider = CanonicalProviderID(cfg.DefaultProvider)
	for i := range cfg.CustomProviders {
		cfg.CustomProviders[i].ID = CanonicalCustomID(cfg.CustomProviders[i].ID)
	}
	for i := range cfg.CustomThemes {
		cfg.CustomThemes[i].ID = CanonicalThemeID(cfg.CustomThemes[i].ID)
	}
}

// CanonicalProviderID lowercases a built-in provider id. Custom provider
// ids go through CanonicalCustomID instead (spec §4.7 "alphanumeric-only
// for custom providers").
func CanonicalProviderID(id string) string {
	return strings.ToLower(id)
}

// CanonicalThemeID lowercases theme ids.
func CanonicalThemeID(id string) string {
	return strings.ToLower(id)
}

// CanonicalCustomID keeps only alphanumeric runes, lowercased, used for
// user-defined provider ids per spec §4.7 ("alphanumeric-only for custom
// providers").
func CanonicalCustomID(id string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(id) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func cloneConfig(cfg *Config) *Config {
	if cfg == nil {
		return nil
	}
	cp := *cfg
	cp.DefaultModels = cloneStringMap(cfg.DefaultModels)
	cp.DefaultCharacters = cloneNameModelMap(cfg.DefaultCharacters)
	cp.DefaultPersonas = cloneNameModelMap(cfg.DefaultPersonas)
	cp.DefaultPresets = cloneNameModelMap(cfg.DefaultPresets)
	cp.CustomProviders = append([]Provider(nil), cfg.CustomProviders...)
	cp.CustomThemes = append([]Theme(nil), cfg.CustomThemes...)
	cp.Personas = append([]string(nil), cfg.Personas...)
	cp.Presets = append([]string(nil), cfg.Presets...)
	cp.MCPServers = append([]MCPServer(nil), cfg.MCPServers...)
	return &cp
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneNameModelMap(m NameModelMap) NameModelMap {
	if m == nil {
		return nil
	}
	out := make(NameModelMap, len(m))
	for provider, models := range m {
		out[provider] = cloneStringMap(models)
	}
	return out
}

// Mutate implements spec §4.7's mutate path: lock, ensure the cache is
// fresh, clone the snapshot, invoke the closure, persist atomically, and
// update the cache. If closure returns an error (or panics), the file on
// disk is left untouched (spec §8 scenario 6).
func Mutate(fn func(cfg *Config) error) (err error) {
	mu.Lock()
	defer mu.Unlock()

	cfg, loadErr := loadLocked()
	if loadErr != nil {
		return loadErr
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("config mutation panicked: %v", r)
		}
	}()

	if mutErr := fn(cfg); mutErr != nil {
		return mutErr
	}
	normalize(cfg)

	if err := persist(cfg); err != nil {
		return err
	}

	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	mtime, _ := fileMtime(path)
	cache = &cacheEntry{cfg: cloneConfig(cfg), mtime: mtime}
	return nil
}

// persist writes cfg to disk atomically: encode to a temp file in the same
// directory, fsync, then rename over the target (spec §4.7, §8 scenario 6).
func persist(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.toml.tmp")
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	enc := toml.NewEncoder(tmp)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp config file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		return fmt.Errorf("chmod temp config file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp config file: %w", err)
	}
	cleanup = false
	return nil
}

// Exists reports whether a config file is present on disk.
func Exists() bool {
	path, err := GetConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// MarkdownEnabled returns the effective markdown setting, applying the
// documented default when unset.
func (c *Config) MarkdownEnabled() bool {
	if c.Markdown == nil {
		return defaults["markdown"].(bool)
	}
	return *c.Markdown
}

// SyntaxEnabled returns the effective syntax-highlighting setting.
func (c *Config) SyntaxEnabled() bool {
	if c.Syntax == nil {
		return defaults["syntax"].(bool)
	}
	return *c.Syntax
}

// BuiltinPresetsEnabled returns the effective built-in-presets setting.
func (c *Config) BuiltinPresetsEnabled() bool {
	if c.BuiltinPresets == nil {
		return defaults["builtin_presets"].(bool)
	}
	return *c.BuiltinPresets
}

// GetDefaultModel returns the configured default model for a provider, if any.
func (c *Config) GetDefaultModel(providerID string) (string, bool) {
	model, ok := c.DefaultModels[providerID]
	return model, ok
}

// SetDefaultModel sets (or clears, if model == "") the default model for a
// provider within an already-loaded snapshot; callers persist via Mutate.
func (c *Config) SetDefaultModel(providerID, model string) {
	if c.DefaultModels == nil {
		c.DefaultModels = map[string]string{}
	}
	if model == "" {
		delete(c.DefaultModels, providerID)
		return
	}
	c.DefaultModels[providerID] = model
}

func nameModelGet(m NameModelMap, provider, model string) (string, bool) {
	byModel, ok := m[provider]
	if !ok {
		return "", false
	}
	name, ok := byModel[model]
	return name, ok
}

func nameModelSet(m *NameModelMap, provider, model, name string) {
	if *m == nil {
		*m = NameModelMap{}
	}
	byModel, ok := (*m)[provider]
	if !ok {
		byModel = map[string]string{}
		(*m)[provider] = byModel
	}
	if name == "" {
		delete(byModel, model)
		return
	}
	byModel[model] = name
}

// GetDefaultCharacter/SetDefaultCharacter, GetDefaultPersona/SetDefaultPersona,
// GetDefaultPreset/SetDefaultPreset all follow the same (provider, model) ->
// name shape described in spec §3 ConfigSnapshot.

func (c *Config) GetDefaultCharacter(provider, model string) (string, bool) {
	return nameModelGet(c.DefaultCharacters, provider, model)
}

func (c *Config) SetDefaultCharacter(provider, model, name string) {
	nameModelSet(&c.DefaultCharacters, provider, model, name)
}

func (c *Config) GetDefaultPersona(provider, model string) (string, bool) {
	return nameModelGet(c.DefaultPersonas, provider, model)
}

func (c *Config) SetDefaultPersona(provider, model, name string) {
	nameModelSet(&c.DefaultPersonas, provider, model, name)
}

func (c *Config) GetDefaultPreset(provider, model string) (string, bool) {
	return nameModelGet(c.DefaultPresets, provider, model)
}

func (c *Config) SetDefaultPreset(provider, model, name string) {
	nameModelSet(&c.DefaultPresets, provider, model, name)
}

// FindCustomProvider looks up a user-defined provider descriptor by id.
func (c *Config) FindCustomProvider(id string) (Provider, bool) {
	id = CanonicalProviderID(id)
	for _, p := range c.CustomProviders {
		if p.ID == id {
			return p, true
		}
	}
	return Provider{}, false
}

// FindMCPServer looks up a configured MCP server entry by id.
func (c *Config) FindMCPServer(id string) (MCPServer, bool) {
	for _, s := range c.MCPServers {
		if s.ID == id {
			return s, true
		}
	}
	return MCPServer{}, false
}
