// Package scriptconfig holds the configuration of one script slot: which
// script runs there, its settings and any data waiting to be handed to it.
package scriptconfig

import (
	"slices"
	"strconv"
	"strings"

	scriptsave "github.com/goliatone/go-scriptsave"
	"github.com/goliatone/go-scriptsave/pkg/registry"
)

// Finder resolves a script name and version to its info.
type Finder interface {
	Find(name string, version int, forceExact bool) (registry.Info, bool)
}

// Config is the configuration of one slot. It is not safe for concurrent use.
type Config struct {
	finder   Finder
	name     string
	info     *registry.Info
	settings map[string]int
	pending  *scriptsave.Payload
}

var _ scriptsave.Config = (*Config)(nil)

// New returns a config with no script selected.
func New(finder Finder) *Config {
	return &Config{finder: finder, settings: map[string]int{}}
}

// HasScript reports whether a concrete installed script is selected.
func (c *Config) HasScript() bool {
	return c.info != nil
}

// Name returns the selected name. It is kept even when no installed script
// matched it.
func (c *Config) Name() string {
	return c.name
}

// Version returns the selected version or -1 when no script is selected.
func (c *Config) Version() int {
	if c.info == nil {
		return scriptsave.VersionUnspecified
	}
	return c.info.Version
}

// Info returns the selected script info.
func (c *Config) Info() (registry.Info, bool) {
	if c.info == nil {
		return registry.Info{}, false
	}
	return *c.info, true
}

// Change selects a script and clears settings and pending data.
func (c *Config) Change(name string, version int, forceExactVersion bool) {
	c.name = name
	c.info = nil
	if name != "" && c.finder != nil {
		if info, ok := c.finder.Find(name, version, forceExactVersion); ok {
			c.info = &info
		}
	}
	c.settings = map[string]int{}
	c.pending = nil
}

// Setting returns the stored value of a setting, falling back to the
// script's default.
func (c *Config) Setting(name string) (int, bool) {
	if value, ok := c.settings[name]; ok {
		return value, true
	}
	if c.info != nil {
		if setting, ok := c.info.Setting(name); ok {
			return setting.Default, true
		}
	}
	return 0, false
}

// SetSetting stores a value. With a known script, unknown names are ignored
// and values clamped to the declared range.
func (c *Config) SetSetting(name string, value int) {
	if c.info != nil {
		setting, ok := c.info.Setting(name)
		if !ok {
			return
		}
		value = setting.Clamp(value)
	}
	c.settings[name] = value
}

// Settings returns a copy of the stored values.
func (c *Config) Settings() map[string]int {
	out := make(map[string]int, len(c.settings))
	for k, v := range c.settings {
		out[k] = v
	}
	return out
}

// SettingsToString encodes the stored values as name=value pairs separated by
// commas, sorted by name.
func (c *Config) SettingsToString() string {
	names := make([]string, 0, len(c.settings))
	for name := range c.settings {
		names = append(names, name)
	}
	slices.Sort(names)
	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(strconv.Itoa(c.settings[name]))
	}
	return b.String()
}

// StringToSettings applies pairs produced by SettingsToString. Malformed pairs
// are ignored.
func (c *Config) StringToSettings(settings string) {
	for _, pair := range strings.Split(settings, ",") {
		name, raw, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		value, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			continue
		}
		c.SetSetting(name, value)
	}
}

// SetPendingLoadPayload stores data to hand over when the script starts.
func (c *Config) SetPendingLoadPayload(payload scriptsave.Payload) {
	c.pending = &payload
}

// TakePendingLoadPayload returns and clears the pending payload.
func (c *Config) TakePendingLoadPayload() (scriptsave.Payload, bool) {
	if c.pending == nil {
		return scriptsave.Payload{Version: scriptsave.VersionUnspecified}, false
	}
	payload := *c.pending
	c.pending = nil
	return payload, true
}
