package registry

import (
	"errors"
	"fmt"
	"strings"
)

// Setting describes one tunable of a script. Values are integers clamped to
// [Min, Max].
type Setting struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Min         int    `json:"min"`
	Max         int    `json:"max"`
	Default     int    `json:"default"`
}

// Clamp limits value to the setting range.
func (s Setting) Clamp(value int) int {
	return min(max(value, s.Min), s.Max)
}

// Info describes one installed script version.
type Info struct {
	Name             string    `json:"name"`
	Version          int       `json:"version"`
	MinVersionToLoad int       `json:"min_version_to_load"`
	Author           string    `json:"author,omitempty"`
	Description      string    `json:"description,omitempty"`
	Settings         []Setting `json:"settings,omitempty"`

	// Path is the directory the script was scanned from.
	Path string `json:"-"`
	// Source is the script body started by the runtime.
	Source string `json:"-"`
}

// CanLoadFromVersion reports whether data saved by version of this script can
// be handed to this version. An unspecified version always can.
func (i Info) CanLoadFromVersion(version int) bool {
	if version == -1 {
		return true
	}
	return version >= i.MinVersionToLoad && version <= i.Version
}

// Setting returns the named setting.
func (i Info) Setting(name string) (Setting, bool) {
	for _, setting := range i.Settings {
		if setting.Name == name {
			return setting, true
		}
	}
	return Setting{}, false
}

// Validate checks the rules a registered info must follow.
func (i Info) Validate() error {
	var errs []error
	if strings.TrimSpace(i.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if i.Version < 0 {
		errs = append(errs, fmt.Errorf("version %d is negative", i.Version))
	}
	if i.MinVersionToLoad > i.Version {
		errs = append(errs, fmt.Errorf("min_version_to_load %d exceeds version %d", i.MinVersionToLoad, i.Version))
	}
	seen := map[string]bool{}
	for _, setting := range i.Settings {
		switch {
		case setting.Name == "":
			errs = append(errs, errors.New("setting without a name"))
		case seen[setting.Name]:
			errs = append(errs, fmt.Errorf("duplicate setting %q", setting.Name))
		case setting.Min > setting.Max:
			errs = append(errs, fmt.Errorf("setting %q has min above max", setting.Name))
		case setting.Default != setting.Clamp(setting.Default):
			errs = append(errs, fmt.Errorf("setting %q default out of range", setting.Name))
		}
		seen[setting.Name] = true
	}
	return errors.Join(errs...)
}
