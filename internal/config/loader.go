package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultProfileFile is the default hosting profile file name.
const DefaultProfileFile = "hostings.yml"

// ErrProfileNotFound is returned when the profile file does not exist.
// Callers decide whether that matters based on whether the path was
// explicitly given by the user.
var ErrProfileNotFound = errors.New("hosting profile file not found")

// ProfileFile is the on-disk shape of a hosting profile file.
type ProfileFile struct {
	// Hostings maps profile names to hosting definitions. Entries
	// override the built-in profiles of the same name.
	Hostings map[string]Hosting `yaml:"hostings"`
}

// LoadProfileFile reads hosting profiles from a YAML file and merges
// them over the built-in defaults in cfg. Missing fields of an
// overriding entry fall back to the built-in values.
func LoadProfileFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided profile path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return ErrProfileNotFound
		}
		return err
	}

	var pf ProfileFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("failed to parse hosting profiles: %w", err)
	}

	for name, h := range pf.Hostings {
		if h.Name == "" {
			h.Name = name
		}
		base, ok := cfg.Hostings[name]
		if ok {
			if h.Domain == "" {
				h.Domain = base.Domain
			}
			if h.BaseURL == "" {
				h.BaseURL = base.BaseURL
			}
			if h.TokenLength == 0 {
				h.TokenLength = base.TokenLength
			}
			if h.TokenChars == "" {
				h.TokenChars = base.TokenChars
			}
			if h.CheckPath == "" {
				h.CheckPath = base.CheckPath
			}
			if h.Referer == "" {
				h.Referer = base.Referer
			}
		}
		cfg.Hostings[name] = h
	}

	return nil
}

// FindProfileFile locates the hosting profile file. Search order:
// explicit path, current directory, XDG config directory. Returns the
// empty string when nothing is found.
func FindProfileFile(path string) string {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, DefaultProfileFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	p := filepath.Join(XDGConfigDir(), DefaultProfileFile)
	if _, err := os.Stat(p); err == nil {
		return p
	}

	return ""
}
