package config

import (
	"os"
	"path/filepath"
)

// LocalName is the base name of project-local config files.
const LocalName = ".contentpipe"

var extensions = []string{"yml", "yaml", "json", "toml"}

// FindLocalConfig finds a local config file by walking up from dir.
func FindLocalConfig(dir string) string {
	for {
		for _, ext := range extensions {
			path := filepath.Join(dir, LocalName+"."+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// FindGlobalConfig returns the first config.{ext} in the user config
// directory, or "".
func FindGlobalConfig() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	for _, ext := range extensions {
		path := filepath.Join(base, "contentpipe", "config."+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
