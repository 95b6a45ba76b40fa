package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// flagKeys maps command flag names to config keys.
var flagKeys = map[string]string{
	"output":       "output_dir",
	"intermediate": "intermediate_dir",
	"namespace":    "namespace",
	"rebuild":      "no_cache",
	"log-level":    "log_level",
	"verbose":      "verbose",
}

// Loader layers configuration sources into its own viper instance.
type Loader struct {
	v *viper.Viper

	// ConfigFile, when set, replaces global and local discovery.
	ConfigFile string
}

// NewLoader creates a loader with the defaults applied.
func NewLoader() *Loader {
	v := viper.New()
	v.SetDefault("project", DefaultProject)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("no_cache", DefaultNoCache)
	v.SetDefault("verbose", DefaultVerbose)
	return &Loader{v: v}
}

// Viper exposes the underlying instance.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// LoadForCommand loads configuration for cmd. The first positional
// argument, if any, is the project path.
func (l *Loader) LoadForCommand(cmd *cobra.Command, args []string) (*Config, error) {
	if len(args) > 0 {
		l.v.Set("project", args[0])
	}

	if l.ConfigFile != "" {
		l.v.SetConfigFile(l.ConfigFile)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", l.ConfigFile, err)
		}
	} else {
		if err := l.loadGlobalConfig(); err != nil {
			return nil, err
		}
		if err := l.loadLocalConfig(cmd); err != nil {
			return nil, err
		}
	}

	l.bindCommandFlags(cmd)
	return Load(l.v)
}

func (l *Loader) loadGlobalConfig() error {
	path := FindGlobalConfig()
	if path == "" {
		return nil
	}
	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read global config %s: %w", path, err)
	}
	return nil
}

// loadLocalConfig merges the nearest local config over the global one.
// Relative paths in it are taken relative to the file unless a flag
// overrides them.
func (l *Loader) loadLocalConfig(cmd *cobra.Command) error {
	start, err := filepath.Abs(l.v.GetString("project"))
	if err != nil {
		return nil
	}
	if info, err := os.Stat(start); err != nil || !info.IsDir() {
		start = filepath.Dir(start)
	}

	path := FindLocalConfig(start)
	if path == "" {
		return nil
	}
	l.v.SetConfigFile(path)
	if err := l.v.MergeInConfig(); err != nil {
		return fmt.Errorf("read local config %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for flag, key := range map[string]string{"output": "output_dir", "intermediate": "intermediate_dir"} {
		if cmd != nil && cmd.Flags().Changed(flag) {
			continue
		}
		if p := l.v.GetString(key); p != "" && !filepath.IsAbs(p) && l.v.InConfig(key) {
			l.v.Set(key, filepath.Join(dir, p))
		}
	}
	return nil
}

// bindCommandFlags binds the flags cmd defines to their config keys.
func (l *Loader) bindCommandFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			_ = l.v.BindPFlag(key, f)
		}
	}
}
