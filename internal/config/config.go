// Package config layers tool settings: defaults, the global config file,
// the nearest local .contentpipe file, then command flags.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/roach88/contentpipe/internal/project"
)

// Default configuration values
const (
	DefaultProject  = "."
	DefaultLogLevel = "info"
	DefaultNoCache  = false
	DefaultVerbose  = false
)

// Config holds the settings for one contentpipe invocation.
type Config struct {
	// Project is the manifest or its directory.
	Project string

	// OutputDir and IntermediateDir override the manifest when set.
	OutputDir       string
	IntermediateDir string

	// Namespace overrides the manifest namespace when set.
	Namespace string

	// NoCache disables the incremental asset cache.
	NoCache bool

	LogLevel string

	// Verbose forces debug logging.
	Verbose bool
}

// Load reads a Config from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Project:         v.GetString("project"),
		OutputDir:       v.GetString("output_dir"),
		IntermediateDir: v.GetString("intermediate_dir"),
		Namespace:       v.GetString("namespace"),
		NoCache:         v.GetBool("no_cache"),
		LogLevel:        v.GetString("log_level"),
		Verbose:         v.GetBool("verbose"),
	}

	if cfg.Project == "" {
		cfg.Project = DefaultProject
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the log level and makes paths absolute.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	if c.Verbose {
		c.LogLevel = "debug"
	}

	for _, p := range []*string{&c.Project, &c.OutputDir, &c.IntermediateDir} {
		if *p == "" {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return fmt.Errorf("invalid path %q: %v", *p, err)
		}
		*p = abs
	}
	return nil
}

// Apply overrides p's directories and namespace with the configured ones.
func (c *Config) Apply(p *project.Project) {
	if c.OutputDir != "" {
		p.OutputDir = c.OutputDir
	}
	if c.IntermediateDir != "" {
		p.IntermediateDir = c.IntermediateDir
	}
	if c.Namespace != "" {
		p.Namespace = c.Namespace
	}
}

// LoadProject loads the configured project and applies the overrides.
func (c *Config) LoadProject() (*project.Project, error) {
	p, err := project.Load(c.Project)
	if err != nil {
		return nil, err
	}
	c.Apply(p)
	return p, nil
}
