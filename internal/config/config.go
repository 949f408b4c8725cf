// Package config provides configuration management for stencil using Viper
// for flexible loading from files, environment variables, and command-line
// flags.
//
// All filesystem roots flow from the Config value handed to each component
// at construction time, so tests can point the whole pipeline at an
// isolated temporary directory.
package config

import (
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Paths Paths       `yaml:"paths" mapstructure:"paths"`
	Watch WatchConfig `yaml:"watch" mapstructure:"watch"`
}

// Paths holds the directory layout, all relative to (or absolute within)
// a single install root.
type Paths struct {
	TemplatesDir string `yaml:"templates" mapstructure:"templates"`
	VariablesDir string `yaml:"variables" mapstructure:"variables"`
	OutputDir    string `yaml:"output" mapstructure:"output"`
	TemplateExt  string `yaml:"template_ext" mapstructure:"template_ext"`
	DataExt      string `yaml:"data_ext" mapstructure:"data_ext"`
}

type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce" mapstructure:"debounce"`
}

// Load builds a Config from whatever viper has read (config file, STENCIL_
// environment variables, bound flags), applying defaults for anything unset.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if viper.IsSet("watch.debounce") {
		cfg.Watch.Debounce = viper.GetDuration("watch.debounce")
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a Config with all defaults applied, rooted at root.
// It does not consult viper; tests use it to target temporary directories.
func Default(root string) *Config {
	cfg := &Config{
		Paths: Paths{
			TemplatesDir: filepath.Join(root, "templates"),
			VariablesDir: filepath.Join(root, "variables"),
			OutputDir:    filepath.Join(root, "rendered"),
		},
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Paths.TemplatesDir == "" {
		c.Paths.TemplatesDir = "templates"
	}
	if c.Paths.VariablesDir == "" {
		c.Paths.VariablesDir = "variables"
	}
	if c.Paths.OutputDir == "" {
		c.Paths.OutputDir = "rendered"
	}
	if c.Paths.TemplateExt == "" {
		c.Paths.TemplateExt = ".tmpl"
	}
	if c.Paths.DataExt == "" {
		c.Paths.DataExt = ".json"
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = 500 * time.Millisecond
	}
}

// TemplatePath returns the definition file for a template name.
func (c *Config) TemplatePath(name string) string {
	return filepath.Join(c.Paths.TemplatesDir, name+c.Paths.TemplateExt)
}

// VariableDir returns the variables subdirectory for a template name.
func (c *Config) VariableDir(name string) string {
	return filepath.Join(c.Paths.VariablesDir, name)
}

// VariablePath returns the variable file for a (template, variant) pair.
func (c *Config) VariablePath(name, variant string) string {
	return filepath.Join(c.Paths.VariablesDir, name, variant+c.Paths.DataExt)
}

// OutputPath returns the primary output file for a (template, variant) pair.
func (c *Config) OutputPath(name, variant string) string {
	return filepath.Join(c.Paths.OutputDir, name, variant+".md")
}
