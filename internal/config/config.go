// Package config provides centralized configuration management using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/loopedtheme/looped/internal/hooks"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration values for looped.
type Config struct {
	TemplatesDir string `mapstructure:"templates_dir" yaml:"templates_dir"`
	ThemesDir    string `mapstructure:"themes_dir" yaml:"themes_dir"`
	Product      string `mapstructure:"product" yaml:"product"`
	Author       string `mapstructure:"author" yaml:"author"`
	Output       Output `mapstructure:"output" yaml:"output"`
	DebounceMs   int    `mapstructure:"debounce_ms" yaml:"debounce_ms"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
	LogFile      string `mapstructure:"log_file" yaml:"log_file"`
	Hooks        Hooks  `mapstructure:"hooks" yaml:"hooks"`
}

// Hooks holds commands run around builds.
type Hooks struct {
	PostBuild hooks.Hook `mapstructure:"post_build" yaml:"post_build"`
}

// Output holds the artifact directory of each format.
type Output struct {
	VSCode   string `mapstructure:"vscode" yaml:"vscode"`
	Zed      string `mapstructure:"zed" yaml:"zed"`
	Warp     string `mapstructure:"warp" yaml:"warp"`
	OhMyPosh string `mapstructure:"ohmyposh" yaml:"ohmyposh"`
}

var defaults = map[string]any{
	"templates_dir":   filepath.Join("src", "templates"),
	"themes_dir":      filepath.Join("src", "themes"),
	"product":         "Looped",
	"author":          "Looped Automation",
	"output.vscode":   "code",
	"output.zed":      filepath.Join("zed", "themes"),
	"output.warp":     "warp",
	"output.ohmyposh": "ohmyposh",
	"debounce_ms":     250,
	"log_level":       "info",
	"log_file":        "",

	"hooks.post_build.command": "",
	"hooks.post_build.timeout": hooks.DefaultTimeout,
}

// Default returns the configuration used when no file or env var is set.
func Default() *Config {
	return &Config{
		TemplatesDir: defaults["templates_dir"].(string),
		ThemesDir:    defaults["themes_dir"].(string),
		Product:      defaults["product"].(string),
		Author:       defaults["author"].(string),
		Output: Output{
			VSCode:   defaults["output.vscode"].(string),
			Zed:      defaults["output.zed"].(string),
			Warp:     defaults["output.warp"].(string),
			OhMyPosh: defaults["output.ohmyposh"].(string),
		},
		DebounceMs: defaults["debounce_ms"].(int),
		LogLevel:   defaults["log_level"].(string),
		LogFile:    defaults["log_file"].(string),
		Hooks: Hooks{
			PostBuild: hooks.Hook{
				Command: defaults["hooks.post_build.command"].(string),
				Timeout: defaults["hooks.post_build.timeout"].(int),
			},
		},
	}
}

// Load loads configuration with full precedence:
// ENV vars > project config > XDG global config > defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("looped")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// Setup ENV binding with LOOPED_ prefix; output.vscode reads LOOPED_OUTPUT_VSCODE
	v.SetEnvPrefix("LOOPED")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Explicit ENV bindings so Unmarshal sees keys that only exist in the environment
	for key := range defaults {
		env := "LOOPED_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	// Load global config first (if exists)
	globalPath := GlobalPath()
	if fileExists(globalPath) {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	// Merge project config on top (if exists)
	projectPath := ProjectPath()
	if fileExists(projectPath) {
		v.SetConfigFile(projectPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects values no command can work with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Product) == "" {
		return fmt.Errorf("config: product must not be empty")
	}
	if c.DebounceMs < 0 {
		return fmt.Errorf("config: debounce_ms must not be negative, got %d", c.DebounceMs)
	}
	if c.Hooks.PostBuild.Timeout < 0 {
		return fmt.Errorf("config: hooks.post_build.timeout must not be negative, got %d", c.Hooks.PostBuild.Timeout)
	}
	for name, dir := range map[string]string{
		"templates_dir":   c.TemplatesDir,
		"themes_dir":      c.ThemesDir,
		"output.vscode":   c.Output.VSCode,
		"output.zed":      c.Output.Zed,
		"output.warp":     c.Output.Warp,
		"output.ohmyposh": c.Output.OhMyPosh,
	} {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("config: %s must not be empty", name)
		}
	}
	return nil
}

// Debounce returns the watch debounce window.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// Exists returns true if any config file exists (global or project).
func Exists() bool {
	return fileExists(GlobalPath()) || fileExists(ProjectPath())
}

// GlobalPath returns the XDG global config path.
// Returns ~/.config/looped/looped.yml or $XDG_CONFIG_HOME/looped/looped.yml.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "looped", "looped.yml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "looped", "looped.yml")
}

// ProjectPath returns the project-local config path.
// Returns ./looped.yml in the current working directory.
func ProjectPath() string {
	return "looped.yml"
}

// WriteGlobal writes the config to the XDG global location.
func WriteGlobal(cfg *Config) error {
	path := GlobalPath()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return write(path, cfg)
}

// WriteProject writes the config to the project-local location.
func WriteProject(cfg *Config) error {
	return write(ProjectPath(), cfg)
}

func write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
