// internal/config/config.go
//
// This package handles configuration and the .setupplan directory structure.
// A project that wants non-default walkthrough or output settings keeps a
// .setupplan/ folder in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// Dir is the name of the per-project settings directory.
	Dir = ".setupplan"

	// ProjectEnv overrides the project directory when set.
	ProjectEnv = "SETUPPLAN_PROJECT"

	configFile = "config.yaml"
	logsDir    = "logs"
)

// Modes accepted by walkthrough.pager and output.color.
const (
	ModeAuto   = "auto"
	ModeAlways = "always"
	ModeNever  = "never"
)

const defaultProjectConfigYAML = `# setupplan project configuration
version: 1

walkthrough:
  # Step source used when "setupplan walkthrough" gets no arguments.
  # Leave empty for the built-in demo.
  steps: ""
  # auto shows the pager only on a terminal.
  pager: auto

output:
  color: auto

logging:
  level: info
`

// WalkthroughConfig controls the walkthrough command.
type WalkthroughConfig struct {
	Steps string `yaml:"steps,omitempty"`
	Pager string `yaml:"pager"`
}

// OutputConfig controls terminal rendering.
type OutputConfig struct {
	Color string `yaml:"color"`
}

// LoggingConfig controls the run log.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ProjectConfig models .setupplan/config.yaml.
type ProjectConfig struct {
	Version     int               `yaml:"version"`
	Walkthrough WalkthroughConfig `yaml:"walkthrough"`
	Output      OutputConfig      `yaml:"output"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// Config holds the runtime configuration.
type Config struct {
	// ProjectDir is the directory setupplan treats as the project root.
	ProjectDir string

	// SettingsDir is ProjectDir/.setupplan
	SettingsDir string

	Project ProjectConfig
}

// ResolveProjectDir picks the project directory: an explicit flag value
// wins, then SETUPPLAN_PROJECT, then the working directory.
func ResolveProjectDir(flagValue string) (string, error) {
	dir := strings.TrimSpace(flagValue)
	if dir == "" {
		dir = strings.TrimSpace(os.Getenv(ProjectEnv))
	}
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("config: working directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("config: resolve %s: %w", dir, err)
	}
	return abs, nil
}

// InitDir creates the .setupplan directory structure in the given project
// directory and writes a commented default config when none exists.
//
// Structure created:
// .setupplan/
// ├── config.yaml
// └── logs/
func InitDir(projectDir string) error {
	settingsDir := filepath.Join(projectDir, Dir)
	if err := os.MkdirAll(filepath.Join(settingsDir, logsDir), 0o755); err != nil {
		return fmt.Errorf("config: create %s: %w", settingsDir, err)
	}
	return ensureProjectConfig(filepath.Join(settingsDir, configFile))
}

// NewConfig loads the configuration for projectDir. A missing config file
// means defaults; nothing is created on disk.
func NewConfig(projectDir string) (*Config, error) {
	c := &Config{
		ProjectDir:  projectDir,
		SettingsDir: filepath.Join(projectDir, Dir),
		Project:     defaultProjectConfig(),
	}
	if err := c.loadProjectConfig(); err != nil {
		return nil, err
	}
	return c, nil
}

// ConfigPath returns the path of config.yaml.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.SettingsDir, configFile)
}

// LogsDir returns where run logs are written.
func (c *Config) LogsDir() string {
	return filepath.Join(c.SettingsDir, logsDir)
}

// StepSource returns the configured default walkthrough source, resolved
// against the project directory. Empty means the built-in demo.
func (c *Config) StepSource() string {
	return c.Project.Walkthrough.Steps
}

// PagerMode returns auto, always or never.
func (c *Config) PagerMode() string {
	return c.Project.Walkthrough.Pager
}

// ColorMode returns auto, always or never.
func (c *Config) ColorMode() string {
	return c.Project.Output.Color
}

// LogLevel returns the configured log level name.
func (c *Config) LogLevel() string {
	return c.Project.Logging.Level
}

func (c *Config) loadProjectConfig() error {
	data, err := os.ReadFile(c.ConfigPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.Project.normalize(c.ProjectDir)
			return nil
		}
		return fmt.Errorf("config: read project config: %w", err)
	}
	var pc ProjectConfig
	if err := yaml.Unmarshal(data, &pc); err != nil {
		return fmt.Errorf("config: parse project config: %w", err)
	}
	pc.applyDefaults()
	pc.normalize(c.ProjectDir)
	if err := pc.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.Project = pc
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version:     1,
		Walkthrough: WalkthroughConfig{Pager: ModeAuto},
		Output:      OutputConfig{Color: ModeAuto},
		Logging:     LoggingConfig{Level: "info"},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	def := defaultProjectConfig()
	if pc.Version == 0 {
		pc.Version = def.Version
	}
	if strings.TrimSpace(pc.Walkthrough.Pager) == "" {
		pc.Walkthrough.Pager = def.Walkthrough.Pager
	}
	if strings.TrimSpace(pc.Output.Color) == "" {
		pc.Output.Color = def.Output.Color
	}
	if strings.TrimSpace(pc.Logging.Level) == "" {
		pc.Logging.Level = def.Logging.Level
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Walkthrough.Steps = resolvePath(base, pc.Walkthrough.Steps)
	pc.Walkthrough.Pager = normalizeMode(pc.Walkthrough.Pager)
	pc.Output.Color = normalizeMode(pc.Output.Color)
	pc.Logging.Level = strings.ToLower(strings.TrimSpace(pc.Logging.Level))
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if !validMode(pc.Walkthrough.Pager) {
		return fmt.Errorf("walkthrough.pager must be auto, always or never")
	}
	if !validMode(pc.Output.Color) {
		return fmt.Errorf("output.color must be auto, always or never")
	}
	switch pc.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", pc.Logging.Level)
	}
	return nil
}

// ValidMode reports whether value is one of auto, always or never.
func ValidMode(value string) bool {
	return validMode(normalizeMode(value))
}

func validMode(mode string) bool {
	switch mode {
	case ModeAuto, ModeAlways, ModeNever:
		return true
	}
	return false
}

func normalizeMode(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0644)
}
