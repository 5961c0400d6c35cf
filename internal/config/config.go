// internal/config/config.go
//
// This package handles configuration and the .warehouse directory.
// Every repository managed by warehousekeeper gets a .warehouse/
// folder holding its config file and release logs. The ledger files
// themselves stay at the repository root so they ride along in
// release commits.

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
	// WarehouseDir is the name of the directory we create in each
	// managed repository.
	WarehouseDir = ".warehouse"

	defaultExtension     = ".spz2bp"
	defaultIterationFile = "iteration.json"
	defaultVersionFile   = "version.json"
)

const defaultProjectConfigYAML = `# warehousekeeper configuration
version: 1

# File extension that marks a blueprint.
blueprint:
  extension: .spz2bp

# Ledger files, relative to the repository root. Both are committed
# together with the blueprints they describe.
ledger:
  iteration_file: iteration.json
  version_file: version.json

# Release behavior.
release:
  push: true
`

// BlueprintConfig identifies which files count as blueprints.
type BlueprintConfig struct {
	Extension string `yaml:"extension"`
}

// LedgerConfig names the persisted counter files.
type LedgerConfig struct {
	IterationFile string `yaml:"iteration_file"`
	VersionFile   string `yaml:"version_file"`
}

// ReleaseConfig captures release-cycle preferences. Push is a
// pointer so an omitted key keeps the default instead of reading as
// false.
type ReleaseConfig struct {
	Push *bool `yaml:"push"`
}

// ProjectConfig models .warehouse/config.yaml.
type ProjectConfig struct {
	Version   int             `yaml:"version"`
	Blueprint BlueprintConfig `yaml:"blueprint"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Release   ReleaseConfig   `yaml:"release"`
}

// Config holds the runtime configuration for one repository.
type Config struct {
	// ProjectDir is the repository the user ran warehousekeeper from.
	ProjectDir string

	// WarehouseProjectDir is ProjectDir/.warehouse.
	WarehouseProjectDir string

	Project ProjectConfig
}

// InitWarehouseDir creates the .warehouse directory structure and a
// default config file when none exists yet.
//
// Structure created:
// .warehouse/
// ├── config.yaml
// └── logs/        <- release cycle logs
func InitWarehouseDir(projectDir string) error {
	warehouseDir := filepath.Join(projectDir, WarehouseDir)
	if err := os.MkdirAll(filepath.Join(warehouseDir, "logs"), 0o755); err != nil {
		return err
	}
	return ensureProjectConfig(filepath.Join(warehouseDir, "config.yaml"))
}

// NewConfig loads the configuration for a repository, falling back to
// defaults when no config file exists.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:          projectDir,
		WarehouseProjectDir: filepath.Join(projectDir, WarehouseDir),
		Project:             defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.WarehouseProjectDir, "logs")
}

// ProjectConfigPath returns the on-disk location for the config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.WarehouseProjectDir, "config.yaml")
}

// Extension returns the blueprint file extension.
func (c *Config) Extension() string {
	return c.Project.Blueprint.Extension
}

// LedgerFiles returns the repository-relative ledger file names.
func (c *Config) LedgerFiles() (iteration, version string) {
	return c.Project.Ledger.IterationFile, c.Project.Ledger.VersionFile
}

// PushEnabled reports whether a release cycle ends with a push.
func (c *Config) PushEnabled() bool {
	return c.Project.Release.Push == nil || *c.Project.Release.Push
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version:   1,
		Blueprint: BlueprintConfig{Extension: defaultExtension},
		Ledger: LedgerConfig{
			IterationFile: defaultIterationFile,
			VersionFile:   defaultVersionFile,
		},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.Blueprint.Extension) == "" {
		pc.Blueprint.Extension = defaultExtension
	}
	if strings.TrimSpace(pc.Ledger.IterationFile) == "" {
		pc.Ledger.IterationFile = defaultIterationFile
	}
	if strings.TrimSpace(pc.Ledger.VersionFile) == "" {
		pc.Ledger.VersionFile = defaultVersionFile
	}
}

func (pc *ProjectConfig) normalize() {
	pc.Blueprint.Extension = strings.TrimSpace(pc.Blueprint.Extension)
	if !strings.HasPrefix(pc.Blueprint.Extension, ".") {
		pc.Blueprint.Extension = "." + pc.Blueprint.Extension
	}
	pc.Ledger.IterationFile = filepath.ToSlash(strings.TrimSpace(pc.Ledger.IterationFile))
	pc.Ledger.VersionFile = filepath.ToSlash(strings.TrimSpace(pc.Ledger.VersionFile))
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.Blueprint.Extension == "." {
		return fmt.Errorf("blueprint.extension is required")
	}
	if pc.Ledger.IterationFile == pc.Ledger.VersionFile {
		return fmt.Errorf("ledger files must be distinct: %s", pc.Ledger.IterationFile)
	}
	for _, name := range []string{pc.Ledger.IterationFile, pc.Ledger.VersionFile} {
		if strings.HasPrefix(name, "/") || strings.Contains(name, "..") {
			return fmt.Errorf("ledger file must be repository-relative: %s", name)
		}
		if strings.HasSuffix(name, pc.Blueprint.Extension) {
			return fmt.Errorf("ledger file must not use the blueprint extension: %s", name)
		}
	}
	return nil
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
