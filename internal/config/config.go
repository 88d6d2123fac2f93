// internal/config/config.go
//
// Configuration comes from two places: environment variables (log level,
// project file override, metrics address) and the project file
// .healing/config.yaml (broadcast order, fingerprint policy, agencies,
// field map overrides).

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/DawPlus/healing-server-sub000/internal/fieldmap"
	"github.com/DawPlus/healing-server-sub000/internal/module"
	"github.com/DawPlus/healing-server-sub000/internal/roster"
)

const (
	// DataDir is the per-project directory we create next to the operator's files.
	DataDir = ".healing"

	defaultTopicPrefix = "roster-sync"
)

const defaultProjectConfigYAML = `# healing project configuration
version: 1

# Broadcast order. Only these survey modules receive the roster.
modules:
  - program
  - facility
  - prevention
  - healing
  - counsel
  - hrv
  - vibra
  - gambling

# What happens to a module's last-applied fingerprint when it unmounts:
#   retain              remounted modules are assumed to still be in sync
#   clear-on-unregister remounted modules are Unsynced until the next apply
fingerprint_policy: retain

topic_prefix: roster-sync

# Agencies selectable by id. Selecting an id overwrites the agency name.
agencies: []

# Optional YAML file overriding built-in field maps, relative to the project.
# field_maps_path: fields.yaml
`

// Env is read from the process environment.
type Env struct {
	LogLevel    string `env:"HEALING_LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"HEALING_LOG_FORMAT" envDefault:"json" validate:"oneof=json console"`
	ConfigPath  string `env:"HEALING_CONFIG"`
	MetricsAddr string `env:"HEALING_METRICS_ADDR"`
}

// ProjectConfig models .healing/config.yaml.
type ProjectConfig struct {
	Version           int             `yaml:"version" validate:"gte=1"`
	Modules           []string        `yaml:"modules" validate:"min=1,dive,required"`
	FingerprintPolicy string          `yaml:"fingerprint_policy" validate:"oneof=retain clear-on-unregister"`
	TopicPrefix       string          `yaml:"topic_prefix" validate:"required,excludesall=*"`
	Agencies          []roster.Agency `yaml:"agencies" validate:"dive"`
	FieldMapsPath     string          `yaml:"field_maps_path,omitempty"`
}

// Config holds the runtime configuration.
type Config struct {
	// ProjectDir is where the operator launched the tool.
	ProjectDir string
	// DataDir is ProjectDir/.healing
	DataDir string

	Env     Env
	Project ProjectConfig
}

// InitDataDir creates .healing/{logs,state} and writes a default project file
// when none exists.
func InitDataDir(projectDir string) error {
	dataDir := filepath.Join(projectDir, DataDir)
	for _, dir := range []string{
		filepath.Join(dataDir, "logs"),
		filepath.Join(dataDir, "state"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: ensure %s: %w", dir, err)
		}
	}
	return ensureProjectConfig(filepath.Join(dataDir, "config.yaml"))
}

// Load reads environment and project configuration for projectDir. A missing
// project file yields defaults.
func Load(projectDir string) (*Config, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}
	e.LogFormat = strings.ToLower(strings.TrimSpace(e.LogFormat))
	if err := configValidator().Struct(e); err != nil {
		return nil, fmt.Errorf("config: env: %w", err)
	}
	cfg := &Config{
		ProjectDir: projectDir,
		DataDir:    filepath.Join(projectDir, DataDir),
		Env:        e,
		Project:    defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the directory holding log files.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// StateDir returns the directory for session scratch files.
func (c *Config) StateDir() string {
	return filepath.Join(c.DataDir, "state")
}

// ProjectConfigPath returns the project file location, honoring HEALING_CONFIG.
func (c *Config) ProjectConfigPath() string {
	if p := strings.TrimSpace(c.Env.ConfigPath); p != "" {
		return resolvePath(c.ProjectDir, p)
	}
	return filepath.Join(c.DataDir, "config.yaml")
}

// ModuleIDs returns the configured broadcast order.
func (c *Config) ModuleIDs() []module.ID {
	ids, err := module.ParseList(c.Project.Modules)
	if err != nil {
		// validate() already rejected bad ids
		return module.All()
	}
	return ids
}

// FingerprintPolicy returns the configured policy.
func (c *Config) FingerprintPolicy() module.FingerprintPolicy {
	policy, err := module.ParseFingerprintPolicy(c.Project.FingerprintPolicy)
	if err != nil {
		return module.FingerprintRetain
	}
	return policy
}

// Agencies returns the agency directory.
func (c *Config) Agencies() roster.StaticDirectory {
	return roster.NewStaticDirectory(c.Project.Agencies...)
}

// FieldTables returns built-in field maps overlaid with field_maps_path.
func (c *Config) FieldTables() (fieldmap.Tables, error) {
	tables, err := fieldmap.Builtin()
	if err != nil {
		return fieldmap.Tables{}, err
	}
	if c.Project.FieldMapsPath == "" {
		return tables, nil
	}
	override, err := fieldmap.LoadFile(c.Project.FieldMapsPath)
	if err != nil {
		return fieldmap.Tables{}, fmt.Errorf("config: field maps: %w", err)
	}
	return tables.Merge(override), nil
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

	parsed := ProjectConfig{}
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	parsed.applyDefaults()
	parsed.normalize(c.ProjectDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	modules := make([]string, 0, len(module.All()))
	for _, id := range module.All() {
		modules = append(modules, string(id))
	}
	return ProjectConfig{
		Version:           1,
		Modules:           modules,
		FingerprintPolicy: string(module.FingerprintRetain),
		TopicPrefix:       defaultTopicPrefix,
	}
}

func (pc *ProjectConfig) applyDefaults() {
	defaults := defaultProjectConfig()
	if pc.Version == 0 {
		pc.Version = defaults.Version
	}
	if len(pc.Modules) == 0 {
		pc.Modules = defaults.Modules
	}
	if strings.TrimSpace(pc.FingerprintPolicy) == "" {
		pc.FingerprintPolicy = defaults.FingerprintPolicy
	}
	if strings.TrimSpace(pc.TopicPrefix) == "" {
		pc.TopicPrefix = defaults.TopicPrefix
	}
}

func (pc *ProjectConfig) normalize(base string) {
	for i, id := range pc.Modules {
		pc.Modules[i] = strings.ToLower(strings.TrimSpace(id))
	}
	pc.FingerprintPolicy = strings.ToLower(strings.TrimSpace(pc.FingerprintPolicy))
	pc.TopicPrefix = strings.TrimSpace(pc.TopicPrefix)
	for i := range pc.Agencies {
		pc.Agencies[i].Name = strings.TrimSpace(pc.Agencies[i].Name)
	}
	pc.FieldMapsPath = resolvePath(base, pc.FieldMapsPath)
}

func (pc *ProjectConfig) validate() error {
	if err := configValidator().Struct(pc); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("%s failed %q validation", fe.Namespace(), fe.Tag())
		}
		return err
	}
	if _, err := module.ParseList(pc.Modules); err != nil {
		return err
	}
	seen := make(map[int]struct{}, len(pc.Agencies))
	for i, a := range pc.Agencies {
		if _, dup := seen[a.ID]; dup {
			return fmt.Errorf("agencies[%d]: id %d listed twice", i, a.ID)
		}
		seen[a.ID] = struct{}{}
	}
	return nil
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
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func configValidator() *validator.Validate {
	return validate
}
