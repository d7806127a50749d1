// Package config loads project files for the command line tool.
package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/suspendjs/errors"
	"github.com/wippyai/suspendjs/suspend"
)

// FileNames are the project file names Find looks for, in order.
var FileNames = []string{"suspendjs.toml", "suspendjs.yaml", "suspendjs.yml"}

// Duration reads "1.5s" style text.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Engines a compiled program can run in.
const (
	EngineSandbox = "sandbox"
	EngineGoja    = "goja"
)

type Sandbox struct {
	Timeout   Duration `toml:"timeout" yaml:"timeout"`
	StepLimit int      `toml:"step_limit" yaml:"step_limit"`
	// Engine is EngineSandbox or EngineGoja; empty means EngineSandbox.
	Engine string `toml:"engine" yaml:"engine"`
}

type Cache struct {
	Dir     string `toml:"dir" yaml:"dir"`
	Enabled bool   `toml:"enabled" yaml:"enabled"`
}

type Host struct {
	// Root enables fs bindings below this directory.
	Root        string            `toml:"root" yaml:"root"`
	MaxFileSize int64             `toml:"max_file_size" yaml:"max_file_size"`
	MaxSleep    Duration          `toml:"max_sleep" yaml:"max_sleep"`
	Env         map[string]string `toml:"env" yaml:"env"`
}

// Config is the content of a project file.
type Config struct {
	Names    []string `toml:"names" yaml:"names"`
	Output   string   `toml:"output" yaml:"output"`
	Jobs     int      `toml:"jobs" yaml:"jobs"`
	LogLevel string   `toml:"log_level" yaml:"log_level"`
	Sandbox  Sandbox  `toml:"sandbox" yaml:"sandbox"`
	Cache    Cache    `toml:"cache" yaml:"cache"`
	Host     Host     `toml:"host" yaml:"host"`

	// Path is the file the config was read from, empty for defaults.
	Path string `toml:"-" yaml:"-"`
}

// Default returns the configuration used without a project file.
func Default() Config {
	return Config{
		Output:   "auto",
		LogLevel: "warn",
		Cache:    Cache{Dir: ".suspendjs-cache"},
	}
}

// Find walks up from startDir to the first directory holding one of
// FileNames.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, true, nil
			} else if !stderrors.Is(err, os.ErrNotExist) {
				return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load reads path as TOML or YAML by extension, on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = loadTOML(path, &cfg)
	case ".yaml", ".yml":
		err = loadYAML(path, &cfg)
	default:
		err = fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return Config{}, errors.Wrap(errors.PhaseConfig, errors.KindConfiguration, err, path)
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func loadTOML(path string, cfg *Config) error {
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to parse TOML: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown key %s", undecoded[0])
	}
	if meta.IsDefined("sandbox", "timeout") && cfg.Sandbox.Timeout <= 0 {
		return fmt.Errorf("[sandbox].timeout must be positive")
	}
	if meta.IsDefined("names") && len(cfg.Names) == 0 {
		return fmt.Errorf("names is defined but empty")
	}
	return nil
}

func loadYAML(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// Validate checks values that do not depend on the file format.
func (c Config) Validate() error {
	if _, err := suspend.ParseOutput(c.Output); err != nil {
		return err
	}
	if _, err := c.Patterns(); err != nil {
		return err
	}
	if c.Jobs < 0 {
		return errors.Configuration(errors.PhaseConfig, "jobs must not be negative")
	}
	if c.Sandbox.StepLimit < 0 {
		return errors.Configuration(errors.PhaseConfig, "sandbox step_limit must not be negative")
	}
	if c.Sandbox.Timeout < 0 {
		return errors.Configuration(errors.PhaseConfig, "sandbox timeout must not be negative")
	}
	switch c.Sandbox.Engine {
	case "", EngineSandbox, EngineGoja:
	default:
		return errors.Configuration(errors.PhaseConfig, "unknown sandbox engine %q", c.Sandbox.Engine)
	}
	return nil
}

// Patterns parses Names.
func (c Config) Patterns() ([]suspend.Pattern, error) {
	return suspend.ParsePatterns(c.Names)
}

// OutputMode parses Output.
func (c Config) OutputMode() suspend.Output {
	o, _ := suspend.ParseOutput(c.Output)
	return o
}

// Resolve loads the file at explicit, or the nearest project file above
// dir, or defaults when neither exists.
func Resolve(explicit, dir string) (Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	path, ok, err := Find(dir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}
