// Package config holds the runtime settings of the bridge and loads them from
// YAML or TOML files.
package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"jsexec/pkg/source"
)

// LogLevel selects how much lifecycle logging the runtime emits.
type LogLevel int

const (
	LogNone LogLevel = iota
	LogError
	LogWarn
	LogInfo
	LogDebug
)

var logLevelNames = []string{"none", "error", "warn", "info", "debug"}

func (l LogLevel) String() string {
	if l < 0 || int(l) >= len(logLevelNames) {
		return fmt.Sprintf("LogLevel(%d)", int(l))
	}
	return logLevelNames[l]
}

// UnmarshalText lets YAML and TOML files spell the level by name.
func (l *LogLevel) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for i, n := range logLevelNames {
		if n == name {
			*l = LogLevel(i)
			return nil
		}
	}
	return fmt.Errorf("config: unknown log level %q", string(text))
}

// LevelOff is above every level the runtime logs at, so nothing passes it.
const LevelOff = slog.Level(12)

// SlogLevel maps l to the minimum slog level that gets through.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogInfo:
		return slog.LevelInfo
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return LevelOff
	}
}

func (l LogLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Config is the process-wide runtime configuration. It is fixed once the
// runtime is initialized.
type Config struct {
	// ScriptName identifies in-memory sources in stack traces and errors.
	ScriptName string `yaml:"script_name" toml:"script_name"`
	// MaxCallStackSize bounds engine recursion; exceeding it raises a RangeError.
	MaxCallStackSize int `yaml:"max_call_stack_size" toml:"max_call_stack_size"`
	// ProgramCacheSize is the number of compiled scripts shared across contexts.
	// Zero disables the cache.
	ProgramCacheSize int `yaml:"program_cache_size" toml:"program_cache_size"`
	// Strict compiles every script as strict mode code.
	Strict bool `yaml:"strict" toml:"strict"`
	// FieldNameTag is the struct tag used to name Go struct fields seen from scripts.
	FieldNameTag string `yaml:"field_name_tag" toml:"field_name_tag"`
	LogLevel     LogLevel `yaml:"log_level" toml:"log_level"`
	// TypeScript runs .ts files through the TypeScript compiler before
	// evaluation.
	TypeScript bool `yaml:"typescript" toml:"typescript"`
	// HistoryFile is where the REPL keeps its line history; empty disables it.
	HistoryFile string `yaml:"history_file" toml:"history_file"`
}

// Default returns the configuration used when none is supplied.
func Default() *Config {
	return &Config{
		ScriptName:       source.DefaultName,
		MaxCallStackSize: 4096,
		ProgramCacheSize: 128,
		FieldNameTag:     "json",
		LogLevel:         LogNone,
		TypeScript:       true,
	}
}

// Validate rejects settings the runtime cannot honour.
func (c *Config) Validate() error {
	if c.MaxCallStackSize <= 0 {
		return fmt.Errorf("config: max_call_stack_size must be positive, got %d", c.MaxCallStackSize)
	}
	if c.ProgramCacheSize < 0 {
		return fmt.Errorf("config: program_cache_size must not be negative, got %d", c.ProgramCacheSize)
	}
	if strings.TrimSpace(c.ScriptName) == "" {
		return fmt.Errorf("config: script_name must not be empty")
	}
	if c.LogLevel < LogNone || c.LogLevel > LogDebug {
		return fmt.Errorf("config: invalid log level %d", int(c.LogLevel))
	}
	return nil
}

// Load reads a configuration file, choosing the decoder by extension
// (.yaml, .yml or .toml). Keys missing from the file keep their defaults and
// unknown keys are an error.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config: empty path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = decodeYAML(data, cfg)
	case ".toml":
		err = decodeTOML(data, cfg)
	default:
		return nil, fmt.Errorf("config: unsupported file type %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	return decoder.Decode(cfg)
}

func decodeTOML(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// Encode renders cfg as YAML.
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("config: marshal: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("config: encoder close: %w", err)
	}
	return buf.Bytes(), nil
}
