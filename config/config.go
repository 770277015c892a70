// Package config loads the settings of a [managed.Context]
// from YAML files and the environment.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/djdv/go-managed"
	"gopkg.in/yaml.v3"
)

// Config mirrors the ambient state of a [managed.Context].
type Config struct {
	// LogLevel is a [managed.LogLevel] name, e.g. "warning".
	LogLevel string `yaml:"log_level"`
	// CheckLevel is a [managed.CheckLevel] name, e.g. "usage_and_internal".
	CheckLevel string `yaml:"check_level"`
	// Threads is the thread count hint; 0 selects GOMAXPROCS.
	Threads   int    `yaml:"threads"`
	ShowLeaks bool   `yaml:"show_leaks"`
	LogFormat string `yaml:"log_format"`
}

const (
	FormatText = "text"
	FormatJSON = "json"

	envPrefix = "MANAGED_"
)

type constError string

// ErrInvalid is wrapped by every error returned from [Config.Validate].
const ErrInvalid = constError("invalid configuration")

func (errStr constError) Error() string { return string(errStr) }

// Default returns the settings of a fresh [managed.Context].
func Default() *Config {
	return &Config{
		LogLevel:   managed.Warning.String(),
		CheckLevel: managed.Usage.String(),
		LogFormat:  FormatText,
	}
}

// Load reads and validates the YAML file at path.
// Fields absent from the file keep their [Default] values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("configuration file %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates YAML configuration data.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from MANAGED_LOG_LEVEL, MANAGED_CHECK_LEVEL,
// MANAGED_THREADS, MANAGED_SHOW_LEAKS and MANAGED_LOG_FORMAT.
// Malformed numbers and booleans are errors.
func (cfg *Config) ApplyEnv() error {
	if val, ok := lookupEnv("LOG_LEVEL"); ok {
		cfg.LogLevel = val
	}
	if val, ok := lookupEnv("CHECK_LEVEL"); ok {
		cfg.CheckLevel = val
	}
	if val, ok := lookupEnv("LOG_FORMAT"); ok {
		cfg.LogFormat = val
	}
	if val, ok := lookupEnv("THREADS"); ok {
		threads, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%sTHREADS: %w", envPrefix, err)
		}
		cfg.Threads = threads
	}
	if val, ok := lookupEnv("SHOW_LEAKS"); ok {
		show, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("%sSHOW_LEAKS: %w", envPrefix, err)
		}
		cfg.ShowLeaks = show
	}
	return cfg.Validate()
}

func lookupEnv(name string) (string, bool) {
	val, ok := os.LookupEnv(envPrefix + name)
	if !ok || strings.TrimSpace(val) == "" {
		return "", false
	}
	return val, true
}

// Validate reports the first invalid field.
// Inherited levels are rejected; a context needs concrete ones.
func (cfg *Config) Validate() error {
	logLevel, err := managed.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("%w: log_level: %w", ErrInvalid, err)
	}
	if logLevel == managed.InheritLogLevel {
		return fmt.Errorf("%w: log_level must not be %q", ErrInvalid, cfg.LogLevel)
	}
	checkLevel, err := managed.ParseCheckLevel(cfg.CheckLevel)
	if err != nil {
		return fmt.Errorf("%w: check_level: %w", ErrInvalid, err)
	}
	if checkLevel == managed.InheritCheckLevel {
		return fmt.Errorf("%w: check_level must not be %q", ErrInvalid, cfg.CheckLevel)
	}
	if cfg.Threads < 0 {
		return fmt.Errorf("%w: threads must not be negative, got %d", ErrInvalid, cfg.Threads)
	}
	switch cfg.LogFormat {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("%w: log_format must be %q or %q, got %q",
			ErrInvalid, FormatText, FormatJSON, cfg.LogFormat)
	}
	return nil
}

// Apply validates cfg and configures ctx from it.
// Log records are written to w in the configured format.
func (cfg *Config) Apply(ctx *managed.Context, w io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	var (
		logLevel, _   = managed.ParseLogLevel(cfg.LogLevel)
		checkLevel, _ = managed.ParseCheckLevel(cfg.CheckLevel)
	)
	if cfg.LogFormat == FormatJSON {
		ctx.SetLogger(managed.NewJSONLogger(w))
	} else {
		ctx.SetLogger(managed.NewTextLogger(w))
	}
	ctx.SetLogLevel(logLevel)
	ctx.SetCheckLevel(checkLevel)
	if cfg.Threads > 0 {
		ctx.SetNumberOfThreads(cfg.Threads)
	}
	ctx.SetShowLeaks(cfg.ShowLeaks)
	return nil
}

// Marshal encodes cfg as YAML.
func (cfg *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(cfg)
}
