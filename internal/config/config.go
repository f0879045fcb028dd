// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/xkilldash9x/synthinput/internal/platform"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Engine() EngineConfig
	Gestures() GesturesConfig
	Trace() TraceConfig
	Runner() RunnerConfig

	// Engine Setters
	SetEnginePlatform(string)
	SetEngineViewport(width, height int)

	// Trace Setters
	SetTraceEnabled(bool)

	// Runner Setters
	SetRunnerConcurrency(int)
	SetRunnerFailFast(bool)
	SetRunnerOutputDir(string)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	EngineCfg   EngineConfig   `mapstructure:"engine" yaml:"engine"`
	GesturesCfg GesturesConfig `mapstructure:"gestures" yaml:"gestures"`
	TraceCfg    TraceConfig    `mapstructure:"trace" yaml:"trace"`
	RunnerCfg   RunnerConfig   `mapstructure:"runner" yaml:"runner"`
}

var _ Interface = (*Config)(nil)

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig     { return c.LoggerCfg }
func (c *Config) Engine() EngineConfig     { return c.EngineCfg }
func (c *Config) Gestures() GesturesConfig { return c.GesturesCfg }
func (c *Config) Trace() TraceConfig       { return c.TraceCfg }
func (c *Config) Runner() RunnerConfig     { return c.RunnerCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetEnginePlatform(name string) { c.EngineCfg.Platform = name }
func (c *Config) SetEngineViewport(width, height int) {
	c.EngineCfg.ViewportWidth = width
	c.EngineCfg.ViewportHeight = height
}

func (c *Config) SetTraceEnabled(b bool) { c.TraceCfg.Enabled = b }

func (c *Config) SetRunnerConcurrency(n int)    { c.RunnerCfg.Concurrency = n }
func (c *Config) SetRunnerFailFast(b bool)      { c.RunnerCfg.FailFast = b }
func (c *Config) SetRunnerOutputDir(dir string) { c.RunnerCfg.OutputDir = dir }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// EngineConfig selects the emulated browser and its window.
type EngineConfig struct {
	Platform       string `mapstructure:"platform" yaml:"platform"`
	ViewportWidth  int    `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight int    `mapstructure:"viewport_height" yaml:"viewport_height"`
	// LegacyBlurErrors overrides the platform's own setting when non-nil.
	LegacyBlurErrors *bool `mapstructure:"legacy_blur_errors" yaml:"legacy_blur_errors,omitempty"`
}

// GesturesConfig holds the step counts used when a scenario omits them.
type GesturesConfig struct {
	DragSteps       int `mapstructure:"drag_steps" yaml:"drag_steps"`
	SwipeSteps      int `mapstructure:"swipe_steps" yaml:"swipe_steps"`
	MultiTouchSteps int `mapstructure:"multi_touch_steps" yaml:"multi_touch_steps"`
}

// TraceConfig controls event recording.
type TraceConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Events limits recording to these event types; empty records all.
	Events  []string `mapstructure:"events" yaml:"events"`
	Trusted bool     `mapstructure:"trusted" yaml:"trusted"`
}

// RunnerConfig tunes the scenario runner.
type RunnerConfig struct {
	Concurrency int    `mapstructure:"concurrency" yaml:"concurrency"`
	FailFast    bool   `mapstructure:"fail_fast" yaml:"fail_fast"`
	OutputDir   string `mapstructure:"output_dir" yaml:"output_dir"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "synthctl")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Engine --
	v.SetDefault("engine.platform", "chrome")
	v.SetDefault("engine.viewport_width", 1024)
	v.SetDefault("engine.viewport_height", 768)

	// -- Gestures --
	v.SetDefault("gestures.drag_steps", 2)
	v.SetDefault("gestures.swipe_steps", 2)
	v.SetDefault("gestures.multi_touch_steps", 2)

	// -- Trace --
	v.SetDefault("trace.enabled", true)
	v.SetDefault("trace.trusted", false)

	// -- Runner --
	v.SetDefault("runner.concurrency", 4)
	v.SetDefault("runner.fail_fast", false)
	v.SetDefault("runner.output_dir", "results")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.EngineCfg.Validate(); err != nil {
		return fmt.Errorf("engine configuration invalid: %w", err)
	}
	if err := c.GesturesCfg.Validate(); err != nil {
		return fmt.Errorf("gestures configuration invalid: %w", err)
	}
	if c.RunnerCfg.Concurrency <= 0 {
		return errors.New("runner.concurrency must be a positive integer")
	}
	return nil
}

// Validate checks the platform name and viewport size.
func (e *EngineConfig) Validate() error {
	if _, err := platform.Preset(e.Platform); err != nil {
		return fmt.Errorf("platform: %w", err)
	}
	if e.ViewportWidth <= 0 || e.ViewportHeight <= 0 {
		return errors.New("viewport_width and viewport_height must be positive")
	}
	return nil
}

// Validate checks the step counts.
func (g *GesturesConfig) Validate() error {
	switch {
	case g.DragSteps <= 0:
		return errors.New("drag_steps must be greater than 0")
	case g.SwipeSteps <= 0:
		return errors.New("swipe_steps must be greater than 0")
	case g.MultiTouchSteps <= 0:
		return errors.New("multi_touch_steps must be greater than 0")
	}
	return nil
}

// Capabilities resolves the configured platform, applying the engine overrides.
func (e EngineConfig) Capabilities() (platform.Capabilities, error) {
	caps, err := platform.Preset(e.Platform)
	if err != nil {
		return platform.Capabilities{}, err
	}
	if e.LegacyBlurErrors != nil {
		caps.LegacyBlurErrors = *e.LegacyBlurErrors
	}
	return caps, nil
}
