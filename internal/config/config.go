// File: internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Target    TargetConfig    `mapstructure:"target" yaml:"target"`
	Browser   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	Harness   HarnessConfig   `mapstructure:"harness" yaml:"harness"`
	Scenarios ScenariosConfig `mapstructure:"scenarios" yaml:"scenarios"`
	Report    ReportConfig    `mapstructure:"report" yaml:"report"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts" yaml:"artifacts"`
	Capture   CaptureConfig   `mapstructure:"capture" yaml:"capture"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
}

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

// TargetConfig describes the front-end under test.
type TargetConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// AppDir is the checkout of the application, used to stamp its git revision.
	AppDir string `mapstructure:"app_dir" yaml:"app_dir"`
}

type BrowserConfig struct {
	Headless      bool          `mapstructure:"headless" yaml:"headless"`
	ExecPath      string        `mapstructure:"exec_path" yaml:"exec_path"`
	Args          []string      `mapstructure:"args" yaml:"args"`
	WindowWidth   int           `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight  int           `mapstructure:"window_height" yaml:"window_height"`
	LaunchTimeout time.Duration `mapstructure:"launch_timeout" yaml:"launch_timeout"`
	Debug         bool          `mapstructure:"debug" yaml:"debug"`
}

// HarnessConfig carries the timing of the scenario lifecycle.
type HarnessConfig struct {
	DefaultTimeout    time.Duration `mapstructure:"default_timeout" yaml:"default_timeout"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	ReadyTimeout      time.Duration `mapstructure:"ready_timeout" yaml:"ready_timeout"`
	SettleDelay       time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	ActionTimeout     time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
	PostScenarioWait  time.Duration `mapstructure:"post_scenario_wait" yaml:"post_scenario_wait"`
	TeardownTimeout   time.Duration `mapstructure:"teardown_timeout" yaml:"teardown_timeout"`
	Parallelism       int           `mapstructure:"parallelism" yaml:"parallelism"`
	// LaunchRate caps scenario starts per second. Zero disables pacing.
	LaunchRate float64       `mapstructure:"launch_rate" yaml:"launch_rate"`
	ClockWait  time.Duration `mapstructure:"clock_wait" yaml:"clock_wait"`
}

type ScenariosConfig struct {
	Paths   []string `mapstructure:"paths" yaml:"paths"`
	Include []string `mapstructure:"include" yaml:"include"`
	Tags    []string `mapstructure:"tags" yaml:"tags"`
}

type ReportConfig struct {
	Format      string `mapstructure:"format" yaml:"format"`
	Output      string `mapstructure:"output" yaml:"output"`
	MetricsFile string `mapstructure:"metrics_file" yaml:"metrics_file"`
}

type ArtifactsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Dir     string `mapstructure:"dir" yaml:"dir"`
}

// CaptureConfig controls the recording proxy placed in front of the browser.
type CaptureConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// DefaultBrowserArgs mirrors the launch flags the suite has always used in
// containers. The window size comes from browser.window_width and window_height.
var DefaultBrowserArgs = []string{
	"--disable-dev-shm-usage",
	"--ipc=host",
	"--single-process",
}

var validFormats = map[string]bool{"text": true, "json": true, "junit": true}

func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "sitecheck")
	v.SetDefault("logger.log_file", "sitecheck.log")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	v.SetDefault("target.base_url", "http://localhost:3000")
	v.SetDefault("target.app_dir", "")

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.args", DefaultBrowserArgs)
	v.SetDefault("browser.window_width", 1280)
	v.SetDefault("browser.window_height", 720)
	v.SetDefault("browser.launch_timeout", "30s")
	v.SetDefault("browser.debug", false)

	v.SetDefault("harness.default_timeout", "5s")
	v.SetDefault("harness.navigation_timeout", "10s")
	v.SetDefault("harness.ready_timeout", "3s")
	v.SetDefault("harness.settle_delay", "3s")
	v.SetDefault("harness.action_timeout", "5s")
	v.SetDefault("harness.post_scenario_wait", "0s")
	v.SetDefault("harness.teardown_timeout", "10s")
	v.SetDefault("harness.parallelism", 1)
	v.SetDefault("harness.launch_rate", 0.0)
	v.SetDefault("harness.clock_wait", "2m")

	v.SetDefault("report.format", "text")
	v.SetDefault("report.output", "")
	v.SetDefault("report.metrics_file", "")

	v.SetDefault("artifacts.enabled", true)
	v.SetDefault("artifacts.dir", "artifacts")

	v.SetDefault("capture.enabled", false)
	v.SetDefault("capture.listen_addr", "127.0.0.1:0")
}

func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	v.BindEnv("database.url", "SITECHECK_DATABASE_URL", "DATABASE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// expandPaths resolves a leading ~ in every filesystem path.
func (c *Config) expandPaths() error {
	targets := []*string{&c.Logger.LogFile, &c.Target.AppDir, &c.Browser.ExecPath, &c.Artifacts.Dir, &c.Report.Output, &c.Report.MetricsFile}
	for _, p := range targets {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	for i, p := range c.Scenarios.Paths {
		expanded, err := homedir.Expand(p)
		if err != nil {
			return fmt.Errorf("failed to expand scenario path %q: %w", p, err)
		}
		c.Scenarios.Paths[i] = expanded
	}
	return nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.Target.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("target.base_url must be an absolute URL, got %q", c.Target.BaseURL)
	}
	if c.Harness.Parallelism <= 0 {
		return fmt.Errorf("harness.parallelism must be a positive integer")
	}
	if c.Harness.LaunchRate < 0 {
		return fmt.Errorf("harness.launch_rate must not be negative")
	}
	if err := c.Harness.Validate(); err != nil {
		return fmt.Errorf("harness configuration invalid: %w", err)
	}
	if !validFormats[strings.ToLower(c.Report.Format)] {
		return fmt.Errorf("report.format must be one of text, json, junit; got %q", c.Report.Format)
	}
	if c.Browser.WindowWidth <= 0 || c.Browser.WindowHeight <= 0 {
		return fmt.Errorf("browser.window_width and browser.window_height must be positive")
	}
	if c.Artifacts.Enabled && c.Artifacts.Dir == "" {
		return fmt.Errorf("artifacts.dir is required when artifacts are enabled")
	}
	return nil
}

// Validate checks that every bounded wait actually has a bound.
func (h *HarnessConfig) Validate() error {
	bounded := map[string]time.Duration{
		"default_timeout":    h.DefaultTimeout,
		"navigation_timeout": h.NavigationTimeout,
		"ready_timeout":      h.ReadyTimeout,
		"action_timeout":     h.ActionTimeout,
		"teardown_timeout":   h.TeardownTimeout,
	}
	for name, d := range bounded {
		if d <= 0 {
			return fmt.Errorf("%s must be greater than zero", name)
		}
	}
	if h.SettleDelay < 0 || h.PostScenarioWait < 0 || h.ClockWait < 0 {
		return fmt.Errorf("settle_delay, post_scenario_wait and clock_wait must not be negative")
	}
	return nil
}
