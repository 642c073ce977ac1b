// File: internal/config/config_test.go
package config

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "sitecheck", cfg.Logger.ServiceName)
	assert.Equal(t, "http://localhost:3000", cfg.Target.BaseURL)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, DefaultBrowserArgs, cfg.Browser.Args)
	assert.Equal(t, 1280, cfg.Browser.WindowWidth)
	assert.Equal(t, 720, cfg.Browser.WindowHeight)

	// The lifecycle timings the suite was written against.
	assert.Equal(t, 5*time.Second, cfg.Harness.DefaultTimeout)
	assert.Equal(t, 10*time.Second, cfg.Harness.NavigationTimeout)
	assert.Equal(t, 3*time.Second, cfg.Harness.ReadyTimeout)
	assert.Equal(t, 3*time.Second, cfg.Harness.SettleDelay)
	assert.Equal(t, 5*time.Second, cfg.Harness.ActionTimeout)
	assert.Equal(t, 1, cfg.Harness.Parallelism)
	assert.Equal(t, 2*time.Minute, cfg.Harness.ClockWait)

	assert.Equal(t, "text", cfg.Report.Format)
	assert.True(t, cfg.Artifacts.Enabled)
	assert.False(t, cfg.Capture.Enabled)
	assert.NoError(t, cfg.Validate(), "defaults must always validate")
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	t.Run("Core Validation", func(t *testing.T) {
		cfg := NewDefaultConfig()
		require.NoError(t, cfg.Validate())

		badURL := *cfg
		badURL.Target.BaseURL = "localhost:3000/no-scheme"
		err := badURL.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "target.base_url must be an absolute URL")

		badParallel := *cfg
		badParallel.Harness.Parallelism = 0
		err = badParallel.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "harness.parallelism must be a positive integer")

		badFormat := *cfg
		badFormat.Report.Format = "sarif"
		err = badFormat.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "report.format must be one of")

		noArtifactDir := *cfg
		noArtifactDir.Artifacts.Dir = ""
		err = noArtifactDir.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "artifacts.dir is required")

		artifactsOff := noArtifactDir
		artifactsOff.Artifacts.Enabled = false
		assert.NoError(t, artifactsOff.Validate())
	})

	t.Run("Harness Validation", func(t *testing.T) {
		valid := NewDefaultConfig().Harness
		assert.NoError(t, valid.Validate())

		unbounded := valid
		unbounded.ActionTimeout = 0
		err := unbounded.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "action_timeout must be greater than zero")

		negativeSettle := valid
		negativeSettle.SettleDelay = -time.Second
		err = negativeSettle.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must not be negative")

		noSettle := valid
		noSettle.SettleDelay = 0
		assert.NoError(t, noSettle.Validate(), "a zero settle delay is allowed")
	})
}

// -- Factory Function Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("Successful Load from YAML", func(t *testing.T) {
		yamlBytes := []byte(`
target:
  base_url: "http://127.0.0.1:4000"
harness:
  settle_delay: 500ms
  parallelism: 2
report:
  format: junit
`)
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlBytes)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)

		assert.Equal(t, "http://127.0.0.1:4000", cfg.Target.BaseURL)
		assert.Equal(t, 500*time.Millisecond, cfg.Harness.SettleDelay)
		assert.Equal(t, 2, cfg.Harness.Parallelism)
		assert.Equal(t, "junit", cfg.Report.Format)
		// Untouched values keep their defaults.
		assert.Equal(t, 10*time.Second, cfg.Harness.NavigationTimeout)
	})

	t.Run("Validation Failure", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("harness.parallelism", 0)

		cfg, err := NewConfigFromViper(v)
		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.Contains(t, err.Error(), "harness.parallelism must be a positive integer")
	})

	t.Run("Environment Variable Binding", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)

		yamlConfig := []byte(`
database:
  url: "postgres://configfile/db"
`)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlConfig)))

		testDBURL := "postgres://envvar/db"
		t.Setenv("SITECHECK_DATABASE_URL", testDBURL)

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, testDBURL, cfg.Database.URL, "env must override the config file")
	})

	t.Run("Home Directory Expansion", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		homedir.DisableCache = true
		t.Cleanup(func() { homedir.DisableCache = false })

		v := viper.New()
		SetDefaults(v)
		v.Set("artifacts.dir", "~/sitecheck/artifacts")
		v.Set("scenarios.paths", []string{"~/scenarios"})

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, "sitecheck", "artifacts"), cfg.Artifacts.Dir)
		assert.Equal(t, []string{filepath.Join(home, "scenarios")}, cfg.Scenarios.Paths)
	})
}

// -- Struct and Mapping Tests --

func TestConfigStructureMapping(t *testing.T) {
	yamlInput := `
logger:
  level: debug
  log_file: /var/log/sitecheck.log
browser:
  args: ["--window-size=800,600"]
  window_width: 800
  window_height: 600
capture:
  enabled: true
  listen_addr: "127.0.0.1:8899"
scenarios:
  tags: [contact]
`
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(yamlInput)))

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "/var/log/sitecheck.log", cfg.Logger.LogFile)
	assert.Equal(t, []string{"--window-size=800,600"}, cfg.Browser.Args)
	assert.Equal(t, 800, cfg.Browser.WindowWidth)
	assert.True(t, cfg.Capture.Enabled)
	assert.Equal(t, "127.0.0.1:8899", cfg.Capture.ListenAddr)
	assert.Equal(t, []string{"contact"}, cfg.Scenarios.Tags)
}
