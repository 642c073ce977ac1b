package browser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/sitecheck/internal/config"
	"github.com/xkilldash9x/sitecheck/internal/harness"
)

func flagValue(flags []flag, name string) (interface{}, bool) {
	for _, f := range flags {
		if f.name == name {
			return f.value, true
		}
	}
	return nil, false
}

func testBrowserConfig() config.BrowserConfig {
	return config.BrowserConfig{
		Headless:      true,
		WindowWidth:   1280,
		WindowHeight:  720,
		LaunchTimeout: 10 * time.Second,
	}
}

func TestLaunchFlags_Defaults(t *testing.T) {
	flags := launchFlags(testBrowserConfig(), harness.LaunchOptions{})

	for _, name := range []string{"no-first-run", "no-default-browser-check", "no-sandbox", "disable-gpu", "headless"} {
		v, ok := flagValue(flags, name)
		assert.True(t, ok, "expected flag %s", name)
		assert.Equal(t, true, v, name)
	}
	v, _ := flagValue(flags, "window-size")
	assert.Equal(t, "1280,720", v)

	_, ok := flagValue(flags, "proxy-server")
	assert.False(t, ok, "no proxy unless capture is on")
}

func TestLaunchFlags_DefaultArgsKeepConfiguredWindow(t *testing.T) {
	cfg := config.NewDefaultConfig().Browser
	cfg.WindowWidth, cfg.WindowHeight = 1440, 900
	flags := launchFlags(cfg, harness.LaunchOptions{})

	v, ok := flagValue(flags, "window-size")
	require.True(t, ok)
	assert.Equal(t, "1440,900", v)
	for _, name := range []string{"disable-dev-shm-usage", "single-process"} {
		_, ok := flagValue(flags, name)
		assert.True(t, ok, "expected default arg %s", name)
	}
}

func TestLaunchFlags_Headed(t *testing.T) {
	cfg := testBrowserConfig()
	cfg.Headless = false
	flags := launchFlags(cfg, harness.LaunchOptions{})

	v, ok := flagValue(flags, "headless")
	assert.True(t, ok)
	assert.Equal(t, false, v, "headless must be explicitly disabled to override the chromedp default")
	_, ok = flagValue(flags, "disable-gpu")
	assert.False(t, ok)
}

func TestLaunchFlags_Proxy(t *testing.T) {
	flags := launchFlags(testBrowserConfig(), harness.LaunchOptions{ProxyServer: "127.0.0.1:41234"})

	v, ok := flagValue(flags, "proxy-server")
	assert.True(t, ok)
	assert.Equal(t, "127.0.0.1:41234", v)
	v, _ = flagValue(flags, "proxy-bypass-list")
	assert.Equal(t, "<-loopback>", v)
}

func TestLaunchFlags_ConfiguredArgs(t *testing.T) {
	cfg := testBrowserConfig()
	cfg.Args = []string{"--disable-dev-shm-usage", "window-size=800,600", "--lang=en-GB", "  ", "--"}

	flags := launchFlags(cfg, harness.LaunchOptions{})

	v, ok := flagValue(flags, "disable-dev-shm-usage")
	assert.True(t, ok)
	assert.Equal(t, true, v)

	v, _ = flagValue(flags, "window-size")
	assert.Equal(t, "800,600", v, "configured args override built in defaults")

	v, _ = flagValue(flags, "lang")
	assert.Equal(t, "en-GB", v)

	seen := map[string]int{}
	for _, f := range flags {
		seen[f.name]++
		assert.NotEmpty(t, f.name)
		assert.NotContains(t, f.name, "--")
	}
	for name, n := range seen {
		assert.Equal(t, 1, n, "flag %s duplicated", name)
	}
}

func TestDedupeFlags_KeepsFirstPosition(t *testing.T) {
	got := dedupeFlags([]flag{{"a", true}, {"b", "1"}, {"a", false}})
	assert.Equal(t, []flag{{"a", false}, {"b", "1"}}, got)
}

func TestAllocatorOptions_IncludesExecPath(t *testing.T) {
	cfg := testBrowserConfig()
	base := len(AllocatorOptions(cfg, harness.LaunchOptions{}))

	cfg.ExecPath = "/usr/bin/chromium"
	assert.Equal(t, base+1, len(AllocatorOptions(cfg, harness.LaunchOptions{})))
}
