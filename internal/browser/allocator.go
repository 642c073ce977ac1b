package browser

import (
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/sitecheck/internal/config"
	"github.com/xkilldash9x/sitecheck/internal/harness"
)

// flag is a single command line switch handed to the browser process.
// Names carry no leading dashes; value is either a bool or a string.
type flag struct {
	name  string
	value interface{}
}

// launchFlags resolves the switches for a browser launch. Configured args
// are appended last so they can override the built in defaults.
func launchFlags(cfg config.BrowserConfig, launch harness.LaunchOptions) []flag {
	flags := []flag{
		{"no-first-run", true},
		{"no-default-browser-check", true},
		{"no-sandbox", true},
		{"disable-background-networking", true},
		{"disable-popup-blocking", true},
		{"window-size", fmt.Sprintf("%d,%d", cfg.WindowWidth, cfg.WindowHeight)},
		// A false value drops the switch chromedp enables by default.
		{"headless", cfg.Headless},
	}
	if cfg.Headless {
		flags = append(flags,
			flag{"hide-scrollbars", true},
			flag{"mute-audio", true},
			flag{"disable-gpu", true},
		)
	}
	if launch.ProxyServer != "" {
		flags = append(flags,
			flag{"proxy-server", launch.ProxyServer},
			// Chrome bypasses the proxy for loopback hosts unless told otherwise.
			flag{"proxy-bypass-list", "<-loopback>"},
		)
	}

	for _, arg := range cfg.Args {
		arg = strings.TrimSpace(strings.TrimLeft(arg, "-"))
		if arg == "" {
			continue
		}
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			flags = append(flags, flag{name, true})
			continue
		}
		flags = append(flags, flag{name, value})
	}
	return dedupeFlags(flags)
}

// dedupeFlags keeps the last value for each switch while preserving the
// position of its first occurrence.
func dedupeFlags(flags []flag) []flag {
	index := make(map[string]int, len(flags))
	out := make([]flag, 0, len(flags))
	for _, f := range flags {
		if i, seen := index[f.name]; seen {
			out[i] = f
			continue
		}
		index[f.name] = len(out)
		out = append(out, f)
	}
	return out
}

// AllocatorOptions layers the resolved launch flags over the chromedp defaults.
func AllocatorOptions(cfg config.BrowserConfig, launch harness.LaunchOptions) []chromedp.ExecAllocatorOption {
	flags := launchFlags(cfg, launch)
	opts := make([]chromedp.ExecAllocatorOption, 0, len(chromedp.DefaultExecAllocatorOptions)+len(flags)+1)
	opts = append(opts, chromedp.DefaultExecAllocatorOptions[:]...)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	for _, f := range flags {
		opts = append(opts, chromedp.Flag(f.name, f.value))
	}
	return opts
}
