package scenarios

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/sitecheck/internal/harness"
)

// fileScenario is the YAML form of a scenario. A file may hold several,
// separated by document markers.
type fileScenario struct {
	Name        string     `yaml:"name"`
	Title       string     `yaml:"title,omitempty"`
	Description string     `yaml:"description,omitempty"`
	Path        string     `yaml:"path,omitempty"`
	Tags        []string   `yaml:"tags,omitempty"`
	Incomplete  string     `yaml:"incomplete,omitempty"`
	Steps       []fileStep `yaml:"steps"`
}

// fileStep sets exactly one action key. Expect steps also set exactly one matcher.
type fileStep struct {
	Click    string        `yaml:"click,omitempty"`
	Fill     string        `yaml:"fill,omitempty"`
	Goto     *string       `yaml:"goto,omitempty"`
	Wheel    *fileWheel    `yaml:"wheel,omitempty"`
	Viewport *fileViewport `yaml:"viewport,omitempty"`
	Pause    string        `yaml:"pause,omitempty"`
	Expect   string        `yaml:"expect,omitempty"`
	Value    string        `yaml:"value,omitempty"`
	Label    string        `yaml:"label,omitempty"`

	Equals      anyValue `yaml:"equals,omitempty"`
	Contains    *string  `yaml:"contains,omitempty"`
	NotContains *string  `yaml:"not_contains,omitempty"`
	AtLeast     *float64 `yaml:"at_least,omitempty"`
	AtMost      *float64 `yaml:"at_most,omitempty"`
	Truthy      bool     `yaml:"truthy,omitempty"`
	Falsy       bool     `yaml:"falsy,omitempty"`
}

// anyValue holds an arbitrary YAML value and whether the key was present.
// An explicit null leaves it unset.
type anyValue struct {
	set   bool
	value any
}

func (v *anyValue) UnmarshalYAML(node *yaml.Node) error {
	var decoded any
	if err := node.Decode(&decoded); err != nil {
		return err
	}
	v.set = true
	v.value = decoded
	return nil
}

type fileWheel struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type fileViewport struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// LoadFile reads every scenario in a YAML file.
func LoadFile(path string) ([]harness.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return Parse(path, data)
}

// LoadDir reads every .yaml and .yml file in dir, in name order.
func LoadDir(dir string) ([]harness.Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	var out []harness.Scenario
	for _, f := range files {
		scs, err := LoadFile(f)
		if err != nil {
			return nil, err
		}
		out = append(out, scs...)
	}
	return out, nil
}

// LoadPath loads a single file or every scenario file in a directory.
func LoadPath(path string) ([]harness.Scenario, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scenario path: %w", err)
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	return LoadFile(path)
}

// Parse decodes scenarios from YAML. source names the origin in errors and
// is recorded on each scenario.
func Parse(source string, data []byte) ([]harness.Scenario, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var out []harness.Scenario
	for doc := 0; ; doc++ {
		var fs fileScenario
		err := decoder.Decode(&fs)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: failed to parse YAML: %w", source, err)
		}
		sc, err := fs.build(source)
		if err != nil {
			return nil, fmt.Errorf("%s: document %d: %w", source, doc, err)
		}
		out = append(out, sc)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: no scenarios defined", source)
	}
	return out, nil
}

func (fs fileScenario) build(source string) (harness.Scenario, error) {
	sc := harness.Scenario{
		Name:        strings.TrimSpace(fs.Name),
		Title:       fs.Title,
		Description: fs.Description,
		Path:        fs.Path,
		Tags:        fs.Tags,
		Incomplete:  fs.Incomplete,
		Source:      source,
	}
	if sc.Name == "" {
		return sc, errors.New("name is required")
	}
	for i, st := range fs.Steps {
		step, err := st.build()
		if err != nil {
			return sc, fmt.Errorf("scenario %q: step %d: %w", sc.Name, i, err)
		}
		sc.Steps = append(sc.Steps, step)
	}
	if err := sc.Validate(); err != nil {
		return sc, err
	}
	return sc, nil
}

func (st fileStep) build() (harness.Step, error) {
	var actions []string
	set := func(name string, ok bool) {
		if ok {
			actions = append(actions, name)
		}
	}
	set("click", st.Click != "")
	set("fill", st.Fill != "")
	set("goto", st.Goto != nil)
	set("wheel", st.Wheel != nil)
	set("viewport", st.Viewport != nil)
	set("pause", st.Pause != "")
	set("expect", st.Expect != "")

	switch len(actions) {
	case 0:
		return nil, errors.New("no action given (want one of click, fill, goto, wheel, viewport, pause, expect)")
	case 1:
	default:
		return nil, fmt.Errorf("more than one action given: %s", strings.Join(actions, ", "))
	}

	if actions[0] != "expect" && st.hasMatcher() {
		return nil, fmt.Errorf("matchers are only valid on expect steps, not %s", actions[0])
	}

	switch actions[0] {
	case "click":
		return harness.Click{Selector: st.Click, Label: st.Label}, nil
	case "fill":
		return harness.Fill{Selector: st.Fill, Value: st.Value, Label: st.Label}, nil
	case "goto":
		return harness.Goto{Path: *st.Goto}, nil
	case "wheel":
		return harness.Wheel{DeltaX: st.Wheel.X, DeltaY: st.Wheel.Y}, nil
	case "viewport":
		if st.Viewport.Width <= 0 || st.Viewport.Height <= 0 {
			return nil, fmt.Errorf("viewport must be positive, got %dx%d", st.Viewport.Width, st.Viewport.Height)
		}
		return harness.Viewport{Width: st.Viewport.Width, Height: st.Viewport.Height}, nil
	case "pause":
		d, err := time.ParseDuration(st.Pause)
		if err != nil {
			return nil, fmt.Errorf("invalid pause: %w", err)
		}
		if d < 0 {
			return nil, fmt.Errorf("pause must not be negative, got %s", d)
		}
		return harness.Pause{Duration: d}, nil
	default:
		m, err := st.matcher()
		if err != nil {
			return nil, err
		}
		return harness.ExpectEval{Label: st.Label, Expression: st.Expect, Matcher: m}, nil
	}
}

func (st fileStep) hasMatcher() bool {
	return st.Equals.set || st.Contains != nil || st.NotContains != nil ||
		st.AtLeast != nil || st.AtMost != nil || st.Truthy || st.Falsy
}

func (st fileStep) matcher() (harness.Matcher, error) {
	var found []harness.Matcher
	if st.Equals.set {
		found = append(found, harness.Equals(st.Equals.value))
	}
	if st.Contains != nil {
		found = append(found, harness.Contains(*st.Contains))
	}
	if st.NotContains != nil {
		found = append(found, harness.NotContains(*st.NotContains))
	}
	if st.AtLeast != nil {
		found = append(found, harness.AtLeast(*st.AtLeast))
	}
	if st.AtMost != nil {
		found = append(found, harness.AtMost(*st.AtMost))
	}
	if st.Truthy {
		found = append(found, harness.Truthy())
	}
	if st.Falsy {
		found = append(found, harness.Falsy())
	}
	switch len(found) {
	case 0:
		return nil, errors.New("expect step needs a matcher (equals, contains, not_contains, at_least, at_most, truthy or falsy)")
	case 1:
		return found[0], nil
	default:
		return nil, errors.New("expect step has more than one matcher")
	}
}
