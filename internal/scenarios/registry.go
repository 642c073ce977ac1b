package scenarios

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xkilldash9x/sitecheck/internal/harness"
)

// ErrUnknownScenario is returned when a requested name is not registered.
var ErrUnknownScenario = errors.New("unknown scenario")

// Registry indexes scenarios by name.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]harness.Scenario
}

// NewRegistry creates a registry holding the given scenarios.
func NewRegistry(scenarios ...harness.Scenario) (*Registry, error) {
	r := &Registry{byName: make(map[string]harness.Scenario, len(scenarios))}
	for _, sc := range scenarios {
		if err := r.Register(sc); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register validates and adds a scenario. Names must be unique.
func (r *Registry) Register(sc harness.Scenario) error {
	if err := sc.Validate(); err != nil {
		return fmt.Errorf("invalid scenario: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byName[sc.Name]; ok {
		return fmt.Errorf("scenario %q already registered (from %s)", sc.Name, sourceOf(existing))
	}
	r.byName[sc.Name] = sc
	return nil
}

func sourceOf(sc harness.Scenario) string {
	if sc.Source == "" {
		return "builtin"
	}
	return sc.Source
}

// Get looks up a scenario by name.
func (r *Registry) Get(name string) (harness.Scenario, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sc, ok := r.byName[name]
	return sc, ok
}

// All returns every scenario sorted by name.
func (r *Registry) All() []harness.Scenario {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]harness.Scenario, 0, len(r.byName))
	for _, sc := range r.byName {
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Select picks scenarios by name, keeping the requested order, and then
// keeps those carrying any of tags. Empty names means every scenario; empty
// tags means no tag filter.
func (r *Registry) Select(names, tags []string) ([]harness.Scenario, error) {
	var picked []harness.Scenario
	if len(names) == 0 {
		picked = r.All()
	} else {
		seen := make(map[string]bool, len(names))
		for _, name := range names {
			name = strings.TrimSpace(name)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			sc, ok := r.Get(name)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownScenario, name)
			}
			picked = append(picked, sc)
		}
	}
	if len(tags) == 0 {
		return picked, nil
	}
	filtered := picked[:0:0]
	for _, sc := range picked {
		for _, tag := range tags {
			if sc.HasTag(tag) {
				filtered = append(filtered, sc)
				break
			}
		}
	}
	return filtered, nil
}
