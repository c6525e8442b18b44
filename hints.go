package esio

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Hints is the bag of key-value access hints installed on the container
// driver before a file is created or opened. Keys are driver-defined;
// unknown keys are carried through untouched.
type Hints map[string]string

// Set stores a hint, replacing any previous value.
func (h Hints) Set(key, value string) {
	h[key] = value
}

// Get returns a hint value, or "" when unset.
func (h Hints) Get(key string) string {
	return h[key]
}

// Clone returns an independent copy.
func (h Hints) Clone() Hints {
	c := make(Hints, len(h))
	for k, v := range h {
		c[k] = v
	}
	return c
}

// HintsFromYAML loads a hint file: a flat YAML mapping of string keys to
// scalar values. Site administrators ship such files to tune collective
// I/O without rebuilding applications.
func HintsFromYAML(path string) (Hints, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("esio: reading hint file: %w", err)
	}
	var m map[string]string
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("esio: parsing hint file %s: %w", path, err)
	}
	h := make(Hints, len(m))
	for k, v := range m {
		h[k] = v
	}
	return h, nil
}

// HintSet stores a hint on the handle. Hints take effect at the next
// FileCreate or FileOpen.
func (h *Handle) HintSet(key, value string) error {
	if h == nil {
		return errFault("hint_set", "nil handle")
	}
	if key == "" {
		return errInvalid("hint_set", "", "empty hint key")
	}
	h.hints.Set(key, value)
	return nil
}

// HintGet returns a hint stored on the handle.
func (h *Handle) HintGet(key string) string {
	if h == nil {
		return ""
	}
	return h.hints.Get(key)
}

// LoadHints merges a YAML hint file into the handle's hint bag.
func (h *Handle) LoadHints(path string) error {
	if h == nil {
		return errFault("load_hints", "nil handle")
	}
	loaded, err := HintsFromYAML(path)
	if err != nil {
		return errFailed("load_hints", path, err)
	}
	for k, v := range loaded {
		h.hints.Set(k, v)
	}
	return nil
}
