package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Registry holds the static roster of debate participants. It is built once at
// process start and never mutated afterwards.
type Registry struct {
	ordered []ModelDescriptor
	byKey   map[string]ModelDescriptor
}

// DefaultDescriptors is the built-in roster used when no override file is
// configured.
var DefaultDescriptors = []ModelDescriptor{
	{Key: "claude", ProviderModelID: "anthropic/claude-sonnet-4", DisplayName: "Claude", Color: "#d97757"},
	{Key: "gpt", ProviderModelID: "openai/gpt-4o", DisplayName: "GPT-4o", Color: "#10a37f"},
	{Key: "gemini", ProviderModelID: "google/gemini-2.0-flash-001", DisplayName: "Gemini", Color: "#4285f4"},
	{Key: "llama", ProviderModelID: "meta-llama/llama-3.3-70b-instruct", DisplayName: "Llama", Color: "#0668e1"},
}

// NewRegistry builds a registry from the given descriptors.
func NewRegistry(descriptors []ModelDescriptor) (*Registry, error) {
	if len(descriptors) == 0 {
		return nil, fmt.Errorf("registry requires at least one model")
	}
	r := &Registry{byKey: make(map[string]ModelDescriptor, len(descriptors))}
	for _, d := range descriptors {
		if d.Key == "" || d.ProviderModelID == "" {
			return nil, fmt.Errorf("model descriptor requires key and model id, got %+v", d)
		}
		if _, dup := r.byKey[d.Key]; dup {
			return nil, fmt.Errorf("duplicate model key %q", d.Key)
		}
		r.byKey[d.Key] = d
		r.ordered = append(r.ordered, d)
	}
	return r, nil
}

// DefaultRegistry returns a registry over the built-in roster.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultDescriptors)
	if err != nil {
		// DefaultDescriptors is a compile-time constant roster
		panic(err)
	}
	return r
}

// LoadRegistry reads a YAML roster file. An empty path yields the default
// roster.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return DefaultRegistry(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read models file: %w", err)
	}
	var file struct {
		Models []ModelDescriptor `yaml:"models"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse models file: %w", err)
	}
	return NewRegistry(file.Models)
}

// Get returns the descriptor for a key.
func (r *Registry) Get(key string) (ModelDescriptor, bool) {
	d, ok := r.byKey[key]
	return d, ok
}

// Has reports whether the key names a known model.
func (r *Registry) Has(key string) bool {
	_, ok := r.byKey[key]
	return ok
}

// Keys returns the model keys in roster order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.ordered))
	for i, d := range r.ordered {
		keys[i] = d.Key
	}
	return keys
}

// Descriptors returns the full roster in order.
func (r *Registry) Descriptors() []ModelDescriptor {
	out := make([]ModelDescriptor, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Resolve maps the requested keys to descriptors, preserving request order.
// An empty request resolves to the full roster. Unknown keys are reported by
// name so the caller can surface them verbatim.
func (r *Registry) Resolve(keys []string) ([]ModelDescriptor, error) {
	if len(keys) == 0 {
		return r.Descriptors(), nil
	}
	out := make([]ModelDescriptor, 0, len(keys))
	for _, k := range keys {
		d, ok := r.byKey[k]
		if !ok {
			return nil, fmt.Errorf("unknown model key %q", k)
		}
		out = append(out, d)
	}
	return out, nil
}
