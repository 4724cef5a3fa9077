package config

import (
	"encoding/json"
	"os"
	"sync"
)

// Source yields the value for a configuration key, or "" when the key is
// absent from that source.
type Source func(key string) string

// Resolver resolves configuration keys against an ordered list of sources.
// The first source returning a non-empty value wins and the result is
// memoized for the lifetime of the process.
type Resolver struct {
	mu      sync.Mutex
	sources []Source
	cache   map[string]string
}

// NewResolver creates a resolver over the given sources, highest priority first.
func NewResolver(sources ...Source) *Resolver {
	return &Resolver{
		sources: sources,
		cache:   make(map[string]string),
	}
}

// Get resolves key through the source chain. A resolved value (including the
// empty string when no source knows the key) is cached and never re-resolved.
func (r *Resolver) Get(key string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.cache[key]; ok {
		return v
	}
	var value string
	for _, src := range r.sources {
		if v := src(key); v != "" {
			value = v
			break
		}
	}
	r.cache[key] = value
	return value
}

// FileSource reads a flat JSON object of string values once and serves keys
// from it. A missing or malformed file yields an empty source, so the chain
// falls through to the environment.
func FileSource(path string) Source {
	values := map[string]string{}
	if data, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(data, &values)
	}
	return func(key string) string {
		return values[key]
	}
}

// EnvSource serves keys from the process environment.
func EnvSource() Source {
	return os.Getenv
}

// DefaultsSource serves keys from a fixed map of development defaults.
func DefaultsSource(defaults map[string]string) Source {
	return func(key string) string {
		return defaults[key]
	}
}
