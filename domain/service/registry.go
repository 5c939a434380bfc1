package service

import (
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"http-sniffer/domain/entity"
	"http-sniffer/domain/port"
)

// DefaultResolveCacheSize bounds the memoised content-type resolutions.
const DefaultResolveCacheSize = 256

type registryEntry struct {
	pattern      entity.ContentTypePattern
	deserializer port.Deserializer
}

type resolution struct {
	deserializer port.Deserializer
	found        bool
}

// Registry maps content-type patterns to deserializers.
// Resolution returns the first pattern, in registration order, that matches.
// Thread-safe implementation using read-write mutex.
type Registry struct {
	mu      sync.RWMutex
	entries []registryEntry
	cache   *lru.Cache[string, resolution]
	logger  port.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger used to report skipped patterns.
func WithRegistryLogger(logger port.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithResolveCacheSize changes the resolution cache size. Non-positive sizes keep the default.
func WithResolveCacheSize(size int) RegistryOption {
	return func(r *Registry) {
		if size <= 0 {
			return
		}
		if cache, err := lru.New[string, resolution](size); err == nil {
			r.cache = cache
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	cache, _ := lru.New[string, resolution](DefaultResolveCacheSize)
	r := &Registry{
		cache:  cache,
		logger: &port.NopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register installs d for every well-formed pattern. Malformed patterns are skipped
// and logged at debug level. Registering a pattern that is already present replaces
// its deserializer but keeps its position.
func (r *Registry) Register(d port.Deserializer, patterns ...string) {
	if d == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, raw := range patterns {
		pattern, err := entity.ParseContentTypePattern(raw)
		if err != nil {
			r.logger.Debug("跳过无效的内容类型模式", port.String("pattern", raw), port.Error(err))
			continue
		}

		replaced := false
		for i := range r.entries {
			if r.entries[i].pattern.String() == pattern.String() {
				r.entries[i].deserializer = d
				replaced = true
				break
			}
		}
		if !replaced {
			r.entries = append(r.entries, registryEntry{pattern: pattern, deserializer: d})
		}
	}

	r.cache.Purge()
}

// Resolve returns the deserializer of the first pattern accepting contentType.
func (r *Registry) Resolve(contentType string) (port.Deserializer, bool) {
	key := strings.ToLower(strings.TrimSpace(contentType))
	if res, ok := r.cache.Get(key); ok {
		return res.deserializer, res.found
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	res := resolution{}
	for _, entry := range r.entries {
		if entry.pattern.Match(key) {
			res = resolution{deserializer: entry.deserializer, found: true}
			break
		}
	}

	r.cache.Add(key, res)
	return res.deserializer, res.found
}

// Patterns returns the registered patterns in resolution order.
func (r *Registry) Patterns() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	patterns := make([]string, 0, len(r.entries))
	for _, entry := range r.entries {
		patterns = append(patterns, entry.pattern.String())
	}
	return patterns
}

// SafeDeserialize runs d and turns a panic into a failed rendering.
// The recovered value is returned as err so callers can log it.
func SafeDeserialize(d port.Deserializer, body []byte) (text string, ok bool, err error) {
	if d == nil {
		return "", false, nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			text, ok, err = "", false, fmt.Errorf("deserializer panic: %v", rec)
		}
	}()
	text, ok = d.Deserialize(body)
	return text, ok, nil
}
