// Package registry provides a pattern registry for dispatching booking
// note text to name extraction patterns.
package registry

import (
	"sort"
	"sync"

	"namesgen/internal/booking"
)

// Pattern is implemented by each extraction pattern.
type Pattern interface {
	// Name returns the pattern's unique identifier.
	Name() string

	// Channels returns which note channels this pattern handles
	// (e.g., "mda", "viator"). Empty slice means "all channels".
	Channels() []string

	// QuickCheck performs a fast string check before expensive regex.
	// Returns true if the text MIGHT yield travelers (false = definitely skip).
	// This should use strings.Contains/HasPrefix, NOT regex.
	QuickCheck(text string) bool

	// Priority determines order within a channel. Lower number =
	// tried first. More specific formats should have lower priority
	// so loose patterns cannot shadow them.
	Priority() int

	// Extract attempts to pull travelers out of the text. An empty
	// slice means the pattern did not apply.
	Extract(text string) []booking.Candidate
}

// Extraction is a successful cascade result: the candidates plus the
// name of the pattern that produced them.
type Extraction struct {
	Pattern    string
	Candidates []booking.Candidate
}

// Registry holds all registered patterns organised for dispatch.
type Registry struct {
	mu sync.RWMutex

	// byChannel maps channels to pattern slices, sorted by Priority (ascending)
	byChannel map[string][]Pattern

	// global holds patterns that run on every channel
	global []Pattern

	// catchAll holds last-resort patterns that run only when nothing else matched
	catchAll []Pattern

	sorted bool
}

// New creates a new Registry instance.
func New() *Registry {
	return &Registry{
		byChannel: make(map[string][]Pattern),
	}
}

// Global default registry.
var defaultRegistry = New()

// Default returns the global registry instance.
func Default() *Registry {
	return defaultRegistry
}

// Register adds a pattern to the default registry.
// Called during init() in each pattern package.
func Register(p Pattern) {
	defaultRegistry.Register(p)
}

// RegisterCatchAll adds a catch-all pattern to the default registry.
func RegisterCatchAll(p Pattern) {
	defaultRegistry.RegisterCatchAll(p)
}

// Register adds a pattern to the registry.
func (r *Registry) Register(p Pattern) {
	r.mu.Lock()
	defer r.mu.Unlock()

	channels := p.Channels()
	if len(channels) == 0 {
		r.global = append(r.global, p)
	} else {
		for _, ch := range channels {
			r.byChannel[ch] = append(r.byChannel[ch], p)
		}
	}
	r.sorted = false
}

// RegisterCatchAll adds a catch-all pattern.
func (r *Registry) RegisterCatchAll(p Pattern) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catchAll = append(r.catchAll, p)
	r.sorted = false
}

// Sort sorts all pattern slices by priority. Call before dispatching.
func (r *Registry) Sort() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sorted {
		return
	}

	for ch := range r.byChannel {
		patterns := r.byChannel[ch]
		sort.SliceStable(patterns, func(i, j int) bool {
			return patterns[i].Priority() < patterns[j].Priority()
		})
	}

	sort.SliceStable(r.global, func(i, j int) bool {
		return r.global[i].Priority() < r.global[j].Priority()
	})

	sort.SliceStable(r.catchAll, func(i, j int) bool {
		return r.catchAll[i].Priority() < r.catchAll[j].Priority()
	})

	r.sorted = true
}

// ExtractFirst runs the cascade: channel patterns in priority order,
// then global patterns, then catch-alls. The first pattern to yield at
// least one candidate wins and no further patterns run.
// Note: Sort() should be called before ExtractFirst(). If it has not
// been, patterns run in registration order.
func (r *Registry) ExtractFirst(channel, text string) *Extraction {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if patterns, ok := r.byChannel[channel]; ok {
		for _, p := range patterns {
			if !p.QuickCheck(text) {
				continue
			}
			if cands := p.Extract(text); len(cands) > 0 {
				return &Extraction{Pattern: p.Name(), Candidates: cands}
			}
		}
	}

	for _, p := range r.global {
		if !p.QuickCheck(text) {
			continue
		}
		if cands := p.Extract(text); len(cands) > 0 {
			return &Extraction{Pattern: p.Name(), Candidates: cands}
		}
	}

	for _, p := range r.catchAll {
		if cands := p.Extract(text); len(cands) > 0 {
			return &Extraction{Pattern: p.Name(), Candidates: cands}
		}
	}

	return nil
}

// ExtractChannel runs only the channel tier, without the global and
// catch-all fallbacks. Callers use it to try a high-confidence channel
// before falling back on another channel's full cascade.
func (r *Registry) ExtractChannel(channel, text string) *Extraction {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.byChannel[channel] {
		if !p.QuickCheck(text) {
			continue
		}
		if cands := p.Extract(text); len(cands) > 0 {
			return &Extraction{Pattern: p.Name(), Candidates: cands}
		}
	}
	return nil
}

// RegisteredChannels returns all channels that have patterns registered.
func (r *Registry) RegisteredChannels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	channels := make([]string, 0, len(r.byChannel))
	for ch := range r.byChannel {
		channels = append(channels, ch)
	}
	sort.Strings(channels)
	return channels
}

// PatternCount returns the total number of unique registered patterns.
func (r *Registry) PatternCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	for _, p := range r.global {
		seen[p.Name()] = true
	}
	for _, patterns := range r.byChannel {
		for _, p := range patterns {
			seen[p.Name()] = true
		}
	}
	for _, p := range r.catchAll {
		seen[p.Name()] = true
	}
	return len(seen)
}

// AllPatterns returns all registered patterns sorted by priority.
// Useful for listing available patterns.
func (r *Registry) AllPatterns() []Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var result []Pattern

	for _, patterns := range r.byChannel {
		for _, p := range patterns {
			if !seen[p.Name()] {
				seen[p.Name()] = true
				result = append(result, p)
			}
		}
	}
	for _, p := range r.global {
		if !seen[p.Name()] {
			seen[p.Name()] = true
			result = append(result, p)
		}
	}
	for _, p := range r.catchAll {
		if !seen[p.Name()] {
			seen[p.Name()] = true
			result = append(result, p)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Priority() != result[j].Priority() {
			return result[i].Priority() < result[j].Priority()
		}
		return result[i].Name() < result[j].Name()
	})
	return result
}
