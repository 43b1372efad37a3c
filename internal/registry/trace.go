package registry

import "namesgen/internal/booking"

// TraceResult contains trace information from a pattern's attempt to
// extract travelers from a note.
type TraceResult struct {
	PatternName string              // Name of the pattern.
	QuickCheck  *QuickCheck         // QuickCheck result (nil if not applicable).
	Formats     []FormatTrace       // Format match attempts (for grok-style patterns).
	Candidates  []booking.Candidate // Extracted candidates (if matched).
	Matched     bool                // Whether the pattern yielded candidates.
}

// QuickCheck contains the result of a pattern's quick check.
type QuickCheck struct {
	Passed bool   // Whether the quick check passed.
	Reason string // Optional reason for the result.
}

// FormatTrace contains debug information about a format match attempt.
type FormatTrace struct {
	Name     string            // Format name.
	Matched  bool              // Whether the format matched.
	Pattern  string            // The expanded regex pattern.
	Captures map[string]string // Captured groups (if matched).
}

// Traceable is implemented by patterns that support debug tracing.
// This lets the debug command show why a pattern did or did not match
// a note.
type Traceable interface {
	// ExtractWithTrace attempts extraction and returns detailed
	// trace information about which formats were tried.
	ExtractWithTrace(text string) *TraceResult
}

// ExtractTrace runs every pattern visible to the channel and collects
// a trace per pattern. Unlike ExtractFirst it does not stop at the
// first hit.
func (r *Registry) ExtractTrace(channel, text string) []TraceResult {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var traces []TraceResult
	run := func(p Pattern) {
		if t, ok := p.(Traceable); ok {
			if tr := t.ExtractWithTrace(text); tr != nil {
				traces = append(traces, *tr)
				return
			}
		}
		passed := p.QuickCheck(text)
		tr := TraceResult{
			PatternName: p.Name(),
			QuickCheck:  &QuickCheck{Passed: passed},
		}
		if passed {
			tr.Candidates = p.Extract(text)
			tr.Matched = len(tr.Candidates) > 0
		}
		traces = append(traces, tr)
	}

	for _, p := range r.byChannel[channel] {
		run(p)
	}
	for _, p := range r.global {
		run(p)
	}
	for _, p := range r.catchAll {
		run(p)
	}
	return traces
}
