package registry

import (
	"strings"
	"testing"

	"namesgen/internal/booking"
)

type stubPattern struct {
	name     string
	channels []string
	priority int
	needle   string
	result   []booking.Candidate
}

func (p *stubPattern) Name() string       { return p.name }
func (p *stubPattern) Channels() []string { return p.channels }
func (p *stubPattern) Priority() int      { return p.priority }
func (p *stubPattern) QuickCheck(text string) bool {
	return p.needle == "" || strings.Contains(text, p.needle)
}
func (p *stubPattern) Extract(text string) []booking.Candidate { return p.result }

func TestExtractFirstStopsAtFirstHit(t *testing.T) {
	r := New()
	r.Register(&stubPattern{name: "loose", channels: []string{"mda"}, priority: 50,
		result: []booking.Candidate{{Name: "Loose Match"}}})
	r.Register(&stubPattern{name: "specific", channels: []string{"mda"}, priority: 10,
		result: []booking.Candidate{{Name: "Specific Match"}}})
	r.Sort()

	got := r.ExtractFirst("mda", "anything")
	if got == nil {
		t.Fatal("no extraction")
	}
	if got.Pattern != "specific" {
		t.Errorf("winning pattern = %q, want specific", got.Pattern)
	}
	if got.Candidates[0].Name != "Specific Match" {
		t.Errorf("candidate = %q", got.Candidates[0].Name)
	}
}

func TestExtractFirstSkipsQuickCheckFailures(t *testing.T) {
	r := New()
	r.Register(&stubPattern{name: "gated", channels: []string{"mda"}, priority: 10,
		needle: "NEVER", result: []booking.Candidate{{Name: "X"}}})
	r.Register(&stubPattern{name: "open", channels: []string{"mda"}, priority: 20,
		result: []booking.Candidate{{Name: "Y"}}})
	r.Sort()

	got := r.ExtractFirst("mda", "some note")
	if got == nil || got.Pattern != "open" {
		t.Fatalf("got %+v, want open to win", got)
	}
}

func TestExtractFirstEmptyResultContinues(t *testing.T) {
	r := New()
	r.Register(&stubPattern{name: "empty", channels: []string{"mda"}, priority: 10})
	r.Register(&stubPattern{name: "hit", channels: []string{"mda"}, priority: 20,
		result: []booking.Candidate{{Name: "Z"}}})
	r.Sort()

	got := r.ExtractFirst("mda", "note")
	if got == nil || got.Pattern != "hit" {
		t.Fatalf("got %+v, want hit to win", got)
	}
}

func TestCatchAllRunsLast(t *testing.T) {
	r := New()
	r.RegisterCatchAll(&stubPattern{name: "fallback", priority: 90,
		result: []booking.Candidate{{Name: "Fallback"}}})
	r.Register(&stubPattern{name: "normal", channels: []string{"mda"}, priority: 10,
		result: []booking.Candidate{{Name: "Normal"}}})
	r.Sort()

	if got := r.ExtractFirst("mda", "note"); got == nil || got.Pattern != "normal" {
		t.Fatalf("got %+v, want normal", got)
	}
	// Different channel: only global and catch-all patterns apply.
	if got := r.ExtractFirst("other", "note"); got == nil || got.Pattern != "fallback" {
		t.Fatalf("got %+v, want fallback", got)
	}
}

func TestGlobalPatternsApplyToAllChannels(t *testing.T) {
	r := New()
	r.Register(&stubPattern{name: "everywhere", priority: 10,
		result: []booking.Candidate{{Name: "G"}}})
	r.Sort()

	if got := r.ExtractFirst("mda", "note"); got == nil || got.Pattern != "everywhere" {
		t.Fatalf("got %+v, want everywhere", got)
	}
}

func TestPatternCountAndChannels(t *testing.T) {
	r := New()
	r.Register(&stubPattern{name: "a", channels: []string{"mda", "viator"}, priority: 1})
	r.Register(&stubPattern{name: "b", channels: []string{"mda"}, priority: 2})
	r.RegisterCatchAll(&stubPattern{name: "c", priority: 3})

	if got := r.PatternCount(); got != 3 {
		t.Errorf("PatternCount = %d, want 3", got)
	}
	chs := r.RegisteredChannels()
	if len(chs) != 2 || chs[0] != "mda" || chs[1] != "viator" {
		t.Errorf("RegisteredChannels = %v", chs)
	}
}

func TestExtractTrace(t *testing.T) {
	r := New()
	r.Register(&stubPattern{name: "miss", channels: []string{"mda"}, priority: 1, needle: "NOPE"})
	r.Register(&stubPattern{name: "hit", channels: []string{"mda"}, priority: 2,
		result: []booking.Candidate{{Name: "T"}}})
	r.Sort()

	traces := r.ExtractTrace("mda", "note")
	if len(traces) != 2 {
		t.Fatalf("got %d traces, want 2", len(traces))
	}
	if traces[0].Matched || traces[0].QuickCheck == nil || traces[0].QuickCheck.Passed {
		t.Errorf("miss trace = %+v", traces[0])
	}
	if !traces[1].Matched || len(traces[1].Candidates) != 1 {
		t.Errorf("hit trace = %+v", traces[1])
	}
}

func TestExtractChannelSkipsFallbacks(t *testing.T) {
	r := New()
	r.Register(&stubPattern{name: "grammar", channels: []string{"gyg"}, priority: 10,
		needle: "First Name:", result: []booking.Candidate{{Name: "Ann Lee"}}})
	r.RegisterCatchAll(&stubPattern{name: "fallback", priority: 90,
		result: []booking.Candidate{{Name: "Loose Hit"}}})
	r.Sort()

	if got := r.ExtractChannel("gyg", "no grammar here"); got != nil {
		t.Errorf("ExtractChannel fell through to %q, want nil", got.Pattern)
	}
	got := r.ExtractChannel("gyg", "First Name: Ann")
	if got == nil || got.Pattern != "grammar" {
		t.Fatalf("ExtractChannel = %v, want grammar hit", got)
	}
}
