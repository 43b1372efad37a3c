// Package plain holds the last-resort patterns: lines that are mostly
// just names, with or without a slash date. These run as catch-alls so
// every specific format gets a chance first.
package plain

import (
	"regexp"
	"strings"

	"namesgen/internal/booking"
	"namesgen/internal/patterns"
	"namesgen/internal/registry"
)

var (
	// John Smith 15/03/1990 (date optional)
	mixedLineRe = regexp.MustCompile(`^([A-Za-zÀ-ÿ\s\-'\.]+?)(?:\s+(\d{1,2}/\d{1,2}/\d{2,4}))?$`)

	// Address and boilerplate lines that survive the instruction filter.
	floorRe = regexp.MustCompile(`(?i)^\d+(?:st|nd|rd|th)?\s+floor`)
	rmzRe   = regexp.MustCompile(`(?i)^RMZ`)

	extraStopWords = regexp.MustCompile(`(?i)\b(?:please|also|and)\b`)
)

func init() {
	registry.RegisterCatchAll(&mixedLines{})
	registry.RegisterCatchAll(&nameLines{})
}

// mixedLines handles note bodies where each line is a name with an
// optional slash date.
type mixedLines struct{}

func (p *mixedLines) Name() string       { return "plain_mixed_lines" }
func (p *mixedLines) Channels() []string { return []string{"mda"} }
func (p *mixedLines) Priority() int      { return 80 }

func (p *mixedLines) QuickCheck(text string) bool { return true }

func (p *mixedLines) Extract(text string) []booking.Candidate {
	var cands []booking.Candidate
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || patterns.HasInstructionWords(line) {
			continue
		}
		m := mixedLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := patterns.CleanName(m[1])
		if !patterns.ValidName(name) {
			continue
		}
		c := booking.Candidate{Name: name}
		if m[2] != "" {
			if dmy, ok := patterns.DMYFromNumericLoose(m[2]); ok {
				c.DOB = dmy
			}
		}
		cands = append(cands, c)
	}
	return cands
}

// nameLines is the strictest last resort: bare name lines with no
// digits or separators at all.
type nameLines struct{}

func (p *nameLines) Name() string       { return "plain_name_lines" }
func (p *nameLines) Channels() []string { return []string{"mda"} }
func (p *nameLines) Priority() int      { return 90 }

func (p *nameLines) QuickCheck(text string) bool { return true }

func (p *nameLines) Extract(text string) []booking.Candidate {
	var cands []booking.Candidate
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !isNameLine(line) {
			continue
		}
		name := patterns.CleanName(line)
		if patterns.ValidName(name) {
			cands = append(cands, booking.Candidate{Name: name})
		}
	}
	return cands
}

func isNameLine(line string) bool {
	if line == "" || patterns.HasInstructionWords(line) || extraStopWords.MatchString(line) {
		return false
	}
	if floorRe.MatchString(line) || rmzRe.MatchString(line) {
		return false
	}
	if strings.ContainsAny(line, ",./(") {
		return false
	}
	words := strings.Fields(line)
	if len(words) < 2 || len(words) > 4 {
		return false
	}
	for _, r := range line {
		if r >= '0' && r <= '9' {
			return false
		}
	}
	return patterns.ValidNameWords(line)
}
