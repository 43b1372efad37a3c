// Package french parses the French age list format:
//
//   - Marie Dupont : 41 ans
//   - Jean Dupont : 12 ans
package french

import (
	"strconv"
	"strings"

	"namesgen/internal/booking"
	"namesgen/internal/patterns"
	"namesgen/internal/registry"
)

var formats = patterns.NewCompiler([]patterns.Format{
	{Name: "age_list", Pattern: `(?i)-\s*(?P<name>{NAME})\s*:\s*(?P<age>\d+)\s*ans?`},
}, nil).MustCompile()

// Parser extracts travelers whose age is stated directly instead of a
// birth date.
type Parser struct{}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string       { return "french_age_list" }
func (p *Parser) Channels() []string { return []string{"mda"} }
func (p *Parser) Priority() int      { return 55 }

func (p *Parser) QuickCheck(text string) bool {
	return strings.Contains(strings.ToLower(text), "an")
}

func (p *Parser) Extract(text string) []booking.Candidate {
	var cands []booking.Candidate
	for _, m := range formats.All(text, "age_list") {
		name := strings.TrimSpace(m["name"])
		if !patterns.ValidName(name) {
			continue
		}
		c := booking.Candidate{Name: name}
		if years, err := strconv.Atoi(m["age"]); err == nil {
			c.Age = float64(years)
			c.HasAge = true
		}
		cands = append(cands, c)
	}
	return cands
}
