// Package structured parses the labeled field grammar used by standard
// GetYourGuide platforms.
package structured

import (
	"regexp"
	"strings"

	"namesgen/internal/booking"
	"namesgen/internal/patterns"
	"namesgen/internal/registry"
)

var (
	// First Name: John
	// Last Name: Smith
	// The last-name capture stops at the next label so single-line
	// notes don't fold "Date of Birth" into the name.
	namePairRe = regexp.MustCompile(`(?i)First Name:\s*([^\n:]+?)\s*Last Name:\s*([^\n:]+?)\s*(?:Date of Birth|\n|$)`)

	// Date of Birth: 15/03/1990
	dobSlashRe = regexp.MustCompile(`(?i)Date of Birth:\s*(\d{2}/\d{2}/\d{4})`)

	// Date of Birth: 1990-03-15
	dobISORe = regexp.MustCompile(`(?i)Date of Birth:\s*(\d{4}-\d{2}-\d{2})`)
)

// Parser extracts travelers from labeled First Name / Last Name /
// Date of Birth fields.
type Parser struct{}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string       { return "labeled_fields" }
func (p *Parser) Channels() []string { return []string{"gyg"} }
func (p *Parser) Priority() int      { return 10 }

func (p *Parser) QuickCheck(text string) bool {
	return strings.Contains(strings.ToLower(text), "first name:")
}

// Extract pairs each First Name/Last Name block with the nth Date of
// Birth field. Notes regularly carry fewer DOBs than names; trailing
// names stay dateless rather than being dropped.
func (p *Parser) Extract(text string) []booking.Candidate {
	pairs := namePairRe.FindAllStringSubmatch(text, -1)
	if len(pairs) == 0 {
		return nil
	}

	dobs := extractDOBs(text)

	var cands []booking.Candidate
	for i, m := range pairs {
		name := strings.TrimSpace(m[1]) + " " + strings.TrimSpace(m[2])
		c := booking.Candidate{Name: name}
		if i < len(dobs) {
			c.DOB = dobs[i]
		}
		cands = append(cands, c)
	}
	return cands
}

// extractDOBs collects Date of Birth values in order of appearance,
// normalized to DD/MM/YYYY.
func extractDOBs(text string) []string {
	var dobs []string
	for _, m := range dobSlashRe.FindAllStringSubmatch(text, -1) {
		dobs = append(dobs, m[1])
	}
	for _, m := range dobISORe.FindAllStringSubmatch(text, -1) {
		if dmy, ok := patterns.DMYFromYearFirst(m[1]); ok {
			dobs = append(dobs, dmy)
		}
	}
	return dobs
}
