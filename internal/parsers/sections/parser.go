// Package sections parses notes that list travelers in numbered
// sections ("Traveler 1:", "Traveler 2:", ...) with labeled fields.
package sections

import (
	"regexp"
	"strings"

	"namesgen/internal/booking"
	"namesgen/internal/patterns"
	"namesgen/internal/registry"
)

var (
	// Traveler 1:
	sectionRe = regexp.MustCompile(`(?i)Traveler \d+:`)

	firstNameRe = regexp.MustCompile(`(?i)First Name:\s*([^\n:]+)`)
	lastNameRe  = regexp.MustCompile(`(?i)Last Name:\s*([^\n:]+)`)
	dobRe       = regexp.MustCompile(`(?i)Date of Birth:\s*(\d{4}-\d{2}-\d{2})`)
)

// Parser extracts travelers from numbered traveler sections.
type Parser struct{}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string       { return "traveler_sections" }
func (p *Parser) Channels() []string { return []string{"mda"} }
func (p *Parser) Priority() int      { return 10 }

func (p *Parser) QuickCheck(text string) bool {
	return strings.Contains(strings.ToLower(text), "traveler")
}

func (p *Parser) Extract(text string) []booking.Candidate {
	if !sectionRe.MatchString(text) {
		return nil
	}

	parts := sectionRe.Split(text, -1)
	if len(parts) < 2 {
		return nil
	}

	var cands []booking.Candidate
	for _, section := range parts[1:] {
		first := firstNameRe.FindStringSubmatch(section)
		last := lastNameRe.FindStringSubmatch(section)
		if first == nil || last == nil {
			continue
		}

		c := booking.Candidate{
			Name: strings.TrimSpace(first[1]) + " " + strings.TrimSpace(last[1]),
		}
		if dob := dobRe.FindStringSubmatch(section); dob != nil {
			if dmy, ok := patterns.DMYFromYearFirst(dob[1]); ok {
				c.DOB = dmy
			}
		}
		cands = append(cands, c)
	}
	return cands
}
