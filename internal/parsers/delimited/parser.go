// Package delimited parses single lines that list several travelers
// separated by commas or "and": "Anna Schmidt 01.02.1990, Peter
// Schmidt 03.04.1985" or "John Smith and Jane Smith".
package delimited

import (
	"regexp"
	"strings"

	"namesgen/internal/booking"
	"namesgen/internal/patterns"
	"namesgen/internal/registry"
)

var formats = patterns.NewCompiler([]patterns.Format{
	// Anna Schmidt 01.02.1990, Peter Schmidt 03.04.1985
	{Name: "dotted_pair", Pattern: `(?P<name>{NAME})\s+(?P<dob>{DMY_DOT})`},
	// Maria Rossi 15/03/1990 Paolo Rossi 20/07/1985
	{Name: "slash_pair", Pattern: `(?P<name>{NAME_LAZY})\s+(?P<dob>{DMY_SLASH})\.?`},
}, nil).MustCompile()

var (
	dottedDateRe   = regexp.MustCompile(`\d{1,2}\.\d{1,2}\.\d{4}`)
	dottedEndRe    = regexp.MustCompile(`\d{1,2}\.\d{1,2}\.\d{4}\.`)
	ordinalDateRe  = regexp.MustCompile(`\d{1,2}(?:st|nd|rd|th)\s+[A-Za-z]+\s+\d{4}`)
	entryDottedRe  = regexp.MustCompile(`^(.+?)\s+(\d{1,2}\.\d{1,2}\.\d{4})\.?$`)
	entryOrdinalRe = regexp.MustCompile(`^(.+?)\s+(\d{1,2}(?:st|nd|rd|th)\s+[A-Za-z]+\s+\d{4})$`)
	andSplitRe     = regexp.MustCompile(`(?i)\s+and\s+`)
	trailingSepRe  = regexp.MustCompile(`[,\s]+$`)
)

func init() {
	registry.Register(&dottedLine{})
	registry.Register(&slashLine{})
	registry.Register(&dottedCommaLine{})
	registry.Register(&ordinalList{})
	registry.Register(&nameList{})
}

// lines returns the trimmed non-empty lines of a note that are not
// customer instructions.
func lines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(l)
		if l != "" && !patterns.HasInstructionWords(l) {
			out = append(out, l)
		}
	}
	return out
}

// dottedLine handles a single line of comma-separated "Name
// DD.MM.YYYY" entries. At least two entries must be present so a lone
// name-date pair falls through to the inline patterns instead.
type dottedLine struct{}

func (p *dottedLine) Name() string       { return "dotted_pairs_line" }
func (p *dottedLine) Channels() []string { return []string{"mda"} }
func (p *dottedLine) Priority() int      { return 20 }

func (p *dottedLine) QuickCheck(text string) bool {
	return strings.Contains(text, ".")
}

func (p *dottedLine) Extract(text string) []booking.Candidate {
	for _, line := range lines(text) {
		if !dottedDateRe.MatchString(line) {
			continue
		}
		if len(formats.All(line, "dotted_pair")) < 2 {
			continue
		}
		if cands := splitEntries(line, entryDottedRe, patterns.DMYFromNumeric); len(cands) > 0 {
			return cands
		}
	}
	return nil
}

// slashLine handles a single line of "Name DD/MM/YYYY" entries
// separated by spaces or commas.
type slashLine struct{}

func (p *slashLine) Name() string       { return "slash_pairs_line" }
func (p *slashLine) Channels() []string { return []string{"mda"} }
func (p *slashLine) Priority() int      { return 21 }

func (p *slashLine) QuickCheck(text string) bool {
	return strings.Contains(text, "/")
}

func (p *slashLine) Extract(text string) []booking.Candidate {
	for _, line := range lines(text) {
		pairs := formats.All(line, "slash_pair")
		if len(pairs) < 2 {
			continue
		}
		var cands []booking.Candidate
		for _, m := range pairs {
			name := trailingSepRe.ReplaceAllString(strings.TrimSpace(m["name"]), "")
			if !patterns.ValidNameWords(name) {
				continue
			}
			c := booking.Candidate{Name: name}
			if dmy, ok := patterns.DMYFromNumericLoose(m["dob"]); ok {
				c.DOB = dmy
			}
			cands = append(cands, c)
		}
		if len(cands) > 0 {
			return cands
		}
	}
	return nil
}

// dottedCommaLine handles the mixed form where every entry ends with a
// period after the date: "Anna Schmidt 01.02.1990., Peter Schmidt
// 03.04.1985."
type dottedCommaLine struct{}

func (p *dottedCommaLine) Name() string       { return "dotted_comma_line" }
func (p *dottedCommaLine) Channels() []string { return []string{"mda"} }
func (p *dottedCommaLine) Priority() int      { return 22 }

func (p *dottedCommaLine) QuickCheck(text string) bool {
	return strings.Contains(text, ",") && strings.Contains(text, ".")
}

func (p *dottedCommaLine) Extract(text string) []booking.Candidate {
	for _, line := range lines(text) {
		if !dottedEndRe.MatchString(line) || !strings.Contains(line, ",") {
			continue
		}
		if cands := splitEntries(line, entryDottedRe, patterns.DMYFromNumeric); len(cands) > 0 {
			return cands
		}
	}
	return nil
}

// splitEntries splits a line on commas and matches each entry against
// a name-plus-date shape.
func splitEntries(line string, entryRe *regexp.Regexp, normalize func(string) (string, bool)) []booking.Candidate {
	var cands []booking.Candidate
	for _, entry := range strings.Split(line, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		m := entryRe.FindStringSubmatch(entry)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if !patterns.ValidNameWords(name) {
			continue
		}
		c := booking.Candidate{Name: name}
		if dmy, ok := normalize(m[2]); ok {
			c.DOB = dmy
		}
		cands = append(cands, c)
	}
	return cands
}

// ordinalList handles comma lists with written-out ordinal dates:
// "John Smith 15th March 1990, Jane Smith 2nd June 1985".
type ordinalList struct{}

func (p *ordinalList) Name() string       { return "ordinal_name_list" }
func (p *ordinalList) Channels() []string { return []string{"mda"} }
func (p *ordinalList) Priority() int      { return 60 }

func (p *ordinalList) QuickCheck(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "st ") || strings.Contains(lower, "nd ") ||
		strings.Contains(lower, "rd ") || strings.Contains(lower, "th ")
}

func (p *ordinalList) Extract(text string) []booking.Candidate {
	for _, line := range lines(text) {
		if !strings.Contains(line, ",") || !ordinalDateRe.MatchString(line) {
			continue
		}
		if cands := splitEntries(line, entryOrdinalRe, patterns.DMYFromTextual); len(cands) > 0 {
			return cands
		}
	}
	return nil
}

// nameList handles lines of two or more names joined by commas or
// "and", with no dates at all.
type nameList struct{}

func (p *nameList) Name() string       { return "bare_name_list" }
func (p *nameList) Channels() []string { return []string{"mda"} }
func (p *nameList) Priority() int      { return 61 }

func (p *nameList) QuickCheck(text string) bool {
	return strings.Contains(text, ",") || strings.Contains(strings.ToLower(text), " and ")
}

func (p *nameList) Extract(text string) []booking.Candidate {
	for _, line := range lines(text) {
		var parts []string
		if strings.Contains(line, ",") {
			parts = strings.Split(line, ",")
		} else if andSplitRe.MatchString(line) {
			parts = andSplitRe.Split(line, -1)
		} else {
			continue
		}

		var cands []booking.Candidate
		for _, part := range parts {
			name := patterns.CleanName(part)
			if patterns.ValidName(name) {
				cands = append(cands, booking.Candidate{Name: name})
			}
		}
		// A single valid entry is more likely a false split than a
		// traveler list.
		if len(cands) >= 2 {
			return cands
		}
	}
	return nil
}
