// Package paren parses traveler entries whose date, birth year or
// category rides in parentheses after the name: "John Smith
// (15/03/1990)", "Kovács Anna (1990.03.15)", "Jane Smith (child)
// 20-07-2015".
package paren

import (
	"strconv"
	"strings"

	"namesgen/internal/booking"
	"namesgen/internal/patterns"
	"namesgen/internal/registry"
)

var formats = patterns.NewCompiler([]patterns.Format{
	// John Smith (15/03/1990) or John Smith (15/3/90)
	{Name: "slash", Pattern: `(?P<name>{NAME})\s*\((?P<dob>{DMY_SLASH2Y})\)`},
	// Kovács Anna (1990.03.15)
	{Name: "year_first", Pattern: `(?P<name>{NAME})\s*\((?P<dob>{YMD_DOT})\)`},
	// John Smith (adult) 15-03-1990
	{Name: "category", Pattern: `(?i)(?P<name>{NAME})\s*\((?P<cat>adult|child)\)\s*(?P<dob>{DMY_DASH})`},
	// John Smith (15Mar1990)
	{Name: "compact", Pattern: `(?P<name>{NAME})\s*\((?P<dob>{DATE_COMPACT})\)`},
	// John Smith (1985)
	{Name: "birth_year", Pattern: `(?P<name>{NAME})\s*\((?P<year>{YEAR})\)`},
	// - John Smith (15/03/1990), - Jane Smith (20.07.1985),
	{Name: "dash_list", Pattern: `(?i)-?\s*(?P<name>{NAME_WIDE})\s*\((?P<dob>\d{1,2}[/\.]\d{1,2}[/\.]\d{4})\)\s*,?`},
}, nil).MustCompile()

func init() {
	registry.Register(&slashParen{})
	registry.Register(&yearFirstParen{})
	registry.Register(&categoryParen{})
	registry.Register(&compactParen{})
	registry.Register(&birthYearParen{})
	registry.Register(&dashList{})
}

// collect matches a format on each non-instruction line and converts
// the hits to candidates.
func collect(text, format string, perLine bool, build func(map[string]string) (booking.Candidate, bool)) []booking.Candidate {
	var cands []booking.Candidate
	add := func(section string) {
		for _, m := range formats.All(section, format) {
			if c, ok := build(m); ok {
				cands = append(cands, c)
			}
		}
	}

	if perLine {
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || patterns.HasInstructionWords(line) {
				continue
			}
			add(line)
		}
	} else {
		add(text)
	}
	return cands
}

// nameDOB builds a candidate from name and dob captures using the
// given date normalizer.
func nameDOB(m map[string]string, normalize func(string) (string, bool)) (booking.Candidate, bool) {
	name := patterns.CleanName(m["name"])
	if !patterns.ValidName(name) {
		return booking.Candidate{}, false
	}
	c := booking.Candidate{Name: name}
	if dmy, ok := normalize(m["dob"]); ok {
		c.DOB = dmy
	}
	return c, true
}

type slashParen struct{}

func (p *slashParen) Name() string       { return "paren_slash_date" }
func (p *slashParen) Channels() []string { return []string{"mda"} }
func (p *slashParen) Priority() int      { return 30 }

func (p *slashParen) QuickCheck(text string) bool {
	return strings.Contains(text, "(") && strings.Contains(text, "/")
}

func (p *slashParen) Extract(text string) []booking.Candidate {
	return collect(text, "slash", true, func(m map[string]string) (booking.Candidate, bool) {
		return nameDOB(m, patterns.DMYFromNumeric)
	})
}

type yearFirstParen struct{}

func (p *yearFirstParen) Name() string       { return "paren_year_first_date" }
func (p *yearFirstParen) Channels() []string { return []string{"mda"} }
func (p *yearFirstParen) Priority() int      { return 31 }

func (p *yearFirstParen) QuickCheck(text string) bool {
	return strings.Contains(text, "(") && strings.Contains(text, ".")
}

func (p *yearFirstParen) Extract(text string) []booking.Candidate {
	return collect(text, "year_first", true, func(m map[string]string) (booking.Candidate, bool) {
		return nameDOB(m, patterns.DMYFromYearFirst)
	})
}

type categoryParen struct{}

func (p *categoryParen) Name() string       { return "paren_category" }
func (p *categoryParen) Channels() []string { return []string{"mda"} }
func (p *categoryParen) Priority() int      { return 32 }

func (p *categoryParen) QuickCheck(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "(adult)") || strings.Contains(lower, "(child)")
}

// Extract keeps the stated category as a unit hint alongside the date.
func (p *categoryParen) Extract(text string) []booking.Candidate {
	return collect(text, "category", false, func(m map[string]string) (booking.Candidate, bool) {
		c, ok := nameDOB(m, patterns.DMYFromNumeric)
		if !ok {
			return c, false
		}
		switch strings.ToLower(m["cat"]) {
		case "adult":
			c.UnitHint = booking.UnitAdult
		case "child":
			c.UnitHint = booking.UnitChild
		}
		return c, true
	})
}

type compactParen struct{}

func (p *compactParen) Name() string       { return "paren_compact_date" }
func (p *compactParen) Channels() []string { return []string{"mda"} }
func (p *compactParen) Priority() int      { return 33 }

func (p *compactParen) QuickCheck(text string) bool {
	return strings.Contains(text, "(")
}

func (p *compactParen) Extract(text string) []booking.Candidate {
	return collect(text, "compact", false, func(m map[string]string) (booking.Candidate, bool) {
		return nameDOB(m, patterns.DMYFromCompact)
	})
}

type birthYearParen struct{}

func (p *birthYearParen) Name() string       { return "paren_birth_year" }
func (p *birthYearParen) Channels() []string { return []string{"mda"} }
func (p *birthYearParen) Priority() int      { return 34 }

func (p *birthYearParen) QuickCheck(text string) bool {
	return strings.Contains(text, "(")
}

// Extract records the birth year only; the assigner derives the age
// once the travel year is known.
func (p *birthYearParen) Extract(text string) []booking.Candidate {
	return collect(text, "birth_year", false, func(m map[string]string) (booking.Candidate, bool) {
		name := patterns.CleanName(m["name"])
		if !patterns.ValidName(name) {
			return booking.Candidate{}, false
		}
		year, err := strconv.Atoi(m["year"])
		if err != nil || year < 1900 || year > 2100 {
			return booking.Candidate{}, false
		}
		return booking.Candidate{Name: name, BirthYear: year}, true
	})
}

type dashList struct{}

func (p *dashList) Name() string       { return "paren_dash_list" }
func (p *dashList) Channels() []string { return []string{"mda"} }
func (p *dashList) Priority() int      { return 51 }

func (p *dashList) QuickCheck(text string) bool {
	return strings.Contains(text, "(")
}

func (p *dashList) Extract(text string) []booking.Candidate {
	return collect(text, "dash_list", true, func(m map[string]string) (booking.Candidate, bool) {
		return nameDOB(m, patterns.DMYFromNumeric)
	})
}
