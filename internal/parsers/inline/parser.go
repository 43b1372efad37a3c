// Package inline parses traveler entries where the date follows the
// name directly on the same line: "Anna Schmidt 01.02.1990", "John
// Smith, 15.03.1990", "Marco Bianchi - 15th March 1990".
package inline

import (
	"strconv"
	"strings"

	"namesgen/internal/booking"
	"namesgen/internal/patterns"
	"namesgen/internal/registry"
)

var formats = patterns.NewCompiler([]patterns.Format{
	// Anna Schmidt 01.02.1990
	{Name: "dotted", Pattern: `(?P<name>{NAME_LAZY})\s+(?P<dob>{DMY_DOT})\.?`},
	// Anna Schmidt, 01.02.1990.
	{Name: "comma_dotted", Pattern: `(?P<name>{NAME}),\s*(?P<dob>{DMY_DOT}\.?)`},
	// Anna Schmidt/ 01.02.1990
	{Name: "slash_dotted", Pattern: `(?P<name>{NAME})/\s*(?P<dob>{DMY_DOT})`},
	// John Smith March 15, 1990
	{Name: "month_day_year", Pattern: `(?P<name>{NAME})\s+(?P<month>[A-Za-z]+)\s+(?P<day>\d{1,2}),\s*(?P<year>{YEAR})`},
	// Jana Nováková 1. 2. 1990
	{Name: "spaced_dotted", Pattern: `(?P<name>{NAME})\s+(?P<day>\d{1,2})\.\s*(?P<month>\d{1,2})\.\s*(?P<year>{YEAR})`},
	// John Smith 15 March 1990
	{Name: "day_month_year", Pattern: `(?P<name>{NAME})\s+(?P<dob>\d{1,2}\s+[A-Za-z]+\s+{YEAR})`},
	// John Smith 15-03-1990
	{Name: "dashed", Pattern: `(?P<name>{NAME})\s+(?P<dob>{DMY_DASH})`},
	// Marco Bianchi - 15th March 1990 / Marco Bianchi - DOB 15.03.1990
	{Name: "dash_separated", Pattern: `(?i)(?P<name>{NAME_WIDE})\s*-\s*(?:DOB\s*)?(?P<dob>{DATE_ORDINAL}|\d{1,2}[/\.]\d{1,2}[/\.]\d{4})`},
	// Marco Bianchi - march 15, 1990
	{Name: "dash_written", Pattern: `(?i)(?P<name>{NAME_WIDE})\s*-\s*(?P<dob>{DATE_MONTHDY})`},
}, nil).MustCompile()

func init() {
	registry.Register(&pattern{"inline_dotted", 40, "dotted", true, ".", fromNumeric})
	registry.Register(&pattern{"inline_comma_dotted", 41, "comma_dotted", true, ",", fromNumeric})
	registry.Register(&pattern{"inline_slash_dotted", 42, "slash_dotted", false, "/", fromNumeric})
	registry.Register(&pattern{"inline_month_day_year", 43, "month_day_year", false, ",", fromMonthDayYear})
	registry.Register(&pattern{"inline_spaced_dotted", 44, "spaced_dotted", false, ".", fromSpacedParts})
	registry.Register(&pattern{"inline_day_month_year", 45, "day_month_year", false, " ", fromTextual})
	registry.Register(&pattern{"inline_dashed", 46, "dashed", false, "-", fromNumeric})
	registry.Register(&pattern{"inline_dash_separated", 50, "dash_separated", true, "-", fromMixed})
	registry.Register(&pattern{"inline_dash_written", 52, "dash_written", true, "-", fromMonthFirstText})
}

// normalizer converts one format's captures into a DD/MM/YYYY date.
type normalizer func(m map[string]string) (string, bool)

func fromNumeric(m map[string]string) (string, bool) {
	return patterns.DMYFromNumeric(m["dob"])
}

func fromTextual(m map[string]string) (string, bool) {
	return patterns.DMYFromTextual(m["dob"])
}

func fromMonthDayYear(m map[string]string) (string, bool) {
	return patterns.DMYFromTextual(m["month"] + " " + m["day"] + ", " + m["year"])
}

func fromMonthFirstText(m map[string]string) (string, bool) {
	return patterns.DMYFromTextual(m["dob"])
}

func fromSpacedParts(m map[string]string) (string, bool) {
	return patterns.DMYFromParts(m["day"], m["month"], m["year"])
}

// fromMixed handles the dash-separated form, which accepts both
// written-out and numeric dates.
func fromMixed(m map[string]string) (string, bool) {
	dob := m["dob"]
	if strings.ContainsAny(dob, "/.") {
		return patterns.DMYFromNumeric(dob)
	}
	return patterns.DMYFromTextual(dob)
}

// pattern is one inline name-date shape. perLine patterns screen out
// instruction lines before matching; whole-text patterns match shapes
// specific enough not to need it.
type pattern struct {
	name      string
	priority  int
	format    string
	perLine   bool
	needle    string
	normalize normalizer
}

func (p *pattern) Name() string       { return p.name }
func (p *pattern) Channels() []string { return []string{"mda"} }
func (p *pattern) Priority() int      { return p.priority }

func (p *pattern) QuickCheck(text string) bool {
	return strings.Contains(text, p.needle)
}

// ExtractWithTrace reports how this pattern's format fared against a
// note: the quick-check outcome, the expanded regex, and the raw
// captures of the first hit.
func (p *pattern) ExtractWithTrace(text string) *registry.TraceResult {
	tr := &registry.TraceResult{
		PatternName: p.name,
		QuickCheck:  &registry.QuickCheck{Passed: p.QuickCheck(text)},
	}
	if !tr.QuickCheck.Passed {
		tr.QuickCheck.Reason = "note lacks " + strconv.Quote(p.needle)
		return tr
	}
	ft := registry.FormatTrace{Name: p.format, Pattern: formats.Expanded(p.format)}
	if ms := formats.All(text, p.format); len(ms) > 0 {
		ft.Matched = true
		ft.Captures = ms[0]
	}
	tr.Formats = []registry.FormatTrace{ft}
	tr.Candidates = p.Extract(text)
	tr.Matched = len(tr.Candidates) > 0
	return tr
}

func (p *pattern) Extract(text string) []booking.Candidate {
	var cands []booking.Candidate
	match := func(s string) {
		for _, m := range formats.All(s, p.format) {
			name := patterns.CleanName(m["name"])
			if !patterns.ValidName(name) {
				continue
			}
			c := booking.Candidate{Name: name}
			if dmy, ok := p.normalize(m); ok {
				c.DOB = dmy
			}
			cands = append(cands, c)
		}
	}

	if p.perLine {
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || patterns.HasInstructionWords(line) {
				continue
			}
			match(line)
		}
	} else {
		match(text)
	}
	return cands
}
