// Package dobsupp supplements extracted travelers with dates of birth
// pulled from reseller-specific note formats. Some platforms collect
// DOBs in their own structured blocks rather than next to the names.
package dobsupp

import (
	"regexp"
	"strings"
)

// Extractor pulls DOB strings, in order of appearance, out of a
// booking's public notes.
type Extractor func(notes string) []string

// extractors is keyed by a lowercase substring of the reseller name.
var extractors = map[string]Extractor{
	"viator":       viatorDOBs,
	"getyourguide": labeledDOBs,
}

// ByReseller runs the extractor registered for the reseller, matched
// by substring. Unknown resellers yield nothing.
func ByReseller(notes, reseller string) []string {
	if notes == "" || reseller == "" {
		return nil
	}
	lower := strings.ToLower(reseller)
	for key, extract := range extractors {
		if strings.Contains(lower, key) {
			return extract(notes)
		}
	}
	return nil
}

var (
	// Q:Date of Birth
	// A:09/05/1965, 28/11/2006, 17/11/1966
	viatorQA     = regexp.MustCompile(`(?i)Q:\s*Date of Birth\s*\n\s*A:\s*([^\n]+)`)
	viatorInline = regexp.MustCompile(`(?i)Q:\s*Date of Birth[^\n]*A:\s*([^\n]+)`)
	strictDMY    = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
)

func viatorDOBs(notes string) []string {
	m := viatorQA.FindStringSubmatch(notes)
	if m == nil {
		m = viatorInline.FindStringSubmatch(notes)
	}
	if m == nil {
		return nil
	}
	var dobs []string
	for _, part := range strings.Split(m[1], ",") {
		d := strings.TrimSpace(part)
		if strictDMY.MatchString(d) {
			dobs = append(dobs, d)
		}
	}
	return dobs
}

var (
	labeledSlash = regexp.MustCompile(`(?i)Date of Birth:\s*(\d{2}/\d{2}/\d{4})`)
	labeledISO   = regexp.MustCompile(`(?i)Date of Birth:\s*(\d{4}-\d{2}-\d{2})`)
)

// labeledDOBs collects "Date of Birth:" labels, slash-format dates
// first, then ISO ones.
func labeledDOBs(notes string) []string {
	if !strings.Contains(strings.ToLower(notes), "date of birth:") {
		return nil
	}
	var dobs []string
	for _, m := range labeledSlash.FindAllStringSubmatch(notes, -1) {
		dobs = append(dobs, m[1])
	}
	for _, m := range labeledISO.FindAllStringSubmatch(notes, -1) {
		dobs = append(dobs, m[1])
	}
	return dobs
}
