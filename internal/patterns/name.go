package patterns

import (
	"regexp"
	"strings"
)

// Lines carrying these words are instructions to the customer, not
// traveler data ("please provide full names of all participants").
var instructionWords = regexp.MustCompile(`(?i)\b(?:provide|participants|group|birth|date|full|names|everyone|all|please|also)\b`)

// HasInstructionWords reports whether a line reads like boilerplate
// instructions rather than traveler data.
func HasInstructionWords(line string) bool {
	return instructionWords.MatchString(line)
}

var nameWord = regexp.MustCompile(`^[A-Za-z\x{00C0}-\x{024F}\x{1E00}-\x{1EFF}А-я'\.\-]+$`)

var (
	leadingJunk    = regexp.MustCompile(`^[\d\.\-\s]*`)
	trailingDOB    = regexp.MustCompile(`(?i)\s*-?\s*DOB\s*$`)
	trailingDash   = regexp.MustCompile(`\s*-\s*$`)
	trailingDot    = regexp.MustCompile(`\s*\.\s*$`)
	trailingDate   = regexp.MustCompile(`\s*-\s*\d{1,2}[/\.\-]\d{1,2}[/\.\-]\d{2,4}.*$`)
	trailingAge    = regexp.MustCompile(`(?i)\s*-\s*\d+\s*(ans|years?|yrs?|yo|age)\s*$`)
	trailingAgePar = regexp.MustCompile(`(?i)\s*\(\s*\d+\s*(ans|years?|yrs?|yo|age)\s*\)\s*$`)
	multipleSpaces = regexp.MustCompile(`\s+`)
)

// CleanName strips the numbering, bullets, stray date fragments and
// age markers that ride along with extracted names and collapses
// whitespace.
func CleanName(name string) string {
	s := strings.TrimSpace(name)
	s = leadingJunk.ReplaceAllString(s, "")
	s = trailingDOB.ReplaceAllString(s, "")
	s = trailingDash.ReplaceAllString(s, "")
	s = trailingDot.ReplaceAllString(s, "")
	s = trailingDate.ReplaceAllString(s, "")
	s = trailingAge.ReplaceAllString(s, "")
	s = trailingAgePar.ReplaceAllString(s, "")
	s = multipleSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ValidName reports whether a cleaned string has the structure of a
// real person's name: at least two words, name characters only, and
// no instruction boilerplate.
func ValidName(name string) bool {
	words := strings.Fields(name)
	if len(words) < 2 {
		return false
	}
	if HasInstructionWords(name) {
		return false
	}
	for _, w := range words {
		if !nameWord.MatchString(w) {
			return false
		}
	}
	return true
}

// ValidNameWords checks the word structure without the instruction
// filter, for lines that were already screened.
func ValidNameWords(name string) bool {
	words := strings.Fields(name)
	if len(words) < 2 {
		return false
	}
	for _, w := range words {
		if !nameWord.MatchString(w) {
			return false
		}
	}
	return true
}
