// Package patterns provides shared regex fragments and helper functions
// for extracting traveler names and birth dates from booking notes.
// This file contains grok-style base patterns for use with the Compiler.

package patterns

// BasePatterns defines reusable regex components for grok-style pattern
// composition. These are referenced in format patterns using
// {PATTERN_NAME} syntax.
var BasePatterns = map[string]string{
	// Name fragments. NAME covers Latin text with the usual
	// diacritics; NAME_WIDE adds extended Latin and Cyrillic for
	// notes written in other scripts. NAME_WORD matches a single
	// name token with no spaces.
	"NAME":      `[A-Za-zÀ-ÿ\s\-'\.]+`,
	"NAME_LAZY": `[A-Za-zÀ-ÿ\s\-'\.]+?`,
	"NAME_WIDE": `[A-Za-z\x{00C0}-\x{024F}\x{1E00}-\x{1EFF}А-я\s\-'.]{3,50}`,
	"NAME_WORD": `[A-Za-zÀ-ÿ'\.\-]+`,

	// Numeric date layouts, day first unless noted.
	"DMY_SLASH":   `\d{1,2}/\d{1,2}/\d{4}`,
	"DMY_SLASH2Y": `\d{1,2}/\d{1,2}/\d{2,4}`,
	"DMY_DOT":     `\d{1,2}\.\d{1,2}\.\d{4}`,
	"DMY_DASH":    `\d{1,2}-\d{1,2}-\d{4}`,
	"YMD_DOT":     `\d{4}\.\d{1,2}\.\d{1,2}\.?`,
	"YMD_ISO":     `\d{4}-\d{2}-\d{2}`,

	// Written-out date layouts: "15th March 1990", "March 15, 1990",
	// "15Mar1990".
	"DATE_ORDINAL": `\d{1,2}(?:st|nd|rd|th)?\s+[A-Za-z]+\s+\d{4}`,
	"DATE_MONTHDY": `[a-zA-Z]+\s+\d{1,2},\s+\d{4}`,
	"DATE_COMPACT": `\d{1,2}[a-zA-Z]{3}\d{4}`,

	// Single components.
	"DAY":   `\d{1,2}`,
	"MONTH": `[A-Za-z]+`,
	"YEAR":  `\d{4}`,
	"AGE":   `\d{1,3}`,
}
