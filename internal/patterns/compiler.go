// Package patterns provides shared regex fragments and helper functions
// for extracting traveler names and birth dates from booking notes.
// This file contains the grok-style pattern compiler.

package patterns

import (
	"regexp"
	"strings"
)

// Format represents a note format with named capture groups.
type Format struct {
	Name     string         // Format name for identification
	Pattern  string         // Pattern with {PLACEHOLDER} syntax
	Compiled *regexp.Regexp // Compiled regex (populated by Compile)
}

// Compiler manages pattern compilation and matching for a set of formats.
type Compiler struct {
	basePatterns map[string]string
	formats      []Format
}

// NewCompiler creates a new pattern compiler with the given formats.
// It merges the provided base patterns with the global BasePatterns,
// allowing local patterns to override global ones.
func NewCompiler(formats []Format, localPatterns map[string]string) *Compiler {
	c := &Compiler{
		basePatterns: make(map[string]string),
		formats:      make([]Format, len(formats)),
	}

	for k, v := range BasePatterns {
		c.basePatterns[k] = v
	}
	for k, v := range localPatterns {
		c.basePatterns[k] = v
	}

	copy(c.formats, formats)

	return c
}

// Compile expands all {PLACEHOLDER} references and compiles regexes.
// Matching stays case sensitive: capitalization is a signal when
// picking names out of prose.
func (c *Compiler) Compile() error {
	for i := range c.formats {
		expanded := c.expand(c.formats[i].Pattern)
		re, err := regexp.Compile(expanded)
		if err != nil {
			return err
		}
		c.formats[i].Compiled = re
	}
	return nil
}

// MustCompile is Compile that panics on a bad pattern. Format tables
// are package constants, so a failure here is a programming error.
func (c *Compiler) MustCompile() *Compiler {
	if err := c.Compile(); err != nil {
		panic("patterns: " + err.Error())
	}
	return c
}

// expand replaces {PLACEHOLDER} with actual regex patterns.
func (c *Compiler) expand(pattern string) string {
	result := pattern
	for name, regex := range c.basePatterns {
		placeholder := "{" + name + "}"
		result = strings.ReplaceAll(result, placeholder, regex)
	}
	return result
}

// Match represents a successful format match with extracted fields.
type Match struct {
	FormatName string
	Captures   map[string]string
}

// Capture returns a named capture value, or def when the group is
// absent or empty.
func (m *Match) Capture(name, def string) string {
	if m == nil {
		return def
	}
	if v, ok := m.Captures[name]; ok && v != "" {
		return v
	}
	return def
}

// First matches text against the formats in order and returns the
// first hit, or nil when no format matches.
func (c *Compiler) First(text string) *Match {
	for _, f := range c.formats {
		if f.Compiled == nil {
			continue
		}
		m := f.Compiled.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		return &Match{FormatName: f.Name, Captures: captures(f.Compiled, m)}
	}
	return nil
}

// All finds every occurrence of one named format in text. Traveler
// lists repeat the same shape per person, so most formats match many
// times per note.
func (c *Compiler) All(text, formatName string) []map[string]string {
	var results []map[string]string
	for _, f := range c.formats {
		if f.Name != formatName || f.Compiled == nil {
			continue
		}
		for _, m := range f.Compiled.FindAllStringSubmatch(text, -1) {
			results = append(results, captures(f.Compiled, m))
		}
		break
	}
	return results
}

// Expanded returns the fully expanded regex source of a named format,
// for trace output.
func (c *Compiler) Expanded(formatName string) string {
	for _, f := range c.formats {
		if f.Name == formatName {
			return c.expand(f.Pattern)
		}
	}
	return ""
}

func captures(re *regexp.Regexp, match []string) map[string]string {
	caps := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		caps[name] = match[i]
	}
	return caps
}
