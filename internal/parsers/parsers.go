// Package parsers imports all pattern packages to trigger their init()
// registration. Import this package for side effects only.
package parsers

import (
	// Import all pattern packages to register them with the registry.
	_ "namesgen/internal/parsers/delimited"
	_ "namesgen/internal/parsers/french"
	_ "namesgen/internal/parsers/inline"
	_ "namesgen/internal/parsers/paren"
	_ "namesgen/internal/parsers/plain"
	_ "namesgen/internal/parsers/sections"
	_ "namesgen/internal/parsers/structured"
)
