// Package sql guards identifiers that end up interpolated into generated
// statements. Table and column names come from user input (file names,
// spreadsheet headers), so every one of them is allow-listed before any DDL
// or DML string is built.
package sql

import (
	"fmt"
	"regexp"
)

// MaxIdentifierLength bounds table and column names. Generous enough for
// synthesized names (file base + timestamp suffix) while keeping generated
// statements sane.
const MaxIdentifierLength = 128

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateIdentifier rejects any name that is not a plain unquoted
// identifier: leading letter or underscore, then letters, digits and
// underscores. Names that pass never need quoting or escaping in the
// statements we generate.
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier is empty")
	}
	if len(name) > MaxIdentifierLength {
		return fmt.Errorf("identifier %q exceeds %d characters", name, MaxIdentifierLength)
	}
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier %q: only letters, digits and underscores are allowed", name)
	}
	if result := CheckIdentifierForInjection(name); result != nil {
		return fmt.Errorf("identifier %q rejected: injection fingerprint %s", name, result.Fingerprint)
	}
	return nil
}

// ValidateIdentifiers validates every name in the slice, reporting the first
// failure.
func ValidateIdentifiers(names []string) error {
	for _, name := range names {
		if err := ValidateIdentifier(name); err != nil {
			return err
		}
	}
	return nil
}
