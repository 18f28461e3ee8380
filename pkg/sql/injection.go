package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult contains the result of an injection check on an
// identifier destined for a generated statement.
type InjectionCheckResult struct {
	IsSQLi      bool   // True if SQL injection pattern detected
	Fingerprint string // libinjection fingerprint of the detected pattern
	Identifier  string // The identifier that failed the check
}

// CheckIdentifierForInjection uses libinjection to detect SQL injection
// patterns in an identifier. The allow-list in ValidateIdentifier already
// excludes every character an injection needs; this is a second, independent
// screen so a regression in one layer does not open the other.
//
// Returns nil if no injection is detected.
func CheckIdentifierForInjection(name string) *InjectionCheckResult {
	isSQLi, fingerprint := libinjection.IsSQLi(name)
	if isSQLi {
		return &InjectionCheckResult{
			IsSQLi:      true,
			Fingerprint: fingerprint,
			Identifier:  name,
		}
	}
	return nil
}
