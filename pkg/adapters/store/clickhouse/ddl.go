package clickhouse

import (
	"fmt"
	"strings"

	sqlguard "github.com/databridge-io/databridge/pkg/sql"
)

// BuildCreateTable synthesizes the DDL for a freshly provisioned table.
// Every column is String, with no type inference beyond "it's text", and the
// MergeTree engine with an empty sort key keeps the table ordering-free and
// suitable for append-heavy ingestion. All identifiers are allow-listed
// before interpolation.
func BuildCreateTable(name string, columns []string) (string, error) {
	if err := sqlguard.ValidateIdentifier(name); err != nil {
		return "", err
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("create table %s: no columns", name)
	}
	if err := sqlguard.ValidateIdentifiers(columns); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(name)
	b.WriteString(" (")
	for i, col := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(col)
		b.WriteString(" String")
	}
	b.WriteString(") ENGINE = MergeTree() ORDER BY tuple()")
	return b.String(), nil
}
