package schema

import "strings"

// NormalizeKey replaces every space in a column name with an underscore.
// The store's identifier grammar rejects unescaped spaces.
func NormalizeKey(key string) string {
	return strings.ReplaceAll(key, " ", "_")
}

// NormalizeKeys returns a copy of rows with every key normalized via
// NormalizeKey. Each row is normalized independently and key order within a
// row is preserved. The input is not modified.
func NormalizeKeys(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		nr := NewRow()
		for p := r.Oldest(); p != nil; p = p.Next() {
			nr.Set(NormalizeKey(p.Key), p.Value)
		}
		out[i] = nr
	}
	return out
}

// InferColumns derives a table's column list from the first row only, in its
// original key order. Keys present only in later rows are ignored; callers
// reject empty batches before invoking this.
func InferColumns(rows []Row) []string {
	if len(rows) == 0 {
		return nil
	}
	return Keys(rows[0])
}
