// Package schema holds the row representation shared by the transfer
// pipeline and the pure normalization helpers applied before ingestion.
package schema

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Row maps column names to scalar values. It is an ordered map so that the
// key order of the incoming JSON object survives decoding: the column list
// of a provisioned table is derived from the first row's keys in their
// original order.
type Row = *orderedmap.OrderedMap[string, any]

// NewRow returns an empty row.
func NewRow() Row {
	return orderedmap.New[string, any]()
}

// RowFromPairs builds a row from alternating key, value arguments.
// Keys must be strings; panics otherwise. Intended for tests and fixtures.
func RowFromPairs(pairs ...any) Row {
	if len(pairs)%2 != 0 {
		panic("schema.RowFromPairs: odd number of arguments")
	}
	r := NewRow()
	for i := 0; i < len(pairs); i += 2 {
		r.Set(pairs[i].(string), pairs[i+1])
	}
	return r
}

// Keys returns the row's column names in insertion order.
func Keys(r Row) []string {
	keys := make([]string, 0, r.Len())
	for p := r.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}
