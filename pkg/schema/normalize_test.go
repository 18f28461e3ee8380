package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "First_Name", NormalizeKey("First Name"))
	assert.Equal(t, "Age", NormalizeKey("Age"))
	assert.Equal(t, "a_b_c", NormalizeKey("a b c"))
	assert.Equal(t, "__leading", NormalizeKey("  leading"))
}

func TestNormalizeKeysPreservesOrderAndInput(t *testing.T) {
	original := []Row{
		RowFromPairs("First Name", "Ada", "Age", "36"),
		RowFromPairs("First Name", "Grace", "Age", "45"),
	}

	normalized := NormalizeKeys(original)

	require.Len(t, normalized, 2)
	assert.Equal(t, []string{"First_Name", "Age"}, Keys(normalized[0]))
	assert.Equal(t, []string{"First_Name", "Age"}, Keys(normalized[1]))

	v, ok := normalized[0].Get("First_Name")
	require.True(t, ok)
	assert.Equal(t, "Ada", v)

	// The input rows are untouched.
	assert.Equal(t, []string{"First Name", "Age"}, Keys(original[0]))
}

func TestNormalizeKeysPerRowIndependence(t *testing.T) {
	rows := []Row{
		RowFromPairs("a b", 1),
		RowFromPairs("c", 2),
	}

	normalized := NormalizeKeys(rows)

	assert.Equal(t, []string{"a_b"}, Keys(normalized[0]))
	assert.Equal(t, []string{"c"}, Keys(normalized[1]))
}

func TestInferColumnsUsesFirstRowOnly(t *testing.T) {
	rows := []Row{
		RowFromPairs("id", "1", "name", "x"),
		RowFromPairs("id", "2", "name", "y", "extra", "z"),
	}

	assert.Equal(t, []string{"id", "name"}, InferColumns(rows))
	assert.Nil(t, InferColumns(nil))
}

func TestRowJSONRoundtripPreservesKeyOrder(t *testing.T) {
	payload := []byte(`[{"zebra":"1","apple":"2","mango":"3"}]`)

	var rows Rows
	require.NoError(t, json.Unmarshal(payload, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"zebra", "apple", "mango"}, Keys(rows[0]))

	out, err := json.Marshal(rows)
	require.NoError(t, err)
	assert.JSONEq(t, string(payload), string(out))
	// JSONEq ignores order; check the raw bytes too.
	assert.Equal(t, `[{"zebra":"1","apple":"2","mango":"3"}]`, string(out))
}

func TestRowsUnmarshalRejectsNonArray(t *testing.T) {
	var rows Rows
	assert.Error(t, json.Unmarshal([]byte(`{"not":"an array"}`), &rows))
}
