package clickhouse

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/databridge-io/databridge/pkg/adapters/store"
	"github.com/databridge-io/databridge/pkg/apperrors"
	"github.com/databridge-io/databridge/pkg/schema"
	"github.com/databridge-io/databridge/pkg/testhelpers"
)

func TestGatewayAgainstRealStore(t *testing.T) {
	ts := testhelpers.GetTestStore(t)
	ctx := context.Background()

	gw, err := Connect(ctx, ts.Descriptor)
	require.NoError(t, err)
	defer func() { _ = gw.Close() }()

	require.NoError(t, gw.TestConnection(ctx))

	const table = "gateway_integration_people"

	exists, err := gw.TableExists(ctx, table)
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, gw.CreateTable(ctx, table, []string{"First_Name", "Age"}))

	exists, err = gw.TableExists(ctx, table)
	require.NoError(t, err)
	assert.True(t, exists)

	tables, err := gw.ListTables(ctx)
	require.NoError(t, err)
	assert.Contains(t, tables, table)

	columns, err := gw.DescribeTable(ctx, table)
	require.NoError(t, err)
	assert.Equal(t, []string{"First_Name", "Age"}, columns)

	rows := []schema.Row{
		schema.RowFromPairs("First_Name", "Ada", "Age", "36"),
		schema.RowFromPairs("First_Name", "Grace", "Age", "45"),
	}
	summary, err := gw.InsertRows(ctx, table, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.WrittenRows)

	data, err := gw.QueryRows(ctx, table)
	require.NoError(t, err)
	require.Len(t, data, 2)
	assert.Equal(t, []string{"First_Name", "Age"}, schema.Keys(data[0]))
}

func TestQueryRowsCapsPreview(t *testing.T) {
	ts := testhelpers.GetTestStore(t)
	ctx := context.Background()

	gw, err := Connect(ctx, ts.Descriptor)
	require.NoError(t, err)
	defer func() { _ = gw.Close() }()

	const table = "gateway_integration_preview_cap"
	require.NoError(t, gw.CreateTable(ctx, table, []string{"n"}))

	rows := make([]schema.Row, 0, store.PreviewRowLimit+5)
	for i := 0; i < store.PreviewRowLimit+5; i++ {
		rows = append(rows, schema.RowFromPairs("n", fmt.Sprintf("%d", i)))
	}
	summary, err := gw.InsertRows(ctx, table, rows)
	require.NoError(t, err)
	require.Equal(t, int64(store.PreviewRowLimit+5), summary.WrittenRows)

	data, err := gw.QueryRows(ctx, table)
	require.NoError(t, err)
	assert.Len(t, data, store.PreviewRowLimit)
}

func TestDescribeMissingTable(t *testing.T) {
	ts := testhelpers.GetTestStore(t)
	ctx := context.Background()

	gw, err := Connect(ctx, ts.Descriptor)
	require.NoError(t, err)
	defer func() { _ = gw.Close() }()

	_, err = gw.DescribeTable(ctx, "no_such_table_anywhere")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// A second probe behaves identically.
	_, err = gw.DescribeTable(ctx, "no_such_table_anywhere")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestInsertRowsRejectsHeterogeneousKeys(t *testing.T) {
	ts := testhelpers.GetTestStore(t)
	ctx := context.Background()

	gw, err := Connect(ctx, ts.Descriptor)
	require.NoError(t, err)
	defer func() { _ = gw.Close() }()

	const table = "gateway_integration_ragged"
	require.NoError(t, gw.CreateTable(ctx, table, []string{"a", "b"}))

	rows := []schema.Row{
		schema.RowFromPairs("a", "1", "b", "2"),
		schema.RowFromPairs("a", "1", "c", "3"),
	}
	_, err = gw.InsertRows(ctx, table, rows)
	assert.Error(t, err)
}
