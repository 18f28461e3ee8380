// Package store defines the gateway to the columnar store. A gateway is
// opened per request from the connection descriptor carried in the caller's
// credential capsule; the server itself holds no store connections between
// requests.
package store

import (
	"context"

	"github.com/databridge-io/databridge/pkg/capsule"
	"github.com/databridge-io/databridge/pkg/schema"
)

// PreviewRowLimit is the hard cap on rows returned by QueryRows. It keeps
// preview payloads small and predictable; callers cannot raise it and must
// not assume it reflects total row count.
const PreviewRowLimit = 100

// InsertSummary reports the outcome of a bulk insert.
type InsertSummary struct {
	WrittenRows int64 `json:"written_rows"`
}

// Gateway exposes the store operations the transfer engine needs.
// Each implementation owns its connection and must be closed when done.
// Failed operations propagate the store's message; none are retried.
type Gateway interface {
	// TestConnection verifies the store is reachable with valid credentials.
	TestConnection(ctx context.Context) error

	// ListTables returns table names in the connected database, in the
	// store's natural order.
	ListTables(ctx context.Context) ([]string, error)

	// DescribeTable returns a table's column names in position order.
	// Returns an error wrapping apperrors.ErrNotFound if the table does not
	// exist; callers do not pre-check existence.
	DescribeTable(ctx context.Context, name string) ([]string, error)

	// QueryRows reads up to PreviewRowLimit rows from a table.
	QueryRows(ctx context.Context, name string) ([]schema.Row, error)

	// TableExists is a lightweight existence probe, distinct from
	// DescribeTable, so ingest can decide whether to provision first.
	TableExists(ctx context.Context, name string) (bool, error)

	// CreateTable provisions a table whose column list is exactly columns,
	// each typed as the store's generic textual type. Callers skip it when
	// TableExists already reports true; the check-then-create sequence is
	// not atomic.
	CreateTable(ctx context.Context, name string, columns []string) error

	// InsertRows bulk-appends rows with an explicit column list derived from
	// the first row, so payload column order is independent of the table's
	// physical column order.
	InsertRows(ctx context.Context, name string, rows []schema.Row) (*InsertSummary, error)

	// Close releases the store connection.
	Close() error
}

// Factory opens a gateway for a connection descriptor. The orchestrator
// takes a Factory so tests can substitute a fake store.
type Factory func(ctx context.Context, desc capsule.Descriptor) (Gateway, error)
