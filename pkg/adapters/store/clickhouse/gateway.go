// Package clickhouse implements the store gateway against ClickHouse using
// the native protocol.
package clickhouse

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"reflect"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/databridge-io/databridge/pkg/adapters/store"
	"github.com/databridge-io/databridge/pkg/apperrors"
	"github.com/databridge-io/databridge/pkg/capsule"
	"github.com/databridge-io/databridge/pkg/schema"
	sqlguard "github.com/databridge-io/databridge/pkg/sql"
)

// Gateway provides ClickHouse connectivity for a single request.
type Gateway struct {
	conn driver.Conn
}

// Connect opens a ClickHouse connection from a capsule descriptor.
// It satisfies store.Factory.
func Connect(ctx context.Context, desc capsule.Descriptor) (store.Gateway, error) {
	addr, useTLS, err := resolveAddr(desc.Host)
	if err != nil {
		return nil, err
	}

	opts := &clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: desc.Database,
			Username: desc.Username,
			Password: desc.Password,
		},
	}
	if useTLS {
		opts.TLS = &tls.Config{}
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open clickhouse connection: %w", err)
	}
	return &Gateway{conn: conn}, nil
}

// resolveAddr normalizes the user-supplied host into a native-protocol
// address. An https:// prefix (or the secure default port) enables TLS;
// bare hosts get the default native port.
func resolveAddr(host string) (addr string, useTLS bool, err error) {
	h := strings.TrimSpace(host)
	switch {
	case strings.HasPrefix(h, "https://"):
		useTLS = true
		h = strings.TrimPrefix(h, "https://")
	case strings.HasPrefix(h, "http://"):
		h = strings.TrimPrefix(h, "http://")
	case strings.HasPrefix(h, "clickhouse://"):
		h = strings.TrimPrefix(h, "clickhouse://")
	}
	h = strings.TrimSuffix(h, "/")
	if h == "" {
		return "", false, fmt.Errorf("host is empty")
	}

	if _, port, splitErr := net.SplitHostPort(h); splitErr != nil {
		if useTLS {
			h = net.JoinHostPort(h, "9440")
		} else {
			h = net.JoinHostPort(h, "9000")
		}
	} else if port == "9440" {
		useTLS = true
	}
	return h, useTLS, nil
}

// TestConnection pings the store. Failures surface as connectivity errors
// and are never retried here.
func (g *Gateway) TestConnection(ctx context.Context) error {
	if err := g.conn.Ping(ctx); err != nil {
		return fmt.Errorf("store ping failed: %w", err)
	}
	return nil
}

// ListTables returns the tables in the connected database.
func (g *Gateway) ListTables(ctx context.Context) ([]string, error) {
	rows, err := g.conn.Query(ctx, "SHOW TABLES")
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	tables := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

// DescribeTable returns the table's column names in position order.
// The lookup is parameterized, so the name never reaches a generated
// statement here.
func (g *Gateway) DescribeTable(ctx context.Context, name string) ([]string, error) {
	rows, err := g.conn.Query(ctx,
		"SELECT name FROM system.columns WHERE database = currentDatabase() AND table = ? ORDER BY position",
		name)
	if err != nil {
		return nil, fmt.Errorf("describe table %s: %w", name, err)
	}
	defer rows.Close()

	columns := make([]string, 0)
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, fmt.Errorf("scan column name: %w", err)
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("describe table %s: %w", name, err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %q: %w", name, apperrors.ErrNotFound)
	}
	return columns, nil
}

// QueryRows reads up to store.PreviewRowLimit rows, preserving the table's
// column order in each returned row.
func (g *Gateway) QueryRows(ctx context.Context, name string) ([]schema.Row, error) {
	if err := sqlguard.ValidateIdentifier(name); err != nil {
		return nil, err
	}

	rows, err := g.conn.Query(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", name, store.PreviewRowLimit))
	if err != nil {
		return nil, fmt.Errorf("query rows from %s: %w", name, err)
	}
	defer rows.Close()

	columns := rows.Columns()
	types := rows.ColumnTypes()

	out := make([]schema.Row, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		for i := range values {
			values[i] = reflect.New(types[i].ScanType()).Interface()
		}
		if err := rows.Scan(values...); err != nil {
			return nil, fmt.Errorf("scan row from %s: %w", name, err)
		}

		row := schema.NewRow()
		for i, col := range columns {
			row.Set(col, reflect.ValueOf(values[i]).Elem().Interface())
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query rows from %s: %w", name, err)
	}
	return out, nil
}

// TableExists probes for the table without describing it.
func (g *Gateway) TableExists(ctx context.Context, name string) (bool, error) {
	if err := sqlguard.ValidateIdentifier(name); err != nil {
		return false, err
	}

	var exists uint8
	if err := g.conn.QueryRow(ctx, "EXISTS TABLE "+name).Scan(&exists); err != nil {
		return false, fmt.Errorf("probe table %s: %w", name, err)
	}
	return exists == 1, nil
}

// CreateTable provisions the table with every column typed String.
func (g *Gateway) CreateTable(ctx context.Context, name string, columns []string) error {
	ddl, err := BuildCreateTable(name, columns)
	if err != nil {
		return err
	}
	if err := g.conn.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	return nil
}

// InsertRows appends rows in one batch. The column list comes from the first
// row, so a later row with a different key set fails the whole insert; the
// batch is never padded or reconciled.
func (g *Gateway) InsertRows(ctx context.Context, name string, rows []schema.Row) (*store.InsertSummary, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no rows to insert into %s", name)
	}
	if err := sqlguard.ValidateIdentifier(name); err != nil {
		return nil, err
	}
	columns := schema.InferColumns(rows)
	if err := sqlguard.ValidateIdentifiers(columns); err != nil {
		return nil, err
	}

	batch, err := g.conn.PrepareBatch(ctx,
		fmt.Sprintf("INSERT INTO %s (%s)", name, strings.Join(columns, ", ")))
	if err != nil {
		return nil, fmt.Errorf("prepare insert into %s: %w", name, err)
	}

	for i, row := range rows {
		if row.Len() != len(columns) {
			return nil, fmt.Errorf("insert into %s: row %d has %d columns, expected %d", name, i, row.Len(), len(columns))
		}
		values := make([]any, len(columns))
		for j, col := range columns {
			v, ok := row.Get(col)
			if !ok {
				return nil, fmt.Errorf("insert into %s: row %d is missing column %q", name, i, col)
			}
			values[j] = stringValue(v)
		}
		if err := batch.Append(values...); err != nil {
			return nil, fmt.Errorf("append row %d to %s: %w", i, name, err)
		}
	}

	if err := batch.Send(); err != nil {
		return nil, fmt.Errorf("insert into %s: %w", name, err)
	}
	return &store.InsertSummary{WrittenRows: int64(len(rows))}, nil
}

// Close releases the store connection.
func (g *Gateway) Close() error {
	return g.conn.Close()
}

// stringValue renders a scalar as the uniform textual representation used
// for all ingested cells.
func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// Ensure Gateway implements the store interface at compile time.
var _ store.Gateway = (*Gateway)(nil)
