package handlers

import (
	"context"

	"github.com/databridge-io/databridge/pkg/capsule"
	"github.com/databridge-io/databridge/pkg/schema"
	"github.com/databridge-io/databridge/pkg/services"
)

// mockTransferService returns canned results per method.
type mockTransferService struct {
	connectResult *services.ConnectResult
	connectErr    error

	ingestResult *services.IngestResult
	ingestErr    error
	ingestedRows []schema.Row

	columns    []string
	columnsErr error

	data    []schema.Row
	dataErr error

	tables    []string
	tablesErr error
}

func (m *mockTransferService) Connect(ctx context.Context, desc capsule.Descriptor, existingToken string) (*services.ConnectResult, error) {
	return m.connectResult, m.connectErr
}

func (m *mockTransferService) Ingest(ctx context.Context, token, tableName string, rows []schema.Row) (*services.IngestResult, error) {
	m.ingestedRows = rows
	return m.ingestResult, m.ingestErr
}

func (m *mockTransferService) Columns(ctx context.Context, token, tableName string) ([]string, error) {
	return m.columns, m.columnsErr
}

func (m *mockTransferService) TableData(ctx context.Context, token, tableName string) ([]schema.Row, error) {
	return m.data, m.dataErr
}

func (m *mockTransferService) Tables(ctx context.Context, token string) ([]string, error) {
	return m.tables, m.tablesErr
}

var _ services.TransferService = (*mockTransferService)(nil)
