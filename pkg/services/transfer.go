// Package services holds the transfer orchestrator: the sequenced store work
// behind each endpoint. All state lives in the credential capsule or the
// request body; the service keeps nothing between calls.
package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/databridge-io/databridge/pkg/adapters/store"
	"github.com/databridge-io/databridge/pkg/capsule"
	"github.com/databridge-io/databridge/pkg/schema"
)

// ErrConnectionFailed marks a store that is unreachable or rejects the
// supplied credentials during connect.
var ErrConnectionFailed = errors.New("connection failed")

// ConnectResult is the outcome of a connect request.
type ConnectResult struct {
	Message          string
	Token            string
	Tables           []string
	ExpiresAt        int64 // unix milliseconds
	AlreadyConnected bool
}

// IngestResult is the outcome of an ingest request.
type IngestResult struct {
	Summary   *store.InsertSummary
	TableName string
}

// TransferService drives the gateway for each endpoint. Capsule expiry
// policy differs by method: Connect silently re-mints over an expired
// capsule, everything else treats it as a hard failure.
type TransferService interface {
	// Connect validates credentials against the store and mints a capsule.
	// A still-valid existingToken short-circuits without any store call.
	Connect(ctx context.Context, desc capsule.Descriptor, existingToken string) (*ConnectResult, error)

	// Ingest writes rows into tableName, provisioning it first when absent.
	// Keys are normalized before the capsule is opened, so invalid tokens
	// cause no store interaction but the reported batch is the normalized one.
	Ingest(ctx context.Context, token, tableName string, rows []schema.Row) (*IngestResult, error)

	// Columns returns a table's column names.
	Columns(ctx context.Context, token, tableName string) ([]string, error)

	// TableData returns up to store.PreviewRowLimit rows.
	TableData(ctx context.Context, token, tableName string) ([]schema.Row, error)

	// Tables lists the database's tables.
	Tables(ctx context.Context, token string) ([]string, error)
}

type transferService struct {
	capsules capsule.Service
	connect  store.Factory
	logger   *zap.Logger
}

// NewTransferService creates the orchestrator over the given capsule service
// and gateway factory.
func NewTransferService(capsules capsule.Service, factory store.Factory, logger *zap.Logger) TransferService {
	return &transferService{
		capsules: capsules,
		connect:  factory,
		logger:   logger,
	}
}

func (s *transferService) Connect(ctx context.Context, desc capsule.Descriptor, existingToken string) (*ConnectResult, error) {
	if existingToken != "" {
		if _, expiresAt, err := s.capsules.Open(existingToken); err == nil {
			// Still valid: no store call, echo the original expiry.
			return &ConnectResult{
				Message:          "Already connected. Session still valid.",
				ExpiresAt:        expiresAt.UnixMilli(),
				AlreadyConnected: true,
			}, nil
		}
		// Expired or invalid tokens on connect fall through to a fresh
		// connection test and a new capsule.
	}

	gw, err := s.connect(ctx, desc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	defer s.closeGateway(gw)

	if err := gw.TestConnection(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	tables, err := gw.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	token, expiresAt, err := s.capsules.Mint(desc)
	if err != nil {
		return nil, fmt.Errorf("mint capsule: %w", err)
	}

	s.logger.Info("store connection established",
		zap.String("host", desc.Host),
		zap.String("database", desc.Database),
		zap.Int("tables", len(tables)))

	return &ConnectResult{
		Message:   "Connection successful",
		Token:     token,
		Tables:    tables,
		ExpiresAt: expiresAt.UnixMilli(),
	}, nil
}

func (s *transferService) Ingest(ctx context.Context, token, tableName string, rows []schema.Row) (*IngestResult, error) {
	normalized := schema.NormalizeKeys(rows)

	gw, err := s.openGateway(ctx, token)
	if err != nil {
		return nil, err
	}
	defer s.closeGateway(gw)

	exists, err := gw.TableExists(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("probe table %s: %w", tableName, err)
	}

	if !exists {
		columns := schema.InferColumns(normalized)
		if err := gw.CreateTable(ctx, tableName, columns); err != nil {
			return nil, fmt.Errorf("create table %s: %w", tableName, err)
		}
		s.logger.Info("provisioned table",
			zap.String("table", tableName),
			zap.Strings("columns", columns))
	}

	// A failed insert leaves a freshly created table behind; that partial
	// effect is not rolled back.
	summary, err := gw.InsertRows(ctx, tableName, normalized)
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", tableName, err)
	}

	s.logger.Info("ingest complete",
		zap.String("table", tableName),
		zap.Int64("written_rows", summary.WrittenRows))

	return &IngestResult{Summary: summary, TableName: tableName}, nil
}

func (s *transferService) Columns(ctx context.Context, token, tableName string) ([]string, error) {
	gw, err := s.openGateway(ctx, token)
	if err != nil {
		return nil, err
	}
	defer s.closeGateway(gw)

	return gw.DescribeTable(ctx, tableName)
}

func (s *transferService) TableData(ctx context.Context, token, tableName string) ([]schema.Row, error) {
	gw, err := s.openGateway(ctx, token)
	if err != nil {
		return nil, err
	}
	defer s.closeGateway(gw)

	return gw.QueryRows(ctx, tableName)
}

func (s *transferService) Tables(ctx context.Context, token string) ([]string, error) {
	gw, err := s.openGateway(ctx, token)
	if err != nil {
		return nil, err
	}
	defer s.closeGateway(gw)

	return gw.ListTables(ctx)
}

// openGateway opens the caller's capsule and connects to the store it
// describes. Expired capsules are a hard failure here; protected endpoints
// never reconnect silently.
func (s *transferService) openGateway(ctx context.Context, token string) (store.Gateway, error) {
	desc, _, err := s.capsules.Open(token)
	if err != nil {
		return nil, err
	}

	gw, err := s.connect(ctx, desc)
	if err != nil {
		return nil, fmt.Errorf("open store connection: %w", err)
	}
	return gw, nil
}

func (s *transferService) closeGateway(gw store.Gateway) {
	if err := gw.Close(); err != nil {
		s.logger.Warn("failed to close store connection", zap.Error(err))
	}
}

// Ensure transferService implements TransferService at compile time.
var _ TransferService = (*transferService)(nil)
