// Package client is the request-issuing side of the transfer engine: a Go
// API client for the HTTP endpoints plus the local preview/export flows
// built on pkg/flatfile.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/databridge-io/databridge/pkg/apperrors"
	"github.com/databridge-io/databridge/pkg/capsule"
	"github.com/databridge-io/databridge/pkg/flatfile"
	"github.com/databridge-io/databridge/pkg/handlers"
	"github.com/databridge-io/databridge/pkg/schema"
)

// APIError carries a non-2xx response back to the caller.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to a running transfer engine. It remembers the capsule token
// returned by Connect and presents it on every subsequent call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// New creates a client for the engine at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Token returns the capsule token held by the client, empty before Connect.
func (c *Client) Token() string {
	return c.token
}

// SetToken replaces the held capsule token, for resuming an earlier session.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Connect validates credentials against the engine and stores the minted
// capsule token for subsequent calls. When the held token is still valid the
// server short-circuits and no new token is issued.
func (c *Client) Connect(ctx context.Context, desc capsule.Descriptor) (*handlers.ConnectResponse, error) {
	var resp handlers.ConnectResponse
	if err := c.post(ctx, "/connect", desc, &resp); err != nil {
		return nil, err
	}
	if resp.Token != "" {
		c.token = resp.Token
	}
	return &resp, nil
}

// UploadFile ingests rows into tableName, creating the table when absent.
func (c *Client) UploadFile(ctx context.Context, tableName string, rows []schema.Row) (*handlers.UploadFileResponse, error) {
	req := handlers.UploadFileRequest{
		JSONData:  schema.Rows(rows),
		TableName: tableName,
	}
	var resp handlers.UploadFileResponse
	if err := c.post(ctx, "/upload-file", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetColumns returns the ordered column names of tableName.
func (c *Client) GetColumns(ctx context.Context, tableName string) ([]string, error) {
	var resp handlers.ColumnsResponse
	if err := c.post(ctx, "/get-columns", handlers.TableRequest{TableName: tableName}, &resp); err != nil {
		return nil, err
	}
	return resp.Columns, nil
}

// GetTableData returns up to the server's preview row limit of tableName.
func (c *Client) GetTableData(ctx context.Context, tableName string) ([]schema.Row, error) {
	var resp handlers.TableDataResponse
	if err := c.post(ctx, "/get-table-data", handlers.TableRequest{TableName: tableName}, &resp); err != nil {
		return nil, err
	}
	return []schema.Row(resp.Data), nil
}

// GetTables lists the connected database's tables.
func (c *Client) GetTables(ctx context.Context) ([]string, error) {
	var resp handlers.TablesResponse
	if err := c.post(ctx, "/get-tables", struct{}{}, &resp); err != nil {
		return nil, err
	}
	return resp.Tables, nil
}

// PreviewFile parses a local flat file and projects it to the selected
// columns without touching the server. An empty selection previews every
// column.
func (c *Client) PreviewFile(r io.Reader, filename string, selection []string) ([]schema.Row, error) {
	rows, _, err := flatfile.Parse(r, filename)
	if err != nil {
		return nil, err
	}
	return flatfile.Project(rows, selection), nil
}

// PreviewTable fetches the table's preview rows and projects them to the
// selected columns. An empty selection previews every column.
func (c *Client) PreviewTable(ctx context.Context, tableName string, selection []string) ([]schema.Row, error) {
	rows, err := c.GetTableData(ctx, tableName)
	if err != nil {
		return nil, err
	}
	return flatfile.Project(rows, selection), nil
}

// Export fetches the table's preview rows, projects them to the selected
// columns, and writes them into dir as csv or xlsx. Unlike preview, export
// demands an explicit selection. Returns the written file's path.
func (c *Client) Export(ctx context.Context, dir, tableName string, selection []string, format string) (string, error) {
	if len(selection) == 0 {
		return "", fmt.Errorf("select at least one column: %w", apperrors.ErrEmptySelection)
	}

	format = strings.ToLower(format)
	if format != "csv" && format != "xlsx" {
		return "", fmt.Errorf("%s: %w", format, apperrors.ErrUnsupportedFormat)
	}

	rows, err := c.GetTableData(ctx, tableName)
	if err != nil {
		return "", err
	}
	projected := flatfile.Project(rows, selection)

	path := filepath.Join(dir, fmt.Sprintf("%s_selected_columns.%s", tableName, format))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer func() { _ = f.Close() }()

	switch format {
	case "csv":
		err = flatfile.WriteCSV(f, selection, projected)
	case "xlsx":
		err = flatfile.WriteXLSX(f, selection, projected)
	}
	if err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}

	return path, nil
}

// post issues a JSON POST and decodes the success body into out. Non-2xx
// responses become an *APIError carrying the server's message, whether it
// arrived as plain text or as the JSON {message, error} shape.
func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.apiError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) apiError(resp *http.Response) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: "unreadable response body"}
	}

	var failure struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &failure); err == nil && failure.Message != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: failure.Message}
	}

	return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
}
