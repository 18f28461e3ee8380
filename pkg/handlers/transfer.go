package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/databridge-io/databridge/pkg/adapters/store"
	"github.com/databridge-io/databridge/pkg/apperrors"
	"github.com/databridge-io/databridge/pkg/capsule"
	"github.com/databridge-io/databridge/pkg/logging"
	"github.com/databridge-io/databridge/pkg/schema"
	"github.com/databridge-io/databridge/pkg/services"
)

// ConnectResponse is the success shape for a fresh connection.
type ConnectResponse struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	Token     string   `json:"token"`
	Tables    []string `json:"tables"`
	ExpiresAt int64    `json:"expiresAt"`
}

// AlreadyConnectedResponse is returned when a still-valid capsule is
// presented to /connect; it echoes the original expiry.
type AlreadyConnectedResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ExpiresAt int64  `json:"expiresAt"`
}

// UploadFileRequest is the ingest request body.
type UploadFileRequest struct {
	JSONData  schema.Rows `json:"jsonData"`
	TableName string      `json:"tableName"`
}

// UploadFileResponse reports the store's written-row summary and the
// resolved destination table.
type UploadFileResponse struct {
	Success   bool                 `json:"success"`
	Result    *store.InsertSummary `json:"result"`
	TableName string               `json:"tableName"`
}

// TableRequest names the table a read endpoint targets.
type TableRequest struct {
	TableName string `json:"tableName"`
}

// ColumnsResponse is the get-columns success shape.
type ColumnsResponse struct {
	Success bool     `json:"success"`
	Columns []string `json:"columns"`
}

// TableDataResponse is the get-table-data success shape, capped at the
// preview row limit.
type TableDataResponse struct {
	Success bool        `json:"success"`
	Data    schema.Rows `json:"data"`
}

// TablesResponse is the get-tables success shape.
type TablesResponse struct {
	Success bool     `json:"success"`
	Tables  []string `json:"tables"`
}

// TransferHandler handles the transfer engine's HTTP endpoints.
type TransferHandler struct {
	service services.TransferService
	logger  *zap.Logger
}

// NewTransferHandler creates a transfer handler.
func NewTransferHandler(service services.TransferService, logger *zap.Logger) *TransferHandler {
	return &TransferHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the transfer endpoints on the given mux.
// Everything except /connect requires a capsule before any store
// interaction is attempted.
func (h *TransferHandler) RegisterRoutes(mux *http.ServeMux, capsules *capsule.Middleware) {
	mux.HandleFunc("POST /connect", h.Connect)
	mux.HandleFunc("POST /upload-file", capsules.RequireCapsule(h.UploadFile))
	mux.HandleFunc("POST /get-columns", capsules.RequireCapsule(h.GetColumns))
	mux.HandleFunc("POST /get-table-data", capsules.RequireCapsule(h.GetTableData))
	mux.HandleFunc("POST /get-tables", capsules.RequireCapsule(h.GetTables))
}

// Connect handles POST /connect.
// A valid capsule in the Authorization header short-circuits to "already
// connected"; an expired or malformed one is ignored and a fresh capsule is
// minted after the store accepts the supplied credentials.
func (h *TransferHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var desc capsule.Descriptor
	if err := json.NewDecoder(r.Body).Decode(&desc); err != nil {
		http.Error(w, "Missing required connection details.", http.StatusBadRequest)
		return
	}
	if !desc.Complete() {
		http.Error(w, "Missing required connection details.", http.StatusBadRequest)
		return
	}

	// The capsule is optional here, unlike on the protected endpoints.
	existingToken, _ := capsule.TokenFromRequest(r)

	result, err := h.service.Connect(r.Context(), desc, existingToken)
	if err != nil {
		h.logger.Error("connect failed",
			zap.String("host", desc.Host),
			zap.String("database", desc.Database),
			zap.String("error", logging.SanitizeError(err)))
		h.writeServiceError(w, err, "Failed to connect to ClickHouse.")
		return
	}

	if result.AlreadyConnected {
		h.writeJSON(w, AlreadyConnectedResponse{
			Success:   true,
			Message:   result.Message,
			ExpiresAt: result.ExpiresAt,
		})
		return
	}

	h.writeJSON(w, ConnectResponse{
		Success:   true,
		Message:   result.Message,
		Token:     result.Token,
		Tables:    result.Tables,
		ExpiresAt: result.ExpiresAt,
	})
}

// UploadFile handles POST /upload-file.
// Provisions the destination table when absent; a table created by a failed
// ingest is left in place.
func (h *TransferHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	token, ok := capsule.TokenFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: Missing token", http.StatusUnauthorized)
		return
	}

	var req UploadFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid or empty data provided.", http.StatusBadRequest)
		return
	}
	if len(req.JSONData) == 0 {
		http.Error(w, "Invalid or empty data provided.", http.StatusBadRequest)
		return
	}
	if req.TableName == "" {
		http.Error(w, "Missing table name.", http.StatusBadRequest)
		return
	}

	result, err := h.service.Ingest(r.Context(), token, req.TableName, []schema.Row(req.JSONData))
	if err != nil {
		h.logger.Error("ingest failed",
			zap.String("table", req.TableName),
			zap.String("error", logging.SanitizeError(err)))
		h.writeServiceError(w, err, "An error occurred while ingesting data into ClickHouse.")
		return
	}

	h.writeJSON(w, UploadFileResponse{
		Success:   true,
		Result:    result.Summary,
		TableName: result.TableName,
	})
}

// GetColumns handles POST /get-columns.
func (h *TransferHandler) GetColumns(w http.ResponseWriter, r *http.Request) {
	token, ok := capsule.TokenFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: Missing token", http.StatusUnauthorized)
		return
	}

	tableName, ok := h.decodeTableRequest(w, r)
	if !ok {
		return
	}

	columns, err := h.service.Columns(r.Context(), token, tableName)
	if err != nil {
		h.logger.Error("fetch columns failed",
			zap.String("table", tableName),
			zap.String("error", logging.SanitizeError(err)))
		h.writeServiceError(w, err, "Failed to fetch columns.")
		return
	}

	h.writeJSON(w, ColumnsResponse{Success: true, Columns: columns})
}

// GetTableData handles POST /get-table-data. The response is capped at the
// preview row limit; an empty table yields success with an empty sequence.
func (h *TransferHandler) GetTableData(w http.ResponseWriter, r *http.Request) {
	token, ok := capsule.TokenFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: Missing token", http.StatusUnauthorized)
		return
	}

	tableName, ok := h.decodeTableRequest(w, r)
	if !ok {
		return
	}

	data, err := h.service.TableData(r.Context(), token, tableName)
	if err != nil {
		h.logger.Error("fetch table data failed",
			zap.String("table", tableName),
			zap.String("error", logging.SanitizeError(err)))
		h.writeServiceError(w, err, "Failed to fetch table data.")
		return
	}

	h.writeJSON(w, TableDataResponse{Success: true, Data: schema.Rows(data)})
}

// GetTables handles POST /get-tables.
func (h *TransferHandler) GetTables(w http.ResponseWriter, r *http.Request) {
	token, ok := capsule.TokenFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: Missing token", http.StatusUnauthorized)
		return
	}

	tables, err := h.service.Tables(r.Context(), token)
	if err != nil {
		h.logger.Error("fetch tables failed",
			zap.String("error", logging.SanitizeError(err)))
		h.writeServiceError(w, err, "Failed to fetch tables.")
		return
	}

	h.writeJSON(w, TablesResponse{Success: true, Tables: tables})
}

// decodeTableRequest reads the {tableName} body shared by the read
// endpoints, writing a 400 when it is missing.
func (h *TransferHandler) decodeTableRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req TableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Missing table name.", http.StatusBadRequest)
		return "", false
	}
	if req.TableName == "" {
		http.Error(w, "Missing table name.", http.StatusBadRequest)
		return "", false
	}
	return req.TableName, true
}

// writeServiceError maps a service failure to its response. Capsule
// failures on protected calls are a hard 401; a missing table gets its own
// named error; everything else is the opaque store-failure shape carrying
// the (sanitized) store message.
func (h *TransferHandler) writeServiceError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, capsule.ErrExpired) || errors.Is(err, capsule.ErrInvalid):
		http.Error(w, "Unauthorized: Invalid or expired token", http.StatusUnauthorized)
	case errors.Is(err, apperrors.ErrNotFound):
		if werr := FailureResponse(w, http.StatusNotFound, "Table not found.", err); werr != nil {
			h.logger.Error("failed to write error response", zap.Error(werr))
		}
	case errors.Is(err, services.ErrConnectionFailed):
		if werr := FailureResponse(w, http.StatusInternalServerError, "Failed to connect to ClickHouse.", err); werr != nil {
			h.logger.Error("failed to write error response", zap.Error(werr))
		}
	default:
		if werr := FailureResponse(w, http.StatusInternalServerError, message, err); werr != nil {
			h.logger.Error("failed to write error response", zap.Error(werr))
		}
	}
}

func (h *TransferHandler) writeJSON(w http.ResponseWriter, data interface{}) {
	if err := WriteJSON(w, http.StatusOK, data); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}
