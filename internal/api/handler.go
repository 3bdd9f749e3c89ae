package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"example.com/fleetdocs/internal/dates"
	"example.com/fleetdocs/internal/extraction"
	"example.com/fleetdocs/internal/metrics"
	"example.com/fleetdocs/internal/model"
	"example.com/fleetdocs/internal/repository"
	"example.com/fleetdocs/internal/service"
)

// maxExtractionFileSize caps document scans accepted for field extraction
const maxExtractionFileSize = 10 << 20

// defaultAuditSearchSize caps audit search results when no size is given
const defaultAuditSearchSize = 50

// Handler defines the API handler
type Handler struct {
	vehicleService service.VehicleService
	alertService   service.AlertService
	summaryService service.SummaryService
	auditService   service.AuditService
	extractor      extraction.Extractor
}

// NewHandler creates a new API handler
func NewHandler(
	vehicleService service.VehicleService,
	alertService service.AlertService,
	summaryService service.SummaryService,
	auditService service.AuditService,
	extractor extraction.Extractor,
) *Handler {
	return &Handler{
		vehicleService: vehicleService,
		alertService:   alertService,
		summaryService: summaryService,
		auditService:   auditService,
		extractor:      extractor,
	}
}

// RegisterRoutes registers API routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	// Vehicle routes
	r.HandleFunc("/vehicles", h.CreateVehicle).Methods(http.MethodPost)
	r.HandleFunc("/vehicles", h.ListVehicles).Methods(http.MethodGet)
	r.HandleFunc("/vehicles/{vehicle_id}", h.GetVehicle).Methods(http.MethodGet)
	r.HandleFunc("/vehicles/{vehicle_id}", h.UpdateVehicle).Methods(http.MethodPut)
	r.HandleFunc("/vehicles/{vehicle_id}", h.DeleteVehicle).Methods(http.MethodDelete)
	r.HandleFunc("/vehicles/{vehicle_id}/status", h.GetVehicleStatus).Methods(http.MethodGet)
	r.HandleFunc("/vehicles/{vehicle_id}/documents", h.UploadDocument).Methods(http.MethodPost)
	r.HandleFunc("/documents/extract", h.ExtractDocumentFields).Methods(http.MethodPost)

	// Alert routes
	r.HandleFunc("/alerts", h.ListAlerts).Methods(http.MethodGet)
	r.HandleFunc("/alerts/sync", h.SyncAlerts).Methods(http.MethodPost)
	r.HandleFunc("/alerts/{alert_id}/read", h.MarkAlertRead).Methods(http.MethodPost)

	// Summary routes
	r.HandleFunc("/summary", h.GetSummary).Methods(http.MethodGet)
	r.HandleFunc("/summary/export", h.ExportSummary).Methods(http.MethodPost)

	// Audit routes
	r.HandleFunc("/audit", h.ListAuditEntries).Methods(http.MethodGet)
	r.HandleFunc("/audit/search", h.SearchAuditEntries).Methods(http.MethodGet)

	// Metrics and health endpoints
	r.HandleFunc("/metrics", MetricsHandler).Methods(http.MethodGet)
	r.HandleFunc("/health", HealthHandler).Methods(http.MethodGet)
}

// userID extracts the acting user from the request. The gateway in front
// of this service sets the header after authentication.
func userID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return "anonymous"
}

// CreateVehicle registers a new vehicle
func (h *Handler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	collector := metrics.GetMetricsCollector()

	var req service.CreateVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewValidationError("Invalid request body"))
		collector.RecordError(metrics.ErrorTypeValidation)
		return
	}

	vehicle, err := h.vehicleService.Create(r.Context(), userID(r), &req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, vehicle)
}

// ListVehicles lists registered vehicles, optionally filtered by registration
func (h *Handler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	if registration := r.URL.Query().Get("registration"); registration != "" {
		vehicle, err := h.vehicleService.GetByRegistration(r.Context(), registration)
		if errors.Is(err, service.ErrVehicleNotFound) {
			writeJSONResponse(w, http.StatusOK, []model.Vehicle{})
			return
		}
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSONResponse(w, http.StatusOK, []model.Vehicle{*vehicle})
		return
	}

	vehicles, err := h.vehicleService.List(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, vehicles)
}

// GetVehicle gets a vehicle with its documents
func (h *Handler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	vehicleID := mux.Vars(r)["vehicle_id"]
	if vehicleID == "" {
		WriteError(w, ErrInvalidRequest)
		metrics.GetMetricsCollector().RecordError(metrics.ErrorTypeValidation)
		return
	}

	vehicle, err := h.vehicleService.GetByID(r.Context(), vehicleID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, vehicle)
}

// GetVehicleStatus gets a vehicle together with its derived compliance verdict
func (h *Handler) GetVehicleStatus(w http.ResponseWriter, r *http.Request) {
	vehicleID := mux.Vars(r)["vehicle_id"]
	if vehicleID == "" {
		WriteError(w, ErrInvalidRequest)
		metrics.GetMetricsCollector().RecordError(metrics.ErrorTypeValidation)
		return
	}

	status, err := h.vehicleService.GetStatus(r.Context(), vehicleID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, status)
}

// UpdateVehicle updates a vehicle's own fields
func (h *Handler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	collector := metrics.GetMetricsCollector()
	vehicleID := mux.Vars(r)["vehicle_id"]

	var req service.UpdateVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewValidationError("Invalid request body"))
		collector.RecordError(metrics.ErrorTypeValidation)
		return
	}

	vehicle, err := h.vehicleService.Update(r.Context(), userID(r), vehicleID, &req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, vehicle)
}

// DeleteVehicle deletes a vehicle and its documents and alerts
func (h *Handler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	vehicleID := mux.Vars(r)["vehicle_id"]

	if err := h.vehicleService.Delete(r.Context(), userID(r), vehicleID); err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

// UploadDocument appends a document record to a vehicle and refreshes its alerts
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	collector := metrics.GetMetricsCollector()
	vehicleID := mux.Vars(r)["vehicle_id"]
	startTime := time.Now()

	var req service.UploadDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewValidationError("Invalid request body"))
		collector.RecordError(metrics.ErrorTypeValidation)
		return
	}

	document, err := h.vehicleService.UploadDocument(r.Context(), userID(r), vehicleID, &req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	collector.RecordOperation(metrics.OperationTypeDocumentUpload, time.Since(startTime))

	writeJSONResponse(w, http.StatusCreated, document)
}

// ExtractDocumentFields runs the configured extractor over an uploaded scan
// and returns field suggestions. Suggestions are candidates for a human to
// confirm; they are never written to a document by this endpoint.
func (h *Handler) ExtractDocumentFields(w http.ResponseWriter, r *http.Request) {
	collector := metrics.GetMetricsCollector()

	kind := model.KindFromString(r.URL.Query().Get("kind"))
	if kind == "" {
		WriteError(w, NewValidationError("Unknown document kind"))
		collector.RecordError(metrics.ErrorTypeValidation)
		return
	}

	if err := r.ParseMultipartForm(maxExtractionFileSize); err != nil {
		WriteError(w, NewValidationError("Invalid multipart body"))
		collector.RecordError(metrics.ErrorTypeValidation)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, NewValidationError("Missing 'file' form field"))
		collector.RecordError(metrics.ErrorTypeValidation)
		return
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(io.LimitReader(file, maxExtractionFileSize))
	if err != nil {
		WriteError(w, ErrInternalServer)
		collector.RecordError(metrics.ErrorTypeInternal)
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	suggestions, err := h.extractor.SuggestFields(r.Context(), kind, fileBytes, mimeType)
	if err != nil {
		logrus.WithError(err).Error("Field extraction failed")
		WriteError(w, ErrServiceUnavailable)
		collector.RecordError(metrics.ErrorTypeInternal)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"suggestions": suggestions,
	})
}

// ListAlerts lists the caller's alerts, optionally only the unread ones
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	onlyUnread := r.URL.Query().Get("unread") == "true"

	alerts, err := h.alertService.List(r.Context(), userID(r), onlyUnread)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, alerts)
}

// SyncAlerts regenerates alerts for the whole fleet
func (h *Handler) SyncAlerts(w http.ResponseWriter, r *http.Request) {
	report, err := h.alertService.SynchronizeFleet(r.Context(), userID(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, report)
}

// MarkAlertRead acknowledges an alert
func (h *Handler) MarkAlertRead(w http.ResponseWriter, r *http.Request) {
	alertID := mux.Vars(r)["alert_id"]

	marked, err := h.alertService.MarkRead(r.Context(), userID(r), alertID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if !marked {
		WriteError(w, ErrNotFound)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

// GetSummary computes the fleet-wide compliance summary
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.summaryService.Summarize(r.Context(), userID(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, summary)
}

// ExportSummary computes the summary and records the export in the audit trail
func (h *Handler) ExportSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.summaryService.Summarize(r.Context(), userID(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.summaryService.RecordExport(r.Context(), userID(r))

	writeJSONResponse(w, http.StatusOK, summary)
}

// ListAuditEntries queries the audit trail
func (h *Handler) ListAuditEntries(w http.ResponseWriter, r *http.Request) {
	filter, err := auditFilterFromQuery(r)
	if err != nil {
		WriteError(w, NewValidationError(err.Error()))
		metrics.GetMetricsCollector().RecordError(metrics.ErrorTypeValidation)
		return
	}

	entries, err := h.auditService.List(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, entries)
}

// SearchAuditEntries runs a free-text query over the audit search index.
// Structured filtering stays on the /audit endpoint; this one answers
// "anything about KA01AB1234 last week" style questions.
func (h *Handler) SearchAuditEntries(w http.ResponseWriter, r *http.Request) {
	collector := metrics.GetMetricsCollector()

	text := r.URL.Query().Get("q")
	if text == "" {
		WriteError(w, NewValidationError("Missing 'q' query parameter"))
		collector.RecordError(metrics.ErrorTypeValidation)
		return
	}

	size := defaultAuditSearchSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			WriteError(w, NewValidationError("invalid 'size', expected a positive integer"))
			collector.RecordError(metrics.ErrorTypeValidation)
			return
		}
		size = parsed
	}

	entries, err := h.auditService.Search(r.Context(), text, size)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, entries)
}

// auditFilterFromQuery builds an audit filter from the request's query string
func auditFilterFromQuery(r *http.Request) (repository.AuditFilter, error) {
	q := r.URL.Query()
	filter := repository.AuditFilter{
		UserID:       q.Get("user_id"),
		Action:       model.AuditAction(q.Get("action")),
		EntityType:   model.AuditEntityType(q.Get("entity_type")),
		EntityID:     q.Get("entity_id"),
		Registration: q.Get("registration"),
	}

	if raw := q.Get("from"); raw != "" {
		t, ok := dates.Parse(raw)
		if !ok {
			return filter, errors.New("invalid 'from' date, expected YYYY-MM-DD")
		}
		filter.From = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, ok := dates.Parse(raw)
		if !ok {
			return filter, errors.New("invalid 'to' date, expected YYYY-MM-DD")
		}
		filter.To = &t
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return filter, errors.New("invalid 'limit', expected a non-negative integer")
		}
		filter.Limit = limit
	}

	return filter, nil
}

// writeServiceError maps service layer errors onto API errors
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	collector := metrics.GetMetricsCollector()

	switch {
	case errors.Is(err, service.ErrVehicleNotFound), errors.Is(err, repository.ErrNotFound):
		WriteError(w, ErrNotFound)
	case errors.Is(err, service.ErrDuplicateRegistration):
		WriteError(w, ErrDuplicateRegistration)
		collector.RecordError(metrics.ErrorTypeValidation)
	case errors.Is(err, service.ErrRegistrationRequired),
		errors.Is(err, service.ErrUnknownDocumentKind),
		errors.Is(err, service.ErrCustomNameRequired),
		errors.Is(err, service.ErrInvalidDate):
		WriteError(w, NewValidationError(err.Error()))
		collector.RecordError(metrics.ErrorTypeValidation)
	case errors.Is(err, repository.ErrUnavailable):
		WriteError(w, ErrServiceUnavailable)
		collector.RecordError(metrics.ErrorTypeDatabase)
	case errors.Is(err, service.ErrSearchUnavailable):
		WriteError(w, ErrServiceUnavailable)
	default:
		logrus.WithError(err).Error("Unhandled service error")
		WriteError(w, ErrInternalServer)
		collector.RecordError(metrics.ErrorTypeInternal)
	}
}

// writeJSONResponse writes a JSON response
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Error("Failed to encode JSON response")
	}
}
