package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"pest-alert-system/pkg/middleware"
	"pest-alert-system/pkg/response"
	"pest-alert-system/pkg/storage"
	"pest-alert-system/services/api/lifecycle"
	"pest-alert-system/services/api/models"
	"pest-alert-system/services/api/store"
)

// ImageStore saves evidence images and returns the stored reference.
// The MinIO object store satisfies this.
type ImageStore interface {
	SaveImage(ctx context.Context, originalName string, r io.Reader, size int64, contentType string) (string, error)
}

type ReportHandler struct {
	manager *lifecycle.Manager
	images  ImageStore
}

func NewReportHandler(manager *lifecycle.Manager, images ImageStore) *ReportHandler {
	return &ReportHandler{manager: manager, images: images}
}

// writeReportError maps lifecycle and store errors onto the response
// taxonomy. Store failures log the detail and leak only a generic message.
func writeReportError(w http.ResponseWriter, traceID string, err error, genericMsg string) {
	var ve *lifecycle.ValidationError
	switch {
	case errors.As(err, &ve):
		response.Error(w, http.StatusBadRequest, ve.Message, "")
	case errors.Is(err, store.ErrInvalidID):
		response.Error(w, http.StatusBadRequest, "Invalid report ID", "")
	case errors.Is(err, store.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Report not found", "")
	default:
		middleware.LogError(traceID, genericMsg, err)
		response.Error(w, http.StatusInternalServerError, genericMsg, "")
	}
}

// Create handles POST /api/reports. The submission is a multipart form with
// location, pestType, description, and an evidence image file.
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	if err := r.ParseMultipartForm(storage.MaxImageSize); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid multipart form", err.Error())
		return
	}

	location := r.FormValue("location")
	pestType := r.FormValue("pestType")
	description := r.FormValue("description")

	file, header, err := r.FormFile("image")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Image file is required", "")
		return
	}
	defer file.Close()

	if !storage.ValidExtension(header.Filename) {
		response.Error(w, http.StatusBadRequest, "Only image files are allowed", "Accepted: jpeg, jpg, png, gif")
		return
	}
	if header.Size > storage.MaxImageSize {
		response.Error(w, http.StatusBadRequest, "Image exceeds the 5MB limit", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	traceID := middleware.GetTraceID(r)

	imageURL, err := h.images.SaveImage(ctx, header.Filename, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		middleware.LogError(traceID, "Failed to store evidence image", err)
		response.Error(w, http.StatusInternalServerError, "Failed to store evidence image", "")
		return
	}

	report, err := h.manager.Create(ctx, claims.Name, location, pestType, description, imageURL)
	if err != nil {
		writeReportError(w, traceID, err, "Failed to submit report")
		return
	}

	response.Success(w, http.StatusCreated, "Pest report submitted successfully", report)
}

// List handles GET /api/reports (admin): all reports, newest first.
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	reports, err := h.manager.ListAll(ctx)
	if err != nil {
		writeReportError(w, middleware.GetTraceID(r), err, "Failed to fetch reports")
		return
	}

	response.Success(w, http.StatusOK, "Reports fetched successfully", reports)
}

// Mine handles GET /api/reports/mine: the caller's own reports.
func (h *ReportHandler) Mine(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	reports, err := h.manager.ListForReporter(ctx, claims.Name)
	if err != nil {
		writeReportError(w, middleware.GetTraceID(r), err, "Failed to fetch reports")
		return
	}

	response.Success(w, http.StatusOK, "Reports fetched successfully", reports)
}

// Get handles GET /api/reports/{id} (admin).
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	report, err := h.manager.Get(ctx, r.PathValue("id"))
	if err != nil {
		writeReportError(w, middleware.GetTraceID(r), err, "Failed to fetch report")
		return
	}

	response.Success(w, http.StatusOK, "Report fetched successfully", report)
}

// UpdateStatus handles PUT /api/reports/{id} (admin): body {status}.
func (h *ReportHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	report, err := h.manager.SetStatus(ctx, r.PathValue("id"), input.Status)
	if err != nil {
		writeReportError(w, middleware.GetTraceID(r), err, "Failed to update status")
		return
	}

	response.Success(w, http.StatusOK, "Report status updated successfully", report)
}

// BroadcastResult pairs the resolved report with the alert that was fanned
// out for it.
type BroadcastResult struct {
	Report *models.Report     `json:"report"`
	Alert  *models.AlertEvent `json:"alert"`
}

// Broadcast handles POST /api/reports/broadcast (admin): resolves the report
// and pushes an alert to every connected subscriber.
func (h *ReportHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ReportID     string `json:"reportId"`
		AlertMessage string `json:"alertMessage"`
		Severity     string `json:"severity"`
		ImageURL     string `json:"imageUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	if input.ReportID == "" {
		response.Error(w, http.StatusBadRequest, "reportId is required", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	report, alert, err := h.manager.ResolveAndAlert(ctx, input.ReportID, input.AlertMessage, input.Severity, input.ImageURL)
	if err != nil {
		writeReportError(w, middleware.GetTraceID(r), err, "Failed to broadcast alert")
		return
	}

	response.Success(w, http.StatusOK, "Alert broadcasted successfully", BroadcastResult{
		Report: report,
		Alert:  alert,
	})
}
