package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"civicfix/internal/media"
	"civicfix/internal/service"
	"civicfix/internal/utils"
)

// maxSubmissionBytes caps the whole multipart body: the 5 MiB photo limit
// plus headroom for the text fields.
const maxSubmissionBytes = 6 << 20

// ReportHTTP serves the public surface: submission and tracking.
type ReportHTTP struct {
	svc *service.ReportService
	log zerolog.Logger
}

func NewReportHTTP(svc *service.ReportService, log zerolog.Logger) *ReportHTTP {
	return &ReportHTTP{svc: svc, log: log}
}

// Create handles POST /api/reports (multipart).
func (h *ReportHTTP) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxSubmissionBytes)
		if err := r.ParseMultipartForm(maxSubmissionBytes); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				utils.Error(w, http.StatusRequestEntityTooLarge, "file too large")
				return
			}
			utils.Error(w, http.StatusBadRequest, "invalid multipart form")
			return
		}

		var photo *multipart.FileHeader
		if fhs := r.MultipartForm.File["photo"]; len(fhs) > 0 {
			photo = fhs[0]
		}

		created, err := h.svc.Submit(r.Context(), service.Submission{
			CitizenName: r.FormValue("citizen_name"),
			Email:       r.FormValue("email"),
			Phone:       r.FormValue("phone"),
			Location:    r.FormValue("location"),
			Description: r.FormValue("description"),
			IssueType:   r.FormValue("issue_type"),
			Photo:       photo,
		})
		if err != nil {
			h.writeSubmitError(w, r, err)
			return
		}

		utils.JSON(w, http.StatusOK, map[string]any{"ok": true, "case_id": created.CaseID})
	}
}

// writeSubmitError maps lifecycle failures onto the public contract.
// Internal detail is logged here and never sent to the caller.
func (h *ReportHTTP) writeSubmitError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		utils.Error(w, http.StatusBadRequest, "location and issue_type required")
	case errors.Is(err, media.ErrUnsupportedType):
		utils.Error(w, http.StatusBadRequest, "photo must be a jpg or png")
	case errors.Is(err, media.ErrTooLarge):
		utils.Error(w, http.StatusRequestEntityTooLarge, "file too large")
	case errors.Is(err, context.DeadlineExceeded):
		h.log.Warn().Err(err).Msg("submission timed out waiting on the store")
		utils.Error(w, http.StatusServiceUnavailable, "busy, try again")
	default:
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("report submission failed")
		utils.JSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "failed"})
	}
}

// Track handles GET /api/reports/{caseID}: the unauthenticated tracking
// lookup. Every public read gets the same narrow projection.
func (h *ReportHTTP) Track() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caseID := strings.TrimSpace(chi.URLParam(r, "caseID"))
		if caseID == "" {
			utils.Error(w, http.StatusBadRequest, "missing case id")
			return
		}

		p, err := h.svc.Track(r.Context(), caseID)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				utils.Error(w, http.StatusServiceUnavailable, "busy, try again")
				return
			}
			h.log.Error().Err(err).Str("case_id", caseID).Msg("tracking lookup failed")
			utils.Error(w, http.StatusInternalServerError, "failed")
			return
		}
		if p == nil {
			utils.Error(w, http.StatusNotFound, "not found")
			return
		}
		utils.JSON(w, http.StatusOK, p)
	}
}
