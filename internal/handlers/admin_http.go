package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"civicfix/internal/middleware"
	"civicfix/internal/models"
	"civicfix/internal/repository"
	"civicfix/internal/service"
	"civicfix/internal/utils"
)

// AdminHTTP serves the authenticated triage surface.
type AdminHTTP struct {
	reports repository.ReportRepository
	svc     *service.ReportService
	log     zerolog.Logger
}

func NewAdminHTTP(reports repository.ReportRepository, svc *service.ReportService, log zerolog.Logger) *AdminHTTP {
	return &AdminHTTP{reports: reports, svc: svc, log: log}
}

// writeError maps store failures onto the admin contract: timeout
// pressure is a 503, everything else is logged and reported opaquely.
func (h *AdminHTTP) writeError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, context.DeadlineExceeded) {
		utils.Error(w, http.StatusServiceUnavailable, "busy, try again")
		return
	}
	h.log.Error().Err(err).Msg(msg)
	utils.Error(w, http.StatusInternalServerError, "failed")
}

// List handles GET /api/admin/reports.
func (h *AdminHTTP) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qv := r.URL.Query()
		f := repository.ReportFilter{
			Q:         strings.TrimSpace(qv.Get("q")),
			Status:    strings.TrimSpace(qv.Get("status")),
			IssueType: strings.TrimSpace(qv.Get("issue_type")),
			Limit:     utils.QueryInt(qv, "limit", 50),
			Offset:    utils.QueryInt(qv, "offset", 0),
		}
		// The status column is an enum; an unknown filter value would
		// blow up the cast inside the store.
		if f.Status != "" && !models.Status(f.Status).Valid() {
			utils.Error(w, http.StatusBadRequest, "invalid status value")
			return
		}

		items, total, err := h.reports.ListRecent(r.Context(), f)
		if err != nil {
			h.writeError(w, err, "report listing failed")
			return
		}
		w.Header().Set("X-Total-Count", strconv.Itoa(total))
		utils.JSON(w, http.StatusOK, map[string]any{"items": items, "total": total})
	}
}

// Get handles GET /api/admin/reports/{id}: the full record, contact
// fields included.
func (h *AdminHTTP) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		// ids are UUIDs; a malformed one can never match a row, and
		// handing it to the store would fail the column cast.
		if uuid.Validate(id) != nil {
			utils.Error(w, http.StatusNotFound, "not found")
			return
		}
		rep, err := h.reports.GetByID(r.Context(), id)
		if err != nil {
			h.writeError(w, err, "report fetch failed")
			return
		}
		if rep == nil {
			utils.Error(w, http.StatusNotFound, "not found")
			return
		}
		utils.JSON(w, http.StatusOK, rep)
	}
}

// UpdateStatus handles PATCH /api/admin/reports/{id}/status.
func (h *AdminHTTP) UpdateStatus() http.HandlerFunc {
	type inDTO struct {
		Status string `json:"status"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if uuid.Validate(id) != nil {
			utils.Error(w, http.StatusNotFound, "not found")
			return
		}
		var in inDTO
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		updated, err := h.svc.UpdateStatus(r.Context(), id, models.Status(strings.TrimSpace(in.Status)))
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidStatus):
				utils.Error(w, http.StatusBadRequest, "invalid status value")
			case errors.Is(err, repository.ErrNotFound):
				utils.Error(w, http.StatusNotFound, "not found")
			default:
				h.writeError(w, err, "status update failed")
			}
			return
		}

		uid, _ := utils.GetString(r.Context(), middleware.CtxUserID)
		h.log.Info().Str("id", id).Str("status", string(updated.Status)).Str("by", uid).Msg("report status updated")
		utils.JSON(w, http.StatusOK, updated)
	}
}

// Summary handles GET /api/admin/reports/summary: per-status counters for
// the dashboard.
func (h *AdminHTTP) Summary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := h.reports.CountByStatus(r.Context())
		if err != nil {
			h.writeError(w, err, "summary counters failed")
			return
		}

		out := make(map[string]int, len(models.Statuses)+1)
		total := 0
		for _, s := range models.Statuses {
			out[string(s)] = counts[s]
			total += counts[s]
		}
		out["TOTAL"] = total
		utils.JSON(w, http.StatusOK, out)
	}
}
