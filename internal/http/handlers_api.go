package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"stockflow/internal/core"
	"stockflow/internal/log"
	"stockflow/internal/services"
	"stockflow/internal/views"
)

// parseGranularity defaults to monthly buckets.
func parseGranularity(s string) (core.Granularity, error) {
	if strings.TrimSpace(s) == "" {
		return core.GranularityMonth, nil
	}
	return core.ParseGranularity(s)
}

func (s *Server) writeBadRequest(w http.ResponseWriter, r *http.Request, err error) {
	s.writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": err.Error()})
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.svc.List(r.Context())
	if err != nil {
		s.writeAPIError(w, r, err)
		return
	}
	f, order := views.ParseQuery(r.URL.Query())
	s.writeJSON(w, r, http.StatusOK, views.Apply(records, f, order))
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeAPIError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, rec)
}

func (s *Server) handleSaveRecord(w http.ResponseWriter, r *http.Request) {
	var raw any
	if err := decodeJSON(w, r, &raw); err != nil {
		s.writeAPIError(w, r, err)
		return
	}
	rec, err := s.svc.Save(r.Context(), raw)
	if err != nil {
		s.writeAPIError(w, r, err)
		return
	}
	s.invalidate()

	ctx := r.Context()
	log.FromContext(ctx).InfoContext(ctx, "Record saved", log.NewFields().
		WithOperation(log.OpUpdate).
		WithRecord(rec.ID, string(rec.RecordType), string(rec.Category)).
		ToSlice()...)
	s.writeJSON(w, r, http.StatusOK, rec)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.svc.Delete(r.Context(), id); err != nil {
		s.writeAPIError(w, r, err)
		return
	}
	s.invalidate()

	ctx := r.Context()
	log.FromContext(ctx).InfoContext(ctx, "Record deleted", log.FieldOperation, log.OpDelete, log.FieldRecordID, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var payload services.ImportPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		s.writeAPIError(w, r, err)
		return
	}
	s.finishImport(w, r, func() (services.ImportResult, error) {
		return s.svc.Import(r.Context(), payload)
	})
}

func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	mode := r.URL.Query().Get("mode")
	s.finishImport(w, r, func() (services.ImportResult, error) {
		return s.svc.ImportCSV(r.Context(), body, mode)
	})
}

func (s *Server) finishImport(w http.ResponseWriter, r *http.Request, run func() (services.ImportResult, error)) {
	res, err := run()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeJSON(w, r, http.StatusRequestEntityTooLarge, map[string]string{"error": "request body too large"})
			return
		}
		s.writeAPIError(w, r, err)
		return
	}
	s.invalidate()

	ctx := r.Context()
	log.FromContext(ctx).InfoContext(ctx, "Import finished", log.NewFields().
		WithOperation(log.OpImport).
		WithImport(string(res.Mode), res.Imported, res.Rejected).
		ToSlice()...)
	s.writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="records.csv"`)
	if err := s.svc.ExportCSV(r.Context(), w); err != nil {
		// Headers may already be sent; log only.
		ctx := r.Context()
		log.FromContext(ctx).ErrorContext(ctx, "CSV export failed", log.FieldOperation, log.OpExport, log.FieldError, err)
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.getSummary(r.Context())
	if err != nil {
		s.writeAPIError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, sum)
}

func (s *Server) handleCashflow(w http.ResponseWriter, r *http.Request) {
	g, err := parseGranularity(r.URL.Query().Get("granularity"))
	if err != nil {
		s.writeBadRequest(w, r, err)
		return
	}
	buckets, err := s.getCashflow(r.Context(), g)
	if err != nil {
		s.writeAPIError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, buckets)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	period, err := core.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		s.writeBadRequest(w, r, err)
		return
	}
	buckets, err := s.getCategories(r.Context(), period)
	if err != nil {
		s.writeAPIError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, buckets)
}
