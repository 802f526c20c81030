package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"stockflow/internal/core"
	"stockflow/internal/log"
)

// handleCreateItemForm adds an item from the inventory form and returns its
// table row.
func (s *Server) handleCreateItemForm(w http.ResponseWriter, r *http.Request) {
	form, err := parseForm(r)
	if err != nil {
		s.writeFormError(w, r, err)
		return
	}
	in, err := ParseItemForm(form)
	if err != nil {
		s.writeFormError(w, r, err)
		return
	}
	rec, err := s.svc.CreateItem(r.Context(), in)
	if err != nil {
		s.writeFormError(w, r, err)
		return
	}
	s.recordChanged(w, r, log.OpCreate, rec, "Item added")
}

func (s *Server) handleCreateExpenseForm(w http.ResponseWriter, r *http.Request) {
	form, err := parseForm(r)
	if err != nil {
		s.writeFormError(w, r, err)
		return
	}
	in, err := ParseExpenseForm(form)
	if err != nil {
		s.writeFormError(w, r, err)
		return
	}
	rec, err := s.svc.CreateExpense(r.Context(), in)
	if err != nil {
		s.writeFormError(w, r, err)
		return
	}
	s.recordChanged(w, r, log.OpCreate, rec, "Expense added")
}

func (s *Server) handleSellForm(w http.ResponseWriter, r *http.Request) {
	form, err := parseForm(r)
	if err != nil {
		s.writeFormError(w, r, err)
		return
	}
	sale, err := ParseSellForm(form)
	if err != nil {
		s.writeFormError(w, r, err)
		return
	}
	rec, err := s.svc.MarkSold(r.Context(), chi.URLParam(r, "id"), sale.Price, sale.Date)
	if err != nil {
		s.writeFormError(w, r, err)
		return
	}
	s.recordChanged(w, r, log.OpUpdate, rec, "Marked as sold")
}

func (s *Server) handleUnsellForm(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.MarkUnsold(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeFormError(w, r, err)
		return
	}
	s.recordChanged(w, r, log.OpUpdate, rec, "Back in stock")
}

// handleDeleteForm answers with an empty body so HTMX removes the row.
func (s *Server) handleDeleteForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.svc.Delete(r.Context(), id); err != nil {
		s.writeFormError(w, r, err)
		return
	}
	s.invalidate()

	ctx := r.Context()
	log.FromContext(ctx).InfoContext(ctx, "Record deleted", log.FieldOperation, log.OpDelete, log.FieldRecordID, id)
	NewHTMXResponse().
		TriggerRecordsChanged(log.OpDelete, id).
		TriggerSuccessNotification("Record deleted").
		Write(w)
}

func (s *Server) recordChanged(w http.ResponseWriter, r *http.Request, op string, rec core.Record, message string) {
	s.invalidate()

	ctx := r.Context()
	log.FromContext(ctx).InfoContext(ctx, "Record saved", log.NewFields().
		WithOperation(op).
		WithRecord(rec.ID, string(rec.RecordType), string(rec.Category)).
		ToSlice()...)

	resp := NewHTMXResponse().
		TriggerRecordsChanged(op, rec.ID).
		TriggerSuccessNotification(message)
	if op == log.OpCreate {
		resp.TriggerFormReset()
	}
	resp.BodyTemplate(s.templates, "record_row", rec).Write(w)
}

func (s *Server) writeFormError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	ctx := r.Context()

	var msg string
	switch {
	case status >= 500:
		log.FromContext(ctx).ErrorContext(ctx, "Form action failed", log.FieldPath, r.URL.Path, log.FieldError, err)
		msg = userMessage(status, err)
	case errors.Is(err, errMalformedBody):
		msg = "Invalid form data"
	case status == http.StatusNotFound:
		msg = "Record not found"
	default:
		msg = describeFormError(err)
	}
	if status < 500 {
		log.FromContext(ctx).DebugContext(ctx, "Form rejected", log.FieldStatusCode, status, log.FieldError, err)
	}
	ErrorResponse(status, msg).Write(w)
}
