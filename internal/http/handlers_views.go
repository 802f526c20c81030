package http

import (
	"html/template"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"stockflow/internal/core"
	"stockflow/internal/log"
	"stockflow/internal/views"
)

func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money":    func(d decimal.Decimal) string { return s.money.Format(d) },
		"signed":   func(d decimal.Decimal) string { return s.money.Signed(d) },
		"optional": func(d decimal.NullDecimal) string { return s.money.Optional(d) },
		"profit": func(r core.Record) string {
			p, ok := core.Profit(r)
			if !ok {
				return "-"
			}
			return s.money.Signed(p)
		},
		"tone": func(d decimal.Decimal) string {
			switch d.Sign() {
			case 1:
				return "positive"
			case -1:
				return "negative"
			}
			return "neutral"
		},
		"deref": func(p *string) string {
			if p == nil {
				return ""
			}
			return *p
		},
		"shortID": func(id string) string {
			if len(id) > 8 {
				return id[:8]
			}
			return id
		},
		"currency": func() string { return s.money.Code() },
	}
}

type dashboardData struct {
	Summary     core.Summary
	Granularity core.Granularity
	Period      string
	Periods     []string
	Cashflow    []views.Bar
	Categories  []views.Bar
}

// handleDashboard renders summary cards, the cashflow chart and the
// category breakdown.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	g, err := parseGranularity(q.Get("granularity"))
	if err != nil {
		g = core.GranularityMonth
	}
	period, err := core.ParsePeriod(q.Get("period"))
	if err != nil {
		period = ""
	}

	data := dashboardData{Granularity: g, Period: period}
	if data.Summary, err = s.getSummary(ctx); err != nil {
		s.renderFailure(w, r, err)
		return
	}
	cashflow, err := s.getCashflow(ctx, g)
	if err != nil {
		s.renderFailure(w, r, err)
		return
	}
	categories, err := s.getCategories(ctx, period)
	if err != nil {
		s.renderFailure(w, r, err)
		return
	}
	if data.Periods, err = s.getPeriods(ctx, g); err != nil {
		s.renderFailure(w, r, err)
		return
	}
	data.Cashflow = views.Bars(cashflow)
	data.Categories = views.CategoryBars(categories)

	s.render(w, r, "dashboard_page", data)
}

type inventoryData struct {
	Records    []core.Record
	Filter     views.Filter
	Sort       views.Sort
	Categories []core.Category
	Today      string
}

// handleInventory renders the record table. HTMX requests get only the
// table so filters can swap it in place.
func (s *Server) handleInventory(w http.ResponseWriter, r *http.Request) {
	records, err := s.svc.List(r.Context())
	if err != nil {
		s.renderFailure(w, r, err)
		return
	}
	f, order := views.ParseQuery(r.URL.Query())
	data := inventoryData{
		Records:    views.Apply(records, f, order),
		Filter:     f,
		Sort:       order,
		Categories: core.Categories,
		Today:      time.Now().Format("2006-01-02"),
	}

	name := "inventory_page"
	if r.Header.Get("HX-Request") == "true" {
		name = "records_table"
	}
	s.render(w, r, name, data)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	ctx := r.Context()
	if s.templates == nil {
		log.FromContext(ctx).ErrorContext(ctx, "Templates not loaded")
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Template execution failed",
			"template", name,
			log.FieldOperation, log.OpRender,
			log.FieldError, err)
	}
}

func (s *Server) renderFailure(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	log.FromContext(ctx).ErrorContext(ctx, "Failed to load page data", log.FieldPath, r.URL.Path, log.FieldError, err)
	http.Error(w, "failed to load records", http.StatusInternalServerError)
}
