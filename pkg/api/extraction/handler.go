// Package extraction provides the HTTP API over the extraction engine:
// single-document extraction, period classification and stored record
// queries.
package extraction

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"tdnet_xbrl/pkg/core/diag"
	"tdnet_xbrl/pkg/core/extract"
	"tdnet_xbrl/pkg/core/fileio"
	"tdnet_xbrl/pkg/core/filename"
	"tdnet_xbrl/pkg/core/observability"
	"tdnet_xbrl/pkg/core/period"
	"tdnet_xbrl/pkg/core/report"
	"tdnet_xbrl/pkg/core/store"
)

// DefaultMaxBodyBytes bounds uploaded documents when no limit is configured.
const DefaultMaxBodyBytes = 32 << 20

// Handler holds dependencies for the extraction endpoints.
type Handler struct {
	extractor extract.Extractor
	fiscal    *period.FiscalYearCalculator
	records   store.RecordStore
	log       *observability.Logger
	maxBody   int64
}

// NewHandler creates a handler. A nil records store disables persistence and
// the record endpoints answer with empty lists.
func NewHandler(extractor extract.Extractor, cal *period.Calendar, records store.RecordStore, log *observability.Logger, maxBody int64) *Handler {
	if records == nil {
		records = store.NopStore{}
	}
	if log == nil {
		log = observability.Nop()
	}
	if cal == nil {
		cal = period.DefaultCalendar()
	}
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &Handler{
		extractor: extractor,
		fiscal:    period.NewFiscalYearCalculator(cal),
		records:   records,
		log:       log,
		maxBody:   maxBody,
	}
}

// Routes registers the endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.HandleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/extract", h.HandleExtract)
		r.Post("/classify", h.HandleClassify)
		r.Get("/fiscal-year", h.HandleFiscalYear)
		r.Get("/records/{code}", h.HandleRecords)
		r.Get("/records/{code}/report", h.HandleReport)
	})
}

// =============================================================================
// EXTRACTION
// =============================================================================

// HandleExtract handles POST /api/extract?filename=...&statement=bs|pl&save=true
// The body is the raw inline-XBRL document in any charset.
func (h *Handler) HandleExtract(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "document too large", err.Error())
			return
		}
		h.writeError(w, http.StatusBadRequest, "failed to read body", err.Error())
		return
	}
	if len(raw) == 0 {
		h.writeError(w, http.StatusBadRequest, "empty body", "")
		return
	}

	content, err := fileio.DecodeHTML(raw)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "failed to decode document", err.Error())
		return
	}

	q := r.URL.Query()
	name := filepath.Base(q.Get("filename"))
	if name == "." || name == "/" {
		name = ""
	}
	in := extract.Input{Filename: name, Content: content}
	switch filename.StatementKind(strings.ToLower(q.Get("statement"))) {
	case filename.BalanceSheet:
		in.Statement = filename.BalanceSheet
	case filename.IncomeStatement:
		in.Statement = filename.IncomeStatement
	}
	if in.Filename == "" {
		in.ID = "upload"
	}

	rec, err := h.extractor.Extract(r.Context(), in)
	if err != nil {
		if errors.Is(err, extract.ErrUnrecognizedDocument) {
			h.writeError(w, http.StatusUnprocessableEntity, "unrecognized document", err.Error())
			return
		}
		h.log.Warn().Err(err).Str("filename", name).Msg("extraction failed")
		h.writeError(w, http.StatusBadRequest, "extraction failed", err.Error())
		return
	}

	if q.Get("save") == "true" {
		if err := h.records.Save(r.Context(), rec); err != nil {
			h.log.Error().Err(err).Str("document", rec.DocumentID).Msg("failed to save record")
			h.writeError(w, http.StatusInternalServerError, "failed to save record", err.Error())
			return
		}
	}

	h.writeJSON(w, http.StatusOK, rec)
}

// =============================================================================
// PERIOD
// =============================================================================

// ClassifyRequest is the body of POST /api/classify.
type ClassifyRequest struct {
	Text          string `json:"text"`
	CompanyCode   string `json:"company_code,omitempty"`
	PeriodEndDate string `json:"period_end_date,omitempty"`
}

// ClassifyResponse reports the quarter and, when an end date was given, the
// fiscal year.
type ClassifyResponse struct {
	Quarter     period.Quarter    `json:"quarter"`
	FiscalYear  *int              `json:"fiscal_year"`
	Diagnostics []diag.Diagnostic `json:"diagnostics,omitempty"`
}

// HandleClassify handles POST /api/classify
func (h *Handler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBody)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	diags := &diag.List{}
	resp := ClassifyResponse{Quarter: period.ClassifyQuarter(req.Text)}
	if req.PeriodEndDate != "" {
		resp.FiscalYear = h.fiscal.Calculate(req.CompanyCode, req.PeriodEndDate, resp.Quarter, diags)
	}
	resp.Diagnostics = diags.Items()
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleFiscalYear handles GET /api/fiscal-year?code=&end=&quarter=
func (h *Handler) HandleFiscalYear(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	end := q.Get("end")
	if end == "" {
		h.writeError(w, http.StatusBadRequest, "missing end", "end must be a YYYY-MM-DD date")
		return
	}
	quarter := period.ParseQuarter(strings.ToUpper(q.Get("quarter")))

	diags := &diag.List{}
	fy := h.fiscal.Calculate(q.Get("code"), end, quarter, diags)
	h.writeJSON(w, http.StatusOK, ClassifyResponse{
		Quarter:     quarter,
		FiscalYear:  fy,
		Diagnostics: diags.Items(),
	})
}

// =============================================================================
// RECORDS
// =============================================================================

// HandleRecords handles GET /api/records/{code}?quarterly=true
func (h *Handler) HandleRecords(w http.ResponseWriter, r *http.Request) {
	recs, ok := h.companyRecords(w, r)
	if !ok {
		return
	}
	if recs == nil {
		recs = []*extract.Record{}
	}
	h.writeJSON(w, http.StatusOK, recs)
}

// HandleReport handles GET /api/records/{code}/report?format=markdown|html
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	recs, ok := h.companyRecords(w, r)
	if !ok {
		return
	}
	title := chi.URLParam(r, "code") + " financial facts"
	md := report.Markdown(title, recs)

	if strings.EqualFold(r.URL.Query().Get("format"), "html") {
		page, err := report.RenderHTML(title, md)
		if err != nil {
			h.writeError(w, http.StatusInternalServerError, "failed to render report", err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, page)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, md)
}

func (h *Handler) companyRecords(w http.ResponseWriter, r *http.Request) ([]*extract.Record, bool) {
	code := filename.CompanyCode(chi.URLParam(r, "code"))
	if code == "" {
		h.writeError(w, http.StatusBadRequest, "invalid company code", chi.URLParam(r, "code"))
		return nil, false
	}
	recs, err := h.records.ListByCompany(r.Context(), code)
	if err != nil {
		h.log.Error().Err(err).Str("company", code).Msg("failed to list records")
		h.writeError(w, http.StatusInternalServerError, "failed to list records", err.Error())
		return nil, false
	}
	if r.URL.Query().Get("quarterly") == "true" {
		recs = report.ToQuarterly(recs)
	}
	return recs, true
}

// =============================================================================
// HEALTH
// =============================================================================

// HandleHealth handles GET /healthz
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "tdnet-xbrl"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warn().Err(err).Msg("failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{"error": message}
	if detail != "" {
		resp["detail"] = detail
	}
	h.writeJSON(w, status, resp)
}
