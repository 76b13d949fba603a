/*
exports.go - Payroll report and download endpoints

ENDPOINTS:
  GET /api/payroll/{year}/{month}       Per-user payroll summary (JSON)
  GET /api/payroll/{year}/{month}/pdf   Same report as a PDF table
  GET /api/payroll/{year}/{month}/csv   Same report as CSV
  GET /api/calendar/{year}/{month}/ics  Month of shifts as iCalendar
  GET /healthz                          Liveness plus storage ping

SEE ALSO:
  - payroll/aggregator.go: Report calculation
  - export/: File renderers
*/
package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/warp/shift-engine/calendar"
	"github.com/warp/shift-engine/engine"
	"github.com/warp/shift-engine/export"
	"github.com/warp/shift-engine/payroll"
)

// GetPayroll returns the payroll report for a month.
func (h *Handler) GetPayroll(w http.ResponseWriter, r *http.Request) {
	month, ok := pathMonth(w, r)
	if !ok {
		return
	}
	rep := h.Payroll.Report(h.Engine, month)
	writeJSON(w, http.StatusOK, toPayrollDTO(rep, h.Payroll.BreakMinutes()))
}

// GetPayrollPDF renders the payroll report as a PDF download.
func (h *Handler) GetPayrollPDF(w http.ResponseWriter, r *http.Request) {
	h.writePayrollFile(w, r, "pdf", "application/pdf", export.PayrollPDF)
}

// GetPayrollCSV renders the payroll report as a CSV download.
func (h *Handler) GetPayrollCSV(w http.ResponseWriter, r *http.Request) {
	h.writePayrollFile(w, r, "csv", "text/csv; charset=utf-8", export.PayrollCSV)
}

func (h *Handler) writePayrollFile(w http.ResponseWriter, r *http.Request, ext, contentType string, render func(payroll.Report) ([]byte, error)) {
	month, ok := pathMonth(w, r)
	if !ok {
		return
	}
	body, err := render(h.Payroll.Report(h.Engine, month))
	if err != nil {
		h.writeEngineError(w, r, fmt.Errorf("render payroll %s: %w", ext, err))
		return
	}
	writeFile(w, contentType, fmt.Sprintf("payroll-%s.%s", month, ext), body)
}

// GetMonthICS exports a month of shifts as an iCalendar file.
func (h *Handler) GetMonthICS(w http.ResponseWriter, r *http.Request) {
	month, ok := pathMonth(w, r)
	if !ok {
		return
	}
	var doc string
	h.Engine.View(func(v engine.Reader) {
		doc = export.MonthICS(v, month, h.Now())
	})
	writeFile(w, "text/calendar; charset=utf-8", fmt.Sprintf("shifts-%s.ics", month), []byte(doc))
}

// Healthz reports liveness, pinging storage when configured.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil {
		if err := h.Health.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Storage unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"users":  len(h.Engine.ListUsers()),
		"month":  calendar.CurrentMonth().String(),
	})
}

func writeFile(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
