/*
handlers.go - HTTP API handlers for the payroll adjustment engine

PURPOSE:
  Exposes the engine via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to the domain packages.

ENDPOINTS:
  Components:
    GET    /api/components                        Registered salary components

  Designations:
    GET    /api/designations                      List rate configs
    POST   /api/designations                      Create/replace from JSON
    GET    /api/designations/{id}                 Get one

  Employees:
    GET    /api/employees                         List employees
    POST   /api/employees                         Create/replace employee
    GET    /api/employees/{id}                    Get employee
    GET    /api/employees/{id}/attendance         Attendance in ?start&end
    POST   /api/employees/{id}/attendance         Record attendance
    GET    /api/employees/{id}/attendance-summary Violations in ?start&end[&format]
    GET    /api/employees/{id}/overtime           Overtime in ?start&end

  Payslips:
    GET    /api/payslips                          List (?employee, ?status)
    POST   /api/payslips                          Create draft
    GET    /api/payslips/{id}                     Get payslip
    POST   /api/payslips/{id}/adjust              Merge attendance adjustments
    POST   /api/payslips/{id}/submit              draft -> submitted
    POST   /api/payslips/{id}/cancel              submitted -> cancelled
    GET    /api/payslips/{id}/pdf                 PDF rendering
    GET    /api/payslips/{id}/xlsx                XLSX rendering

ARCHITECTURE:
  Handler holds the repository and the designation factory. Engine
  components (Merger, Aggregator, Reporter) are built per request on top of
  the repository, or on top of the transaction for the adjust flow.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Invalid payslip status transition
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo data loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v3"
	"github.com/google/uuid"

	"github.com/fours/payroll-engine/attendance"
	"github.com/fours/payroll-engine/designation"
	"github.com/fours/payroll-engine/export"
	"github.com/fours/payroll-engine/factory"
	"github.com/fours/payroll-engine/generic"
	"github.com/fours/payroll-engine/overtime"
	"github.com/fours/payroll-engine/payslip"
	"github.com/fours/payroll-engine/store"
	"github.com/fours/payroll-engine/violations"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store              store.Repository
	DesignationFactory *factory.DesignationFactory

	logger *slog.Logger

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(repo store.Repository, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Store:              repo,
		DesignationFactory: factory.NewDesignationFactory(),
		logger:             logger,
	}
}

// =============================================================================
// COMPONENTS
// =============================================================================

// ListComponents returns the registered salary components.
func (h *Handler) ListComponents(w http.ResponseWriter, r *http.Request) {
	components := generic.ListComponents()
	dtos := make([]ComponentDTO, len(components))
	for i, c := range components {
		dtos[i] = ComponentDTO{Name: c.Name, Type: string(c.Kind), Description: c.Description}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// DESIGNATIONS
// =============================================================================

func (h *Handler) ListDesignations(w http.ResponseWriter, r *http.Request) {
	configs, err := h.Store.ListDesignations(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list designations", err)
		return
	}

	dtos := make([]factory.DesignationJSON, len(configs))
	for i, c := range configs {
		dtos[i] = h.DesignationFactory.ToJSON(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetDesignation(w http.ResponseWriter, r *http.Request) {
	id := generic.DesignationID(chi.URLParam(r, "id"))

	cfg, err := h.Store.GetDesignationRates(r.Context(), id)
	if err != nil {
		h.fail(w, r, "Failed to get designation", err)
		return
	}
	writeJSON(w, http.StatusOK, h.DesignationFactory.ToJSON(cfg))
}

// CreateDesignation validates the JSON configuration and stores it.
func (h *Handler) CreateDesignation(w http.ResponseWriter, r *http.Request) {
	var req factory.DesignationJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	cfg, err := h.DesignationFactory.FromJSON(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid designation", err)
		return
	}
	if err := h.Store.SaveDesignation(r.Context(), cfg); err != nil {
		h.fail(w, r, "Failed to save designation", err)
		return
	}
	writeJSON(w, http.StatusCreated, h.DesignationFactory.ToJSON(cfg))
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.GetEmployee(r.Context(), generic.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, r, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// CreateEmployee creates or replaces an employee. A designation, when given,
// must exist.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	emp := designation.Employee{
		ID:            generic.EmployeeID(req.ID),
		Name:          req.Name,
		DesignationID: generic.DesignationID(req.Designation),
	}
	if emp.HasDesignation() {
		if _, err := h.Store.GetDesignationRates(r.Context(), emp.DesignationID); err != nil {
			h.fail(w, r, "Unknown designation", err)
			return
		}
	}

	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		h.fail(w, r, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// =============================================================================
// ATTENDANCE
// =============================================================================

// CreateAttendance records one day of attendance for an employee.
func (h *Handler) CreateAttendance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	employeeID := generic.EmployeeID(chi.URLParam(r, "id"))

	var req AttendanceDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Date.IsZero() {
		writeError(w, http.StatusBadRequest, "attendance_date is required", nil)
		return
	}
	if req.Status == attendance.StatusUnknown {
		writeError(w, http.StatusBadRequest, "status is required", nil)
		return
	}
	if _, err := h.Store.GetEmployee(ctx, employeeID); err != nil {
		h.fail(w, r, "Failed to get employee", err)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	rec := req.toRecord(employeeID)
	if err := h.Store.SaveAttendance(ctx, rec); err != nil {
		h.fail(w, r, "Failed to record attendance", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAttendanceDTO(rec))
}

// ListAttendance returns every record of the employee in the period.
func (h *Handler) ListAttendance(w http.ResponseWriter, r *http.Request) {
	period, ok := periodParam(w, r)
	if !ok {
		return
	}

	records, err := h.Store.QueryAttendance(r.Context(), attendance.Query{
		EmployeeID: generic.EmployeeID(chi.URLParam(r, "id")),
		Period:     period,
	})
	if err != nil {
		h.fail(w, r, "Failed to query attendance", err)
		return
	}

	dtos := make([]AttendanceDTO, len(records))
	for i, rec := range records {
		dtos[i] = toAttendanceDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// REPORTS
// =============================================================================

// GetAttendanceSummary returns the violation summary as JSON, or as an XLSX
// or PDF attachment with ?format=.
func (h *Handler) GetAttendanceSummary(w http.ResponseWriter, r *http.Request) {
	period, ok := periodParam(w, r)
	if !ok {
		return
	}
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid format", err)
		return
	}

	reporter := violations.NewReporter(h.Store, violations.NewCounter(h.Store))
	summary, err := reporter.Summary(r.Context(), generic.EmployeeID(chi.URLParam(r, "id")), period)
	if err != nil {
		h.fail(w, r, "Failed to build attendance summary", err)
		return
	}

	var doc []byte
	switch format {
	case export.FormatJSON:
		writeJSON(w, http.StatusOK, SummaryResponse{Summary: summary, StartDate: period.Start, EndDate: period.End})
		return
	case export.FormatXLSX:
		doc, err = export.SummaryXLSX(summary)
	case export.FormatPDF:
		doc, err = export.SummaryPDF(summary)
	}
	if err != nil {
		h.fail(w, r, "Failed to render attendance summary", err)
		return
	}
	writeDocument(w, format, export.Filename("attendance", string(summary.EmployeeID), period.Start, format), doc)
}

// GetOvertime returns the employee's overtime for the period.
func (h *Handler) GetOvertime(w http.ResponseWriter, r *http.Request) {
	period, ok := periodParam(w, r)
	if !ok {
		return
	}

	aggregator := overtime.NewAggregator(h.Store, h.Store, h.logger)
	result, err := aggregator.Compute(r.Context(), generic.EmployeeID(chi.URLParam(r, "id")), period)
	if err != nil {
		h.fail(w, r, "Failed to compute overtime", err)
		return
	}
	writeJSON(w, http.StatusOK, OvertimeResponse{PeriodResult: result, StartDate: period.Start, EndDate: period.End})
}

// =============================================================================
// PAYSLIPS
// =============================================================================

// CreatePayslip creates a draft payslip for an existing employee.
func (h *Handler) CreatePayslip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreatePayslipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	period, err := generic.ParsePeriod(req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	slip, err := payslip.New(generic.PayslipID(req.ID), generic.EmployeeID(req.Employee), period, req.Currency, req.Earnings, req.Deductions)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payslip", err)
		return
	}
	if _, err := h.Store.GetEmployee(ctx, slip.EmployeeID); err != nil {
		h.fail(w, r, "Failed to get employee", err)
		return
	}
	if err := h.Store.SavePayslip(ctx, slip); err != nil {
		h.fail(w, r, "Failed to save payslip", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPayslipDTO(slip))
}

// ListPayslips supports ?employee= and ?status= filters.
func (h *Handler) ListPayslips(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := payslip.Filter{EmployeeID: generic.EmployeeID(q.Get("employee"))}
	if s := q.Get("status"); s != "" {
		status, err := payslip.ParseStatus(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid status", err)
			return
		}
		filter.Status = &status
	}

	slips, err := h.Store.ListPayslips(r.Context(), filter)
	if err != nil {
		h.fail(w, r, "Failed to list payslips", err)
		return
	}

	dtos := make([]PayslipDTO, len(slips))
	for i, a := range slips {
		dtos[i] = toPayslipDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetPayslip(w http.ResponseWriter, r *http.Request) {
	slip, err := h.Store.GetPayslip(r.Context(), generic.PayslipID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, r, "Failed to get payslip", err)
		return
	}
	writeJSON(w, http.StatusOK, toPayslipDTO(slip))
}

// AdjustPayslip loads the payslip, merges attendance deductions and overtime
// pay into it, and saves it, all in one transaction. A merge that skips the
// payslip is still a 200; the response carries the reason.
func (h *Handler) AdjustPayslip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := generic.PayslipID(chi.URLParam(r, "id"))

	var resp AdjustResponse
	err := h.Store.WithTx(ctx, func(tx store.Tx) error {
		slip, err := tx.GetPayslip(ctx, id)
		if err != nil {
			return err
		}

		out := payslip.NewMerger(tx, tx, h.logger).Merge(ctx, slip)
		if out.Applied {
			if err := tx.SavePayslip(ctx, slip); err != nil {
				return err
			}
		}

		resp = AdjustResponse{
			Payslip:    toPayslipDTO(slip),
			Applied:    out.Applied,
			Reason:     out.Reason,
			Deductions: out.Deductions,
			Overtime:   out.Overtime,
		}
		return nil
	})
	if err != nil {
		h.fail(w, r, "Failed to adjust payslip", err)
		return
	}

	httplog.SetAttrs(ctx, slog.String("payslip", string(id)), slog.String("merge_reason", resp.Reason))
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) SubmitPayslip(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, (*payslip.Aggregate).Submit)
}

func (h *Handler) CancelPayslip(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, (*payslip.Aggregate).Cancel)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, apply func(*payslip.Aggregate) error) {
	ctx := r.Context()
	id := generic.PayslipID(chi.URLParam(r, "id"))

	var saved *payslip.Aggregate
	err := h.Store.WithTx(ctx, func(tx store.Tx) error {
		slip, err := tx.GetPayslip(ctx, id)
		if err != nil {
			return err
		}
		if err := apply(slip); err != nil {
			return err
		}
		saved = slip
		return tx.SavePayslip(ctx, slip)
	})
	if err != nil {
		h.fail(w, r, "Failed to change payslip status", err)
		return
	}
	writeJSON(w, http.StatusOK, toPayslipDTO(saved))
}

// ExportPayslip returns a handler rendering the payslip in format.
func (h *Handler) ExportPayslip(format export.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		slip, err := h.Store.GetPayslip(ctx, generic.PayslipID(chi.URLParam(r, "id")))
		if err != nil {
			h.fail(w, r, "Failed to get payslip", err)
			return
		}

		// The document is still useful without the name.
		var name string
		if emp, err := h.Store.GetEmployee(ctx, slip.EmployeeID); err == nil {
			name = emp.Name
		}

		var doc []byte
		switch format {
		case export.FormatXLSX:
			doc, err = export.PayslipXLSX(slip, name)
		default:
			format = export.FormatPDF
			doc, err = export.PayslipPDF(slip, name)
		}
		if err != nil {
			h.fail(w, r, "Failed to render payslip", err)
			return
		}
		writeDocument(w, format, export.Filename("payslip", string(slip.ID), slip.Period.Start, format), doc)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeDocument(w http.ResponseWriter, format export.Format, filename string, doc []byte) {
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

// fail maps err to a status code and writes it. Server errors are logged.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), message, slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	writeError(w, status, message, err)
}

func statusFor(err error) int {
	var verr *generic.ValidationError
	switch {
	case errors.As(err, &verr), generic.IsClientError(err):
		return http.StatusBadRequest
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, generic.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// periodParam reads ?start and ?end. It writes a 400 and returns false when
// they are missing or malformed.
func periodParam(w http.ResponseWriter, r *http.Request) (generic.Period, bool) {
	q := r.URL.Query()
	period, err := generic.ParsePeriod(q.Get("start"), q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "start and end must be YYYY-MM-DD with start <= end", err)
		return generic.Period{}, false
	}
	return period, true
}
