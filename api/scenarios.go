/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with a month of
	attendance and a draft payslip, so the adjust, summary and overtime
	endpoints have something to work on.

AVAILABLE SCENARIOS:

	manager-month: Manager with every kind of violation and evening overtime
	night-shift:   Overtime window crossing midnight, one capped night
	unassigned:    Employee without a designation (merge only marks the slip)

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create designations via factory JSON
 3. Create employees
 4. Record March 2025 attendance
 5. Create a draft payslip with the salary structure

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "manager-month"}

	POST /api/payslips/SLIP-MGR-2025-03/adjust

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: the endpoints the scenarios feed
  - factory/designation.go: designation JSON
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fours/payroll-engine/attendance"
	"github.com/fours/payroll-engine/designation"
	"github.com/fours/payroll-engine/generic"
	"github.com/fours/payroll-engine/payslip"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "manager-month",
		Name:        "Manager Month",
		Description: "Absences, late entries, early exits, missing checkouts and 17:00-22:00 overtime",
	},
	{
		ID:          "night-shift",
		Name:        "Night Shift",
		Description: "22:00-06:00 overtime window crossing midnight, with a capped night",
	},
	{
		ID:          "unassigned",
		Name:        "Unassigned Employee",
		Description: "Employee without a designation; adjustments are skipped",
	},
}

// resetter is implemented by stores that can be wiped for demos.
type resetter interface {
	Reset(ctx context.Context) error
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var load func(context.Context) error
	switch req.ScenarioID {
	case "manager-month":
		load = h.loadManagerMonthScenario
	case "night-shift":
		load = h.loadNightShiftScenario
	case "unassigned":
		load = h.loadUnassignedScenario
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("scenario %q", req.ScenarioID))
		return
	}

	if err := h.reset(ctx); err != nil {
		h.fail(w, r, "Failed to reset database", err)
		return
	}
	if err := load(ctx); err != nil {
		h.fail(w, r, "Failed to load scenario", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = req.ScenarioID
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "Scenario loaded successfully",
		"scenario": req.ScenarioID,
	})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.reset(r.Context()); err != nil {
		h.fail(w, r, "Failed to reset database", err)
		return
	}
	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Database reset successfully"})
}

func (h *Handler) reset(ctx context.Context) error {
	rs, ok := h.Store.(resetter)
	if !ok {
		return fmt.Errorf("store %T cannot be reset", h.Store)
	}
	return rs.Reset(ctx)
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

var scenarioPeriod = generic.MonthPeriod(2025, time.March)

// loadManagerMonthScenario: 2 absences, 1 late, 1 early exit, 1 missing
// checkout, and overtime of 3h on the 10th and 5h (capped) on the 11th.
// Adjusting SLIP-MGR-2025-03 deducts 35000 and adds 64000 of overtime.
func (h *Handler) loadManagerMonthScenario(ctx context.Context) error {
	if err := h.createDesignationFromJSON(ctx, `{
		"designation": "Manager",
		"absent_deduction": 10000,
		"late_deduction": 5000,
		"early_exit_deduction": 5000,
		"no_checkout_deduction": 5000,
		"overtime_start_time": "17:00",
		"overtime_end_time": "22:00",
		"overtime_hourly_rate": 8000
	}`); err != nil {
		return err
	}

	const emp = generic.EmployeeID("EMP-MGR")
	if err := h.Store.SaveEmployee(ctx, designation.Employee{ID: emp, Name: "Ada Manager", DesignationID: "Manager"}); err != nil {
		return err
	}

	records := []attendance.Record{
		{Date: march(3), Status: attendance.StatusAbsent, Submitted: true},
		{Date: march(4), Status: attendance.StatusAbsent, Submitted: true},
		{Date: march(5), Status: attendance.StatusPresent, InTime: at(5, 9, 40), OutTime: at(5, 17, 0), LateEntry: true, Submitted: true},
		{Date: march(6), Status: attendance.StatusPresent, InTime: at(6, 9, 0), OutTime: at(6, 15, 0), EarlyExit: true, Submitted: true},
		{Date: march(7), Status: attendance.StatusHalfDay, InTime: at(7, 9, 0), Submitted: true},
		{Date: march(10), Status: attendance.StatusPresent, InTime: at(10, 9, 0), OutTime: at(10, 20, 0), Submitted: true},
		{Date: march(11), Status: attendance.StatusPresent, InTime: at(11, 9, 0), OutTime: at(11, 23, 30), Submitted: true},
		{Date: march(12), Status: attendance.StatusAbsent, Submitted: false},
		{Date: march(13), Status: attendance.StatusOnLeave, Submitted: true},
	}
	if err := h.saveAttendance(ctx, emp, "MGR", records); err != nil {
		return err
	}

	return h.createDraftPayslip(ctx, "SLIP-MGR-2025-03", emp,
		payslip.LineItem{ComponentName: "Basic Salary", Amount: decimal.NewFromInt(500000)},
		payslip.LineItem{ComponentName: "Housing Allowance", Amount: decimal.NewFromInt(100000)},
	)
}

// loadNightShiftScenario: 22:00-06:00 window. 03:00 the next morning is 5h,
// 07:00 the next morning is capped at 8h, 21:00 the same evening is zero.
func (h *Handler) loadNightShiftScenario(ctx context.Context) error {
	if err := h.createDesignationFromJSON(ctx, `{
		"designation": "Night Supervisor",
		"absent_deduction": 8000,
		"overtime_start_time": "22:00",
		"overtime_end_time": "06:00",
		"overtime_hourly_rate": 6000
	}`); err != nil {
		return err
	}

	const emp = generic.EmployeeID("EMP-NIGHT")
	if err := h.Store.SaveEmployee(ctx, designation.Employee{ID: emp, Name: "Tunde Night", DesignationID: "Night Supervisor"}); err != nil {
		return err
	}

	records := []attendance.Record{
		{Date: march(3), Status: attendance.StatusPresent, InTime: at(3, 14, 0), OutTime: at(4, 3, 0), Submitted: true},
		{Date: march(4), Status: attendance.StatusPresent, InTime: at(4, 14, 0), OutTime: at(5, 7, 0), Submitted: true},
		{Date: march(5), Status: attendance.StatusPresent, InTime: at(5, 14, 0), OutTime: at(5, 21, 0), Submitted: true},
		{Date: march(6), Status: attendance.StatusAbsent, Submitted: true},
	}
	if err := h.saveAttendance(ctx, emp, "NIGHT", records); err != nil {
		return err
	}

	return h.createDraftPayslip(ctx, "SLIP-NIGHT-2025-03", emp,
		payslip.LineItem{ComponentName: "Basic Salary", Amount: decimal.NewFromInt(350000)},
	)
}

// loadUnassignedScenario: no designation, so adjusting the payslip only sets
// the marker.
func (h *Handler) loadUnassignedScenario(ctx context.Context) error {
	const emp = generic.EmployeeID("EMP-NEW")
	if err := h.Store.SaveEmployee(ctx, designation.Employee{ID: emp, Name: "Chidi New"}); err != nil {
		return err
	}

	records := []attendance.Record{
		{Date: march(3), Status: attendance.StatusAbsent, Submitted: true},
		{Date: march(4), Status: attendance.StatusPresent, InTime: at(4, 9, 30), OutTime: at(4, 21, 0), LateEntry: true, Submitted: true},
	}
	if err := h.saveAttendance(ctx, emp, "NEW", records); err != nil {
		return err
	}

	return h.createDraftPayslip(ctx, "SLIP-NEW-2025-03", emp,
		payslip.LineItem{ComponentName: "Basic Salary", Amount: decimal.NewFromInt(200000)},
	)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) createDesignationFromJSON(ctx context.Context, jsonStr string) error {
	cfg, err := h.DesignationFactory.ParseDesignation(jsonStr)
	if err != nil {
		return err
	}
	return h.Store.SaveDesignation(ctx, cfg)
}

func (h *Handler) saveAttendance(ctx context.Context, emp generic.EmployeeID, prefix string, records []attendance.Record) error {
	for _, r := range records {
		r.ID = fmt.Sprintf("ATT-%s-%s", prefix, r.Date)
		r.EmployeeID = emp
		if err := h.Store.SaveAttendance(ctx, r); err != nil {
			return fmt.Errorf("failed to save attendance %s: %w", r.ID, err)
		}
	}
	return nil
}

func (h *Handler) createDraftPayslip(ctx context.Context, id generic.PayslipID, emp generic.EmployeeID, earnings ...payslip.LineItem) error {
	slip, err := payslip.New(id, emp, scenarioPeriod, "NGN", earnings, nil)
	if err != nil {
		return err
	}
	return h.Store.SavePayslip(ctx, slip)
}

func march(day int) generic.Date {
	return generic.NewDate(2025, time.March, day)
}

var scenarioZone = time.FixedZone("WAT", 3600)

// at is a wall-clock time in March 2025, West Africa Time.
func at(day, hour, minute int) *time.Time {
	t := time.Date(2025, time.March, day, hour, minute, 0, 0, scenarioZone)
	return &t
}
