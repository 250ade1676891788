/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the domain
  types (which carry no JSON contract of their own) from what clients see.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Employee:     EmployeeDTO
  Designation:  factory.DesignationJSON (used as-is)
  Attendance:   AttendanceDTO
  Payslip:      PayslipDTO, CreatePayslipRequest, AdjustResponse
  Components:   ComponentDTO

VALIDATION:
  Validation is done in handlers and domain constructors, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/designation.go: DesignationJSON
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fours/payroll-engine/attendance"
	"github.com/fours/payroll-engine/designation"
	"github.com/fours/payroll-engine/generic"
	"github.com/fours/payroll-engine/overtime"
	"github.com/fours/payroll-engine/payslip"
	"github.com/fours/payroll-engine/violations"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO is both the create request and the response.
type EmployeeDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Designation string `json:"designation,omitempty"`
}

func toEmployeeDTO(e designation.Employee) EmployeeDTO {
	return EmployeeDTO{ID: string(e.ID), Name: e.Name, Designation: string(e.DesignationID)}
}

// =============================================================================
// ATTENDANCE
// =============================================================================

// AttendanceDTO is both the create request and the response. The ID is
// generated when omitted. Timestamps are RFC 3339 with their UTC offset.
type AttendanceDTO struct {
	ID        string            `json:"id,omitempty"`
	Date      generic.Date      `json:"attendance_date"`
	Status    attendance.Status `json:"status"`
	InTime    *time.Time        `json:"in_time,omitempty"`
	OutTime   *time.Time        `json:"out_time,omitempty"`
	LateEntry bool              `json:"late_entry"`
	EarlyExit bool              `json:"early_exit"`
	Submitted bool              `json:"submitted"`
}

func toAttendanceDTO(r attendance.Record) AttendanceDTO {
	return AttendanceDTO{
		ID:        r.ID,
		Date:      r.Date,
		Status:    r.Status,
		InTime:    r.InTime,
		OutTime:   r.OutTime,
		LateEntry: r.LateEntry,
		EarlyExit: r.EarlyExit,
		Submitted: r.Submitted,
	}
}

func (d AttendanceDTO) toRecord(employeeID generic.EmployeeID) attendance.Record {
	return attendance.Record{
		ID:         d.ID,
		EmployeeID: employeeID,
		Date:       d.Date,
		Status:     d.Status,
		InTime:     d.InTime,
		OutTime:    d.OutTime,
		LateEntry:  d.LateEntry,
		EarlyExit:  d.EarlyExit,
		Submitted:  d.Submitted,
	}
}

// =============================================================================
// PAYSLIPS
// =============================================================================

// PayslipDTO represents a payslip in API responses.
type PayslipDTO struct {
	ID             string             `json:"id"`
	Employee       string             `json:"employee"`
	StartDate      generic.Date       `json:"start_date"`
	EndDate        generic.Date       `json:"end_date"`
	Status         payslip.Status     `json:"status"`
	Currency       string             `json:"currency,omitempty"`
	Earnings       []payslip.LineItem `json:"earnings"`
	Deductions     []payslip.LineItem `json:"deductions"`
	GrossPay       decimal.Decimal    `json:"gross_pay"`
	TotalDeduction decimal.Decimal    `json:"total_deduction"`
	NetPay         decimal.Decimal    `json:"net_pay"`
	CreatedAt      string             `json:"created_at,omitempty"`
	UpdatedAt      string             `json:"updated_at,omitempty"`
}

func toPayslipDTO(a *payslip.Aggregate) PayslipDTO {
	dto := PayslipDTO{
		ID:             string(a.ID),
		Employee:       string(a.EmployeeID),
		StartDate:      a.Period.Start,
		EndDate:        a.Period.End,
		Status:         a.Status,
		Currency:       a.Currency,
		Earnings:       a.Earnings,
		Deductions:     a.Deductions,
		GrossPay:       a.GrossPay,
		TotalDeduction: a.TotalDeduction,
		NetPay:         a.NetPay,
	}
	if dto.Earnings == nil {
		dto.Earnings = []payslip.LineItem{}
	}
	if dto.Deductions == nil {
		dto.Deductions = []payslip.LineItem{}
	}
	if !a.CreatedAt.IsZero() {
		dto.CreatedAt = a.CreatedAt.Format(time.RFC3339)
	}
	if !a.UpdatedAt.IsZero() {
		dto.UpdatedAt = a.UpdatedAt.Format(time.RFC3339)
	}
	return dto
}

// CreatePayslipRequest creates a draft payslip. The ID is generated when
// omitted.
type CreatePayslipRequest struct {
	ID         string             `json:"id,omitempty"`
	Employee   string             `json:"employee"`
	StartDate  string             `json:"start_date"`
	EndDate    string             `json:"end_date"`
	Currency   string             `json:"currency"`
	Earnings   []payslip.LineItem `json:"earnings"`
	Deductions []payslip.LineItem `json:"deductions"`
}

// AdjustResponse reports the merge outcome with the saved payslip.
type AdjustResponse struct {
	Payslip    PayslipDTO             `json:"payslip"`
	Applied    bool                   `json:"applied"`
	Reason     string                 `json:"reason"`
	Deductions []violations.Deduction `json:"deductions,omitempty"`
	Overtime   *overtime.PeriodResult `json:"overtime,omitempty"`
}

// =============================================================================
// REPORTS
// =============================================================================

// SummaryResponse adds the period bounds dropped by violations.Summary.
type SummaryResponse struct {
	violations.Summary
	StartDate generic.Date `json:"start_date"`
	EndDate   generic.Date `json:"end_date"`
}

// OvertimeResponse adds the period bounds dropped by overtime.PeriodResult.
type OvertimeResponse struct {
	overtime.PeriodResult
	StartDate generic.Date `json:"start_date"`
	EndDate   generic.Date `json:"end_date"`
}

// =============================================================================
// COMPONENTS
// =============================================================================

type ComponentDTO struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
