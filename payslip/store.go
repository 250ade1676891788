package payslip

import (
	"context"

	"github.com/fours/payroll-engine/generic"
)

// Filter narrows a payslip listing. Zero fields match everything.
type Filter struct {
	EmployeeID generic.EmployeeID
	Status     *Status
}

// Store persists payslips for the host. The merge itself never calls it.
// GetPayslip returns generic.ErrPayslipNotFound for an unknown id, and the
// returned aggregate always has AdjustmentsApplied unset.
type Store interface {
	SavePayslip(ctx context.Context, a *Aggregate) error
	GetPayslip(ctx context.Context, id generic.PayslipID) (*Aggregate, error)
	ListPayslips(ctx context.Context, f Filter) ([]*Aggregate, error)
}
