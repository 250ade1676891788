/*
Package generic provides the domain-agnostic primitives of the payroll engine.

PURPOSE:
  This package holds the small value types every other package builds on:
  identifiers, calendar dates, times of day, inclusive periods, money
  rounding and the salary component registry. It knows nothing about
  attendance, designations or payslips.

KEY CONCEPTS IN THIS FILE (types.go):
  - Identifiers: type-safe employee/designation/payslip IDs
  - Money: decimal.Decimal values rounded to two places
  - ComponentKind: whether a salary component is an earning or a deduction

DESIGN PRINCIPLES:
  1. Precision: every amount and every hour count is a decimal.Decimal
  2. Type Safety: distinct ID types prevent mixing employees and designations
  3. No I/O: nothing in this package blocks or touches a store

USAGE:
  hours := generic.Round2(generic.MustParseDecimal("2.345"))  // 2.34
  total := generic.Sum([]decimal.Decimal{a, b, c})

SEE ALSO:
  - time.go: Date and TimeOfDay
  - period.go: inclusive date ranges
  - component.go: salary component registry
  - errors.go: sentinel and structured errors
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type DesignationID string
type PayslipID string

// =============================================================================
// MONEY - decimal helpers shared by the calculators
// =============================================================================

// MoneyPlaces is the precision of every stored amount and hour count.
const MoneyPlaces = 2

// Round2 rounds half to even at two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(MoneyPlaces)
}

// Sum adds the values in order.
func Sum(values []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// ClampNonNegative returns zero for negative values.
func ClampNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// COMPONENT KIND
// =============================================================================

type ComponentKind string

const (
	KindEarning   ComponentKind = "earning"
	KindDeduction ComponentKind = "deduction"
)

func (k ComponentKind) Valid() bool {
	return k == KindEarning || k == KindDeduction
}
