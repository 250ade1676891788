package violations

import (
	"github.com/shopspring/decimal"

	"github.com/fours/payroll-engine/designation"
	"github.com/fours/payroll-engine/generic"
)

// Deduction components, one per category.
var (
	ComponentAbsent = generic.SalaryComponent{
		Name:        "Absent Deduction",
		Kind:        generic.KindDeduction,
		Description: "Per-day deduction for absences",
	}
	ComponentLate = generic.SalaryComponent{
		Name:        "Late Deduction",
		Kind:        generic.KindDeduction,
		Description: "Per-occurrence deduction for late arrival",
	}
	ComponentEarlyExit = generic.SalaryComponent{
		Name:        "Early Exit Deduction",
		Kind:        generic.KindDeduction,
		Description: "Per-occurrence deduction for leaving early",
	}
	ComponentNoCheckout = generic.SalaryComponent{
		Name:        "No Checkout Deduction",
		Kind:        generic.KindDeduction,
		Description: "Per-occurrence deduction for a worked day without checkout",
	}
)

func init() {
	for _, c := range Categories {
		generic.RegisterComponent(c.Component())
	}
}

// Component returns the payslip deduction component for c.
func (c Category) Component() generic.SalaryComponent {
	switch c {
	case CategoryAbsent:
		return ComponentAbsent
	case CategoryLate:
		return ComponentLate
	case CategoryEarlyExit:
		return ComponentEarlyExit
	case CategoryNoCheckout:
		return ComponentNoCheckout
	default:
		return generic.SalaryComponent{}
	}
}

// Rate returns the designation rate for c. Unset rates are zero.
func (c Category) Rate(rates designation.RateConfig) decimal.Decimal {
	switch c {
	case CategoryAbsent:
		return rates.AbsentRate
	case CategoryLate:
		return rates.LateRate
	case CategoryEarlyExit:
		return rates.EarlyExitRate
	case CategoryNoCheckout:
		return rates.NoCheckoutRate
	default:
		return decimal.Zero
	}
}

// =============================================================================
// DEDUCTIONS
// =============================================================================

// Deduction prices one category.
type Deduction struct {
	Category  Category        `json:"category"`
	Component string          `json:"component"`
	Count     int             `json:"count"`
	Rate      decimal.Decimal `json:"rate"`
	Amount    decimal.Decimal `json:"amount"`
}

// Deductions prices every category of t, in Categories order.
func Deductions(t Tally, rates designation.RateConfig) []Deduction {
	result := make([]Deduction, 0, len(Categories))
	for _, c := range Categories {
		count := t.Get(c).Count
		rate := c.Rate(rates)
		result = append(result, Deduction{
			Category:  c,
			Component: c.Component().Name,
			Count:     count,
			Rate:      rate,
			Amount:    rate.Mul(decimal.NewFromInt(int64(count))),
		})
	}
	return result
}

// Mergeable keeps the deductions with a positive amount.
func Mergeable(ds []Deduction) []Deduction {
	var result []Deduction
	for _, d := range ds {
		if d.Amount.IsPositive() {
			result = append(result, d)
		}
	}
	return result
}

// Total sums the amounts of ds.
func Total(ds []Deduction) decimal.Decimal {
	total := decimal.Zero
	for _, d := range ds {
		total = total.Add(d.Amount)
	}
	return total
}
