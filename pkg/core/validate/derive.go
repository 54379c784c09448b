package validate

import (
	"math"

	"airline_financials/pkg/models"
)

// =============================================================================
// DERIVED METRICS
// =============================================================================

// CalculateFCF returns operating cash flow less capital spending. CapEx may
// be reported with either sign.
func CalculateFCF(cfo, capex float64) float64 {
	return cfo - math.Abs(capex)
}

// UnitCents converts an amount spread over a mileage base to cents per mile.
func UnitCents(amount, miles float64) float64 {
	if miles == 0 {
		return 0
	}
	return amount / miles * 100
}

// derivation fills target from inputs when target is absent and every
// input is present.
type derivation struct {
	target  models.FieldID
	inputs  []models.FieldID
	compute func(v []float64) float64
	message string
}

func (e *Engine) derive(r *models.StatementRecord, d derivation) bool {
	if r.Get(d.target).Present {
		return false
	}
	vals := make([]float64, len(d.inputs))
	for i, id := range d.inputs {
		f := r.Get(id)
		if !f.Present {
			return false
		}
		vals[i] = f.Value
	}
	r.Correct(d.target, d.compute(vals), models.ValidationFinding{
		Kind:    models.FindingDerivation,
		Action:  models.ActionDerived,
		Message: d.message,
	})
	return true
}

// Step 5. EBITDA prefers a reported EBIT and falls back to operating income,
// so it runs before EBIT is itself derived.
func (e *Engine) deriveFinancials(r *models.StatementRecord) {
	sum := func(v []float64) float64 { return v[0] + v[1] }

	e.derive(r, derivation{
		target:  models.GrossProfit,
		inputs:  []models.FieldID{models.TotalRevenue, models.CostOfRevenue},
		compute: func(v []float64) float64 { return v[0] - v[1] },
		message: "gross profit = revenue - cost of revenue",
	})
	if !e.derive(r, derivation{
		target:  models.EBITDA,
		inputs:  []models.FieldID{models.EBIT, models.DepreciationAmortization},
		compute: sum,
		message: "ebitda = ebit + depreciation and amortization",
	}) {
		e.derive(r, derivation{
			target:  models.EBITDA,
			inputs:  []models.FieldID{models.OperatingIncome, models.DepreciationAmortization},
			compute: sum,
			message: "ebitda = operating income + depreciation and amortization",
		})
	}
	e.derive(r, derivation{
		target:  models.EBIT,
		inputs:  []models.FieldID{models.NetIncome, models.InterestExpense},
		compute: sum,
		message: "ebit = net income + interest expense",
	})
	e.derive(r, derivation{
		target:  models.FreeCashFlow,
		inputs:  []models.FieldID{models.OperatingCashFlow, models.CapitalExpenditures},
		compute: func(v []float64) float64 { return CalculateFCF(v[0], v[1]) },
		message: "free cash flow = operating cash flow - capex",
	})
	e.derive(r, derivation{
		target:  models.PretaxIncome,
		inputs:  []models.FieldID{models.NetIncome, models.IncomeTaxExpense},
		compute: sum,
		message: "pretax income = net income + income tax",
	})
}

// Step 6. Unit metrics are cents per mile, load factor is a percentage.
func (e *Engine) deriveUnitMetrics(r *models.StatementRecord) {
	asm := r.Operating.AvailableSeatMiles
	if !asm.Present || asm.Value <= 0 {
		return
	}
	cents := func(v []float64) float64 { return UnitCents(v[0], v[1]) }

	if rpm := r.Operating.RevenuePassengerMiles; rpm.Present && rpm.Value > 0 {
		e.derive(r, derivation{
			target:  models.LoadFactor,
			inputs:  []models.FieldID{models.RevenuePassengerMiles, models.AvailableSeatMiles},
			compute: func(v []float64) float64 { return v[0] / v[1] * 100 },
			message: "load factor = rpm / asm",
		})
		e.derive(r, derivation{
			target:  models.Yield,
			inputs:  []models.FieldID{models.PassengerRevenue, models.RevenuePassengerMiles},
			compute: cents,
			message: "yield = passenger revenue / rpm",
		})
	}
	e.derive(r, derivation{
		target:  models.RASM,
		inputs:  []models.FieldID{models.TotalRevenue, models.AvailableSeatMiles},
		compute: cents,
		message: "rasm = total revenue / asm",
	})
	e.derive(r, derivation{
		target:  models.PRASM,
		inputs:  []models.FieldID{models.PassengerRevenue, models.AvailableSeatMiles},
		compute: cents,
		message: "prasm = passenger revenue / asm",
	})
	e.derive(r, derivation{
		target:  models.CASM,
		inputs:  []models.FieldID{models.TotalOperatingExpenses, models.AvailableSeatMiles},
		compute: cents,
		message: "casm = operating expenses / asm",
	})
	e.derive(r, derivation{
		target:  models.CASMEx,
		inputs:  []models.FieldID{models.TotalOperatingExpenses, models.AircraftFuel, models.AvailableSeatMiles},
		compute: func(v []float64) float64 { return UnitCents(v[0]-v[1], v[2]) },
		message: "casm-ex = (operating expenses - fuel) / asm",
	})
}
