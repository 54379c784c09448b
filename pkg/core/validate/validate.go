// Package validate reconciles a merged statement record. It rejects
// implausible revenue, enforces the revenue and accounting identities,
// normalizes signs and derives the metrics a filing leaves out.
// Every change lands in the record's findings with before/after values.
package validate

import (
	"errors"
	"fmt"
	"math"

	"airline_financials/pkg/models"

	"go.uber.org/zap"
)

// =============================================================================
// THRESHOLDS
// =============================================================================

// Thresholds are the tunable limits of the engine.
type Thresholds struct {
	// PassengerDominant enables the passenger share check. Cargo-only
	// carriers turn it off.
	PassengerDominant bool    `mapstructure:"passenger_dominant" json:"passenger_dominant"`
	MinPassengerShare float64 `mapstructure:"min_passenger_share" json:"min_passenger_share"` // fraction of total
	MinAnnualRevenue  float64 `mapstructure:"min_annual_revenue" json:"min_annual_revenue"`   // base units

	// RevenueSumTolerance is relative to the extracted total. The absolute
	// floor covers rounding in tables reported in millions.
	RevenueSumTolerance    float64 `mapstructure:"revenue_sum_tolerance" json:"revenue_sum_tolerance"`
	RevenueSumToleranceAbs float64 `mapstructure:"revenue_sum_tolerance_abs" json:"revenue_sum_tolerance_abs"`

	// LiabilityTolerance decides when a total-liabilities value is really
	// total liabilities and equity.
	LiabilityTolerance float64 `mapstructure:"liability_tolerance" json:"liability_tolerance"`
	// BalanceGapTolerance is the relative A = L + E gap left unflagged.
	BalanceGapTolerance float64 `mapstructure:"balance_gap_tolerance" json:"balance_gap_tolerance"`
}

// DefaultThresholds returns the values used for US network carriers.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PassengerDominant:      true,
		MinPassengerShare:      0.70,
		MinAnnualRevenue:       100e6,
		RevenueSumTolerance:    0.005,
		RevenueSumToleranceAbs: 1000,
		LiabilityTolerance:     1000,
		BalanceGapTolerance:    0.01,
	}
}

// Validate checks the thresholds are usable.
func (t Thresholds) Validate() error {
	if t.MinPassengerShare < 0 || t.MinPassengerShare > 1 {
		return fmt.Errorf("min_passenger_share must be within [0,1], got %v", t.MinPassengerShare)
	}
	if t.MinAnnualRevenue < 0 {
		return fmt.Errorf("min_annual_revenue must not be negative, got %v", t.MinAnnualRevenue)
	}
	if t.RevenueSumTolerance < 0 || t.RevenueSumToleranceAbs < 0 {
		return errors.New("revenue sum tolerances must not be negative")
	}
	if t.LiabilityTolerance < 0 || t.BalanceGapTolerance < 0 {
		return errors.New("balance tolerances must not be negative")
	}
	return nil
}

// =============================================================================
// REJECTIONS
// =============================================================================

// Rejection explains why a revenue candidate failed. It matches
// models.ErrValidationRejected with errors.Is.
type Rejection struct {
	Kind     models.FindingKind
	Field    models.FieldID
	Expected float64
	Actual   float64
	Reason   string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Field, r.Reason)
}

func (r *Rejection) Unwrap() error {
	return models.ErrValidationRejected
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine runs the post-merge checks. It holds no per-record state and is
// safe for concurrent use.
type Engine struct {
	th     Thresholds
	logger *zap.Logger
}

// NewEngine builds an engine. A nil logger discards output.
func NewEngine(th Thresholds, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{th: th, logger: logger.Named("validate")}
}

// Thresholds returns the engine's limits.
func (e *Engine) Thresholds() Thresholds {
	return e.th
}

// CheckRevenueCandidate vets a revenue group read from one candidate table.
// The HTML extractor calls it per table so a failure moves on to the next
// one. reported is the total already tagged in XBRL for the same year; when
// present the passenger share is measured against it. A table whose own
// total disagrees with its components is rejected as well.
func (e *Engine) CheckRevenueCandidate(rb models.RevenueBreakdown, reported models.Field) error {
	if err := e.checkPlausibility(rb, reported); err != nil {
		return err
	}
	return e.checkIdentity(rb)
}

func (e *Engine) checkPlausibility(rb models.RevenueBreakdown, reported models.Field) error {
	if rb.Total.Present && rb.Total.Value < e.th.MinAnnualRevenue {
		return &Rejection{
			Kind:     models.FindingMagnitude,
			Field:    models.TotalRevenue,
			Expected: e.th.MinAnnualRevenue,
			Actual:   rb.Total.Value,
			Reason:   fmt.Sprintf("total revenue %.0f below annual minimum %.0f", rb.Total.Value, e.th.MinAnnualRevenue),
		}
	}
	if !e.th.PassengerDominant || !rb.Passenger.Present {
		return nil
	}
	if rb.Passenger.Value < e.th.MinAnnualRevenue {
		return &Rejection{
			Kind:     models.FindingMagnitude,
			Field:    models.PassengerRevenue,
			Expected: e.th.MinAnnualRevenue,
			Actual:   rb.Passenger.Value,
			Reason:   fmt.Sprintf("passenger revenue %.0f below annual minimum %.0f", rb.Passenger.Value, e.th.MinAnnualRevenue),
		}
	}
	total := rb.Total
	if reported.Present && reported.Value > 0 {
		total = reported
	}
	if total.Present && total.Value > 0 {
		share := rb.Passenger.Value / total.Value
		if share < e.th.MinPassengerShare {
			return &Rejection{
				Kind:     models.FindingPlausibility,
				Field:    models.PassengerRevenue,
				Expected: e.th.MinPassengerShare,
				Actual:   share,
				Reason:   fmt.Sprintf("passenger share %.1f%% below %.0f%%", share*100, e.th.MinPassengerShare*100),
			}
		}
	}
	return nil
}

// checkIdentity needs a total and both passenger and other components; a
// table missing one of them is left to the reconciliation step.
func (e *Engine) checkIdentity(rb models.RevenueBreakdown) error {
	if !rb.Total.Present || !rb.Passenger.Present || !rb.Other.Present {
		return nil
	}
	sum := rb.Passenger.Value + valueOr(rb.Cargo) + rb.Other.Value
	if math.Abs(sum-rb.Total.Value) <= e.revenueTolerance(rb.Total.Value) {
		return nil
	}
	return &Rejection{
		Kind:     models.FindingRevenueIdentity,
		Field:    models.TotalRevenue,
		Expected: sum,
		Actual:   rb.Total.Value,
		Reason:   fmt.Sprintf("total revenue %.0f disagrees with passenger + cargo + other %.0f", rb.Total.Value, sum),
	}
}

// Finalize reconciles the record in place and marks it finalized. It
// returns the findings added by this pass.
func (e *Engine) Finalize(r *models.StatementRecord) []models.ValidationFinding {
	start := len(r.Findings)

	e.checkRevenuePlausibility(r)
	e.reconcileRevenue(r)
	e.reconcileBalanceSheet(r)
	e.normalizeCapEx(r)
	e.deriveFinancials(r)
	e.deriveUnitMetrics(r)

	r.Finalize()
	added := append([]models.ValidationFinding(nil), r.Findings[start:]...)
	e.logger.Info("record finalized",
		zap.String("ticker", r.Ticker),
		zap.Int("fiscal_year", r.FiscalYear),
		zap.Int("findings", len(added)))
	return added
}

// -----------------------------------------------------------------------------
// Step 1: plausibility and magnitude
// -----------------------------------------------------------------------------

func (e *Engine) checkRevenuePlausibility(r *models.StatementRecord) {
	// The identity is repaired by reconcileRevenue rather than rejected here.
	err := e.checkPlausibility(r.RevenueBreakdown(), models.Field{})
	var rej *Rejection
	if !errors.As(err, &rej) {
		return
	}

	// HTML values are dropped, XBRL values are only flagged.
	cleared := false
	ids := append([]models.FieldID{models.TotalRevenue}, models.GroupMembers(models.GroupRevenueBreakdown)...)
	for _, id := range ids {
		f := r.Get(id)
		if !f.Present || f.Source != models.SourceHTML {
			continue
		}
		before := f.Value
		f.Clear()
		cleared = true
		r.AddFinding(models.ValidationFinding{
			Kind:     rej.Kind,
			Field:    id,
			Expected: models.Float(rej.Expected),
			Actual:   models.Float(rej.Actual),
			Before:   models.Float(before),
			Action:   models.ActionRejected,
			Message:  rej.Reason,
		})
	}
	if cleared {
		e.logger.Warn("html revenue rejected", zap.String("ticker", r.Ticker),
			zap.Int("fiscal_year", r.FiscalYear), zap.Error(err))
		return
	}
	r.AddFinding(models.ValidationFinding{
		Kind:     rej.Kind,
		Field:    rej.Field,
		Expected: models.Float(rej.Expected),
		Actual:   models.Float(rej.Actual),
		Action:   models.ActionFlagged,
		Message:  rej.Reason,
	})
}

// -----------------------------------------------------------------------------
// Step 2: revenue identity
// -----------------------------------------------------------------------------

func (e *Engine) reconcileRevenue(r *models.StatementRecord) {
	in := &r.Income
	if !in.PassengerRevenue.Present {
		return
	}
	pax := in.PassengerRevenue.Value
	cargo := valueOr(in.CargoRevenue)

	switch {
	case !in.TotalRevenue.Present:
		sum := pax + cargo + valueOr(in.OtherRevenue)
		r.Correct(models.TotalRevenue, sum, models.ValidationFinding{
			Kind:    models.FindingDerivation,
			Action:  models.ActionDerived,
			Message: "total revenue = passenger + cargo + other",
		})

	case in.OtherRevenue.Present:
		total := in.TotalRevenue.Value
		sum := pax + cargo + in.OtherRevenue.Value
		if math.Abs(sum-total) <= e.revenueTolerance(total) {
			return
		}
		e.logger.Warn("revenue components disagree with total",
			zap.String("ticker", r.Ticker), zap.Float64("total", total), zap.Float64("components", sum))
		r.Correct(models.TotalRevenue, sum, models.ValidationFinding{
			Kind:     models.FindingRevenueIdentity,
			Expected: models.Float(sum),
			Actual:   models.Float(total),
			Action:   models.ActionCorrected,
			Message:  "extracted total rejected, re-derived from passenger + cargo + other",
		})

	default:
		total := in.TotalRevenue.Value
		other := total - pax - cargo
		if other >= -e.revenueTolerance(total) {
			r.Correct(models.OtherRevenue, math.Max(other, 0), models.ValidationFinding{
				Kind:    models.FindingDerivation,
				Action:  models.ActionDerived,
				Message: "other revenue = total - passenger - cargo",
			})
			return
		}
		// The row read as total was smaller than its own components, so it
		// was the other-revenue line.
		r.Correct(models.OtherRevenue, total, models.ValidationFinding{
			Kind:     models.FindingMisclassification,
			Expected: models.Float(pax + cargo + total),
			Actual:   models.Float(total),
			Action:   models.ActionCorrected,
			Message:  "extracted total is smaller than passenger + cargo, reclassified as other revenue",
		})
		r.Correct(models.TotalRevenue, pax+cargo+total, models.ValidationFinding{
			Kind:     models.FindingMisclassification,
			Expected: models.Float(pax + cargo + total),
			Actual:   models.Float(total),
			Action:   models.ActionCorrected,
			Message:  "total revenue re-derived after reclassification",
		})
	}
}

func (e *Engine) revenueTolerance(total float64) float64 {
	return math.Max(e.th.RevenueSumToleranceAbs, math.Abs(total)*e.th.RevenueSumTolerance)
}

// -----------------------------------------------------------------------------
// Step 3: accounting identity
// -----------------------------------------------------------------------------

// BalanceGap returns |A - (L + E)| / A. A zero asset total yields zero.
func BalanceGap(assets, liabilities, equity float64) float64 {
	if assets == 0 {
		return 0
	}
	return math.Abs(assets-(liabilities+equity)) / math.Abs(assets)
}

func (e *Engine) reconcileBalanceSheet(r *models.StatementRecord) {
	b := &r.Balance
	if !b.TotalAssets.Present || !b.ShareholderEquity.Present {
		return
	}
	assets, equity := b.TotalAssets.Value, b.ShareholderEquity.Value

	switch {
	case !b.TotalLiabilities.Present:
		r.Correct(models.TotalLiabilities, assets-equity, models.ValidationFinding{
			Kind:    models.FindingDerivation,
			Action:  models.ActionDerived,
			Message: "total liabilities = total assets - equity",
		})

	case math.Abs(b.TotalLiabilities.Value-assets) <= e.th.LiabilityTolerance && equity > 0:
		// Filings tag "liabilities and equity" where total liabilities is missing.
		r.Correct(models.TotalLiabilities, assets-equity, models.ValidationFinding{
			Kind:     models.FindingAccountingIdentity,
			Expected: models.Float(assets - equity),
			Actual:   models.Float(b.TotalLiabilities.Value),
			Action:   models.ActionCorrected,
			Message:  "total liabilities equalled total assets, corrected to assets - equity",
		})

	default:
		gap := BalanceGap(assets, b.TotalLiabilities.Value, equity)
		if gap <= e.th.BalanceGapTolerance {
			return
		}
		r.AddFinding(models.ValidationFinding{
			Kind:     models.FindingAccountingIdentity,
			Field:    models.TotalLiabilities,
			Expected: models.Float(assets),
			Actual:   models.Float(b.TotalLiabilities.Value + equity),
			Action:   models.ActionFlagged,
			Message:  fmt.Sprintf("assets differ from liabilities + equity by %.2f%%", gap*100),
		})
	}
}

// -----------------------------------------------------------------------------
// Step 4: sign normalization
// -----------------------------------------------------------------------------

func (e *Engine) normalizeCapEx(r *models.StatementRecord) {
	f := &r.CashFlow.CapitalExpenditures
	if !f.Present || f.Value >= 0 {
		return
	}
	before := f.Value
	f.Value = -f.Value
	r.AddFinding(models.ValidationFinding{
		Kind:    models.FindingSignNormalization,
		Field:   models.CapitalExpenditures,
		Before:  models.Float(before),
		After:   models.Float(f.Value),
		Action:  models.ActionNormalized,
		Message: "capital expenditures stored as a positive outflow",
	})
}

func valueOr(f models.Field) float64 {
	if !f.Present {
		return 0
	}
	return f.Value
}
