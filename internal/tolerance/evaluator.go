package tolerance

import (
	"github.com/shopspring/decimal"

	"pathfx/internal/decimalx"
	"pathfx/internal/money"
)

// Evaluator implements spec §4.9: given desired and actual spend plus a
// tolerance window, compute the signed residual tolerance or reject the
// path as outside the window.
type Evaluator struct {
	dm decimalx.DecimalMath
}

// NewEvaluator constructs an Evaluator using the default DecimalMath.
func NewEvaluator() Evaluator { return Evaluator{dm: decimalx.Default()} }

// Result is the outcome of evaluating a materialized spend against the
// caller's desired amount and tolerance window.
type Result struct {
	Residual decimal.Decimal
	Accepted bool
}

func maxScale(vals ...int32) int32 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// Evaluate computes the signed residual (actual-desired)/desired and
// accepts or rejects it against window. desired and actual must share
// currency.
func (e Evaluator) Evaluate(desired, actual money.Money, window Window) (Result, error) {
	dm := e.dm
	if dm == nil {
		dm = decimalx.Default()
	}
	scale := maxScale(desired.Scale(), actual.Scale(), 8) + 4

	diff, err := dm.Sub(actual.Amount(), desired.Amount(), scale)
	if err != nil {
		return Result{}, err
	}
	residual, err := dm.Div(diff, desired.Amount(), scale)
	if err != nil {
		return Result{}, err
	}

	absResidual := residual.Abs()
	cmpActual, err := actual.Cmp(desired)
	if err != nil {
		return Result{}, err
	}

	switch {
	case cmpActual < 0:
		if absResidual.GreaterThan(window.Minimum) {
			return Result{Residual: residual, Accepted: false}, nil
		}
	case cmpActual > 0:
		if absResidual.GreaterThan(window.Maximum) {
			return Result{Residual: residual, Accepted: false}, nil
		}
	}
	return Result{Residual: residual, Accepted: true}, nil
}
