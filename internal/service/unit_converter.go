package service

import (
	"github.com/janesh-web3/RMS-demo-sub001/internal/model"

	"github.com/shopspring/decimal"
)

var thousand = decimal.NewFromInt(1000)

// Convert translates a quantity between compatible units. Supported pairs are
// kg↔g and liter↔ml (factor 1000); the same unit is an identity. Any other pair
// returns the input unchanged with ok=false — a deliberate pass-through, not an
// error: count-style units (pieces, boxes) are not convertible, and callers may
// intentionally pass identical units. Callers log the pass-through at debug.
func Convert(q decimal.Decimal, from, to string) (decimal.Decimal, bool) {
	if from == to {
		return q, true
	}
	switch {
	case from == model.UnitKg && to == model.UnitG:
		return q.Mul(thousand), true
	case from == model.UnitG && to == model.UnitKg:
		return q.Div(thousand), true
	case from == model.UnitLiter && to == model.UnitMl:
		return q.Mul(thousand), true
	case from == model.UnitMl && to == model.UnitLiter:
		return q.Div(thousand), true
	}
	return q, false
}
