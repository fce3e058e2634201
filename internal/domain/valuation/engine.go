// Package valuation implementa el motor de valoración del período: la
// aritmética pura que convierte porcentajes de avance en importes del auto.
//
// Todo el cálculo usa decimal (shopspring), nunca float binario: con cientos
// de partidas el drift de redondeo sería un error financiero, no cosmético.
// El redondeo a 2 decimales ocurre únicamente al renderizar (PDF/CSV/XML),
// nunca entre etapas del cálculo.
package valuation

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/obra-pro/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// LineInput es la valoración de entrada de una partida: cantidad y precio
// contratados más el porcentaje previo (del último auto no-borrador) y el
// porcentaje actual que el operador está midiendo.
type LineInput struct {
	LineItemID  string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	PreviousPct decimal.Decimal
	CurrentPct  decimal.Decimal
}

// LineResult es el desglose calculado de una partida.
type LineResult struct {
	LineItemID    string
	MeasuredQty   decimal.Decimal
	PreviousValue decimal.Decimal
	CurrentValue  decimal.Decimal
	PeriodValue   decimal.Decimal
}

// Summary son los cinco totales derivados del auto.
type Summary struct {
	PreviousAccumulated decimal.Decimal
	CurrentAccumulated  decimal.Decimal
	PeriodValue         decimal.Decimal
	AdvanceDeduction    decimal.Decimal
	Retention           decimal.Decimal
	AmountToInvoice     decimal.Decimal
}

// Compute calcula el desglose por partida y el resumen del auto.
//
// Por partida: total = cantidad × precio; previo = total × pctPrevio/100;
// actual = total × pctActual/100; período = actual − previo. Los totales del
// auto son la suma de los parciales; sobre el período se aplican la
// recuperación de anticipo y la retención (ambas tasas en [0,100]).
//
// Es determinista y sin efectos: se re-ejecuta completo en cada edición del
// borrador (recálculo en vivo) en lugar de mantener estado incremental.
// Un período negativo por partida (pct actual < previo) se rechaza: esa
// regresión debe impedirla el gestor aguas arriba, nunca recortarse aquí en
// silencio.
func Compute(lines []LineInput, advanceRate, retentionRate decimal.Decimal) (Summary, []LineResult, error) {
	if advanceRate.IsNegative() || advanceRate.GreaterThan(hundred) {
		return Summary{}, nil, fmt.Errorf("%w: tasa de anticipo fuera de [0,100]: %s", domain.ErrValidation, advanceRate)
	}
	if retentionRate.IsNegative() || retentionRate.GreaterThan(hundred) {
		return Summary{}, nil, fmt.Errorf("%w: tasa de retención fuera de [0,100]: %s", domain.ErrValidation, retentionRate)
	}

	var s Summary
	results := make([]LineResult, 0, len(lines))
	for _, in := range lines {
		if in.PreviousPct.IsNegative() || in.PreviousPct.GreaterThan(hundred) {
			return Summary{}, nil, fmt.Errorf("%w: porcentaje previo fuera de [0,100] en partida %s: %s",
				domain.ErrValidation, in.LineItemID, in.PreviousPct)
		}
		if in.CurrentPct.IsNegative() || in.CurrentPct.GreaterThan(hundred) {
			return Summary{}, nil, fmt.Errorf("%w: porcentaje actual fuera de [0,100] en partida %s: %s",
				domain.ErrValidation, in.LineItemID, in.CurrentPct)
		}
		total := in.Quantity.Mul(in.UnitPrice)
		prev := total.Mul(in.PreviousPct).Div(hundred)
		curr := total.Mul(in.CurrentPct).Div(hundred)
		period := curr.Sub(prev)
		if period.IsNegative() {
			return Summary{}, nil, fmt.Errorf("%w: período negativo en partida %s (%s%% → %s%%)",
				domain.ErrValidation, in.LineItemID, in.PreviousPct, in.CurrentPct)
		}
		results = append(results, LineResult{
			LineItemID:    in.LineItemID,
			MeasuredQty:   in.Quantity.Mul(in.CurrentPct).Div(hundred),
			PreviousValue: prev,
			CurrentValue:  curr,
			PeriodValue:   period,
		})
		s.PreviousAccumulated = s.PreviousAccumulated.Add(prev)
		s.CurrentAccumulated = s.CurrentAccumulated.Add(curr)
		s.PeriodValue = s.PeriodValue.Add(period)
	}

	s.AdvanceDeduction = s.PeriodValue.Mul(advanceRate).Div(hundred)
	s.Retention = s.PeriodValue.Mul(retentionRate).Div(hundred)
	s.AmountToInvoice = s.PeriodValue.Sub(s.AdvanceDeduction).Sub(s.Retention)
	return s, results, nil
}
