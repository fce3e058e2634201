package entity

import "github.com/shopspring/decimal"

// CertificateLineEntry representa la medición de una partida dentro de un auto.
// La identidad es (CertificateID, LineItemID); el conjunto completo de líneas
// se reemplaza en bloque en cada guardado del borrador. Las líneas con
// porcentaje previo y actual a cero no se persisten (autos dispersos).
type CertificateLineEntry struct {
	CertificateID string
	LineItemID    string
	PreviousPct   decimal.Decimal // [0,100], heredado del último auto no-borrador
	CurrentPct    decimal.Decimal // [PreviousPct,100]
	MeasuredQty   decimal.Decimal // cantidad contratada × CurrentPct/100
	PreviousValue decimal.Decimal
	CurrentValue  decimal.Decimal
	PeriodValue   decimal.Decimal
}

// IsEmpty indica si la línea no aporta medición (0% → 0%) y puede podarse.
func (e *CertificateLineEntry) IsEmpty() bool {
	return e.PreviousPct.IsZero() && e.CurrentPct.IsZero()
}
