package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una obra.
const (
	ObraStatusActive = "active"
	ObraStatusClosed = "closed"
)

// Obra representa un contrato de construcción (proyecto) sobre el que se
// emiten autos de medición. El ledger solo consume el ID y las dos tasas
// contractuales; el resto es CRUD de back-office.
type Obra struct {
	ID     string
	Code   string // código interno del contrato (ej: "OB-2026-014")
	Name   string
	Client string
	// AdvanceRecoveryRate y RetentionRate en [0,100]. nil = usar los valores
	// por defecto de configuración (0 y 5 respectivamente).
	AdvanceRecoveryRate *decimal.Decimal
	RetentionRate       *decimal.Decimal
	Status              string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Rates devuelve las tasas contractuales efectivas, aplicando los defaults
// cuando la obra no las define.
func (o *Obra) Rates(defaultAdvance, defaultRetention decimal.Decimal) (advance, retention decimal.Decimal) {
	advance = defaultAdvance
	retention = defaultRetention
	if o.AdvanceRecoveryRate != nil {
		advance = *o.AdvanceRecoveryRate
	}
	if o.RetentionRate != nil {
		retention = *o.RetentionRate
	}
	return advance, retention
}
