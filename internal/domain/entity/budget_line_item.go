package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de la propuesta asociada a una partida (adjudicación de capítulo).
const (
	ProposalStatusPending   = "pending"
	ProposalStatusAwarded   = "awarded"
	ProposalStatusCompleted = "completed"
	ProposalStatusRejected  = "rejected"
)

// BudgetLineItem representa una partida del presupuesto contratado de la obra.
// Es propiedad del registro presupuestal; el gestor de autos solo escribe
// ExecutedPct y ExecutedQty al emitir un auto, nunca el resto de campos.
type BudgetLineItem struct {
	ID          string
	ObraID      string
	Chapter     string // capítulo/zona del contrato (clave de edición masiva)
	Code        string // referencia de la partida (ej: "03.02.010")
	Description string
	Unit        string // m2, m3, ud, kg...
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	// Estado acumulado de ejecución, actualizado solo al emitir un auto.
	ExecutedPct decimal.Decimal // [0,100]
	ExecutedQty decimal.Decimal
	// Partidas nacidas de una propuesta de subcontrata: solo facturables si
	// la propuesta fue adjudicada o completada.
	ProposalID     string // vacío = partida del contrato base
	ProposalStatus string
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TotalPrice devuelve el importe contratado de la partida.
func (b *BudgetLineItem) TotalPrice() decimal.Decimal {
	return b.Quantity.Mul(b.UnitPrice)
}

// IsBillable indica si la partida puede entrar en un auto de medición.
func (b *BudgetLineItem) IsBillable() bool {
	if !b.Active {
		return false
	}
	if b.ProposalID == "" {
		return true
	}
	return b.ProposalStatus == ProposalStatusAwarded || b.ProposalStatus == ProposalStatusCompleted
}
