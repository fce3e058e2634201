package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de un auto de medición.
// Las transiciones solo avanzan: draft → issued → approved → paid.
const (
	CertificateStatusDraft    = "draft"
	CertificateStatusIssued   = "issued"
	CertificateStatusApproved = "approved"
	CertificateStatusPaid     = "paid"
)

// statusOrder define el orden total del ciclo de vida.
var statusOrder = map[string]int{
	CertificateStatusDraft:    0,
	CertificateStatusIssued:   1,
	CertificateStatusApproved: 2,
	CertificateStatusPaid:     3,
}

// Certificate representa un auto de medición: el documento periódico que
// certifica el porcentaje ejecutado por partida y deriva el importe a facturar
// tras las deducciones contractuales.
type Certificate struct {
	ID     string
	ObraID string
	// Number es el consecutivo del auto dentro de la obra. Se asigna una sola
	// vez al crear el borrador y es único por obra (constraint en DB).
	Number int
	Period string // mes de referencia, formato "2006-01"
	Status string
	Final  bool // auto final de la obra (liquidación)
	Notes  string
	// Resumen financiero derivado: siempre igual a la suma de sus líneas.
	PreviousAccumulated decimal.Decimal
	CurrentAccumulated  decimal.Decimal
	PeriodValue         decimal.Decimal
	AdvanceDeduction    decimal.Decimal
	Retention           decimal.Decimal
	AmountToInvoice     decimal.Decimal
	CreatedAt           time.Time
	// UpdatedAt hace además de token de concurrencia optimista: un guardado
	// que llega con un UpdatedAt desfasado se rechaza con ErrConflict.
	UpdatedAt time.Time
}

// IsDraft indica si el auto sigue siendo editable.
func (c *Certificate) IsDraft() bool {
	return c.Status == CertificateStatusDraft
}

// CanTransitionTo valida un avance de estado. Nunca se retrocede y solo se
// avanza de un estado al inmediatamente siguiente.
func (c *Certificate) CanTransitionTo(next string) bool {
	from, okFrom := statusOrder[c.Status]
	to, okTo := statusOrder[next]
	if !okFrom || !okTo {
		return false
	}
	return to == from+1
}

// ValidStatus indica si s es un estado conocido del ciclo de vida.
func ValidStatus(s string) bool {
	_, ok := statusOrder[s]
	return ok
}
