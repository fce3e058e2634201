package dto

import "github.com/shopspring/decimal"

// CreateObraRequest body para POST /api/obras.
// Las tasas son opcionales; si van nil se aplican los defaults de
// configuración (anticipo 0%, retención 5%).
type CreateObraRequest struct {
	Code                string           `json:"code"`
	Name                string           `json:"name"`
	Client              string           `json:"client,omitempty"`
	AdvanceRecoveryRate *decimal.Decimal `json:"advance_recovery_rate,omitempty"`
	RetentionRate       *decimal.Decimal `json:"retention_rate,omitempty"`
}

// ObraResponse obra en respuestas.
type ObraResponse struct {
	ID                  string           `json:"id"`
	Code                string           `json:"code"`
	Name                string           `json:"name"`
	Client              string           `json:"client,omitempty"`
	AdvanceRecoveryRate *decimal.Decimal `json:"advance_recovery_rate,omitempty"`
	RetentionRate       *decimal.Decimal `json:"retention_rate,omitempty"`
	Status              string           `json:"status"`
}

// BudgetLineResponse partida facturable en GET /api/obras/:obraId/budget-lines.
type BudgetLineResponse struct {
	ID          string          `json:"id"`
	Chapter     string          `json:"chapter"`
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	ExecutedPct decimal.Decimal `json:"executed_pct"`
	ExecutedQty decimal.Decimal `json:"executed_qty"`
}
