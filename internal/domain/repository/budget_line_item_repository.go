package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/obra-pro/internal/domain/entity"
)

// ProgressUpdate es la escritura de avance acumulado de una partida tras
// emitir un auto.
type ProgressUpdate struct {
	LineItemID  string
	ExecutedPct decimal.Decimal
	ExecutedQty decimal.Decimal
}

// BudgetLineItemRepository define el puerto hacia el registro presupuestal.
// El ledger solo lo lee para construir borradores y solo escribe el avance
// acumulado al emitir; el resto de la partida es propiedad del registro.
type BudgetLineItemRepository interface {
	// ListEligible devuelve las partidas facturables de la obra: activas y sin
	// propuesta asociada, o con propuesta adjudicada/completada.
	ListEligible(ctx context.Context, obraID string) ([]*entity.BudgetLineItem, error)
	GetByIDs(ctx context.Context, ids []string) ([]*entity.BudgetLineItem, error)
	// WriteBackProgress actualiza el porcentaje y la cantidad ejecutada
	// acumulados de cada partida. Se invoca únicamente dentro de la
	// transacción de emisión de un auto.
	WriteBackProgress(ctx context.Context, obraID string, updates []ProgressUpdate) error
}
