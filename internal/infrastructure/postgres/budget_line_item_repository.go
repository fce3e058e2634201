package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/obra-pro/internal/domain/entity"
	"github.com/tu-usuario/obra-pro/internal/domain/repository"
)

var _ repository.BudgetLineItemRepository = (*BudgetLineItemRepo)(nil)

// BudgetLineItemRepo implementación de BudgetLineItemRepository sobre las
// tablas del registro presupuestal (usable con pool o tx).
type BudgetLineItemRepo struct {
	q Querier
}

// NewBudgetLineItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBudgetLineItemRepository(q Querier) *BudgetLineItemRepo {
	return &BudgetLineItemRepo{q: q}
}

const budgetLineColumns = `id, obra_id, chapter, code, description, unit,
	       quantity, unit_price, executed_pct, executed_qty,
	       COALESCE(proposal_id, ''), COALESCE(proposal_status, ''), active,
	       created_at, updated_at`

// ListEligible devuelve las partidas facturables: activas y sin propuesta, o
// con propuesta adjudicada o completada. El filtro vive en SQL para que el
// borrador nunca vea partidas no facturables.
func (r *BudgetLineItemRepo) ListEligible(ctx context.Context, obraID string) ([]*entity.BudgetLineItem, error) {
	query := `
		SELECT ` + budgetLineColumns + `
		FROM budget_line_items
		WHERE obra_id = $1
		  AND active
		  AND (proposal_id IS NULL OR proposal_status IN ('awarded', 'completed'))
		ORDER BY chapter, code`
	rows, err := r.q.Query(ctx, query, obraID)
	if err != nil {
		return nil, fmt.Errorf("list eligible budget lines: %w", err)
	}
	defer rows.Close()
	return scanBudgetLines(rows)
}

// GetByIDs obtiene partidas por ID (para unir líneas de auto al exportar).
func (r *BudgetLineItemRepo) GetByIDs(ctx context.Context, ids []string) ([]*entity.BudgetLineItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		SELECT ` + budgetLineColumns + `
		FROM budget_line_items WHERE id = ANY($1)`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get budget lines: %w", err)
	}
	defer rows.Close()
	return scanBudgetLines(rows)
}

// WriteBackProgress escribe el avance acumulado de cada partida tras emitir
// un auto. Solo se invoca dentro de la transacción de emisión.
func (r *BudgetLineItemRepo) WriteBackProgress(ctx context.Context, obraID string, updates []repository.ProgressUpdate) error {
	query := `
		UPDATE budget_line_items
		SET executed_pct = $3, executed_qty = $4, updated_at = $5
		WHERE id = $1 AND obra_id = $2`
	now := time.Now()
	for _, u := range updates {
		tag, err := r.q.Exec(ctx, query, u.LineItemID, obraID, u.ExecutedPct, u.ExecutedQty, now)
		if err != nil {
			return fmt.Errorf("write back progress %s: %w", u.LineItemID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("write back progress: partida %s no existe en la obra %s", u.LineItemID, obraID)
		}
	}
	return nil
}

func scanBudgetLines(rows pgx.Rows) ([]*entity.BudgetLineItem, error) {
	var list []*entity.BudgetLineItem
	for rows.Next() {
		var l entity.BudgetLineItem
		if err := rows.Scan(
			&l.ID, &l.ObraID, &l.Chapter, &l.Code, &l.Description, &l.Unit,
			&l.Quantity, &l.UnitPrice, &l.ExecutedPct, &l.ExecutedQty,
			&l.ProposalID, &l.ProposalStatus, &l.Active,
			&l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan budget line: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}
