package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tu-usuario/obra-pro/internal/application/measurement"
	"github.com/tu-usuario/obra-pro/internal/domain/repository"
)

// Ensure TxRunner implements measurement.TxRunner.
var _ measurement.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL. El guardado
// de un auto emitido escribe cabecera, líneas y registro presupuestal en la
// misma transacción: todo-o-nada para cualquier lector concurrente.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace
// Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	certRepo repository.CertificateRepository,
	budgetRepo repository.BudgetLineItemRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	certRepo := NewCertificateRepository(tx)
	budgetRepo := NewBudgetLineItemRepository(tx)

	if err := fn(certRepo, budgetRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
