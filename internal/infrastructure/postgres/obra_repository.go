package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/obra-pro/internal/domain"
	"github.com/tu-usuario/obra-pro/internal/domain/entity"
	"github.com/tu-usuario/obra-pro/internal/domain/repository"
)

var _ repository.ObraRepository = (*ObraRepo)(nil)

// ObraRepo implementación de ObraRepository (usable con pool o tx).
type ObraRepo struct {
	q Querier
}

// NewObraRepository construye el adaptador. Pasar pool o tx (Querier).
func NewObraRepository(q Querier) *ObraRepo {
	return &ObraRepo{q: q}
}

// Create persiste la obra. El código es único.
func (r *ObraRepo) Create(ctx context.Context, obra *entity.Obra) error {
	if obra.ID == "" {
		obra.ID = uuid.New().String()
	}
	query := `
		INSERT INTO obras (id, code, name, client, advance_recovery_rate, retention_rate, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		obra.ID, obra.Code, obra.Name, obra.Client,
		obra.AdvanceRecoveryRate, obra.RetentionRate,
		obra.Status, obra.CreatedAt, obra.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: código de obra %s ya registrado", domain.ErrConflict, obra.Code)
		}
		return fmt.Errorf("insert obra: %w", err)
	}
	return nil
}

// GetByID obtiene una obra por ID; nil si no existe.
func (r *ObraRepo) GetByID(ctx context.Context, id string) (*entity.Obra, error) {
	query := `
		SELECT id, code, name, client, advance_recovery_rate, retention_rate, status, created_at, updated_at
		FROM obras WHERE id = $1`
	var o entity.Obra
	err := r.q.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.Code, &o.Name, &o.Client,
		&o.AdvanceRecoveryRate, &o.RetentionRate,
		&o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get obra: %w", err)
	}
	return &o, nil
}

// List lista las obras por código.
func (r *ObraRepo) List(ctx context.Context) ([]*entity.Obra, error) {
	query := `
		SELECT id, code, name, client, advance_recovery_rate, retention_rate, status, created_at, updated_at
		FROM obras ORDER BY code`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list obras: %w", err)
	}
	defer rows.Close()
	var list []*entity.Obra
	for rows.Next() {
		var o entity.Obra
		if err := rows.Scan(
			&o.ID, &o.Code, &o.Name, &o.Client,
			&o.AdvanceRecoveryRate, &o.RetentionRate,
			&o.Status, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan obra: %w", err)
		}
		list = append(list, &o)
	}
	return list, rows.Err()
}
