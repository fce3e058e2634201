package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/obra-pro/internal/domain"
	"github.com/tu-usuario/obra-pro/internal/domain/entity"
	"github.com/tu-usuario/obra-pro/internal/domain/repository"
)

var _ repository.CertificateRepository = (*CertificateRepo)(nil)

// CertificateRepo implementación de CertificateRepository (usable con pool o tx).
//
// Esquema:
//
//	certificates(id PK, obra_id, number, period, status, final, notes,
//	             previous_accumulated, current_accumulated, period_value,
//	             advance_deduction, retention, amount_to_invoice,
//	             created_at, updated_at,
//	             UNIQUE (obra_id, number))
//	certificate_lines(certificate_id FK ON DELETE CASCADE, line_item_id,
//	             previous_pct, current_pct, measured_qty,
//	             previous_value, current_value, period_value,
//	             PRIMARY KEY (certificate_id, line_item_id))
type CertificateRepo struct {
	q Querier
}

// NewCertificateRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCertificateRepository(q Querier) *CertificateRepo {
	return &CertificateRepo{q: q}
}

const certificateColumns = `id, obra_id, number, period, status, final, notes,
	       previous_accumulated, current_accumulated, period_value,
	       advance_deduction, retention, amount_to_invoice,
	       created_at, updated_at`

// ListByObra devuelve los autos de la obra ordenados por consecutivo.
func (r *CertificateRepo) ListByObra(ctx context.Context, obraID string) ([]*entity.Certificate, error) {
	query := `
		SELECT ` + certificateColumns + `
		FROM certificates WHERE obra_id = $1 ORDER BY number`
	rows, err := r.q.Query(ctx, query, obraID)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	defer rows.Close()
	var list []*entity.Certificate
	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, cert)
	}
	return list, rows.Err()
}

// GetByID obtiene un auto por ID; nil si no existe.
func (r *CertificateRepo) GetByID(ctx context.Context, id string) (*entity.Certificate, error) {
	query := `
		SELECT ` + certificateColumns + `
		FROM certificates WHERE id = $1`
	row := r.q.QueryRow(ctx, query, id)
	cert, err := scanCertificate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return cert, nil
}

// Insert persiste un auto nuevo. La violación del constraint único
// (obra_id, number) es la carrera de numeración entre dos usuarios creando
// borrador a la vez: se traduce a ErrConflict para que el perdedor refresque
// y reintente.
func (r *CertificateRepo) Insert(ctx context.Context, cert *entity.Certificate) error {
	cert.UpdatedAt = time.Now()
	if cert.CreatedAt.IsZero() {
		cert.CreatedAt = cert.UpdatedAt
	}
	query := `
		INSERT INTO certificates (` + certificateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		cert.ID, cert.ObraID, cert.Number, cert.Period, cert.Status, cert.Final, cert.Notes,
		cert.PreviousAccumulated, cert.CurrentAccumulated, cert.PeriodValue,
		cert.AdvanceDeduction, cert.Retention, cert.AmountToInvoice,
		cert.CreatedAt, cert.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: consecutivo %d ya asignado en la obra", domain.ErrConflict, cert.Number)
		}
		return fmt.Errorf("insert certificate: %w", err)
	}
	return nil
}

// Update sobreescribe campos editables y resumen con compare-and-set sobre
// updated_at: si la fila cambió desde la lectura del caller no se toca nada
// y se retorna ErrConflict (guardado desfasado de otro colaborador).
func (r *CertificateRepo) Update(ctx context.Context, cert *entity.Certificate) error {
	expected := cert.UpdatedAt
	now := time.Now()
	query := `
		UPDATE certificates
		SET period = $2, status = $3, final = $4, notes = $5,
		    previous_accumulated = $6, current_accumulated = $7, period_value = $8,
		    advance_deduction = $9, retention = $10, amount_to_invoice = $11,
		    updated_at = $12
		WHERE id = $1 AND updated_at = $13`
	tag, err := r.q.Exec(ctx, query,
		cert.ID, cert.Period, cert.Status, cert.Final, cert.Notes,
		cert.PreviousAccumulated, cert.CurrentAccumulated, cert.PeriodValue,
		cert.AdvanceDeduction, cert.Retention, cert.AmountToInvoice,
		now, expected,
	)
	if err != nil {
		return fmt.Errorf("update certificate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: el auto fue modificado por otro usuario", domain.ErrConflict)
	}
	cert.UpdatedAt = now
	return nil
}

// UpdateStatus avanza solo el estado (emitido → aprobado → pagado).
func (r *CertificateRepo) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE certificates SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("update certificate status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: auto %s", domain.ErrNotFound, id)
	}
	return nil
}

// Delete elimina el auto; las líneas caen por el ON DELETE CASCADE.
func (r *CertificateRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM certificates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete certificate: %w", err)
	}
	return nil
}

// GetLineEntries obtiene las líneas persistidas del auto.
func (r *CertificateRepo) GetLineEntries(ctx context.Context, certificateID string) ([]*entity.CertificateLineEntry, error) {
	query := `
		SELECT certificate_id, line_item_id, previous_pct, current_pct, measured_qty,
		       previous_value, current_value, period_value
		FROM certificate_lines WHERE certificate_id = $1 ORDER BY line_item_id`
	rows, err := r.q.Query(ctx, query, certificateID)
	if err != nil {
		return nil, fmt.Errorf("list certificate lines: %w", err)
	}
	defer rows.Close()
	var list []*entity.CertificateLineEntry
	for rows.Next() {
		var e entity.CertificateLineEntry
		if err := rows.Scan(&e.CertificateID, &e.LineItemID, &e.PreviousPct, &e.CurrentPct,
			&e.MeasuredQty, &e.PreviousValue, &e.CurrentValue, &e.PeriodValue); err != nil {
			return nil, fmt.Errorf("scan certificate line: %w", err)
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}

// ReplaceLineEntries reemplaza en bloque las líneas del auto
// (delete-then-insert, semántica del guardado de borradores).
func (r *CertificateRepo) ReplaceLineEntries(ctx context.Context, certificateID string, entries []*entity.CertificateLineEntry) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM certificate_lines WHERE certificate_id = $1`, certificateID); err != nil {
		return fmt.Errorf("clear certificate lines: %w", err)
	}
	query := `
		INSERT INTO certificate_lines (certificate_id, line_item_id, previous_pct, current_pct,
		                               measured_qty, previous_value, current_value, period_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, e := range entries {
		if _, err := r.q.Exec(ctx, query,
			certificateID, e.LineItemID, e.PreviousPct, e.CurrentPct,
			e.MeasuredQty, e.PreviousValue, e.CurrentValue, e.PeriodValue,
		); err != nil {
			return fmt.Errorf("insert certificate line: %w", err)
		}
	}
	return nil
}

func scanCertificate(row pgx.Row) (*entity.Certificate, error) {
	var c entity.Certificate
	err := row.Scan(
		&c.ID, &c.ObraID, &c.Number, &c.Period, &c.Status, &c.Final, &c.Notes,
		&c.PreviousAccumulated, &c.CurrentAccumulated, &c.PeriodValue,
		&c.AdvanceDeduction, &c.Retention, &c.AmountToInvoice,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("scan certificate: %w", err)
	}
	return &c, nil
}
