package repository

import (
	"context"

	"github.com/tu-usuario/obra-pro/internal/domain/entity"
)

// CertificateRepository define el puerto de persistencia de autos de medición
// y sus líneas.
type CertificateRepository interface {
	// ListByObra devuelve los autos de la obra ordenados por consecutivo
	// ascendente. El consecutivo, no la fecha, es la clave de orden del ledger.
	ListByObra(ctx context.Context, obraID string) ([]*entity.Certificate, error)
	GetByID(ctx context.Context, id string) (*entity.Certificate, error)
	// Insert persiste un auto nuevo reservando su consecutivo. Una violación
	// del constraint único (obra_id, number) debe traducirse a ErrConflict:
	// es la pérdida de la carrera de numeración entre dos usuarios.
	Insert(ctx context.Context, cert *entity.Certificate) error
	// Update sobreescribe los campos editables y el resumen con semántica
	// compare-and-set: cert.UpdatedAt debe traer el valor leído por el caller
	// (token optimista). Si la fila cambió desde entonces retorna ErrConflict
	// sin modificar nada; si no, escribe y refresca cert.UpdatedAt.
	Update(ctx context.Context, cert *entity.Certificate) error
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error

	GetLineEntries(ctx context.Context, certificateID string) ([]*entity.CertificateLineEntry, error)
	// ReplaceLineEntries borra e inserta el conjunto completo de líneas del
	// auto (semántica delete-then-insert del guardado de borradores).
	ReplaceLineEntries(ctx context.Context, certificateID string, entries []*entity.CertificateLineEntry) error
}
