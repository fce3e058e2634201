package measurement

import (
	"context"

	"github.com/tu-usuario/obra-pro/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción que incluye el repo
// de autos y el registro presupuestal. El guardado de un auto emitido escribe
// en ambos y debe ser todo-o-nada: ningún lector puede ver el resumen nuevo
// con el registro viejo ni al revés.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		certRepo repository.CertificateRepository,
		budgetRepo repository.BudgetLineItemRepository,
	) error) error
}

// Renderer convierte el documento tabular de exportación a un formato
// concreto (PDF, CSV, XML). Operación de solo lectura.
type Renderer interface {
	Render(doc *TabularDocument) ([]byte, error)
	ContentType() string
}
