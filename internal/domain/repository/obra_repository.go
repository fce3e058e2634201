package repository

import (
	"context"

	"github.com/tu-usuario/obra-pro/internal/domain/entity"
)

// ObraRepository define el puerto de persistencia para obras (contratos).
type ObraRepository interface {
	Create(ctx context.Context, obra *entity.Obra) error
	GetByID(ctx context.Context, id string) (*entity.Obra, error)
	List(ctx context.Context) ([]*entity.Obra, error)
}
