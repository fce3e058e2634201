package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/obra-pro/internal/application/dto"
	"github.com/tu-usuario/obra-pro/internal/domain"
	"github.com/tu-usuario/obra-pro/internal/domain/entity"
	"github.com/tu-usuario/obra-pro/internal/domain/repository"
)

var rateMax = decimal.NewFromInt(100)

// ObraUseCase aplica reglas de negocio para obras (CRUD de back-office).
// El ledger de autos consume la obra solo como fuente de las dos tasas
// contractuales.
type ObraUseCase struct {
	repo       repository.ObraRepository
	budgetRepo repository.BudgetLineItemRepository
}

// NewObraUseCase construye el caso de uso.
func NewObraUseCase(repo repository.ObraRepository, budgetRepo repository.BudgetLineItemRepository) *ObraUseCase {
	return &ObraUseCase{repo: repo, budgetRepo: budgetRepo}
}

// Create crea una obra. Valida las tasas contractuales si vienen definidas.
func (uc *ObraUseCase) Create(ctx context.Context, in dto.CreateObraRequest) (*dto.ObraResponse, error) {
	if in.Code == "" || in.Name == "" {
		return nil, fmt.Errorf("%w: código y nombre requeridos", domain.ErrValidation)
	}
	if r := in.AdvanceRecoveryRate; r != nil && (r.IsNegative() || r.GreaterThan(rateMax)) {
		return nil, fmt.Errorf("%w: tasa de anticipo fuera de [0,100]", domain.ErrValidation)
	}
	if r := in.RetentionRate; r != nil && (r.IsNegative() || r.GreaterThan(rateMax)) {
		return nil, fmt.Errorf("%w: tasa de retención fuera de [0,100]", domain.ErrValidation)
	}
	now := time.Now()
	obra := &entity.Obra{
		ID:                  uuid.New().String(),
		Code:                in.Code,
		Name:                in.Name,
		Client:              in.Client,
		AdvanceRecoveryRate: in.AdvanceRecoveryRate,
		RetentionRate:       in.RetentionRate,
		Status:              entity.ObraStatusActive,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := uc.repo.Create(ctx, obra); err != nil {
		return nil, err
	}
	return toObraResponse(obra), nil
}

// GetByID obtiene una obra.
func (uc *ObraUseCase) GetByID(ctx context.Context, id string) (*dto.ObraResponse, error) {
	obra, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if obra == nil {
		return nil, fmt.Errorf("%w: obra %s", domain.ErrNotFound, id)
	}
	return toObraResponse(obra), nil
}

// List lista las obras.
func (uc *ObraUseCase) List(ctx context.Context) ([]dto.ObraResponse, error) {
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ObraResponse, 0, len(list))
	for _, o := range list {
		items = append(items, *toObraResponse(o))
	}
	return items, nil
}

// ListBudgetLines devuelve las partidas facturables de la obra (vista del
// registro presupuestal para armar el borrador en el cliente).
func (uc *ObraUseCase) ListBudgetLines(ctx context.Context, obraID string) ([]dto.BudgetLineResponse, error) {
	obra, err := uc.repo.GetByID(ctx, obraID)
	if err != nil {
		return nil, err
	}
	if obra == nil {
		return nil, fmt.Errorf("%w: obra %s", domain.ErrNotFound, obraID)
	}
	lines, err := uc.budgetRepo.ListEligible(ctx, obraID)
	if err != nil {
		return nil, fmt.Errorf("%w: registro presupuestal: %v", domain.ErrUnavailable, err)
	}
	items := make([]dto.BudgetLineResponse, 0, len(lines))
	for _, l := range lines {
		items = append(items, dto.BudgetLineResponse{
			ID:          l.ID,
			Chapter:     l.Chapter,
			Code:        l.Code,
			Description: l.Description,
			Unit:        l.Unit,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			TotalPrice:  l.TotalPrice(),
			ExecutedPct: l.ExecutedPct,
			ExecutedQty: l.ExecutedQty,
		})
	}
	return items, nil
}

func toObraResponse(o *entity.Obra) *dto.ObraResponse {
	return &dto.ObraResponse{
		ID:                  o.ID,
		Code:                o.Code,
		Name:                o.Name,
		Client:              o.Client,
		AdvanceRecoveryRate: o.AdvanceRecoveryRate,
		RetentionRate:       o.RetentionRate,
		Status:              o.Status,
	}
}
