package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/obra-pro/internal/application/dto"
	"github.com/tu-usuario/obra-pro/internal/application/usecase"
)

// ObraHandler maneja las peticiones HTTP de obras.
type ObraHandler struct {
	uc *usecase.ObraUseCase
}

// NewObraHandler construye el handler.
func NewObraHandler(uc *usecase.ObraUseCase) *ObraHandler {
	return &ObraHandler{uc: uc}
}

// Create crea una obra.
// POST /api/obras
func (h *ObraHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateObraRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	obra, err := h.uc.Create(c.Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(obra)
}

// List lista las obras.
// GET /api/obras
func (h *ObraHandler) List(c *fiber.Ctx) error {
	items, err := h.uc.List(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

// GetByID obtiene una obra.
// GET /api/obras/:obraId
func (h *ObraHandler) GetByID(c *fiber.Ctx) error {
	obra, err := h.uc.GetByID(c.Context(), c.Params("obraId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(obra)
}

// ListBudgetLines devuelve las partidas facturables de la obra.
// GET /api/obras/:obraId/budget-lines
func (h *ObraHandler) ListBudgetLines(c *fiber.Ctx) error {
	items, err := h.uc.ListBudgetLines(c.Context(), c.Params("obraId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}
