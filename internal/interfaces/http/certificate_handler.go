package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/obra-pro/internal/application/dto"
	"github.com/tu-usuario/obra-pro/internal/application/measurement"
	"github.com/tu-usuario/obra-pro/internal/domain"
)

// CertificateHandler maneja las peticiones HTTP de autos de medición.
type CertificateHandler struct {
	lifecycle *measurement.LifecycleManager
	exporter  *measurement.Exporter
}

// NewCertificateHandler construye el handler.
func NewCertificateHandler(lifecycle *measurement.LifecycleManager, exporter *measurement.Exporter) *CertificateHandler {
	return &CertificateHandler{lifecycle: lifecycle, exporter: exporter}
}

// CreateDraft arma un borrador de auto para la obra (sin persistir).
// POST /api/obras/:obraId/certificates/draft
func (h *CertificateHandler) CreateDraft(c *fiber.Ctx) error {
	var in dto.CreateDraftRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	draft, err := h.lifecycle.CreateDraft(c.Context(), c.Params("obraId"), in.Period)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(draft)
}

// EditDraft recarga un borrador persistido como Draft editable.
// GET /api/certificates/:id/draft
func (h *CertificateHandler) EditDraft(c *fiber.Ctx) error {
	draft, err := h.lifecycle.EditDraft(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(draft)
}

// Recalculate devuelve el resumen del borrador sin persistir (vista previa).
// POST /api/certificates/recalculate
func (h *CertificateHandler) Recalculate(c *fiber.Ctx) error {
	var in dto.RecalculateRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	summary, err := h.lifecycle.Recalculate(c.Context(), &in.Draft)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromSummary(summary))
}

// BulkPercentage aplica un porcentaje a todas las líneas de un capítulo
// (recortado a [previo,100] por línea) y devuelve el borrador recalculado.
// POST /api/certificates/bulk-percentage
func (h *CertificateHandler) BulkPercentage(c *fiber.Ctx) error {
	var in dto.BulkPercentageRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Chapter == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "capítulo requerido"})
	}
	h.lifecycle.ApplyBulkPercentage(&in.Draft, in.Chapter, in.Percentage)
	summary, err := h.lifecycle.Recalculate(c.Context(), &in.Draft)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.BulkPercentageResponse{Draft: in.Draft, Summary: dto.FromSummary(summary)})
}

// Save valida y persiste el borrador; con target_status "issued" además
// escribe el avance en el registro presupuestal (todo en una transacción).
// POST /api/obras/:obraId/certificates
func (h *CertificateHandler) Save(c *fiber.Ctx) error {
	var in dto.SaveCertificateRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Draft.ObraID != c.Params("obraId") {
		return respondError(c, fmt.Errorf("%w: el borrador no pertenece a la obra", domain.ErrValidation))
	}
	cert, err := h.lifecycle.Save(c.Context(), &in.Draft, in.TargetStatus)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromCertificate(cert))
}

// List lista los autos de la obra por consecutivo.
// GET /api/obras/:obraId/certificates
func (h *CertificateHandler) List(c *fiber.Ctx) error {
	certs, err := h.lifecycle.List(c.Context(), c.Params("obraId"))
	if err != nil {
		return respondError(c, err)
	}
	items := make([]dto.CertificateResponse, 0, len(certs))
	for _, cert := range certs {
		items = append(items, dto.FromCertificate(cert))
	}
	return c.JSON(items)
}

// GetByID obtiene un auto con sus líneas.
// GET /api/certificates/:id
func (h *CertificateHandler) GetByID(c *fiber.Ctx) error {
	cert, entries, err := h.lifecycle.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.CertificateDetailResponse{
		CertificateResponse: dto.FromCertificate(cert),
		Lines:               dto.FromLineEntries(entries),
	})
}

// Approve avanza un auto emitido a aprobado.
// POST /api/certificates/:id/approve
func (h *CertificateHandler) Approve(c *fiber.Ctx) error {
	cert, err := h.lifecycle.Approve(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromCertificate(cert))
}

// Pay avanza un auto aprobado a pagado.
// POST /api/certificates/:id/pay
func (h *CertificateHandler) Pay(c *fiber.Ctx) error {
	cert, err := h.lifecycle.Pay(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromCertificate(cert))
}

// Delete elimina un borrador.
// DELETE /api/certificates/:id
func (h *CertificateHandler) Delete(c *fiber.Ctx) error {
	if err := h.lifecycle.Delete(c.Context(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Export descarga el auto en el formato pedido (pdf, csv o xml).
// GET /api/certificates/:id/export?format=pdf
func (h *CertificateHandler) Export(c *fiber.Ctx) error {
	format := c.Query("format", measurement.FormatPDF)
	out, contentType, err := h.exporter.Export(c.Context(), c.Params("id"), format)
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="auto-%s.%s"`, c.Params("id"), format))
	return c.Send(out)
}
