package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/obra-pro/internal/application/measurement"
	"github.com/tu-usuario/obra-pro/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ObraUC    *usecase.ObraUseCase
	Lifecycle *measurement.LifecycleManager
	Exporter  *measurement.Exporter
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Obras (contratos) y su registro presupuestal
	obras := api.Group("/obras")
	obraHandler := NewObraHandler(deps.ObraUC)
	obras.Post("/", obraHandler.Create)
	obras.Get("/", obraHandler.List)
	obras.Get("/:obraId", obraHandler.GetByID)
	obras.Get("/:obraId/budget-lines", obraHandler.ListBudgetLines)

	// Autos de medición
	certHandler := NewCertificateHandler(deps.Lifecycle, deps.Exporter)
	obras.Post("/:obraId/certificates/draft", certHandler.CreateDraft)
	obras.Post("/:obraId/certificates", certHandler.Save)
	obras.Get("/:obraId/certificates", certHandler.List)

	certs := api.Group("/certificates")
	certs.Post("/recalculate", certHandler.Recalculate)
	certs.Post("/bulk-percentage", certHandler.BulkPercentage)
	certs.Get("/:id", certHandler.GetByID)
	certs.Get("/:id/draft", certHandler.EditDraft)
	certs.Post("/:id/approve", certHandler.Approve)
	certs.Post("/:id/pay", certHandler.Pay)
	certs.Delete("/:id", certHandler.Delete)
	certs.Get("/:id/export", certHandler.Export)
}
