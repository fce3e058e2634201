package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/tu-usuario/obra-pro/internal/application/measurement"
	"github.com/tu-usuario/obra-pro/internal/application/usecase"
	infraexport "github.com/tu-usuario/obra-pro/internal/infrastructure/export"
	infrapdf "github.com/tu-usuario/obra-pro/internal/infrastructure/pdf"
	"github.com/tu-usuario/obra-pro/internal/infrastructure/postgres"
	httpRouter "github.com/tu-usuario/obra-pro/internal/interfaces/http"
	"github.com/tu-usuario/obra-pro/pkg/config"
	"github.com/tu-usuario/obra-pro/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	obraRepo := postgres.NewObraRepository(pool)
	budgetRepo := postgres.NewBudgetLineItemRepository(pool)
	certRepo := postgres.NewCertificateRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	obraUC := usecase.NewObraUseCase(obraRepo, budgetRepo)
	lifecycle := measurement.NewLifecycleManager(txRunner, certRepo, budgetRepo, obraRepo, measurement.Defaults{
		AdvanceRecoveryRate: cfg.Billing.DefaultAdvanceRecoveryRate,
		RetentionRate:       cfg.Billing.DefaultRetentionRate,
	})
	exporter := measurement.NewExporter(certRepo, budgetRepo, obraRepo, map[string]measurement.Renderer{
		measurement.FormatPDF: infrapdf.NewCertificateRenderer(),
		measurement.FormatCSV: infraexport.NewCSVRenderer(),
		measurement.FormatXML: infraexport.NewXMLRenderer(),
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "ObraPro API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		ObraUC:    obraUC,
		Lifecycle: lifecycle,
		Exporter:  exporter,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
