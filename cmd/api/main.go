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

	"github.com/masapan/erp-inventario/internal/application/catalog"
	"github.com/masapan/erp-inventario/internal/application/costing"
	"github.com/masapan/erp-inventario/internal/application/finance"
	"github.com/masapan/erp-inventario/internal/application/inventory"
	"github.com/masapan/erp-inventario/internal/application/production"
	"github.com/masapan/erp-inventario/internal/infrastructure/postgres"
	httpRouter "github.com/masapan/erp-inventario/internal/interfaces/http"
	"github.com/masapan/erp-inventario/internal/jobs"
	"github.com/masapan/erp-inventario/pkg/config"
	"github.com/masapan/erp-inventario/pkg/logger"
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

	productRepo := postgres.NewProductRepository(pool)
	movementRepo := postgres.NewInventoryMovementRepository(pool)
	recipeRepo := postgres.NewRecipeRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	registerMovementUC := inventory.NewRegisterMovementUseCase(txRunner, movementRepo, log)
	logisticsSummaryUC := inventory.NewLogisticsSummaryUseCase(movementRepo, productRepo)
	costingEngine := costing.NewEngine(productRepo, recipeRepo, log)
	productionUC := production.NewUseCase(txRunner, log)
	financeUC := finance.NewUseCase(txRunner, log)
	productUC := catalog.NewProductUseCase(productRepo, log)
	recipeUC := catalog.NewRecipeUseCase(recipeRepo, productRepo, log)

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
		Title:    "ERP Inventario API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		ProductUC:        productUC,
		RecipeUC:         recipeUC,
		CostingEngine:    costingEngine,
		RegisterMovement: registerMovementUC,
		LogisticsSummary: logisticsSummaryUC,
		ProductionUC:     productionUC,
		FinanceUC:        financeUC,
		JWTSecret:        cfg.JWT.Secret,
	})

	scheduler := jobs.NewScheduler(cfg.Jobs, logisticsSummaryUC, log)
	scheduler.Start()

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
	scheduler.Stop()

	log.Info().Msg("aplicación detenida")
}
