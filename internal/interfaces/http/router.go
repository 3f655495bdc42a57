package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/masapan/erp-inventario/internal/application/catalog"
	"github.com/masapan/erp-inventario/internal/application/costing"
	"github.com/masapan/erp-inventario/internal/application/finance"
	"github.com/masapan/erp-inventario/internal/application/inventory"
	"github.com/masapan/erp-inventario/internal/application/production"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC        *catalog.ProductUseCase
	RecipeUC         *catalog.RecipeUseCase
	CostingEngine    *costing.Engine
	RegisterMovement *inventory.RegisterMovementUseCase
	LogisticsSummary *inventory.LogisticsSummaryUseCase
	ProductionUC     *production.UseCase
	FinanceUC        *finance.UseCase
	JWTSecret        string
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Products (protegido)
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", RequireRole(), productHandler.Delete)

	// Recipes + costeo (protegido)
	recipes := protected.Group("/recipes")
	recipeHandler := NewRecipeHandler(deps.RecipeUC, deps.CostingEngine)
	recipes.Get("/:id", recipeHandler.Get)
	recipes.Put("/:id", recipeHandler.Replace)
	recipes.Get("/:id/costing", recipeHandler.Costing)

	// Inventory: ledger y resúmenes (protegido)
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.RegisterMovement, deps.LogisticsSummary)
	invGroup.Post("/movements", inventoryHandler.RegisterMovement)
	invGroup.Get("/movements", inventoryHandler.List)
	invGroup.Get("/movements/:id", inventoryHandler.History)
	invGroup.Get("/summary/daily", inventoryHandler.DailySummary)

	// Production (protegido, rol de producción)
	prodGroup := protected.Group("/production", RequireRole("produccion"))
	productionHandler := NewProductionHandler(deps.ProductionUC)
	prodGroup.Post("/intermediate", productionHandler.RegisterIntermediate)
	prodGroup.Post("/final", productionHandler.RegisterFinal)

	// Order items: edición, pago y cierre logístico (protegido)
	orders := protected.Group("/orders")
	orderHandler := NewOrderHandler(deps.FinanceUC)
	orders.Patch("/items/:id", orderHandler.UpdateItem)
	orders.Post("/items/:id/paid", orderHandler.MarkPaid)
	orders.Post("/items/:id/unpaid", orderHandler.MarkUnpaid)
	orders.Post("/items/:id/close", RequireRole("logistica"), orderHandler.CloseLogistics)
}
