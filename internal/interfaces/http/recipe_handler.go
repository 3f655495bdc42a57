package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/masapan/erp-inventario/internal/application/catalog"
	"github.com/masapan/erp-inventario/internal/application/costing"
	"github.com/masapan/erp-inventario/internal/application/dto"
	"github.com/masapan/erp-inventario/internal/domain/entity"
)

// RecipeHandler maneja el editor de recetas y el costeo (protegido).
type RecipeHandler struct {
	uc     *catalog.RecipeUseCase
	engine *costing.Engine
}

// NewRecipeHandler construye el handler.
func NewRecipeHandler(uc *catalog.RecipeUseCase, engine *costing.Engine) *RecipeHandler {
	return &RecipeHandler{uc: uc, engine: engine}
}

// Get godoc
// @Summary      Receta de un producto final
// @Tags         recipes
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del producto final"
// @Success      200  {array}  entity.RecipeLine
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/recipes/{id} [get]
func (h *RecipeHandler) Get(c *fiber.Ctx) error {
	lines, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(lines)
}

// Replace godoc
// @Summary      Reemplazar la receta completa de un producto final
// @Description  Valida las líneas y que el grafo siga acíclico antes de escribir.
// @Tags         recipes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del producto final"
// @Param        body  body  dto.SaveRecipeRequest  true  "líneas nuevas"
// @Success      200   {array}   entity.RecipeLine
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/recipes/{id} [put]
func (h *RecipeHandler) Replace(c *fiber.Ctx) error {
	var in dto.SaveRecipeRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	lines := make([]*entity.RecipeLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, &entity.RecipeLine{
			ProductRawID:      l.ProductRawID,
			Quantity:          l.Quantity,
			IsQuantityInGrams: l.IsQuantityInGrams,
			ItemType:          l.ItemType,
		})
	}
	saved, err := h.uc.Replace(c.Context(), c.Params("id"), lines)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(saved)
}

// Costing godoc
// @Summary      Árbol de costos de un producto
// @Description  Explosión recursiva del BOM con costos por nodo, filas
//	aplanadas, extras y mano de obra.
// @Tags         recipes
// @Security     Bearer
// @Produce      json
// @Param        id              path   string  true   "ID del producto"
// @Param        produced_qty    query  number  false  "cantidad del lote; 0 usa la corrida base"
// @Param        extras_percent  query  int     false  "% extras, solo sobre insumos"
// @Param        labor_percent   query  int     false  "% mano de obra, sobre insumos+extras"
// @Success      200  {object}  costing.Result
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/recipes/{id}/costing [get]
func (h *RecipeHandler) Costing(c *fiber.Ctx) error {
	var in dto.CostingRequest
	if err := c.QueryParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	producedQty := in.ProducedQty
	if producedQty.IsNegative() {
		producedQty = decimal.Zero
	}
	res, err := h.engine.Compute(c.Context(), c.Params("id"), producedQty, in.ExtrasPercent, in.LaborPercent)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}
