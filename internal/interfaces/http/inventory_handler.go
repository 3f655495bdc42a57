package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/masapan/erp-inventario/internal/application/dto"
	"github.com/masapan/erp-inventario/internal/application/inventory"
	"github.com/masapan/erp-inventario/internal/domain/entity"
)

// InventoryHandler maneja las peticiones HTTP del ledger de movimientos y
// los resúmenes operativos (protegido).
type InventoryHandler struct {
	movements *inventory.RegisterMovementUseCase
	summary   *inventory.LogisticsSummaryUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(movements *inventory.RegisterMovementUseCase, summary *inventory.LogisticsSummaryUseCase) *InventoryHandler {
	return &InventoryHandler{movements: movements, summary: summary}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "product_id, type, reason, quantity (unidad nativa), price (compras)"
// @Success      201   {object}  dto.MovementDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	actorID := GetActorID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	mov, err := h.movements.RegisterMovement(c.Context(), inventory.MovementInput{
		ProductID:     in.ProductID,
		Type:          entity.MovementType(in.Type),
		Reason:        entity.MovementReason(in.Reason),
		Quantity:      in.Quantity,
		Price:         in.Price,
		ReferenceType: in.ReferenceType,
		ReferenceID:   in.ReferenceID,
		Description:   in.Description,
		ActorID:       actorID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromMovement(mov))
}

// List godoc
// @Summary      Listar movimientos de todos los productos (más reciente primero)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        from    query  string  false  "YYYY-MM-DD"
// @Param        to      query  string  false  "YYYY-MM-DD"
// @Param        limit   query  int     false  "default 20"
// @Param        offset  query  int     false  "default 0"
// @Success      200  {array}   dto.MovementDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) List(c *fiber.Ctx) error {
	from, to, err := parseDateRange(c.Query("from"), c.Query("to"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_DATE", Message: "fecha inválida, formato YYYY-MM-DD"})
	}
	page := dto.PageRequest{Limit: c.QueryInt("limit"), Offset: c.QueryInt("offset")}
	page.DefaultPage()

	var fromPtr, toPtr *time.Time
	if !from.IsZero() {
		fromPtr = &from
	}
	if !to.IsZero() {
		toPtr = &to
	}
	movs, err := h.movements.List(c.Context(), fromPtr, toPtr, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.MovementDTO, 0, len(movs))
	for _, m := range movs {
		out = append(out, dto.FromMovement(m))
	}
	return c.JSON(out)
}

// History godoc
// @Summary      Historial de movimientos de un producto (más reciente primero)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID del producto"
// @Param        limit   query  int     false  "default 20"
// @Param        offset  query  int     false  "default 0"
// @Success      200  {array}   dto.MovementDTO
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id} [get]
func (h *InventoryHandler) History(c *fiber.Ctx) error {
	productID := c.Params("id")
	page := dto.PageRequest{Limit: c.QueryInt("limit"), Offset: c.QueryInt("offset")}
	page.DefaultPage()

	movs, err := h.movements.History(c.Context(), productID, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.MovementDTO, 0, len(movs))
	for _, m := range movs {
		out = append(out, dto.FromMovement(m))
	}
	return c.JSON(out)
}

// DailySummary godoc
// @Summary      Resumen operativo diario
// @Description  Totales por motivo, pivot por producto y métricas de merma
//	para el rango pedido. Sin rango usa el día actual completo.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        from        query  string  false  "YYYY-MM-DD"
// @Param        to          query  string  false  "YYYY-MM-DD"
// @Param        product_id  query  string  false  "filtrar por producto"
// @Success      200  {object}  inventory.LogisticsSummary
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/summary/daily [get]
func (h *InventoryHandler) DailySummary(c *fiber.Ctx) error {
	var in dto.SummaryRequest
	if err := c.QueryParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	from, to, err := parseDateRange(in.From, in.To)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_DATE", Message: "fecha inválida, formato YYYY-MM-DD"})
	}
	res, err := h.summary.Daily(c.Context(), from, to, in.ProductID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// parseDateRange interpreta from/to como días completos en hora local.
// Cadenas vacías devuelven cero: el caso de uso aplica el default de hoy.
func parseDateRange(fromStr, toStr string) (from, to time.Time, err error) {
	const layout = "2006-01-02"
	if fromStr != "" {
		from, err = time.ParseInLocation(layout, fromStr, time.Local)
		if err != nil {
			return
		}
	}
	if toStr != "" {
		to, err = time.ParseInLocation(layout, toStr, time.Local)
		if err != nil {
			return
		}
		to = to.Add(24*time.Hour - time.Nanosecond)
	}
	return
}
