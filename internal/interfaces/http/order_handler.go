package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/masapan/erp-inventario/internal/application/dto"
	"github.com/masapan/erp-inventario/internal/application/finance"
)

// OrderHandler maneja los ítems de pedido: edición, pago y cierre logístico
// (protegido). La sincronización con finanzas ocurre dentro del caso de uso.
type OrderHandler struct {
	uc *finance.UseCase
}

// NewOrderHandler construye el handler.
func NewOrderHandler(uc *finance.UseCase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

// UpdateItem godoc
// @Summary      Editar un ítem de pedido
// @Description  Los campos nulos no se tocan. Si el cambio afecta dinero y el
//	ítem está pagado, el ingreso ligado se recalcula en la misma transacción.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID del ítem"
// @Param        body  body  dto.UpdateOrderItemRequest  true  "campos a editar"
// @Success      200   {object}  dto.OrderItemDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/orders/items/{id} [patch]
func (h *OrderHandler) UpdateItem(c *fiber.Ctx) error {
	actorID := GetActorID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.UpdateOrderItemRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	item, err := h.uc.UpdateItem(c.Context(), finance.UpdateItemInput{
		ItemID:      c.Params("id"),
		Quantity:    in.Quantity,
		Price:       in.Price,
		SoldQty:     in.SoldQty,
		PaidAt:      in.PaidAt,
		ClearPaidAt: in.ClearPaidAt,
		DeliveredAt: in.DeliveredAt,
		ActorID:     actorID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromOrderItem(item))
}

// MarkPaid godoc
// @Summary      Marcar ítem como pagado
// @Description  Fija paid_at, upserta el ingreso del ítem y reconcilia el
//	estado del pedido.
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del ítem"
// @Success      200  {object}  dto.OrderItemDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/items/{id}/paid [post]
func (h *OrderHandler) MarkPaid(c *fiber.Ctx) error {
	actorID := GetActorID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	item, err := h.uc.MarkItemPaid(c.Context(), c.Params("id"), actorID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromOrderItem(item))
}

// MarkUnpaid godoc
// @Summary      Revertir el pago de un ítem
// @Description  Limpia paid_at, borra el ingreso ligado al ítem y reconcilia
//	el estado del pedido.
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del ítem"
// @Success      200  {object}  dto.OrderItemDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/items/{id}/unpaid [post]
func (h *OrderHandler) MarkUnpaid(c *fiber.Ctx) error {
	item, err := h.uc.MarkItemUnpaid(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromOrderItem(item))
}

// CloseLogistics godoc
// @Summary      Cierre logístico de un ítem
// @Description  Registra los cortes finales (vendido, dañado, yapa,
//	reemplazo) y genera los movimientos de salida por los deltas positivos.
//	Los cortes son monótonos: reducir un corte ya registrado es conflicto.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID del ítem"
// @Param        body  body  dto.CloseLogisticsRequest true  "cortes finales"
// @Success      200   {object}  dto.OrderItemDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/items/{id}/close [post]
func (h *OrderHandler) CloseLogistics(c *fiber.Ctx) error {
	actorID := GetActorID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CloseLogisticsRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	item, err := h.uc.CloseItemLogistics(c.Context(), finance.CloseInput{
		ItemID:      c.Params("id"),
		SoldQty:     in.SoldQty,
		DamagedQty:  in.DamagedQty,
		GiftQty:     in.GiftQty,
		ReplacedQty: in.ReplacedQty,
		ActorID:     actorID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromOrderItem(item))
}
