package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/masapan/erp-inventario/internal/application/dto"
	"github.com/masapan/erp-inventario/internal/application/production"
)

// ProductionHandler maneja el registro de corridas de producción (protegido).
type ProductionHandler struct {
	uc *production.UseCase
}

// NewProductionHandler construye el handler.
func NewProductionHandler(uc *production.UseCase) *ProductionHandler {
	return &ProductionHandler{uc: uc}
}

// RegisterIntermediate godoc
// @Summary      Registrar producción simple
// @Description  Descuenta gramos del intermedio, suma los productos
//	derivados y descuenta los insumos extra, todo en una transacción.
// @Tags         production
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ProductionIntermediateRequest  true  "intermedio, productos e insumos con cantidades ya resueltas"
// @Success      201   {object}  production.Resumen
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/production/intermediate [post]
func (h *ProductionHandler) RegisterIntermediate(c *fiber.Ctx) error {
	actorID := GetActorID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.ProductionIntermediateRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	input := production.IntermediateInput{
		IntermedioID: in.Intermedio.ID,
		Gramos:       in.Intermedio.Gramos,
		ActorID:      actorID,
	}
	for _, p := range in.Productos {
		input.Productos = append(input.Productos, production.ProductoProducido{
			ID:                        p.ID,
			Cantidad:                  p.Cantidad,
			GramosPorUnidadIntermedio: p.GramosPorUnidadIntermedio,
		})
	}
	for _, i := range in.Insumos {
		input.Insumos = append(input.Insumos, production.InsumoConsumido{
			ID:       i.ID,
			Gramos:   i.Gramos,
			Unidades: i.Unidades,
		})
	}

	res, err := h.uc.RegisterIntermediate(c.Context(), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// RegisterFinal godoc
// @Summary      Registrar producción simulada/final
// @Description  Recorre el árbol de simulación en profundidad: las hojas
//	descuentan stock, los intermedios dejan traza neta cero más su sobrante,
//	y el producto final suma la cantidad deseada.
// @Tags         production
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ProductionFinalRequest  true  "producto final y árbol simulado"
// @Success      201   {object}  production.Resumen
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/production/final [post]
func (h *ProductionHandler) RegisterFinal(c *fiber.Ctx) error {
	actorID := GetActorID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.ProductionFinalRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	res, err := h.uc.RegisterFinal(c.Context(), production.FinalInput{
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		Simulated: toSimulatedNode(in.Simulated),
		ActorID:   actorID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

func toSimulatedNode(d dto.SimulatedNodeDTO) *production.SimulatedNode {
	n := &production.SimulatedNode{
		ID:               d.ID,
		Producto:         d.Producto,
		CantidadGramos:   d.CantidadGramos,
		CantidadUnidades: d.CantidadUnidades,
		EsIntermedio:     d.EsIntermedio,
		Sobrante:         d.Sobrante,
		CantidadDeseada:  d.CantidadDeseada,
	}
	for _, child := range d.Requiere {
		n.Requiere = append(n.Requiere, toSimulatedNode(child))
	}
	return n
}
