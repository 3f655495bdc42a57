package repository

import "github.com/masapan/erp-inventario/internal/domain/entity"

// OrderRepository define el puerto de persistencia de pedidos y sus ítems.
// El motor solo muta los campos de cierre/pago del ítem y el estado del
// pedido; el resto del ciclo de vida del pedido es de otro módulo.
type OrderRepository interface {
	GetItemByID(itemID string) (*entity.OrderItem, error)
	// GetItemForUpdate bloquea la fila del ítem (SELECT ... FOR UPDATE).
	GetItemForUpdate(itemID string) (*entity.OrderItem, error)
	UpdateItem(item *entity.OrderItem) error
	ListItemsByOrder(orderID string) ([]*entity.OrderItem, error)
	GetOrder(orderID string) (*entity.Order, error)
	UpdateOrderStatus(orderID, status string) error
}
