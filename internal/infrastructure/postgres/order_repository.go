package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/masapan/erp-inventario/internal/domain/entity"
	"github.com/masapan/erp-inventario/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

const orderItemColumns = `id, order_id, product_id, quantity, price, sold_qty, damaged_qty, gift_qty, replaced_qty, paid_at, delivered_at`

// OrderRepo implementación del puerto OrderRepository sobre PostgreSQL. El
// motor solo muta los campos de cierre/pago del ítem y el estado del pedido.
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

func scanOrderItem(row pgx.Row) (*entity.OrderItem, error) {
	var i entity.OrderItem
	err := row.Scan(
		&i.ID, &i.OrderID, &i.ProductID, &i.Quantity, &i.Price,
		&i.SoldQty, &i.DamagedQty, &i.GiftQty, &i.ReplacedQty,
		&i.PaidAt, &i.DeliveredAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

// GetItemByID obtiene un ítem de pedido.
func (r *OrderRepo) GetItemByID(itemID string) (*entity.OrderItem, error) {
	i, err := scanOrderItem(r.q.QueryRow(context.Background(),
		`SELECT `+orderItemColumns+` FROM order_items WHERE id = $1`, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order item: %w", err)
	}
	return i, nil
}

// GetItemForUpdate obtiene el ítem bloqueando su fila (SELECT FOR UPDATE).
func (r *OrderRepo) GetItemForUpdate(itemID string) (*entity.OrderItem, error) {
	i, err := scanOrderItem(r.q.QueryRow(context.Background(),
		`SELECT `+orderItemColumns+` FROM order_items WHERE id = $1 FOR UPDATE`, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order item for update: %w", err)
	}
	return i, nil
}

// UpdateItem persiste los campos mutables del ítem.
func (r *OrderRepo) UpdateItem(item *entity.OrderItem) error {
	_, err := r.q.Exec(context.Background(),
		`UPDATE order_items
		 SET quantity = $2, price = $3, sold_qty = $4, damaged_qty = $5,
		     gift_qty = $6, replaced_qty = $7, paid_at = $8, delivered_at = $9
		 WHERE id = $1`,
		item.ID, item.Quantity, item.Price, item.SoldQty, item.DamagedQty,
		item.GiftQty, item.ReplacedQty, item.PaidAt, item.DeliveredAt)
	if err != nil {
		return fmt.Errorf("update order item: %w", err)
	}
	return nil
}

// ListItemsByOrder lista los ítems de un pedido.
func (r *OrderRepo) ListItemsByOrder(orderID string) ([]*entity.OrderItem, error) {
	rows, err := r.q.Query(context.Background(),
		`SELECT `+orderItemColumns+` FROM order_items WHERE order_id = $1 ORDER BY id`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()
	var list []*entity.OrderItem
	for rows.Next() {
		i, err := scanOrderItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		list = append(list, i)
	}
	return list, rows.Err()
}

// GetOrder obtiene la cabecera del pedido.
func (r *OrderRepo) GetOrder(orderID string) (*entity.Order, error) {
	var o entity.Order
	var notes *string
	err := r.q.QueryRow(context.Background(),
		`SELECT id, customer_id, status, date, notes FROM orders WHERE id = $1`,
		orderID).Scan(&o.ID, &o.CustomerID, &o.Status, &o.Date, &notes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if notes != nil {
		o.Notes = *notes
	}
	return &o, nil
}

// UpdateOrderStatus deja el estado del pedido ("pendiente"/"pagado").
func (r *OrderRepo) UpdateOrderStatus(orderID, status string) error {
	_, err := r.q.Exec(context.Background(),
		`UPDATE orders SET status = $2 WHERE id = $1`, orderID, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}
