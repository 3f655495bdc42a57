package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/masapan/erp-inventario/internal/domain/entity"
	"github.com/masapan/erp-inventario/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

const movementColumns = `id, operation_id, product_id, type, reason, quantity, description, price, reference_type, reference_id, created_by, date, created_at`

// InventoryMovementRepo implementación sobre PostgreSQL (usable con pool o
// tx). El ledger es append-only: aquí no hay UPDATE ni DELETE.
type InventoryMovementRepo struct {
	q Querier
}

// NewInventoryMovementRepository construye el adaptador. Pasar pool o tx
// (Querier).
func NewInventoryMovementRepository(q Querier) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q}
}

// Create persiste un movimiento del ledger.
func (r *InventoryMovementRepo) Create(movement *entity.InventoryMovement) error {
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now()
	}
	if movement.Date.IsZero() {
		movement.Date = movement.CreatedAt
	}
	query := `
		INSERT INTO inventory_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(context.Background(), query,
		movement.ID, nullStr(movement.OperationID), movement.ProductID,
		movement.Type, movement.Reason, movement.Quantity,
		nullStr(movement.Description), movement.Price,
		nullStr(movement.ReferenceType), nullStr(movement.ReferenceID),
		nullStr(movement.CreatedBy), movement.Date, movement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create inventory movement: %w", err)
	}
	return nil
}

func nullStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func scanMovement(row pgx.Row) (*entity.InventoryMovement, error) {
	var m entity.InventoryMovement
	var opID, desc, refType, refID, createdBy *string
	err := row.Scan(
		&m.ID, &opID, &m.ProductID, &m.Type, &m.Reason, &m.Quantity,
		&desc, &m.Price, &refType, &refID, &createdBy, &m.Date, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if opID != nil {
		m.OperationID = *opID
	}
	if desc != nil {
		m.Description = *desc
	}
	if refType != nil {
		m.ReferenceType = *refType
	}
	if refID != nil {
		m.ReferenceID = *refID
	}
	if createdBy != nil {
		m.CreatedBy = *createdBy
	}
	return &m, nil
}

// GetByID obtiene un movimiento por ID.
func (r *InventoryMovementRepo) GetByID(id string) (*entity.InventoryMovement, error) {
	m, err := scanMovement(r.q.QueryRow(context.Background(),
		`SELECT `+movementColumns+` FROM inventory_movements WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// ListByProduct lista el historial de un producto, más reciente primero.
func (r *InventoryMovementRepo) ListByProduct(productID string, limit, offset int) ([]*entity.InventoryMovement, error) {
	rows, err := r.q.Query(context.Background(),
		`SELECT `+movementColumns+` FROM inventory_movements
		 WHERE product_id = $1 ORDER BY date DESC, created_at DESC LIMIT $2 OFFSET $3`,
		productID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return collectMovements(rows)
}

// ListAll lista movimientos en un rango opcional de fechas.
func (r *InventoryMovementRepo) ListAll(from, to *time.Time, limit, offset int) ([]*entity.InventoryMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM inventory_movements WHERE 1=1`
	args := []any{}
	pos := 1
	if from != nil {
		query += fmt.Sprintf(" AND date >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND date <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY date DESC, created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list all movements: %w", err)
	}
	return collectMovements(rows)
}

func collectMovements(rows pgx.Rows) ([]*entity.InventoryMovement, error) {
	defer rows.Close()
	var list []*entity.InventoryMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// SummaryByReason totales por motivo en un rango de fechas, opcionalmente
// filtrados por producto.
func (r *InventoryMovementRepo) SummaryByReason(from, to time.Time, productID string) ([]repository.ReasonTotal, error) {
	query := `
		SELECT reason, COALESCE(SUM(quantity), 0)
		FROM inventory_movements
		WHERE date >= $1 AND date <= $2`
	args := []any{from, to}
	if productID != "" {
		query += ` AND product_id = $3`
		args = append(args, productID)
	}
	query += ` GROUP BY reason ORDER BY reason`

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("summary by reason: %w", err)
	}
	defer rows.Close()
	var list []repository.ReasonTotal
	for rows.Next() {
		var t repository.ReasonTotal
		if err := rows.Scan(&t.Reason, &t.Total); err != nil {
			return nil, fmt.Errorf("scan reason total: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// SummaryByProductAndReason es el pivot producto x motivo del resumen
// logístico diario.
func (r *InventoryMovementRepo) SummaryByProductAndReason(from, to time.Time, productID string) ([]repository.ProductReasonTotal, error) {
	query := `
		SELECT product_id, reason, COALESCE(SUM(quantity), 0)
		FROM inventory_movements
		WHERE date >= $1 AND date <= $2`
	args := []any{from, to}
	if productID != "" {
		query += ` AND product_id = $3`
		args = append(args, productID)
	}
	query += ` GROUP BY product_id, reason ORDER BY product_id, reason`

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("summary by product and reason: %w", err)
	}
	defer rows.Close()
	var list []repository.ProductReasonTotal
	for rows.Next() {
		var t repository.ProductReasonTotal
		if err := rows.Scan(&t.ProductID, &t.Reason, &t.Total); err != nil {
			return nil, fmt.Errorf("scan product reason total: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}
