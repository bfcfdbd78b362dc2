package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/burgerhouse/ordering-backend/internal/domain"
)

var (
	ErrEmptyOrder      = errors.New("order must contain at least one item")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	ErrTableNotFound   = errors.New("table not found")
)

// PlaceOrderItem is one requested line of a new order. The unit price is not
// part of the request; it is resolved from the products table inside the
// write transaction.
type PlaceOrderItem struct {
	ProductID      int64
	Quantity       int
	Customizations map[string]any
}

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// PlaceOrder inserts the order header and all line items in one transaction.
// The header is stored with total 0 on purpose: totals are derived on read
// from quantity × unit_price, so there is no second copy to keep in sync.
// Item inserts run sequentially on the transaction and the commit is only
// issued after the last one has returned; any failure rolls everything back.
func (r *OrderRepository) PlaceOrder(ctx context.Context, tableID int64, customerName string, items []PlaceOrderItem) (int64, error) {
	if len(items) == 0 {
		return 0, ErrEmptyOrder
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return 0, fmt.Errorf("product %d: %w", item.ProductID, ErrInvalidQuantity)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM dining_tables WHERE id = $1)
	`, tableID).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("check table: %w", err)
	}
	if !exists {
		return 0, fmt.Errorf("table %d: %w", tableID, ErrTableNotFound)
	}

	var orderID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (created_at, total, status, table_id, customer_name, updated_at)
		VALUES (NOW(), 0, $1, $2, $3, NOW())
		RETURNING id
	`, domain.OrderStatusAccepted, tableID, customerName).Scan(&orderID)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}

	for _, item := range items {
		customizations, err := encodeCustomizations(item.Customizations)
		if err != nil {
			return 0, fmt.Errorf("encode customizations for product %d: %w", item.ProductID, err)
		}

		// The price lookup and the insert are one statement: if the product
		// does not exist, nothing is inserted rather than a row with a null
		// price.
		result, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, customizations, created_at)
			SELECT $1, $2, p.id, $3, p.price, $4, NOW()
			FROM products p
			WHERE p.id = $5
		`, uuid.New().String(), orderID, item.Quantity, customizations, item.ProductID)
		if err != nil {
			return 0, fmt.Errorf("insert order item for product %d: %w", item.ProductID, err)
		}

		inserted, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("insert order item for product %d: %w", item.ProductID, err)
		}
		if inserted == 0 {
			return 0, fmt.Errorf("product %d: %w", item.ProductID, ErrProductNotFound)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit order: %w", err)
	}

	return orderID, nil
}

// List returns every order as an aggregated view, newest first. Headers and
// line items are fetched in two queries and joined in application code; the
// total of each view is recomputed from its items.
func (r *OrderRepository) List(ctx context.Context) ([]domain.OrderView, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT o.id, o.created_at, o.status, COALESCE(t.table_number, 0), o.customer_name
		FROM orders o
		LEFT JOIN dining_tables t ON o.table_id = t.id
		ORDER BY o.created_at DESC, o.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	viewMap := make(map[int64]*domain.OrderView)
	var orderIDs []int64

	for rows.Next() {
		var view domain.OrderView
		if err := rows.Scan(&view.ID, &view.CreatedAt, &view.Status, &view.TableNumber, &view.CustomerName); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		view.Items = []domain.LineItemView{}
		viewMap[view.ID] = &view
		orderIDs = append(orderIDs, view.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	if len(orderIDs) == 0 {
		return []domain.OrderView{}, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT i.order_id, i.product_id, COALESCE(p.name, ''), i.quantity, i.unit_price, i.customizations
		FROM order_items i
		LEFT JOIN products p ON i.product_id = p.id
		WHERE i.order_id = ANY($1)
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		var orderID int64
		item, err := scanItemView(itemRows, &orderID)
		if err != nil {
			return nil, err
		}
		view := viewMap[orderID]
		view.Items = append(view.Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	views := make([]domain.OrderView, 0, len(orderIDs))
	for _, id := range orderIDs {
		view := viewMap[id]
		view.Total = sumTotal(view.Items)
		views = append(views, *view)
	}

	return views, nil
}

// GetView is the single-order variant of List.
func (r *OrderRepository) GetView(ctx context.Context, id int64) (domain.OrderView, error) {
	var view domain.OrderView
	err := r.db.QueryRowContext(ctx, `
		SELECT o.id, o.created_at, o.status, COALESCE(t.table_number, 0), o.customer_name
		FROM orders o
		LEFT JOIN dining_tables t ON o.table_id = t.id
		WHERE o.id = $1
	`, id).Scan(&view.ID, &view.CreatedAt, &view.Status, &view.TableNumber, &view.CustomerName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.OrderView{}, fmt.Errorf("order %d: %w", id, ErrOrderNotFound)
		}
		return domain.OrderView{}, fmt.Errorf("get order: %w", err)
	}
	view.Items = []domain.LineItemView{}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT i.order_id, i.product_id, COALESCE(p.name, ''), i.quantity, i.unit_price, i.customizations
		FROM order_items i
		LEFT JOIN products p ON i.product_id = p.id
		WHERE i.order_id = $1
	`, id)
	if err != nil {
		return domain.OrderView{}, fmt.Errorf("get order items: %w", err)
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		var orderID int64
		item, err := scanItemView(itemRows, &orderID)
		if err != nil {
			return domain.OrderView{}, err
		}
		view.Items = append(view.Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return domain.OrderView{}, fmt.Errorf("get order items: %w", err)
	}

	view.Total = sumTotal(view.Items)
	return view, nil
}

// ListItems returns the raw line items of one order.
func (r *OrderRepository) ListItems(ctx context.Context, orderID int64) ([]domain.LineItem, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)
	`, orderID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check order: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("order %d: %w", orderID, ErrOrderNotFound)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, quantity, unit_price, customizations
		FROM order_items
		WHERE order_id = $1
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := []domain.LineItem{}
	for rows.Next() {
		var item domain.LineItem
		var raw []byte
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Quantity, &item.UnitPrice, &raw); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		item.Customizations, err = decodeCustomizations(raw)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	return items, nil
}

// MarkReady transitions an order to ready. Marking an order that is already
// ready matches the row again and succeeds, so the operation is idempotent
// for callers.
func (r *OrderRepository) MarkReady(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, domain.OrderStatusReady, id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("order %d: %w", id, ErrOrderNotFound)
	}

	return nil
}

type itemScanner interface {
	Scan(dest ...any) error
}

func scanItemView(row itemScanner, orderID *int64) (domain.LineItemView, error) {
	var item domain.LineItemView
	var raw []byte
	if err := row.Scan(orderID, &item.ProductID, &item.Name, &item.Quantity, &item.UnitPrice, &raw); err != nil {
		return domain.LineItemView{}, fmt.Errorf("scan order item: %w", err)
	}
	var err error
	item.Customizations, err = decodeCustomizations(raw)
	if err != nil {
		return domain.LineItemView{}, err
	}
	return item, nil
}

func sumTotal(items []domain.LineItemView) int64 {
	var total int64
	for _, item := range items {
		total += int64(item.Quantity) * item.UnitPrice
	}
	return total
}

func encodeCustomizations(c map[string]any) ([]byte, error) {
	if c == nil {
		c = map[string]any{}
	}
	return json.Marshal(c)
}

func decodeCustomizations(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var c map[string]any
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode customizations: %w", err)
	}
	if len(c) == 0 {
		return nil, nil
	}
	return c, nil
}
