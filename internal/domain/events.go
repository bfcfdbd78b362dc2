package domain

import "time"

// OrderPlacedEvent is published after an order transaction commits. It only
// carries the order id plus routing hints; consumers re-read the order from
// the database so they always see committed state.
type OrderPlacedEvent struct {
	OrderID      int64     `json:"order_id"`
	TableID      int64     `json:"table_id"`
	CustomerName string    `json:"customer_name"`
	Timestamp    time.Time `json:"timestamp"`
}
