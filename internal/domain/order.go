package domain

import "time"

type OrderStatus string

const (
	OrderStatusAccepted OrderStatus = "accepted"
	OrderStatusReady    OrderStatus = "ready"
)

// LineItem is one product entry inside an order. The unit price is copied
// from the product at order time and never changes afterwards, so later menu
// price updates do not rewrite history.
type LineItem struct {
	ID             string         `json:"id"`
	ProductID      int64          `json:"product_id"`
	Quantity       int            `json:"quantity"`
	UnitPrice      int64          `json:"unit_price"`
	Customizations map[string]any `json:"customizations,omitempty"`
}

type Order struct {
	ID           int64       `json:"id"`
	TableID      int64       `json:"table_id"`
	CustomerName string      `json:"customer_name"`
	Status       OrderStatus `json:"status"`
	Items        []LineItem  `json:"items"`
	CreatedAt    time.Time   `json:"created_at"`
}

// LineItemView is a self-describing line of an aggregated order: it carries
// the product name next to the frozen price, so a view can be assembled from
// item rows arriving in any order.
type LineItemView struct {
	ProductID      int64          `json:"product_id"`
	Name           string         `json:"name"`
	Quantity       int            `json:"quantity"`
	UnitPrice      int64          `json:"unit_price"`
	Customizations map[string]any `json:"customizations,omitempty"`
}

// OrderView is the read-side projection of an order: header fields, the
// table display number, and a total recomputed from the line items. The
// stored total column is never trusted. All prices are integer euro cents.
type OrderView struct {
	ID           int64          `json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	Status       OrderStatus    `json:"status"`
	TableNumber  int            `json:"table_number"`
	CustomerName string         `json:"customer_name"`
	Total        int64          `json:"total"`
	Items        []LineItemView `json:"items"`
}
