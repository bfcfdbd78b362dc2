package domain

// Product is catalog data, read-only for the ordering flow. Price is the
// live menu price in euro cents; orders freeze it into their line items.
type Product struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Price     int64    `json:"price"`
	Category  string   `json:"category,omitempty"`
	Allergens []string `json:"allergens,omitempty"`
}

// Table is a physical dining table. Number is what gets printed on tickets.
type Table struct {
	ID     int64 `json:"id"`
	Number int   `json:"table_number"`
}
