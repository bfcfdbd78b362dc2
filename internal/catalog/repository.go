package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/burgerhouse/ordering-backend/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

// CatalogRepository reads menu data. The ordering flow never writes here;
// products and tables are managed out of band.
type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListMenu returns all products with their category names.
func (r *CatalogRepository) ListMenu(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.price, COALESCE(c.name, '')
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id
		ORDER BY c.name, p.name
	`)
	if err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}
	defer func() { _ = rows.Close() }()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Category); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}

	return products, nil
}

// GetProduct returns one product with its aggregated allergen names.
func (r *CatalogRepository) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	var allergens []string

	err := r.db.QueryRowContext(ctx, `
		SELECT p.id, p.name, p.price, COALESCE(c.name, ''),
		       COALESCE(array_agg(a.name) FILTER (WHERE a.name IS NOT NULL), '{}')
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id
		LEFT JOIN product_allergens pa ON p.id = pa.product_id
		LEFT JOIN allergens a ON pa.allergen_id = a.id
		WHERE p.id = $1
		GROUP BY p.id, p.name, p.price, c.name
	`, id).Scan(&p.ID, &p.Name, &p.Price, &p.Category, pq.Array(&allergens))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, fmt.Errorf("product %d: %w", id, ErrProductNotFound)
		}
		return domain.Product{}, fmt.Errorf("get product: %w", err)
	}

	p.Allergens = allergens
	return p, nil
}
