package postgres

import (
	"context"
	"errors"

	"git.platform.alem.school/amibragim/shop-events/internal/domain/products"
	"git.platform.alem.school/amibragim/shop-events/internal/ports"

	"github.com/jackc/pgx/v5"
)

// ProductsRepo implements persistence for the catalog using pgx and SQL.
// Prices travel as integer cents and are converted in SQL.
type ProductsRepo struct{}

// NewProductsRepo constructs a new ProductsRepo.
func NewProductsRepo() ports.ProductRepository {
	return &ProductsRepo{}
}

const productColumns = `id, name, description, (price * 100)::bigint, created_at, updated_at`

func scanProduct(row pgx.Row, p *products.Product) error {
	return row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.CreatedAt, &p.UpdatedAt)
}

// Create inserts a product.
func (r *ProductsRepo) Create(ctx context.Context, p *products.Product) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	return tx.QueryRow(ctx, `
		INSERT INTO products (id, name, description, price)
		VALUES ($1, $2, $3, $4::numeric/100)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Description, int64(p.Price),
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

// GetByID returns the product or ports.ErrNotFound.
func (r *ProductsRepo) GetByID(ctx context.Context, id string) (*products.Product, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var p products.Product
	err = scanProduct(tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns the catalog ordered by creation time.
func (r *ProductsRepo) List(ctx context.Context) ([]products.Product, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []products.Product
	for rows.Next() {
		var p products.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update overwrites name, description and price.
func (r *ProductsRepo) Update(ctx context.Context, p *products.Product) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		UPDATE products
		SET name = $2, description = $3, price = $4::numeric/100, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Description, int64(p.Price),
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ports.ErrNotFound
	}
	return err
}

// Delete removes a product.
func (r *ProductsRepo) Delete(ctx context.Context, id string) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}
