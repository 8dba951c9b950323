package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.ProductCollection = ProductsRepository{}

type ProductsRepository struct {
	sqldb sqldb
}

func NewProductsRepository(sqldb sqldb) ProductsRepository {
	return ProductsRepository{sqldb}
}

// FetchAll returns the whole collection ordered by creation time.
func (r ProductsRepository) FetchAll(ctx context.Context) (ps []domain.Product, err error) {
	const op = "ProductsRepository.FetchAll"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		SELECT id, title, price, image_url, category, description, created_at
		FROM products
		ORDER BY created_at ASC, id ASC;`

	rows, err := r.sqldb.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to query: %w", op, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", "err", err)
		}
	}()

	for rows.Next() {
		var p domain.Product
		err := rows.Scan(
			&p.ID, &p.Title, &p.Price, &p.ImageURL,
			&p.Category, &p.Description, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to scan: %w", op, err)
		}
		ps = append(ps, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

// Create inserts p under a new ID and returns it with the ID and the
// creation time set.
func (r ProductsRepository) Create(
	ctx context.Context, p domain.Product,
) (domain.Product, error) {
	const op = "ProductsRepository.Create"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	p.ID = uuid.NewString()

	query := `
		INSERT INTO products (
			id, title, price, image_url, category, description
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at;`

	err := r.sqldb.QueryRowContext(ctx, query,
		p.ID, p.Title, p.Price, p.ImageURL, p.Category, p.Description,
	).Scan(&p.CreatedAt)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: failed to insert: %w", op, err)
	}
	return p, nil
}

func (r ProductsRepository) Update(
	ctx context.Context, p domain.Product,
) (domain.Product, error) {
	const op = "ProductsRepository.Update"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		UPDATE products SET
			title = $2,
			price = $3,
			image_url = $4,
			category = $5,
			description = $6
		WHERE id = $1
		RETURNING created_at;`

	err := r.sqldb.QueryRowContext(ctx, query,
		p.ID, p.Title, p.Price, p.ImageURL, p.Category, p.Description,
	).Scan(&p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return domain.Product{}, fmt.Errorf("%s: failed to update: %w", op, err)
	}
	return p, nil
}

func (r ProductsRepository) Delete(ctx context.Context, id string) error {
	const op = "ProductsRepository.Delete"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := r.sqldb.ExecContext(ctx, `DELETE FROM products WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("%s: failed to delete: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}
