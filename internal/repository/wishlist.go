package repository

import (
	"context"
	"fmt"

	"github.com/mmeshcher/storefront-core/internal/model"
)

// ListSavedProducts возвращает избранные товары пользователя, последние добавленные первыми.
func (r *PostgresRepository) ListSavedProducts(ctx context.Context, userID string) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.name, COALESCE(p.description, ''), p.price, p.stock,
		        COALESCE(p.category_id, ''), p.image_url, p.created_at
		 FROM wishlists w
		 JOIN products p ON p.id = w.product_id
		 WHERE w.user_id = $1
		 ORDER BY w.created_at DESC, p.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select wishlist: %w", err)
	}
	defer rows.Close()

	res := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wishlist product: %w", err)
		}
		res = append(res, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// AddSavedItem сохраняет товар в избранное. Повторное сохранение не считается ошибкой.
func (r *PostgresRepository) AddSavedItem(ctx context.Context, userID, productID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO wishlists (user_id, product_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, product_id) DO NOTHING`,
		userID, productID,
	)
	if err != nil {
		return fmt.Errorf("insert wishlist item: %w", err)
	}
	return nil
}

// RemoveSavedItem удаляет товар из избранного пользователя.
func (r *PostgresRepository) RemoveSavedItem(ctx context.Context, userID, productID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM wishlists WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	)
	if err != nil {
		return fmt.Errorf("delete wishlist item: %w", err)
	}
	return nil
}
