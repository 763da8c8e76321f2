package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/storefront-core/internal/model"
)

// CreateOrder сохраняет заголовок заказа и возвращает его с датой создания.
func (r *PostgresRepository) CreateOrder(ctx context.Context, order model.Order) (model.Order, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO orders (id, user_id, status, total, shipping_address)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		order.ID, order.UserID, string(order.Status), order.Total, order.ShippingAddress,
	).Scan(&order.CreatedAt)
	if err != nil {
		return model.Order{}, fmt.Errorf("insert order: %w", err)
	}
	return order, nil
}

// CreateOrderLines сохраняет позиции заказа одной командой COPY: либо все, либо ни одной.
func (r *PostgresRepository) CreateOrderLines(ctx context.Context, lines []model.OrderLine) error {
	rows := make([][]any, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, []any{l.OrderID, l.ProductID, l.Quantity, l.UnitPrice})
	}

	_, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"order_items"},
		[]string{"order_id", "product_id", "quantity", "unit_price"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy order items: %w", err)
	}
	return nil
}

// DeleteOrder удаляет заказ вместе с позициями.
func (r *PostgresRepository) DeleteOrder(ctx context.Context, orderID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

const orderSelect = `SELECT o.id, o.user_id, COALESCE(u.email, ''), o.status, o.total, o.shipping_address, o.created_at
	 FROM orders o
	 LEFT JOIN users u ON u.id = o.user_id`

func scanOrder(row rowScanner) (model.Order, error) {
	var (
		o      model.Order
		status string
	)
	err := row.Scan(&o.ID, &o.UserID, &o.CustomerEmail, &status, &o.Total, &o.ShippingAddress, &o.CreatedAt)
	o.Status = model.OrderStatus(status)
	return o, err
}

// GetOrder возвращает заголовок заказа.
func (r *PostgresRepository) GetOrder(ctx context.Context, orderID string) (model.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, orderSelect+` WHERE o.id = $1`, orderID))
	if err != nil {
		if isNoRows(err) {
			return model.Order{}, ErrOrderNotFound
		}
		return model.Order{}, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// ListOrders возвращает все заказы по фильтру оператора, новые первыми.
func (r *PostgresRepository) ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("o.status = $%d", len(args)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, containsPattern(s))
		where = append(where, fmt.Sprintf(`(u.email ILIKE $%[1]d ESCAPE '\' OR o.id ILIKE $%[1]d ESCAPE '\')`, len(args)))
	}

	query := orderSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY o.created_at DESC, o.id"

	return r.queryOrders(ctx, query, args...)
}

// ListOrdersByUser возвращает заказы пользователя с позициями, новые первыми.
func (r *PostgresRepository) ListOrdersByUser(ctx context.Context, userID string) ([]model.Order, error) {
	orders, err := r.queryOrders(ctx,
		orderSelect+` WHERE o.user_id = $1 ORDER BY o.created_at DESC, o.id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, 0, len(orders))
	byID := make(map[string]int, len(orders))
	for i, o := range orders {
		ids = append(ids, o.ID)
		byID[o.ID] = i
	}

	rows, err := r.pool.Query(ctx,
		`SELECT order_id, product_id, quantity, unit_price
		 FROM order_items
		 WHERE order_id = ANY($1)
		 ORDER BY order_id, product_id`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l model.OrderLine
		if err := rows.Scan(&l.OrderID, &l.ProductID, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		i := byID[l.OrderID]
		orders[i].Lines = append(orders[i].Lines, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

// UpdateOrderStatus меняет статус, только если текущий статус равен from.
func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, orderID string, from, to model.OrderStatus) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $3 WHERE id = $1 AND status = $2`,
		orderID, string(from), string(to),
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if cmdTag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`,
		orderID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check order: %w", err)
	}
	if !exists {
		return ErrOrderNotFound
	}
	return fmt.Errorf("%w: order %s is no longer %s", ErrStatusConflict, orderID, from)
}

func (r *PostgresRepository) queryOrders(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	res := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		res = append(res, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}
