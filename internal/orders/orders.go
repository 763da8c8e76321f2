// Package orders управляет статусами заказов на стороне оператора.
package orders

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mmeshcher/storefront-core/internal/apperror"
	"github.com/mmeshcher/storefront-core/internal/metrics"
	"github.com/mmeshcher/storefront-core/internal/model"
	"github.com/mmeshcher/storefront-core/internal/repository"
)

// ErrIllegalTransition возвращается, если переход отсутствует в таблице разрешённых.
var ErrIllegalTransition = fmt.Errorf("%w: illegal order status transition", apperror.ErrValidation)

// Repository описывает доступ к заказам.
type Repository interface {
	ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]model.Order, error)
	GetOrder(ctx context.Context, orderID string) (model.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, from, to model.OrderStatus) error
}

// Manager проверяет и сохраняет смену статусов и держит последний загруженный список.
type Manager struct {
	repo    Repository
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu     sync.RWMutex
	orders []model.Order
}

// NewManager создаёт менеджер заказов.
func NewManager(repo Repository, logger *zap.Logger, m *metrics.Metrics) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		repo:    repo,
		logger:  logger,
		metrics: m,
	}
}

// Load загружает заказы по фильтру, новые первыми, и запоминает список.
func (m *Manager) Load(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, apperror.Validation("unknown order status %q", filter.Status)
	}

	list, err := m.repo.ListOrders(ctx, filter)
	if err != nil {
		return nil, apperror.Persistence("list orders", err)
	}

	m.mu.Lock()
	m.orders = list
	m.mu.Unlock()

	return m.Orders(), nil
}

// Orders возвращает копию последнего загруженного списка.
func (m *Manager) Orders() []model.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Order, len(m.orders))
	copy(out, m.orders)
	return out
}

// History возвращает заказы покупателя с позициями.
func (m *Manager) History(ctx context.Context, userID string) ([]model.Order, error) {
	list, err := m.repo.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, apperror.Persistence("list order history", err)
	}
	return list, nil
}

// SetStatus переводит заказ в новый статус, если переход разрешён.
// Запись выполняется только при неизменном предыдущем статусе.
func (m *Manager) SetStatus(ctx context.Context, orderID string, next model.OrderStatus) (model.Order, error) {
	if !next.IsValid() {
		return model.Order{}, apperror.Validation("unknown order status %q", next)
	}

	order, err := m.repo.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return model.Order{}, err
		}
		return model.Order{}, apperror.Persistence("get order", err)
	}

	prev := order.Status
	if !prev.CanTransitionTo(next) {
		m.metrics.StatusTransition(prev.String(), next.String(), "rejected")
		return model.Order{}, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, prev, next)
	}

	if err := m.repo.UpdateOrderStatus(ctx, orderID, prev, next); err != nil {
		m.metrics.StatusTransition(prev.String(), next.String(), "failed")
		if errors.Is(err, repository.ErrStatusConflict) || errors.Is(err, repository.ErrOrderNotFound) {
			return model.Order{}, err
		}
		return model.Order{}, apperror.Persistence("update order status", err)
	}

	m.metrics.StatusTransition(prev.String(), next.String(), "applied")
	m.logger.Info("order status changed",
		zap.String("orderID", orderID),
		zap.String("from", prev.String()),
		zap.String("to", next.String()),
	)

	order.Status = next
	m.reflect(orderID, next)
	return order, nil
}

func (m *Manager) reflect(orderID string, status model.OrderStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.orders {
		if m.orders[i].ID == orderID {
			m.orders[i].Status = status
			return
		}
	}
}
