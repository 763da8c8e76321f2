// Package checkout превращает текущий выбор покупателя в сохранённый заказ.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/storefront-core/internal/apperror"
	"github.com/mmeshcher/storefront-core/internal/metrics"
	"github.com/mmeshcher/storefront-core/internal/model"
	"github.com/mmeshcher/storefront-core/internal/validation"
)

var (
	// ErrNotAuthenticated возвращается, если оформление начато без входа.
	ErrNotAuthenticated = fmt.Errorf("%w: sign in to place an order", apperror.ErrAuthorization)
	// ErrEmptySelection возвращается, если в выборе нет строк с положительным количеством.
	ErrEmptySelection = fmt.Errorf("%w: selection is empty", apperror.ErrValidation)
)

// Repository описывает запись заказов. Заголовок и позиции пишутся раздельно.
type Repository interface {
	CreateOrder(ctx context.Context, order model.Order) (model.Order, error)
	CreateOrderLines(ctx context.Context, lines []model.OrderLine) error
	DeleteOrder(ctx context.Context, orderID string) error
}

// SessionSource возвращает активную сессию клиента.
type SessionSource interface {
	Session() (model.Session, bool)
}

// Selection описывает выбор, из которого оформляется заказ. Submit передаёт fn
// снимок строк и убирает заказанное из выбора, только если fn вернула nil.
type Selection interface {
	Submit(fn func(lines []model.SelectionLine, total int64) error) error
}

// Workflow выполняет оформление: заголовок, позиции, очистка выбора.
// Если позиции записать не удалось, заголовок удаляется компенсирующим шагом.
type Workflow struct {
	repo    Repository
	logger  *zap.Logger
	metrics *metrics.Metrics
	newID   func() string
}

// New создаёт процесс оформления заказа.
func New(repo Repository, logger *zap.Logger, m *metrics.Metrics) *Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workflow{
		repo:    repo,
		logger:  logger,
		metrics: m,
		newID:   uuid.NewString,
	}
}

// Submit оформляет заказ из выбора. При любой ошибке выбор не меняется.
func (w *Workflow) Submit(ctx context.Context, identity SessionSource, sel Selection, shipping model.ShippingDetails) (model.Order, error) {
	order, err := w.submit(ctx, identity, sel, shipping)
	w.metrics.Checkout(resultLabel(err))
	return order, err
}

func (w *Workflow) submit(ctx context.Context, identity SessionSource, sel Selection, shipping model.ShippingDetails) (model.Order, error) {
	session, ok := identity.Session()
	if !ok {
		return model.Order{}, ErrNotAuthenticated
	}

	var header model.Order
	err := sel.Submit(func(lines []model.SelectionLine, total int64) error {
		var err error
		header, err = w.place(ctx, session, lines, total, shipping)
		return err
	})
	if err != nil {
		return model.Order{}, err
	}

	w.logger.Info("order submitted",
		zap.String("orderID", header.ID),
		zap.String("userID", session.UserID),
		zap.Int64("total", header.Total),
		zap.Int("lines", len(header.Lines)),
	)
	return header, nil
}

// place записывает заголовок и позиции заказа из снимка выбора.
func (w *Workflow) place(ctx context.Context, session model.Session, lines []model.SelectionLine, total int64, shipping model.ShippingDetails) (model.Order, error) {
	purchasable := make([]model.SelectionLine, 0, len(lines))
	for _, l := range lines {
		if l.Quantity > 0 {
			purchasable = append(purchasable, l)
		}
	}
	if len(purchasable) == 0 {
		return model.Order{}, ErrEmptySelection
	}

	if err := validation.Shipping(shipping); err != nil {
		return model.Order{}, err
	}

	header, err := w.repo.CreateOrder(ctx, model.Order{
		ID:              w.newID(),
		UserID:          session.UserID,
		CustomerEmail:   session.Email,
		Status:          model.OrderStatusPending,
		Total:           total,
		ShippingAddress: formatAddress(shipping),
	})
	if err != nil {
		return model.Order{}, apperror.Persistence("create order header", err)
	}

	orderLines := make([]model.OrderLine, 0, len(purchasable))
	for _, l := range purchasable {
		orderLines = append(orderLines, model.OrderLine{
			OrderID:   header.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}

	if err := w.repo.CreateOrderLines(ctx, orderLines); err != nil {
		return model.Order{}, w.compensate(ctx, header.ID, err)
	}

	header.Lines = orderLines
	return header, nil
}

// compensate удаляет заголовок, оставшийся без позиций.
func (w *Workflow) compensate(ctx context.Context, orderID string, cause error) error {
	// удаление выполняется даже после отмены запроса
	delCtx := context.WithoutCancel(ctx)
	if err := w.repo.DeleteOrder(delCtx, orderID); err != nil {
		w.logger.Error("orphaned order header requires reconciliation",
			zap.String("orderID", orderID),
			zap.NamedError("cause", cause),
			zap.Error(err),
		)
		return &apperror.PartialWriteError{
			OrderID: orderID,
			Err:     errors.Join(cause, err),
		}
	}

	w.logger.Warn("order lines failed, header removed", zap.String("orderID", orderID), zap.Error(cause))
	return apperror.Persistence("create order lines", cause)
}

func formatAddress(s model.ShippingDetails) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{s.FullName, s.Address, strings.TrimSpace(s.City + " " + s.PostalCode), s.Phone} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func resultLabel(err error) string {
	var partial *apperror.PartialWriteError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &partial):
		return "partial_write"
	case errors.Is(err, apperror.ErrValidation):
		return "validation"
	case errors.Is(err, apperror.ErrAuthorization):
		return "unauthorized"
	default:
		return "persistence"
	}
}
