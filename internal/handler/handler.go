// Package handler содержит HTTP-обработчики API витрины.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/storefront-core/internal/apperror"
	"github.com/mmeshcher/storefront-core/internal/catalog"
	"github.com/mmeshcher/storefront-core/internal/checkout"
	"github.com/mmeshcher/storefront-core/internal/middleware"
	"github.com/mmeshcher/storefront-core/internal/model"
	"github.com/mmeshcher/storefront-core/internal/orders"
	"github.com/mmeshcher/storefront-core/internal/repository"
	"github.com/mmeshcher/storefront-core/internal/workspace"
)

// Workspaces выдаёт рабочее пространство клиента.
type Workspaces interface {
	Get(ctx context.Context, clientID string) (*workspace.Workspace, error)
}

// Catalog выполняет поиск по каталогу.
type Catalog interface {
	Search(ctx context.Context, q catalog.Query) ([]model.Product, error)
	CategoryBySlug(ctx context.Context, slug string) (model.Category, error)
}

// Products возвращает товар по идентификатору.
type Products interface {
	GetProduct(ctx context.Context, id string) (model.Product, error)
}

// Checkout оформляет заказ из выбора клиента.
type Checkout interface {
	Submit(ctx context.Context, identity checkout.SessionSource, sel checkout.Selection, shipping model.ShippingDetails) (model.Order, error)
}

// Handler реализует HTTP-обработчики API витрины.
type Handler struct {
	workspaces Workspaces
	catalog    Catalog
	products   Products
	checkout   Checkout
	logger     *zap.Logger
	client     *middleware.ClientMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(ws Workspaces, cat Catalog, products Products, co Checkout, logger *zap.Logger, client *middleware.ClientMiddleware) *Handler {
	return &Handler{
		workspaces: ws,
		catalog:    cat,
		products:   products,
		checkout:   co,
		logger:     logger,
		client:     client,
	}
}

type workspaceKey struct{}

// withWorkspace находит рабочее пространство клиента и кладёт его в контекст.
func (h *Handler) withWorkspace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := middleware.GetClientIDFromContext(r.Context())
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ws, err := h.workspaces.Get(r.Context(), clientID)
		if err != nil {
			h.logger.Error("get workspace error", zap.Error(err), zap.String("clientID", clientID))
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}

		ctx := context.WithValue(r.Context(), workspaceKey{}, ws)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withKnownWorkspace кладёт в контекст рабочее пространство только клиента, пришедшего с cookie.
// Для нового клиента пространство не создаётся, ошибка получения не прерывает запрос.
func (h *Handler) withKnownWorkspace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := middleware.GetClientIDFromContext(r.Context())
		if !ok || middleware.IsNewClient(r.Context()) {
			next.ServeHTTP(w, r)
			return
		}

		ws, err := h.workspaces.Get(r.Context(), clientID)
		if err != nil {
			h.logger.Warn("get workspace error", zap.Error(err), zap.String("clientID", clientID))
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), workspaceKey{}, ws)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func workspaceFrom(ctx context.Context) *workspace.Workspace {
	ws, _ := ctx.Value(workspaceKey{}).(*workspace.Workspace)
	return ws
}

// requireSession пропускает только аутентифицированных клиентов.
func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := workspaceFrom(r.Context()).Identity.Session(); !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAdmin пропускает только сессии с ролью администратора.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := workspaceFrom(r.Context()).Identity
		if _, ok := id.Session(); !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		if _, err := id.RequireAdmin(); err != nil {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusFor сопоставляет ошибку домена с HTTP-статусом.
func statusFor(err error) int {
	var partial *apperror.PartialWriteError
	switch {
	case errors.As(err, &partial):
		return http.StatusInternalServerError
	case errors.Is(err, repository.ErrUserExists),
		errors.Is(err, repository.ErrStatusConflict):
		return http.StatusConflict
	case errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrCategoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, orders.ErrIllegalTransition),
		errors.Is(err, checkout.ErrEmptySelection):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrAuthorization):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, op string, err error, fields ...zap.Field) {
	status := statusFor(err)

	var partial *apperror.PartialWriteError
	if errors.As(err, &partial) {
		fields = append(fields, zap.String("orderID", partial.OrderID))
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error(op+" error", append(fields, zap.Error(err))...)
		http.Error(w, http.StatusText(status), status)
		return
	}

	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperror.Validation("malformed request body: %v", err)
	}
	return nil
}
