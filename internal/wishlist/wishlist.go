// Package wishlist держит локальное зеркало избранных товаров пользователя.
package wishlist

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/mmeshcher/storefront-core/internal/apperror"
	"github.com/mmeshcher/storefront-core/internal/metrics"
	"github.com/mmeshcher/storefront-core/internal/model"
)

// Repository описывает удалённое хранилище избранного.
type Repository interface {
	ListSavedProducts(ctx context.Context, userID string) ([]model.Product, error)
	AddSavedItem(ctx context.Context, userID, productID string) error
	RemoveSavedItem(ctx context.Context, userID, productID string) error
}

// SessionSource возвращает активную сессию клиента.
type SessionSource interface {
	Session() (model.Session, bool)
}

// Store хранит зеркало избранного. Локальное состояние меняется только после
// подтверждения удалённой операции.
type Store struct {
	identity SessionSource
	repo     Repository
	logger   *zap.Logger
	metrics  *metrics.Metrics

	mu     sync.RWMutex
	owner  string
	loaded bool
	items  []model.Product
}

// NewStore создаёт пустое зеркало избранного.
func NewStore(identity SessionSource, repo Repository, logger *zap.Logger, m *metrics.Metrics) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		identity: identity,
		repo:     repo,
		logger:   logger,
		metrics:  m,
	}
}

// Load заменяет зеркало избранным текущего пользователя, новые первыми.
// Для гостя ничего не делает.
func (s *Store) Load(ctx context.Context) error {
	session, ok := s.identity.Session()
	if !ok {
		return nil
	}

	products, err := s.repo.ListSavedProducts(ctx, session.UserID)
	if err != nil {
		return s.fail("load", session.UserID, "", err)
	}

	s.mu.Lock()
	s.owner = session.UserID
	s.loaded = true
	s.items = products
	s.mu.Unlock()

	return nil
}

// Add сохраняет товар в избранное и после подтверждения добавляет его в зеркало.
func (s *Store) Add(ctx context.Context, product model.Product) error {
	session, ok := s.identity.Session()
	if !ok {
		return nil
	}
	if product.ID == "" {
		return apperror.Validation("product id is required")
	}

	if err := s.repo.AddSavedItem(ctx, session.UserID, product.ID); err != nil {
		return s.fail("add", session.UserID, product.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.adopt(session.UserID)
	if indexOf(s.items, product.ID) < 0 {
		s.items = append(s.items, product)
	}
	return nil
}

// Remove удаляет товар из избранного и после подтверждения убирает его из зеркала.
func (s *Store) Remove(ctx context.Context, productID string) error {
	session, ok := s.identity.Session()
	if !ok {
		return nil
	}

	if err := s.repo.RemoveSavedItem(ctx, session.UserID, productID); err != nil {
		return s.fail("remove", session.UserID, productID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.adopt(session.UserID)
	if i := indexOf(s.items, productID); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
	return nil
}

// Contains проверяет наличие товара в зеркале. Ответ достоверен только после
// Load для текущего пользователя; до этого зеркало может не знать о ранее
// сохранённых товарах.
func (s *Store) Contains(productID string) bool {
	session, ok := s.identity.Session()
	if !ok {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.owner != session.UserID {
		return false
	}
	return indexOf(s.items, productID) >= 0
}

// Loaded сообщает, загружено ли зеркало для текущего пользователя.
func (s *Store) Loaded() bool {
	session, ok := s.identity.Session()
	if !ok {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loaded && s.owner == session.UserID
}

// Items возвращает копию зеркала текущего пользователя.
func (s *Store) Items() []model.Product {
	session, ok := s.identity.Session()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !ok || s.owner != session.UserID {
		return []model.Product{}
	}
	out := make([]model.Product, len(s.items))
	copy(out, s.items)
	return out
}

// adopt сбрасывает зеркало, если оно принадлежит другому пользователю.
func (s *Store) adopt(userID string) {
	if s.owner == userID {
		return
	}
	s.owner = userID
	s.loaded = false
	s.items = nil
}

func (s *Store) fail(op, userID, productID string, err error) error {
	s.metrics.SavedItemFailure(op)
	s.logger.Error("saved items operation failed",
		zap.String("op", op),
		zap.String("userID", userID),
		zap.String("productID", productID),
		zap.Error(err),
	)
	return apperror.Persistence("saved items "+op, err)
}

func indexOf(items []model.Product, productID string) int {
	for i := range items {
		if items[i].ID == productID {
			return i
		}
	}
	return -1
}
