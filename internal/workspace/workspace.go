// Package workspace держит состояние каждого клиента витрины: выбор, сессию,
// избранное и список заказов оператора.
package workspace

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mmeshcher/storefront-core/internal/identity"
	"github.com/mmeshcher/storefront-core/internal/metrics"
	"github.com/mmeshcher/storefront-core/internal/orders"
	"github.com/mmeshcher/storefront-core/internal/selection"
	"github.com/mmeshcher/storefront-core/internal/wishlist"
)

// ErrClosed возвращается после остановки реестра.
var ErrClosed = errors.New("workspace registry closed")

// Workspace объединяет хранилища одного клиента.
type Workspace struct {
	ClientID  string
	Selection *selection.Store
	Identity  *identity.Store
	Wishlist  *wishlist.Store
	Orders    *orders.Manager

	lastSeen atomic.Int64
}

func (w *Workspace) touch(now time.Time) {
	w.lastSeen.Store(now.UnixNano())
}

// LastSeen возвращает время последнего обращения к рабочему пространству.
func (w *Workspace) LastSeen() time.Time {
	return time.Unix(0, w.lastSeen.Load())
}

// Close отписывает хранилище сессии от уведомлений.
func (w *Workspace) Close() {
	w.Identity.Close()
}

// Deps содержит общие зависимости, из которых собирается рабочее пространство.
type Deps struct {
	Provider   identity.Provider
	Roles      identity.RoleResolver
	SavedItems wishlist.Repository
	Orders     orders.Repository
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
}

// Registry создаёт рабочие пространства по требованию и удаляет простаивающие.
type Registry struct {
	deps    Deps
	idleTTL time.Duration
	now     func() time.Time

	group singleflight.Group

	mu     sync.Mutex
	items  map[string]*Workspace
	closed bool
}

// NewRegistry создаёт реестр. Пространство, к которому не обращались дольше idleTTL,
// удаляется при очередном вызове EvictIdle.
func NewRegistry(deps Deps, idleTTL time.Duration) *Registry {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Registry{
		deps:    deps,
		idleTTL: idleTTL,
		now:     time.Now,
		items:   make(map[string]*Workspace),
	}
}

// Get возвращает рабочее пространство клиента, создавая и инициализируя его при первом обращении.
func (r *Registry) Get(ctx context.Context, clientID string) (*Workspace, error) {
	if ws, err := r.lookup(clientID); ws != nil || err != nil {
		return ws, err
	}

	v, err, _ := r.group.Do(clientID, func() (any, error) {
		if ws, err := r.lookup(clientID); ws != nil || err != nil {
			return ws, err
		}
		return r.create(ctx, clientID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Workspace), nil
}

func (r *Registry) lookup(clientID string) (*Workspace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}
	ws, ok := r.items[clientID]
	if !ok {
		return nil, nil
	}
	ws.touch(r.now())
	return ws, nil
}

func (r *Registry) create(ctx context.Context, clientID string) (*Workspace, error) {
	id := identity.NewStore(clientID, r.deps.Provider, r.deps.Roles, r.deps.Logger)
	ws := &Workspace{
		ClientID:  clientID,
		Selection: selection.NewStore(),
		Identity:  id,
		Wishlist:  wishlist.NewStore(id, r.deps.SavedItems, r.deps.Logger, r.deps.Metrics),
		Orders:    orders.NewManager(r.deps.Orders, r.deps.Logger, r.deps.Metrics),
	}

	if err := id.Initialize(ctx); err != nil {
		ws.Close()
		return nil, err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		ws.Close()
		return nil, ErrClosed
	}
	ws.touch(r.now())
	r.items[clientID] = ws
	n := len(r.items)
	r.mu.Unlock()

	r.deps.Metrics.SetWorkspaces(n)
	r.deps.Logger.Debug("workspace created", zap.String("clientID", clientID))
	return ws, nil
}

// Len возвращает число активных рабочих пространств.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// EvictIdle закрывает пространства, простаивающие дольше idleTTL, и возвращает их число.
func (r *Registry) EvictIdle() int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var stale []*Workspace
	for id, ws := range r.items {
		if ws.LastSeen().Before(cutoff) {
			stale = append(stale, ws)
			delete(r.items, id)
		}
	}
	n := len(r.items)
	r.mu.Unlock()

	for _, ws := range stale {
		ws.Close()
	}
	if len(stale) > 0 {
		r.deps.Metrics.SetWorkspaces(n)
		r.deps.Logger.Info("idle workspaces evicted", zap.Int("count", len(stale)), zap.Int("active", n))
	}
	return len(stale)
}

// StartEviction запускает фоновую очистку простаивающих пространств.
func (r *Registry) StartEviction(ctx context.Context, interval time.Duration) {
	if interval <= 0 || r.idleTTL <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.EvictIdle()
			}
		}
	}()
}

// Close закрывает все пространства. Последующие вызовы Get возвращают ErrClosed.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	all := make([]*Workspace, 0, len(r.items))
	for _, ws := range r.items {
		all = append(all, ws)
	}
	r.items = map[string]*Workspace{}
	r.mu.Unlock()

	for _, ws := range all {
		ws.Close()
	}
	r.deps.Metrics.SetWorkspaces(0)
}
