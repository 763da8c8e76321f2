// Package identity отслеживает аутентифицированную сессию клиента и её привилегии.
package identity

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mmeshcher/storefront-core/internal/apperror"
	"github.com/mmeshcher/storefront-core/internal/model"
)

// Provider описывает внешний сервис аутентификации.
type Provider interface {
	CurrentSession(ctx context.Context, clientID string) (*model.Session, error)
	SignIn(ctx context.Context, clientID string, cred model.Credential) (*model.Session, error)
	SignUp(ctx context.Context, clientID string, cred model.Credential) (*model.Session, error)
	SignOut(ctx context.Context, clientID string) error
	Subscribe(clientID string) (<-chan model.SessionEvent, func())
}

// RoleResolver определяет, является ли пользователь администратором.
type RoleResolver interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// State описывает состояние хранилища сессии.
type State int

const (
	StateInitializing State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Store хранит сессию одного клиента.
//
// Вход, завершившийся одновременно с уведомлением о смене сессии, может
// перезаписать его результат или наоборот: побеждает последняя запись.
type Store struct {
	clientID string
	provider Provider
	roles    RoleResolver
	logger   *zap.Logger

	mu      sync.RWMutex
	state   State
	session *model.Session

	initOnce  sync.Once
	closeOnce sync.Once
	initErr   error

	cancel      context.CancelFunc
	unsubscribe func()
	done        chan struct{}
}

// NewStore создаёт хранилище сессии клиента в состоянии Initializing.
func NewStore(clientID string, provider Provider, roles RoleResolver, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		clientID: clientID,
		provider: provider,
		roles:    roles,
		logger:   logger,
		state:    StateInitializing,
	}
}

// Initialize восстанавливает существующую сессию и подписывается на уведомления.
// Повторные вызовы возвращают результат первого.
func (s *Store) Initialize(ctx context.Context) error {
	s.initOnce.Do(func() {
		s.initErr = s.initialize(ctx)
	})
	return s.initErr
}

func (s *Store) initialize(ctx context.Context) error {
	session, err := s.provider.CurrentSession(ctx, s.clientID)
	if err != nil {
		s.set(nil)
		err = apperror.Persistence("get current session", err)
	} else {
		if session != nil {
			session = s.withRole(ctx, *session)
		}
		s.set(session)
	}

	listenCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	events, unsubscribe := s.provider.Subscribe(s.clientID)

	s.mu.Lock()
	s.cancel = cancel
	s.unsubscribe = unsubscribe
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.listen(listenCtx, events)

	return err
}

func (s *Store) listen(ctx context.Context, events <-chan model.SessionEvent) {
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Session == nil {
				s.set(nil)
				continue
			}
			s.set(s.withRole(ctx, *ev.Session))
		}
	}
}

// SignIn выполняет вход. При ошибке состояние не меняется.
func (s *Store) SignIn(ctx context.Context, cred model.Credential) (model.Session, error) {
	session, err := s.provider.SignIn(ctx, s.clientID, cred)
	if err != nil {
		return model.Session{}, fmt.Errorf("sign in: %w", err)
	}

	resolved := s.withRole(ctx, *session)
	s.set(resolved)
	return *resolved, nil
}

// SignUp регистрирует аккаунт и сразу входит в него без проверки роли.
func (s *Store) SignUp(ctx context.Context, cred model.Credential) (model.Session, error) {
	session, err := s.provider.SignUp(ctx, s.clientID, cred)
	if err != nil {
		return model.Session{}, fmt.Errorf("sign up: %w", err)
	}

	created := *session
	created.Role = model.RoleCustomer
	s.set(&created)
	return created, nil
}

// SignOut завершает сессию. Локальное состояние очищается даже при ошибке провайдера.
func (s *Store) SignOut(ctx context.Context) error {
	err := s.provider.SignOut(ctx, s.clientID)
	s.set(nil)
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// ResolveRole сообщает, есть ли у пользователя хотя бы одна запись администратора.
func (s *Store) ResolveRole(ctx context.Context, userID string) (bool, error) {
	ok, err := s.roles.IsAdmin(ctx, userID)
	if err != nil {
		return false, apperror.Persistence("resolve role", err)
	}
	return ok, nil
}

func (s *Store) withRole(ctx context.Context, session model.Session) *model.Session {
	isAdmin, err := s.ResolveRole(ctx, session.UserID)
	if err != nil {
		s.logger.Warn("role resolution failed, treating session as customer",
			zap.Error(err), zap.String("userID", session.UserID))
	}

	session.Role = model.RoleCustomer
	if isAdmin {
		session.Role = model.RoleAdmin
	}
	return &session
}

func (s *Store) set(session *model.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = session
	if session == nil {
		s.state = StateUnauthenticated
		return
	}
	s.state = StateAuthenticated
}

// Snapshot возвращает текущее состояние и копию сессии.
func (s *Store) Snapshot() (State, *model.Session) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil {
		return s.state, nil
	}
	session := *s.session
	return s.state, &session
}

// Session возвращает активную сессию, если клиент аутентифицирован.
func (s *Store) Session() (model.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state != StateAuthenticated || s.session == nil {
		return model.Session{}, false
	}
	return *s.session, true
}

// RequireAdmin возвращает сессию администратора или ErrAuthorization.
func (s *Store) RequireAdmin() (model.Session, error) {
	session, ok := s.Session()
	if !ok {
		return model.Session{}, fmt.Errorf("%w: not signed in", apperror.ErrAuthorization)
	}
	if !session.IsAdmin() {
		return model.Session{}, fmt.Errorf("%w: user %s is not an administrator", apperror.ErrAuthorization, session.UserID)
	}
	return session, nil
}

// Close отписывается от уведомлений и дожидается завершения обработчика.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		s.mu.RLock()
		cancel, unsubscribe, done := s.cancel, s.unsubscribe, s.done
		s.mu.RUnlock()

		if unsubscribe != nil {
			unsubscribe()
		}
		if cancel != nil {
			cancel()
		}
		if done != nil {
			<-done
		}
	})
}
