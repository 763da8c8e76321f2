// Package auth реализует вход, регистрацию и хранение сессий клиентов.
package auth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/storefront-core/internal/apperror"
	"github.com/mmeshcher/storefront-core/internal/model"
	"github.com/mmeshcher/storefront-core/internal/repository"
	"github.com/mmeshcher/storefront-core/internal/validation"
)

// ErrInvalidCredentials возвращается при неверной паре email/пароль.
var ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", apperror.ErrAuthorization)

// UserRepository описывает доступ к учётным записям.
type UserRepository interface {
	CreateUser(ctx context.Context, email string, passwordHash []byte) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// SessionStore хранит сессии по идентификатору клиента.
type SessionStore interface {
	Get(ctx context.Context, clientID string) (*model.Session, error)
	Put(ctx context.Context, clientID string, session model.Session) error
	Delete(ctx context.Context, clientID string) error
}

// Service выполняет аутентификацию и уведомляет подписчиков о смене сессии.
type Service struct {
	users    UserRepository
	sessions SessionStore
	hub      *Hub
	logger   *zap.Logger
	cost     int
}

// NewService создаёт сервис аутентификации.
func NewService(users UserRepository, sessions SessionStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:    users,
		sessions: sessions,
		hub:      NewHub(),
		logger:   logger,
		cost:     bcrypt.DefaultCost,
	}
}

// CurrentSession возвращает сохранённую сессию клиента или nil.
func (s *Service) CurrentSession(ctx context.Context, clientID string) (*model.Session, error) {
	return s.sessions.Get(ctx, clientID)
}

// SignIn проверяет учётные данные и открывает сессию клиента.
func (s *Service) SignIn(ctx context.Context, clientID string, cred model.Credential) (*model.Session, error) {
	cred.Email = validation.NormalizeEmail(cred.Email)
	if err := validation.Credential(cred); err != nil {
		return nil, err
	}

	u, err := s.users.GetUserByEmail(ctx, cred.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(cred.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.open(ctx, clientID, model.Session{UserID: u.ID, Email: u.Email, Role: model.RoleCustomer})
}

// SignUp регистрирует пользователя и сразу открывает сессию.
func (s *Service) SignUp(ctx context.Context, clientID string, cred model.Credential) (*model.Session, error) {
	cred.Email = validation.NormalizeEmail(cred.Email)
	if err := validation.Credential(cred); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cred.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.users.CreateUser(ctx, cred.Email, hash)
	if err != nil {
		return nil, err
	}

	return s.open(ctx, clientID, model.Session{UserID: id, Email: cred.Email, Role: model.RoleCustomer})
}

// SignOut закрывает сессию клиента.
func (s *Service) SignOut(ctx context.Context, clientID string) error {
	if err := s.sessions.Delete(ctx, clientID); err != nil {
		return err
	}
	s.publish(model.SessionEvent{ClientID: clientID})
	return nil
}

// Subscribe подписывает на уведомления о смене сессии клиента.
func (s *Service) Subscribe(clientID string) (<-chan model.SessionEvent, func()) {
	return s.hub.Subscribe(clientID)
}

func (s *Service) open(ctx context.Context, clientID string, session model.Session) (*model.Session, error) {
	if err := s.sessions.Put(ctx, clientID, session); err != nil {
		return nil, err
	}

	published := session
	s.publish(model.SessionEvent{ClientID: clientID, Session: &published})
	return &session, nil
}

func (s *Service) publish(ev model.SessionEvent) {
	n := s.hub.Publish(ev)
	s.logger.Debug("session changed",
		zap.String("clientID", ev.ClientID),
		zap.Bool("signedIn", ev.Session != nil),
		zap.Int("subscribers", n),
	)
}
