package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/storefront-core/internal/identity"
	"github.com/mmeshcher/storefront-core/internal/model"
)

type sessionResponse struct {
	State  string     `json:"state"`
	UserID string     `json:"user_id,omitempty"`
	Email  string     `json:"email,omitempty"`
	Role   model.Role `json:"role"`
}

func newSessionResponse(state identity.State, s *model.Session) sessionResponse {
	if s == nil {
		return sessionResponse{State: state.String(), Role: model.RoleGuest}
	}
	return sessionResponse{
		State:  state.String(),
		UserID: s.UserID,
		Email:  s.Email,
		Role:   s.Role,
	}
}

// Register регистрирует пользователя и сразу открывает сессию клиента.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var cred model.Credential
	if err := decodeJSON(r, &cred); err != nil {
		h.writeError(w, "register", err)
		return
	}

	ws := workspaceFrom(r.Context())
	session, err := ws.Identity.SignUp(r.Context(), cred)
	if err != nil {
		h.writeError(w, "register", err, zap.String("clientID", ws.ClientID))
		return
	}

	writeJSON(w, http.StatusOK, newSessionResponse(identity.StateAuthenticated, &session))
}

// Login выполняет вход и загружает избранное пользователя.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var cred model.Credential
	if err := decodeJSON(r, &cred); err != nil {
		h.writeError(w, "login", err)
		return
	}

	ws := workspaceFrom(r.Context())
	session, err := ws.Identity.SignIn(r.Context(), cred)
	if err != nil {
		h.writeError(w, "login", err, zap.String("clientID", ws.ClientID))
		return
	}

	if err := ws.Wishlist.Load(r.Context()); err != nil {
		h.logger.Warn("load saved items after login", zap.Error(err), zap.String("userID", session.UserID))
	}

	writeJSON(w, http.StatusOK, newSessionResponse(identity.StateAuthenticated, &session))
}

// Logout завершает сессию клиента.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())
	if err := ws.Identity.SignOut(r.Context()); err != nil {
		h.writeError(w, "logout", err, zap.String("clientID", ws.ClientID))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSession возвращает состояние сессии клиента.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	state, session := workspaceFrom(r.Context()).Identity.Snapshot()
	writeJSON(w, http.StatusOK, newSessionResponse(state, session))
}
