// Package middleware содержит HTTP middleware витрины.
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const (
	clientIDKey  contextKey = "clientID"
	newClientKey contextKey = "newClient"
)

const (
	clientCookieName = "client_id"
	clientCookieTTL  = 365 * 24 * time.Hour
)

// ClientMiddleware закрепляет за браузером подписанный идентификатор клиента.
type ClientMiddleware struct {
	secretKey []byte
}

// NewClientMiddleware создаёт ClientMiddleware с указанным секретным ключом.
// Пустой ключ заменяется случайным, и cookie перестают быть действительными после перезапуска.
func NewClientMiddleware(secret string) *ClientMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &ClientMiddleware{
		secretKey: key,
	}
}

// Middleware читает cookie клиента и кладёт его идентификатор в контекст запроса.
// Если cookie нет или подпись неверна, выдаётся новый идентификатор.
func (c *ClientMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := ""
		if cookie, err := r.Cookie(clientCookieName); err == nil {
			if id, ok := c.parseCookie(cookie.Value); ok {
				clientID = id
			}
		}

		minted := false
		if clientID == "" {
			clientID = uuid.NewString()
			c.SetClientCookie(w, clientID)
			minted = true
		}

		ctx := context.WithValue(r.Context(), clientIDKey, clientID)
		ctx = context.WithValue(ctx, newClientKey, minted)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SetClientCookie устанавливает cookie с подписанным идентификатором клиента.
func (c *ClientMiddleware) SetClientCookie(w http.ResponseWriter, clientID string) {
	cookie := &http.Cookie{
		Name:     clientCookieName,
		Value:    clientID + "." + c.sign(clientID),
		Path:     "/",
		Expires:  time.Now().Add(clientCookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	http.SetCookie(w, cookie)
}

func (c *ClientMiddleware) sign(clientID string) string {
	mac := hmac.New(sha256.New, c.secretKey)
	mac.Write([]byte(clientID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *ClientMiddleware) parseCookie(cookieValue string) (string, bool) {
	idStr, signature, ok := strings.Cut(cookieValue, ".")
	if !ok || idStr == "" {
		return "", false
	}

	if !hmac.Equal([]byte(signature), []byte(c.sign(idStr))) {
		return "", false
	}

	if _, err := uuid.Parse(idStr); err != nil {
		return "", false
	}

	return idStr, true
}

// WithClientID возвращает контекст с идентификатором клиента.
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey, clientID)
}

// GetClientIDFromContext извлекает идентификатор клиента из контекста запроса.
func GetClientIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(clientIDKey).(string)
	return id, ok && id != ""
}

// IsNewClient сообщает, что идентификатор клиента выдан в этом запросе.
func IsNewClient(ctx context.Context) bool {
	minted, _ := ctx.Value(newClientKey).(bool)
	return minted
}
