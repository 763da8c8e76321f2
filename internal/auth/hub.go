package auth

import (
	"sync"

	"github.com/mmeshcher/storefront-core/internal/model"
)

const subscriberBuffer = 8

// Hub рассылает уведомления о смене сессии подписчикам конкретного клиента.
// Медленный подписчик теряет уведомления, но не блокирует отправителя.
type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[string]map[uint64]chan model.SessionEvent
}

// NewHub создаёт пустой хаб.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[uint64]chan model.SessionEvent)}
}

// Subscribe возвращает канал уведомлений клиента и функцию отписки.
// Функция отписки закрывает канал и безопасна для повторного вызова.
func (h *Hub) Subscribe(clientID string) (<-chan model.SessionEvent, func()) {
	ch := make(chan model.SessionEvent, subscriberBuffer)

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.subs[clientID] == nil {
		h.subs[clientID] = make(map[uint64]chan model.SessionEvent)
	}
	h.subs[clientID][id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()

			delete(h.subs[clientID], id)
			if len(h.subs[clientID]) == 0 {
				delete(h.subs, clientID)
			}
			close(ch)
		})
	}
}

// Publish доставляет событие всем подписчикам клиента и возвращает число доставок.
func (h *Hub) Publish(ev model.SessionEvent) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for _, ch := range h.subs[ev.ClientID] {
		select {
		case ch <- ev:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribers возвращает число подписчиков клиента.
func (h *Hub) Subscribers(clientID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[clientID])
}
