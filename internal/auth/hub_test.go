package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/storefront-core/internal/model"
)

func TestHub_DeliversOnlyToClient(t *testing.T) {
	h := NewHub()

	a, unsubA := h.Subscribe("a")
	defer unsubA()
	b, unsubB := h.Subscribe("b")
	defer unsubB()

	n := h.Publish(model.SessionEvent{ClientID: "a", Session: &model.Session{UserID: "u-1"}})
	assert.Equal(t, 1, n)

	ev := <-a
	require.NotNil(t, ev.Session)
	assert.Equal(t, "u-1", ev.Session.UserID)

	select {
	case ev := <-b:
		t.Fatalf("unexpected event for another client: %+v", ev)
	default:
	}
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	h := NewHub()

	ch, unsubscribe := h.Subscribe("a")
	assert.Equal(t, 1, h.Subscribers("a"))

	unsubscribe()
	unsubscribe()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, h.Subscribers("a"))
	assert.Equal(t, 0, h.Publish(model.SessionEvent{ClientID: "a"}))
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub()

	_, unsubscribe := h.Subscribe("a")
	defer unsubscribe()

	delivered := 0
	for i := 0; i < subscriberBuffer+5; i++ {
		delivered += h.Publish(model.SessionEvent{ClientID: "a"})
	}
	assert.Equal(t, subscriberBuffer, delivered)
}
