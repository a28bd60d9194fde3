// Package events is the in-process notification channel the dashboard
// subscribes to. Every successful ledger mutation publishes one event with
// enough before/after state that subscribers can republish without
// re-querying the store.
package events

import (
	"context"
	"sync"
	"time"
)

// BalanceChange is one account's before/after snapshot inside an event.
type BalanceChange struct {
	PlayerID    int64 `json:"playerId"`
	BeforeCents int64 `json:"beforeCents"`
	AfterCents  int64 `json:"afterCents"`
}

// WalletChange mirrors BalanceChange for a payment-method sub-account.
type WalletChange struct {
	WalletID    int64  `json:"walletId"`
	Method      string `json:"method"`
	Name        string `json:"name"`
	BeforeCents int64  `json:"beforeCents"`
	AfterCents  int64  `json:"afterCents"`
}

// StockChange reports a game's point stock after a draw or restore, with
// the status derived from the new level.
type StockChange struct {
	GameID       int64  `json:"gameId"`
	BeforePoints int64  `json:"beforePoints"`
	AfterPoints  int64  `json:"afterPoints"`
	Status       string `json:"status"`
}

// Event describes one committed ledger operation.
type Event struct {
	Op            string          `json:"op"`
	CorrelationID string          `json:"correlationId"`
	EntryIDs      []string        `json:"entryIds"`
	Players       []BalanceChange `json:"players,omitempty"`
	Wallets       []WalletChange  `json:"wallets,omitempty"`
	Games         []StockChange   `json:"games,omitempty"`
	OccurredAt    time.Time       `json:"occurredAt"`
}

const subscriberBuffer = 16

// Hub fans events out to subscribers. Subscriptions are tied to a context:
// when it ends, the subscriber is removed and its channel closed. A slow
// subscriber loses events rather than blocking publishers.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Event)}
}

// Subscribe registers a new subscriber whose lifetime is bound to ctx.
func (h *Hub) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()

		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()

		close(ch)
	}()

	return ch
}

// Publish delivers ev to every current subscriber without blocking.
func (h *Hub) Publish(ev Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// SubscriberCount reports current subscribers; the SSE handler logs it.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subs)
}
