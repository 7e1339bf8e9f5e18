package service

import (
	"sync"
	"time"

	"run4recht/internal/activity"
	"run4recht/internal/calendar"
)

// RankingSnapshot is pushed to live ranking subscribers.
type RankingSnapshot struct {
	Window  calendar.Range          `json:"zeitraum"`
	Entries []activity.RankingEntry `json:"ranking"`
	At      time.Time               `json:"zeitpunkt"`
}

// Hub fans ranking snapshots out to subscribers. Slow subscribers miss snapshots
// instead of blocking the publisher.
type Hub struct {
	Buffer int

	mu     sync.Mutex
	subs   map[int]chan RankingSnapshot
	nextID int
	last   *RankingSnapshot
}

func (h *Hub) Subscribe() (<-chan RankingSnapshot, func()) {
	buf := h.Buffer
	if buf <= 0 {
		buf = 8
	}
	ch := make(chan RankingSnapshot, buf)
	h.mu.Lock()
	if h.subs == nil {
		h.subs = map[int]chan RankingSnapshot{}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	if h.last != nil {
		ch <- *h.last
	}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers snap to every subscriber with room in its buffer and returns how many received it.
func (h *Hub) Publish(snap RankingSnapshot) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = &snap
	n := 0
	for _, ch := range h.subs {
		select {
		case ch <- snap:
			n++
		default:
		}
	}
	return n
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
