// Package snapshot maintains an in-memory view of every collection and
// fans out a fresh copy to subscribers after each committed write. The
// dashboard reads derive from the snapshot, so one reload serves all
// consumers.
package snapshot

import (
	"context"
	"fmt"
	"sync"

	"opsdeck/internal/core"
)

// Board is one consistent snapshot of the whole dataset.
type Board struct {
	Projects  []core.Project
	Payments  []core.Payment
	Employees []core.Employee
	Clients   []core.Client
	Notices   []core.Notice
	Tasks     []core.Task
	Activity  []core.Activity
}

// Loader reloads the full board from the system of record.
type Loader interface {
	LoadBoard(ctx context.Context) (Board, error)
}

// Hub caches the latest board and notifies subscribers on refresh.
// Delivery is latest-wins: a slow subscriber skips intermediate boards
// but always sees the newest one.
type Hub struct {
	loader Loader

	mu      sync.RWMutex
	current Board
	loaded  bool
	nextID  int
	subs    map[int]chan Board
}

func NewHub(loader Loader) *Hub {
	return &Hub{
		loader: loader,
		subs:   make(map[int]chan Board),
	}
}

// Refresh reloads the board and fans it out. Call after every write
// that changed any collection.
func (h *Hub) Refresh(ctx context.Context) error {
	board, err := h.loader.LoadBoard(ctx)
	if err != nil {
		return fmt.Errorf("refresh board: %w", err)
	}

	h.mu.Lock()
	h.current = board
	h.loaded = true
	// deliver under the lock so a concurrent cancel cannot close a
	// channel between membership check and send
	for _, ch := range h.subs {
		// drop the stale board if the subscriber has not drained it
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- board:
		default:
		}
	}
	h.mu.Unlock()
	return nil
}

// Current returns the latest board, loading it on first use.
func (h *Hub) Current(ctx context.Context) (Board, error) {
	h.mu.RLock()
	if h.loaded {
		board := h.current
		h.mu.RUnlock()
		return board, nil
	}
	h.mu.RUnlock()

	if err := h.Refresh(ctx); err != nil {
		return Board{}, err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current, nil
}

// Subscribe registers for board updates. The returned channel carries
// at most one pending board and is closed by the cancel func, so a
// range over it terminates once the subscription is released. Cancel
// is idempotent.
func (h *Hub) Subscribe() (<-chan Board, func()) {
	ch := make(chan Board, 1)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	if h.loaded {
		ch <- h.current
	}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}
