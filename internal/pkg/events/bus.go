package events

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Event names emitted by the engine.
const (
	WdChanged             = "wd-changed"
	WdApproved            = "wd-approved"
	VacancyCreated        = "vacancy-created"
	VacancyConfirmed      = "vacancy-confirmed"
	VacancyCancelled      = "vacancy-cancelled"
	EmploymentChanged     = "employment-changed"
	TimesheetRecalculated = "timesheet-recalculated"
)

// Event is one typed domain event with a minimal before/after diff.
type Event struct {
	Name      string          `json:"event"`
	NetworkID string          `json:"network_id"`
	Entity    string          `json:"entity"`
	ID        string          `json:"id"`
	Before    json.RawMessage `json:"before,omitempty"`
	After     json.RawMessage `json:"after,omitempty"`
	Actor     string          `json:"actor,omitempty"`
}

// Handler consumes events. Handlers run on the bus goroutines and must not
// block on external calls.
type Handler func(ctx context.Context, ev Event)

// Bus is an in-process event bus. Ordering is per entity FIFO: each
// (entity, id) pair hashes onto one of a fixed set of queues, each drained
// by a single goroutine. Publish is non-blocking; a full queue drops the
// event and bumps the overflow counter. Consumers are recomputation
// triggers, so a dropped event costs freshness, not correctness.
type Bus struct {
	queues   []chan Event
	handlers []Handler
	mu       sync.RWMutex
	wg       sync.WaitGroup
	cancel   context.CancelFunc
	dropped  atomic.Int64
}

// NewBus creates a bus with the given shard count and per-shard buffer.
func NewBus(shards, buffer int) *Bus {
	if shards <= 0 {
		shards = 8
	}
	if buffer <= 0 {
		buffer = 256
	}
	b := &Bus{queues: make([]chan Event, shards)}
	for i := range b.queues {
		b.queues[i] = make(chan Event, buffer)
	}
	return b
}

// Subscribe registers a handler for all events. Must be called before
// Start.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Start launches the shard drainers.
func (b *Bus) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	for _, q := range b.queues {
		b.wg.Add(1)
		go b.drain(ctx, q)
	}
}

// Stop drains in-flight events and stops the shards.
func (b *Bus) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	for _, q := range b.queues {
		close(q)
	}
	b.wg.Wait()
}

func (b *Bus) drain(ctx context.Context, q chan Event) {
	defer b.wg.Done()
	for ev := range q {
		b.mu.RLock()
		handlers := b.handlers
		b.mu.RUnlock()
		for _, h := range handlers {
			h(ctx, ev)
		}
	}
}

// Publish enqueues an event on the shard of its entity key. Never blocks;
// returns false when the shard buffer is full.
func (b *Bus) Publish(ev Event) bool {
	h := fnv.New32a()
	_, _ = h.Write([]byte(ev.Entity))
	_, _ = h.Write([]byte{'/'})
	_, _ = h.Write([]byte(ev.ID))
	q := b.queues[int(h.Sum32())%len(b.queues)]
	select {
	case q <- ev:
		return true
	default:
		n := b.dropped.Add(1)
		slog.Warn("event bus queue full, event dropped",
			"event", ev.Name, "entity", ev.Entity, "id", ev.ID, "dropped_total", n)
		return false
	}
}

// Dropped returns the number of events lost to full queues.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

// Marshal encodes a diff image, swallowing errors into nil (events carry
// best-effort diffs, never fail the transaction).
func Marshal(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}
