package events

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PerEntityFIFO(t *testing.T) {
	bus := NewBus(4, 64)

	var mu sync.Mutex
	var got []string
	bus.Subscribe(func(ctx context.Context, ev Event) {
		mu.Lock()
		got = append(got, ev.Name)
		mu.Unlock()
	})
	bus.Start()

	const n = 50
	for i := 0; i < n; i++ {
		ok := bus.Publish(Event{
			Name:   strconv.Itoa(i),
			Entity: "worker_day",
			ID:     "wd-1",
		})
		require.True(t, ok)
	}
	bus.Stop()

	require.Len(t, got, n)
	for i, name := range got {
		assert.Equal(t, strconv.Itoa(i), name, "events of one entity must stay ordered")
	}
}

func TestBus_FanOutToAllSubscribers(t *testing.T) {
	bus := NewBus(2, 16)

	var mu sync.Mutex
	counts := map[string]int{}
	for _, name := range []string{"a", "b"} {
		name := name
		bus.Subscribe(func(ctx context.Context, ev Event) {
			mu.Lock()
			counts[name]++
			mu.Unlock()
		})
	}
	bus.Start()

	for i := 0; i < 10; i++ {
		bus.Publish(Event{Entity: "worker_day", ID: strconv.Itoa(i)})
	}
	bus.Stop()

	assert.Equal(t, 10, counts["a"])
	assert.Equal(t, 10, counts["b"])
}

func TestBus_PublishNeverBlocks(t *testing.T) {
	// Not started: the single shard buffer fills after two events.
	bus := NewBus(1, 2)

	assert.True(t, bus.Publish(Event{Entity: "e", ID: "1"}))
	assert.True(t, bus.Publish(Event{Entity: "e", ID: "1"}))
	assert.False(t, bus.Publish(Event{Entity: "e", ID: "1"}))
	assert.EqualValues(t, 1, bus.Dropped())
}

func TestBus_DefaultsOnBadSizes(t *testing.T) {
	bus := NewBus(0, -1)
	assert.Len(t, bus.queues, 8)
	assert.Equal(t, 256, cap(bus.queues[0]))
}

func TestMarshal(t *testing.T) {
	assert.Nil(t, Marshal(nil))
	raw := Marshal(map[string]int{"x": 1})
	assert.JSONEq(t, `{"x":1}`, string(raw))
}
