package events_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dmgo/backend/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEventConstructors(t *testing.T) {
	a := events.NewMessage("m1", "u2")
	b := events.MessageRead("m1", "u1")

	assert.Equal(t, events.KindNewMessage, a.Kind)
	assert.Equal(t, events.KindMessageRead, b.Kind)
	assert.NotEmpty(t, a.DeliveryID)
	assert.NotEqual(t, a.DeliveryID, b.DeliveryID)
	assert.NoError(t, a.Validate())

	assert.Error(t, events.Event{Kind: "Other", MessageID: "m", RecipientID: "u"}.Validate())
	assert.Error(t, events.Event{Kind: events.KindNewMessage}.Validate())
}

func TestBus_DispatchesEveryEvent(t *testing.T) {
	bus := events.NewBus(8, 4, zap.NewNop().Sugar())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	go bus.Run(ctx, func(ctx context.Context, ev events.Event) {
		mu.Lock()
		got = append(got, ev.MessageID)
		mu.Unlock()
	})

	for _, id := range []string{"m1", "m2", "m3"} {
		require.NoError(t, bus.Publish(ctx, events.NewMessage(id, "u")))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	}, time.Second, 5*time.Millisecond)
	mu.Lock()
	assert.ElementsMatch(t, []string{"m1", "m2", "m3"}, got)
	mu.Unlock()
}

func TestBus_BoundsConcurrency(t *testing.T) {
	bus := events.NewBus(16, 2, zap.NewNop().Sugar())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var running, peak, done int32
	release := make(chan struct{})
	go bus.Run(ctx, func(ctx context.Context, ev events.Event) {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		<-release
		atomic.AddInt32(&running, -1)
		atomic.AddInt32(&done, 1)
	})

	for i := 0; i < 6; i++ {
		require.NoError(t, bus.Publish(ctx, events.NewMessage("m", "u")))
	}
	require.Eventually(t, func() bool { return atomic.LoadInt32(&running) == 2 }, time.Second, 5*time.Millisecond)
	close(release)

	require.Eventually(t, func() bool { return atomic.LoadInt32(&done) == 6 }, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 2, atomic.LoadInt32(&peak))
}

func TestBus_SlowHandlerDoesNotBlockOthers(t *testing.T) {
	bus := events.NewBus(8, 4, zap.NewNop().Sugar())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fast := make(chan string, 1)
	block := make(chan struct{})
	defer close(block)
	go bus.Run(ctx, func(ctx context.Context, ev events.Event) {
		if ev.MessageID == "slow" {
			<-block
			return
		}
		fast <- ev.MessageID
	})

	require.NoError(t, bus.Publish(ctx, events.NewMessage("slow", "u")))
	require.NoError(t, bus.Publish(ctx, events.NewMessage("fast", "u")))

	select {
	case id := <-fast:
		assert.Equal(t, "fast", id)
	case <-time.After(time.Second):
		t.Fatal("fast event was blocked by the slow one")
	}
}

func TestBus_PublishRespectsContextWhenFull(t *testing.T) {
	bus := events.NewBus(1, 1, zap.NewNop().Sugar())
	require.NoError(t, bus.Publish(context.Background(), events.NewMessage("m1", "u")))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := bus.Publish(ctx, events.NewMessage("m2", "u"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, bus.Len())
}
