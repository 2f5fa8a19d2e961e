package events

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

var ErrBusClosed = errors.New("event bus is not accepting events")

// Handler processes one event. It runs on its own goroutine.
type Handler func(ctx context.Context, ev Event)

// Publisher is the write side of a Bus.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Bus is a bounded in-process queue whose events are dispatched concurrently.
type Bus struct {
	queue chan Event
	sem   *semaphore.Weighted
	log   *zap.SugaredLogger
	wg    sync.WaitGroup
}

func NewBus(queueSize int, maxConcurrent int64, log *zap.SugaredLogger) *Bus {
	return &Bus{
		queue: make(chan Event, queueSize),
		sem:   semaphore.NewWeighted(maxConcurrent),
		log:   log,
	}
}

// Publish enqueues ev. It blocks only while the queue is full and ctx is live.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	select {
	case b.queue <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run dispatches queued events to h until ctx is done, then waits for running handlers.
// Handlers receive a context that is not cancelled with ctx, so a started delivery completes.
func (b *Bus) Run(ctx context.Context, h Handler) {
	handlerCtx := context.WithoutCancel(ctx)
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-b.queue:
			if err := b.sem.Acquire(ctx, 1); err != nil {
				b.log.Warnw("Dropping event on shutdown", "kind", ev.Kind, "messageId", ev.MessageID)
				return
			}
			b.wg.Add(1)
			go func(ev Event) {
				defer b.wg.Done()
				defer b.sem.Release(1)
				defer func() {
					if r := recover(); r != nil {
						b.log.Errorw("Event handler panicked", "kind", ev.Kind, "messageId", ev.MessageID, "panic", r)
					}
				}()
				h(handlerCtx, ev)
			}(ev)
		}
	}
}

// Len returns the number of queued events.
func (b *Bus) Len() int {
	return len(b.queue)
}
