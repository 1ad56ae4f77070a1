// Package batch debounces rapid user messages of one conversation into a
// single turn.
package batch

import (
	"context"
	"sync"
	"time"
)

// Handler resolves one batch. texts are in arrival order.
type Handler[T any] func(ctx context.Context, key string, texts []string) (T, error)

// Batcher collects texts submitted for the same key within a window and hands
// them to the handler at once. Every submitter of a batch gets the same result.
type Batcher[T any] struct {
	window time.Duration
	handle Handler[T]

	mu      sync.Mutex
	pending map[string]*batch[T]
	// one batch in flight per key; keys are conversations, a handful at most
	inflight map[string]*sync.Mutex
	wg       sync.WaitGroup
}

type batch[T any] struct {
	ctx   context.Context
	texts []string
	done  chan struct{}
	res   T
	err   error
}

// New returns a Batcher. A window <= 0 calls the handler directly per text.
func New[T any](window time.Duration, handle Handler[T]) *Batcher[T] {
	return &Batcher[T]{
		window:   window,
		handle:   handle,
		pending:  make(map[string]*batch[T]),
		inflight: make(map[string]*sync.Mutex),
	}
}

// Submit adds text to the open batch of key and waits for its result.
// Cancelling ctx only stops the wait; the batch still runs.
func (b *Batcher[T]) Submit(ctx context.Context, key, text string) (T, error) {
	if b.window <= 0 {
		return b.handle(ctx, key, []string{text})
	}

	b.mu.Lock()
	bt, ok := b.pending[key]
	if !ok {
		bt = &batch[T]{ctx: context.WithoutCancel(ctx), done: make(chan struct{})}
		b.pending[key] = bt
		b.wg.Add(1)
		time.AfterFunc(b.window, func() { b.flush(key, bt) })
	}
	bt.texts = append(bt.texts, text)
	b.mu.Unlock()

	select {
	case <-bt.done:
		return bt.res, bt.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Wait blocks until every scheduled batch has been handled.
func (b *Batcher[T]) Wait() {
	b.wg.Wait()
}

func (b *Batcher[T]) flush(key string, bt *batch[T]) {
	defer b.wg.Done()

	b.mu.Lock()
	if b.pending[key] == bt {
		delete(b.pending, key)
	}
	lock, ok := b.inflight[key]
	if !ok {
		lock = &sync.Mutex{}
		b.inflight[key] = lock
	}
	b.mu.Unlock()

	lock.Lock()
	bt.res, bt.err = b.handle(bt.ctx, key, bt.texts)
	lock.Unlock()
	close(bt.done)
}
