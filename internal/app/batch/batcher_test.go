package batch

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func join(_ context.Context, key string, texts []string) (string, error) {
	return key + ":" + strings.Join(texts, "\n"), nil
}

func TestSubmittersShareOneBatch(t *testing.T) {
	var calls atomic.Int32
	b := New(50*time.Millisecond, func(ctx context.Context, key string, texts []string) (string, error) {
		calls.Add(1)
		return join(ctx, key, texts)
	})

	results := make([]string, 3)
	var g errgroup.Group
	for i, text := range []string{"uno", "dos", "tres"} {
		g.Go(func() error {
			res, err := b.Submit(context.Background(), "general", text)
			results[i] = res
			return err
		})
	}
	require.NoError(t, g.Wait())
	b.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, res := range results {
		assert.Equal(t, results[0], res)
	}
	for _, text := range []string{"uno", "dos", "tres"} {
		assert.Contains(t, results[0], text)
	}
}

func TestKeysBatchSeparately(t *testing.T) {
	b := New(20*time.Millisecond, join)

	var g errgroup.Group
	var general, gastos string
	g.Go(func() (err error) {
		general, err = b.Submit(context.Background(), "general", "hola")
		return err
	})
	g.Go(func() (err error) {
		gastos, err = b.Submit(context.Background(), "gastos", "gasté 300")
		return err
	})
	require.NoError(t, g.Wait())
	b.Wait()

	assert.Equal(t, "general:hola", general)
	assert.Equal(t, "gastos:gasté 300", gastos)
}

func TestZeroWindowCallsDirectly(t *testing.T) {
	b := New(0, join)

	res, err := b.Submit(context.Background(), "general", "hola")
	require.NoError(t, err)
	assert.Equal(t, "general:hola", res)
}

func TestCancelledSubmitterDoesNotCancelTurn(t *testing.T) {
	handled := make(chan error, 1)
	b := New(20*time.Millisecond, func(ctx context.Context, key string, texts []string) (string, error) {
		handled <- ctx.Err()
		return join(ctx, key, texts)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Submit(ctx, "general", "hola")
	assert.ErrorIs(t, err, context.Canceled)

	b.Wait()
	assert.NoError(t, <-handled)
}

func TestOneBatchInFlightPerKey(t *testing.T) {
	var (
		active, maxActive atomic.Int32
		started           = make(chan struct{}, 2)
		release           = make(chan struct{})
	)
	b := New(10*time.Millisecond, func(ctx context.Context, key string, texts []string) (string, error) {
		n := active.Add(1)
		for {
			m := maxActive.Load()
			if n <= m || maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		started <- struct{}{}
		<-release
		active.Add(-1)
		return join(ctx, key, texts)
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = b.Submit(context.Background(), "general", "primero")
	}()
	<-started

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = b.Submit(context.Background(), "general", "segundo")
	}()

	// the second batch's window elapses while the first is still running
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	b.Wait()

	assert.Equal(t, int32(1), maxActive.Load())
}
