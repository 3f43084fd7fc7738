package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runLoop(t *testing.T) (*EventLoop, context.CancelFunc) {
	t.Helper()
	l := NewEventLoop()
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-l.Done()
	})
	return l, cancel
}

func TestEventLoopRunsInOrder(t *testing.T) {
	l, _ := runLoop(t)

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		require.True(t, l.Post(func() { got = append(got, i) }))
	}
	require.NoError(t, l.Do(context.Background(), func() {}))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestEventLoopAfterAndCancel(t *testing.T) {
	l, _ := runLoop(t)

	fired := make(chan struct{})
	l.After(5*time.Millisecond, func() { close(fired) })

	var canceled atomic.Bool
	stop := l.After(5*time.Millisecond, func() { canceled.Store(true) })
	stop()

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
	require.NoError(t, l.Do(context.Background(), func() {}))
	assert.False(t, canceled.Load())
}

func TestEventLoopStopped(t *testing.T) {
	l, cancel := runLoop(t)
	cancel()
	<-l.Done()

	assert.False(t, l.Post(func() {}))
	assert.ErrorIs(t, l.Do(context.Background(), func() {}), ErrLoopStopped)
}
