package parallel

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPartition(t *testing.T) {
	for size := 1; size <= 9; size++ {
		p := NewPool(size)
		for n := 0; n < 50; n++ {
			ranges := p.Partition(n)
			if n == 0 {
				require.Empty(t, ranges)
				continue
			}
			require.LessOrEqual(t, len(ranges), size, "size=%d, n=%d", size, n)
			next := 0
			for _, r := range ranges {
				require.Equal(t, next, r.Start, "size=%d, n=%d", size, n)
				require.Greater(t, r.Len(), 0, "size=%d, n=%d", size, n)
				require.LessOrEqual(t, r.Len()-ranges[len(ranges)-1].Len(), 1, "size=%d, n=%d", size, n)
				next = r.End
			}
			require.Equal(t, n, next, "size=%d, n=%d", size, n)
		}
	}
}

func TestNewPoolDefaultSize(t *testing.T) {
	require.Equal(t, DefaultSize(), NewPool(0).Size())
	require.GreaterOrEqual(t, DefaultSize(), 1)
	require.Equal(t, 1, SequentialPool().Size())
	var p *Pool
	require.Equal(t, 1, p.Size())
	require.NotEmpty(t, Describe())
}

func TestRunCoversEveryIndex(t *testing.T) {
	p := NewPool(4)
	var mu sync.Mutex
	seen := make([]int, 1000)
	err := p.Run(context.Background(), len(seen), func(_ context.Context, r Range) error {
		mu.Lock()
		defer mu.Unlock()
		for i := r.Start; i < r.End; i++ {
			seen[i]++
		}
		return nil
	})
	require.NoError(t, err)
	for i, count := range seen {
		require.Equal(t, 1, count, "i=%d", i)
	}
}

func TestRunReturnsFirstError(t *testing.T) {
	p := NewPool(4)
	boom := errors.New("boom")
	err := p.Run(context.Background(), 100, func(ctx context.Context, r Range) error {
		if r.Start == 0 {
			return boom
		}
		<-ctx.Done()
		return ctx.Err()
	})
	require.Equal(t, boom, err)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := SequentialPool().Run(ctx, 10, func(context.Context, Range) error {
		called = true
		return nil
	})
	require.Equal(t, context.Canceled, err)
	require.False(t, called)
}
