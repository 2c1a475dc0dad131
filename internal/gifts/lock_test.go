package gifts

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()

	var (
		wg      sync.WaitGroup
		counter = map[string]int{}
		guard   sync.Mutex
	)
	for i := 0; i < 50; i++ {
		key := []string{"a", "b"}[i%2]
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := k.Lock(context.Background(), key)
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			guard.Lock()
			counter[key]++
			guard.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 25, counter["a"])
	assert.Equal(t, 25, counter["b"])
	assert.Equal(t, 0, k.size())
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	k := newKeyedMutex()
	unlockA, err := k.Lock(context.Background(), "a")
	require.NoError(t, err)
	unlockB, err := k.Lock(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, 2, k.size())

	unlockA()
	unlockB()
	assert.Equal(t, 0, k.size())
}

func TestKeyedMutex_WaitHonoursContext(t *testing.T) {
	k := newKeyedMutex()
	unlock, err := k.Lock(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = k.Lock(ctx, "a")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, k.size())

	unlock()
	assert.Equal(t, 0, k.size())

	unlock, err = k.Lock(context.Background(), "a")
	require.NoError(t, err)
	unlock()
}
