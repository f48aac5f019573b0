package lock_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/teamquiz/internal/lock"
)

func TestKeyed_SerializesSameKey(t *testing.T) {
	k := lock.NewKeyed()

	var (
		wg      sync.WaitGroup
		counter int
	)
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("room:1")
			defer unlock()

			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter, "no increment should be lost")
	assert.Zero(t, k.Len(), "released keys should be dropped")
}

func TestKeyed_IndependentKeys(t *testing.T) {
	k := lock.NewKeyed()

	unlockA := k.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := k.Lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.FailNow(t, "lock on b should not wait for a")
	}
}

func TestKeyed_UnlockIsIdempotent(t *testing.T) {
	k := lock.NewKeyed()

	unlock := k.Lock("a")
	unlock()
	unlock()

	assert.Zero(t, k.Len())

	again := k.Lock("a")
	again()
}
