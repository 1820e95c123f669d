package voting

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()
	a := lockKey{userID: 1, target: post}
	b := lockKey{userID: 2, target: post}

	unlockA := k.lock(a)

	// other keys are independent
	unlockB := k.lock(b)
	unlockB()

	acquired := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		unlock := k.lock(a)
		close(acquired)
		unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("lock acquired twice")
	case <-time.After(50 * time.Millisecond):
	}

	unlockA()
	wg.Wait()

	require.Equal(t, 0, k.size())
}
