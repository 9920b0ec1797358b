package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequentialIDs(t *testing.T) {
	ids := NewSequentialIDs("eval")
	assert.Equal(t, "eval-1", ids.Next())
	assert.Equal(t, "eval-2", ids.Next())
}

func TestSequentialIDs_DefaultPrefix(t *testing.T) {
	assert.Equal(t, "run-1", NewSequentialIDs("").Next())
}

func TestSequentialIDs_Unique(t *testing.T) {
	ids := NewSequentialIDs("")
	const n = 200

	var mu sync.Mutex
	seen := make(map[string]bool, n)

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			id := ids.Next()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
}
