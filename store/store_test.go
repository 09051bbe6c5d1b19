package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreBasics(t *testing.T) {
	s := NewMemoryStore()

	_, ok := s.Get("missing")
	assert.False(t, ok)

	s.Set("a", 1)
	s.Set("a", 2)
	v, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, s.Len())

	s.Delete("a")
	s.Delete("a") // no-op
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStoreRange(t *testing.T) {
	s := NewMemoryStore()
	s.Set("a", 1)
	s.Set("b", 2)
	s.Set("c", 3)

	seen := make(map[string]any)
	s.Range(func(k string, v any) bool {
		seen[k] = v
		return true
	})
	assert.Len(t, seen, 3)

	// Early stop.
	count := 0
	s.Range(func(string, any) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count)

	s.Clear()
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStoreConcurrent(t *testing.T) {
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := string(rune('a' + n%10))
			s.Set(key, n)
			s.Get(key)
			s.Len()
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 10, s.Len())
}
