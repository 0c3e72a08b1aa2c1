package kv

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_GetSet(t *testing.T) {
	s := New[string, int]()

	// Set and get
	s.Set("foo", 42)
	val, ok := s.Get("foo")
	assert.True(t, ok)
	assert.Equal(t, 42, val)

	// Get non-existent
	_, ok = s.Get("bar")
	assert.False(t, ok)
}

func TestStore_GetOrCompute(t *testing.T) {
	s := New[string, int]()

	calls := 0
	compute := func() int {
		calls++
		return 7
	}

	assert.Equal(t, 7, s.GetOrCompute("key", compute))
	assert.Equal(t, 7, s.GetOrCompute("key", compute))
	assert.Equal(t, 1, calls)
}

func TestStore_Delete(t *testing.T) {
	s := New[string, string]()
	s.Set("key", "value")

	s.Delete("key")

	_, ok := s.Get("key")
	assert.False(t, ok)
}

func TestStore_Clear(t *testing.T) {
	s := New[string, int]()
	s.Set("a", 1)
	s.Set("b", 2)

	s.Clear()

	assert.Equal(t, 0, s.Len())
}

func TestStore_Keys(t *testing.T) {
	s := New[string, int]()
	s.Set("a", 1)
	s.Set("b", 2)

	keys := s.Keys()
	assert.Len(t, keys, 2)
	assert.ElementsMatch(t, []string{"a", "b"}, keys)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := New[int, int]()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.Set(n, n*2)
			s.GetOrCompute(n, func() int { return -1 })
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, s.Len())
}
