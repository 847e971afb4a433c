package cache

import (
	"testing"
	"time"
)

func TestCachePutGet(t *testing.T) {
	c := NewEmbeddingCache(10, time.Minute)

	if _, ok := c.Get("query"); ok {
		t.Error("expected miss on empty cache")
	}

	vector := []float32{1, 2, 3}
	c.Put("query", vector)

	got, ok := c.Get("query")
	if !ok {
		t.Fatal("expected hit after put")
	}
	if len(got) != 3 || got[0] != 1 {
		t.Errorf("unexpected vector: %v", got)
	}
}

func TestCacheEviction(t *testing.T) {
	c := NewEmbeddingCache(2, time.Minute)

	c.Put("a", []float32{1})
	c.Put("b", []float32{2})
	c.Put("c", []float32{3})

	if c.Len() != 2 {
		t.Errorf("expected size 2 after eviction, got %d", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("expected oldest entry to be evicted")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected newest entry to survive")
	}
}

func TestCacheLRUOrder(t *testing.T) {
	c := NewEmbeddingCache(2, time.Minute)

	c.Put("a", []float32{1})
	c.Put("b", []float32{2})
	c.Get("a") // refresh a, making b the eviction candidate
	c.Put("c", []float32{3})

	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry was evicted")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry survived")
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	c := NewEmbeddingCache(10, time.Nanosecond)

	c.Put("query", []float32{1})
	time.Sleep(time.Millisecond)

	if _, ok := c.Get("query"); ok {
		t.Error("expected expired entry to miss")
	}
	if c.Len() != 0 {
		t.Errorf("expected expired entry to be dropped, size %d", c.Len())
	}
}

func TestCacheUpdateExistingKey(t *testing.T) {
	c := NewEmbeddingCache(10, time.Minute)

	c.Put("query", []float32{1})
	c.Put("query", []float32{2})

	if c.Len() != 1 {
		t.Errorf("expected single entry, got %d", c.Len())
	}
	got, ok := c.Get("query")
	if !ok || got[0] != 2 {
		t.Errorf("expected updated vector, got %v", got)
	}
}
