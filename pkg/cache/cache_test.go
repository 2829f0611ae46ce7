package cache

import (
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	c := New[string]()
	c.Set("key1", "value1", 1*time.Second)
	val, ok := c.Get("key1")
	if !ok || val != "value1" {
		t.Fatalf("expected value1, got %v, exists=%v", val, ok)
	}
}

func TestExpiration(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	c := New[string]()
	c.now = func() time.Time { return now }

	c.Set("key1", "value1", 100*time.Millisecond)
	now = now.Add(150 * time.Millisecond)
	_, ok := c.Get("key1")
	if ok {
		t.Fatalf("expected expired key to return false")
	}
}

func TestDelete(t *testing.T) {
	c := New[int]()
	c.Set("key1", 1, 1*time.Second)
	c.Delete("key1")
	_, ok := c.Get("key1")
	if ok {
		t.Fatalf("expected deleted key to return false")
	}
}

func TestInvalidate(t *testing.T) {
	c := New[string]()
	c.Set("dashboard:stats", "s", 1*time.Second)
	c.Set("dashboard:upcoming", "u", 1*time.Second)
	c.Set("patients:count", "p", 1*time.Second)
	c.Invalidate("dashboard:")
	_, ok1 := c.Get("dashboard:stats")
	_, ok2 := c.Get("dashboard:upcoming")
	_, ok3 := c.Get("patients:count")
	if ok1 || ok2 {
		t.Fatalf("expected dashboard keys to be invalidated")
	}
	if !ok3 {
		t.Fatalf("expected patients:count to still exist")
	}
}

func TestClear(t *testing.T) {
	c := New[string]()
	c.Set("a", "1", time.Second)
	c.Clear()
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected cleared cache to be empty")
	}
}
