package session

import "testing"

func TestAuthLRU_GetPut(t *testing.T) {
	c := newAuthLRU(2)
	c.Put("tagA", "Accepted")
	if status, ok := c.Get("tagA"); !ok || status != "Accepted" {
		t.Fatalf("expected Accepted, got %q ok=%v", status, ok)
	}
}

func TestAuthLRU_EvictsOldest(t *testing.T) {
	c := newAuthLRU(2)
	c.Put("tagA", "Accepted")
	c.Put("tagB", "Accepted")
	c.Put("tagC", "Accepted") // evicts tagA, the least recently used

	if _, ok := c.Get("tagA"); ok {
		t.Fatal("expected tagA to be evicted")
	}
	if _, ok := c.Get("tagB"); !ok {
		t.Fatal("expected tagB to survive")
	}
	if _, ok := c.Get("tagC"); !ok {
		t.Fatal("expected tagC to survive")
	}
}

func TestAuthLRU_GetRefreshesRecency(t *testing.T) {
	c := newAuthLRU(2)
	c.Put("tagA", "Accepted")
	c.Put("tagB", "Accepted")
	c.Get("tagA") // touch tagA so tagB becomes least recently used
	c.Put("tagC", "Accepted")

	if _, ok := c.Get("tagB"); ok {
		t.Fatal("expected tagB to be evicted, not tagA")
	}
	if _, ok := c.Get("tagA"); !ok {
		t.Fatal("expected tagA to survive")
	}
}

func TestAuthLRU_UpdateExisting(t *testing.T) {
	c := newAuthLRU(2)
	c.Put("tagA", "Accepted")
	c.Put("tagA", "Blocked")
	status, ok := c.Get("tagA")
	if !ok || status != "Blocked" {
		t.Fatalf("expected updated status Blocked, got %q ok=%v", status, ok)
	}
	if c.Len() != 1 {
		t.Fatalf("expected len 1, got %d", c.Len())
	}
}
