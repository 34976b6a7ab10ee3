package app

import "testing"

func TestCacheStoreShadowsParentUntilFlush(t *testing.T) {
	parent := newMemStore()
	if err := parent.Set([]byte("a"), []byte("1")); err != nil {
		t.Fatalf("parent.Set: %v", err)
	}

	cache := NewCacheStore(parent)
	if err := cache.Set([]byte("a"), []byte("2")); err != nil {
		t.Fatalf("cache.Set: %v", err)
	}
	if err := cache.Set([]byte("b"), []byte("3")); err != nil {
		t.Fatalf("cache.Set: %v", err)
	}

	got, err := cache.Get([]byte("a"))
	if err != nil || string(got) != "2" {
		t.Fatalf("cache.Get(a) = %q, %v; want 2, nil", got, err)
	}
	if v, _ := parent.Get([]byte("a")); string(v) != "1" {
		t.Fatalf("parent mutated before flush: got %q", v)
	}
	if v, _ := parent.Get([]byte("b")); v != nil {
		t.Fatalf("parent saw cache-only key before flush: %q", v)
	}

	if err := cache.Flush(parent); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if v, _ := parent.Get([]byte("a")); string(v) != "2" {
		t.Fatalf("parent.Get(a) after flush = %q, want 2", v)
	}
	if v, _ := parent.Get([]byte("b")); string(v) != "3" {
		t.Fatalf("parent.Get(b) after flush = %q, want 3", v)
	}
}

func TestCacheStoreDeleteTombstonesParentKey(t *testing.T) {
	parent := newMemStore()
	if err := parent.Set([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("parent.Set: %v", err)
	}

	cache := NewCacheStore(parent)
	if err := cache.Delete([]byte("k")); err != nil {
		t.Fatalf("cache.Delete: %v", err)
	}
	if has, _ := cache.Has([]byte("k")); has {
		t.Fatalf("expected key deleted in overlay")
	}
	if has, _ := parent.Has([]byte("k")); !has {
		t.Fatalf("parent key deleted before flush")
	}

	if err := cache.Flush(parent); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if has, _ := parent.Has([]byte("k")); has {
		t.Fatalf("expected parent key removed after flush")
	}
}

func TestCacheStoreNestedOverlayDiscard(t *testing.T) {
	parent := newMemStore()
	txCache := NewCacheStore(parent)
	if err := txCache.Set([]byte("x"), []byte("1")); err != nil {
		t.Fatalf("txCache.Set: %v", err)
	}

	msgCache := NewCacheStore(txCache)
	if err := msgCache.Set([]byte("x"), []byte("2")); err != nil {
		t.Fatalf("msgCache.Set: %v", err)
	}
	if err := msgCache.Set([]byte("y"), []byte("3")); err != nil {
		t.Fatalf("msgCache.Set: %v", err)
	}

	// Simulate a failing message: its cache is never flushed into txCache.
	msgCache.Discard()

	if v, _ := txCache.Get([]byte("x")); string(v) != "1" {
		t.Fatalf("txCache.Get(x) = %q, want 1 (msgCache write must not leak)", v)
	}
	if v, _ := txCache.Get([]byte("y")); v != nil {
		t.Fatalf("txCache.Get(y) = %q, want nil (msgCache write must not leak)", v)
	}
}

func TestCacheStoreIteratorMergesOverlay(t *testing.T) {
	parent := newMemStore()
	for _, k := range []string{"a", "b", "c"} {
		if err := parent.Set([]byte(k), []byte(k)); err != nil {
			t.Fatalf("parent.Set(%s): %v", k, err)
		}
	}

	cache := NewCacheStore(parent)
	if err := cache.Delete([]byte("b")); err != nil {
		t.Fatalf("cache.Delete: %v", err)
	}
	if err := cache.Set([]byte("d"), []byte("d")); err != nil {
		t.Fatalf("cache.Set: %v", err)
	}

	it, err := cache.Iterator(nil, nil)
	if err != nil {
		t.Fatalf("Iterator: %v", err)
	}
	defer it.Close()

	var got []string
	for ; it.Valid(); it.Next() {
		got = append(got, string(it.Key()))
	}
	want := []string{"a", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("Iterator keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Iterator keys = %v, want %v", got, want)
		}
	}
}
