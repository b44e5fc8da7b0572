package services

import (
	"sync"
	"testing"
)

func TestLockTableSameIDSameLock(t *testing.T) {
	tbl := NewLockTable()
	if tbl.Get("o1") != tbl.Get("o1") {
		t.Error("same order id returned different locks")
	}
	if tbl.Get("o1") == tbl.Get("o2") {
		t.Error("different order ids share a lock")
	}
}

func TestLockTableEvict(t *testing.T) {
	tbl := NewLockTable()
	before := tbl.Get("o1")
	tbl.Evict("o1")
	if tbl.Len() != 0 {
		t.Fatalf("Len = %d after evict, want 0", tbl.Len())
	}
	if after := tbl.Get("o1"); after == before {
		t.Error("evicted id returned the old lock")
	}
}

func TestLockTableConcurrentGet(t *testing.T) {
	tbl := NewLockTable()
	const goroutines = 64

	locks := make([]*sync.Mutex, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			locks[i] = tbl.Get("o1")
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		if locks[i] != locks[0] {
			t.Fatalf("goroutine %d got a different lock instance", i)
		}
	}
	if tbl.Len() != 1 {
		t.Errorf("Len = %d, want 1", tbl.Len())
	}
}
