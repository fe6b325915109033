package lstore

import (
	"sync"
	"testing"

	"github.com/ValentinKolb/pKV/lib/cluster"
	"github.com/ValentinKolb/pKV/lib/store"
)

func TestLocalStore(t *testing.T) {
	t.Run("new store is empty", func(t *testing.T) {
		s := NewLocalStore()
		if s.Len() != 0 {
			t.Errorf("Expected empty store, got %d entries", s.Len())
		}
		if v, ok := s.Get(9); ok || v != 0 {
			t.Errorf("Expected (0, false) for missing key, got (%d, %v)", v, ok)
		}
	})

	t.Run("put and get", func(t *testing.T) {
		s := NewLocalStore()
		if !s.Put(9, 42) {
			t.Fatalf("Put(9, 42) was not applied")
		}
		if v, ok := s.Get(9); !ok || v != 42 {
			t.Errorf("Expected (42, true), got (%d, %v)", v, ok)
		}
	})

	t.Run("update in place", func(t *testing.T) {
		s := NewLocalStore()
		s.Put(9, 42)
		s.Put(9, 43)
		if v, _ := s.Get(9); v != 43 {
			t.Errorf("Expected 43 after update, got %d", v)
		}
		if s.Len() != 1 {
			t.Errorf("Expected exactly one entry per key, got %d", s.Len())
		}
		info := s.GetInfo()
		if info.Inserts != 1 || info.Updates != 1 || info.Entries != 1 {
			t.Errorf("Unexpected info: %+v", info)
		}
	})

	t.Run("sentinel zero is rejected", func(t *testing.T) {
		s := NewLocalStore()
		if s.Put(0, 1) {
			t.Errorf("Put with key 0 must not be applied")
		}
		if s.Put(1, 0) {
			t.Errorf("Put with value 0 must not be applied")
		}
		if s.Len() != 0 {
			t.Errorf("Expected empty store, got %d entries", s.Len())
		}
	})

	t.Run("range and snapshot", func(t *testing.T) {
		s := NewLocalStore()
		for k := uint16(1); k <= 70; k++ {
			s.Put(k, k*10)
		}

		count := 0
		s.Range(func(key, value uint16) bool {
			if value != key*10 {
				t.Errorf("Range returned %d=%d", key, value)
			}
			count++
			return true
		})
		if count != 70 {
			t.Errorf("Range visited %d entries, want 70", count)
		}

		// node 2 holds keys owned by 0, 1 and 2
		entries := store.Snapshot(s, func(key uint16) bool { return cluster.IsInReplicaSet(key, 2) })
		if len(entries) != 30 {
			t.Errorf("Snapshot returned %d entries, want 30", len(entries))
		}
		for _, e := range entries {
			if o := cluster.OwnerIndex(e.Key); o > 2 {
				t.Errorf("Snapshot returned key %d owned by %d", e.Key, o)
			}
		}
	})

	t.Run("concurrent access", func(t *testing.T) {
		s := NewLocalStore()
		var wg sync.WaitGroup
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 1; i <= 1000; i++ {
					key := uint16(i)
					s.Put(key, uint16(w+1))
					s.Get(key)
				}
			}(w)
		}
		wg.Wait()

		if s.Len() != 1000 {
			t.Errorf("Expected 1000 entries, got %d", s.Len())
		}
		info := s.GetInfo()
		if info.Inserts != 1000 || info.Inserts+info.Updates != 8000 {
			t.Errorf("Unexpected info after concurrent writes: %+v", info)
		}
	})
}
