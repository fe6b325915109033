package lstore

import (
	"github.com/ValentinKolb/pKV/lib/store"
	"github.com/puzpuzpuz/xsync/v3"
	"sync/atomic"
)

type storeImpl struct {
	data    *xsync.MapOf[uint16, uint16]
	inserts atomic.Uint64
	updates atomic.Uint64
}

// NewLocalStore creates a new, empty local store instance.
func NewLocalStore() store.IStore {
	return &storeImpl{
		data: xsync.NewMapOf[uint16, uint16](),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Get(key uint16) (uint16, bool) {
	return s.data.Load(key)
}

func (s *storeImpl) Put(key, value uint16) bool {
	// 0 is the absent sentinel of the protocol
	if key == 0 || value == 0 {
		return false
	}

	s.data.Compute(key, func(_ uint16, loaded bool) (uint16, bool) {
		if loaded {
			s.updates.Add(1)
		} else {
			s.inserts.Add(1)
		}
		return value, false
	})
	return true
}

func (s *storeImpl) Range(fn func(key, value uint16) bool) {
	s.data.Range(fn)
}

func (s *storeImpl) Len() int {
	return s.data.Size()
}

func (s *storeImpl) GetInfo() store.Info {
	return store.Info{
		Entries: s.data.Size(),
		Inserts: s.inserts.Load(),
		Updates: s.updates.Load(),
	}
}
