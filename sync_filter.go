package bitcuckoo

import (
	"io"
	"sync"
)

// SyncFilter guards a Filter with a single lock held for the whole of each
// operation. An eviction walk can touch any number of buckets, so the
// table cannot be locked piecewise.
type SyncFilter struct {
	filter *Filter
	lock   sync.RWMutex
}

// NewSyncFilter wraps _filter_. The caller must not use _filter_ directly
// afterwards.
func NewSyncFilter(filter *Filter) *SyncFilter {
	return &SyncFilter{filter: filter}
}

// NewSync creates a Filter with NewWithOptions and wraps it.
func NewSync(capacity uint64, errorRate float64, opts Options) (*SyncFilter, error) {
	filter, err := NewWithOptions(capacity, errorRate, opts)
	if err != nil {
		return nil, err
	}
	return NewSyncFilter(filter), nil
}

func (s *SyncFilter) Insert(data []byte) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.filter.Insert(data)
}

func (s *SyncFilter) Add(data []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.filter.Add(data)
}

func (s *SyncFilter) Contains(data []byte) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.filter.Contains(data)
}

func (s *SyncFilter) Delete(data []byte) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.filter.Delete(data)
}

func (s *SyncFilter) Length() uint64 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.filter.Length()
}

func (s *SyncFilter) Reset() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.filter.Reset()
}

// WriteTo writes a consistent snapshot of the filter onto _stream_.
func (s *SyncFilter) WriteTo(stream io.Writer) (int64, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.filter.WriteTo(stream)
}

// Snapshot returns a deep copy of the wrapped filter. The copy shares the
// logger but gets its own random source.
func (s *SyncFilter) Snapshot() (*Filter, error) {
	s.lock.RLock()
	data, err := s.filter.MarshalBinary()
	logger := s.filter.logger
	s.lock.RUnlock()
	if err != nil {
		return nil, err
	}
	snapshot := &Filter{logger: logger}
	if err := snapshot.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return snapshot, nil
}
