package datastore

import (
	"sync"
)

// MemoryAddressRefStore is an in-memory implementation of MutableAddressRefStore. It keeps
// records in insertion order.
type MemoryAddressRefStore struct {
	mu      sync.RWMutex
	Records []AddressRef `json:"records"`
}

var _ MutableAddressRefStore = &MemoryAddressRefStore{}

// NewMemoryAddressRefStore creates a new MemoryAddressRefStore instance.
func NewMemoryAddressRefStore() *MemoryAddressRefStore {
	return &MemoryAddressRefStore{Records: []AddressRef{}}
}

// Get returns a copy of the AddressRef for the provided key.
func (s *MemoryAddressRefStore) Get(key AddressRefKey) (AddressRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(key)
	if idx == -1 {
		return AddressRef{}, ErrAddressRefNotFound
	}

	return s.Records[idx].Clone(), nil
}

// Fetch returns a copy of all AddressRef in the store.
func (s *MemoryAddressRefStore) Fetch() ([]AddressRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.cloneAll(), nil
}

// Filter returns a copy of all AddressRef in the store that pass all of the provided filters.
func (s *MemoryAddressRefStore) Filter(filters ...FilterFunc[AddressRefKey, AddressRef]) []AddressRef {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.cloneAll()
	for _, filter := range filters {
		records = filter(records)
	}

	return records
}

// Add inserts a new record into the store.
func (s *MemoryAddressRefStore) Add(record AddressRef) error {
	if err := record.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(record.Key()) != -1 {
		return ErrAddressRefExists
	}
	s.Records = append(s.Records, record.Clone())

	return nil
}

// Upsert inserts the record, or replaces the record with the same key.
func (s *MemoryAddressRefStore) Upsert(record AddressRef) error {
	if err := record.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(record.Key())
	if idx == -1 {
		s.Records = append(s.Records, record.Clone())
		return nil
	}
	s.Records[idx] = record.Clone()

	return nil
}

// Update replaces an existing record.
func (s *MemoryAddressRefStore) Update(record AddressRef) error {
	if err := record.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(record.Key())
	if idx == -1 {
		return ErrAddressRefNotFound
	}
	s.Records[idx] = record.Clone()

	return nil
}

// Delete removes the record with the given key.
func (s *MemoryAddressRefStore) Delete(key AddressRefKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(key)
	if idx == -1 {
		return ErrAddressRefNotFound
	}
	s.Records = append(s.Records[:idx], s.Records[idx+1:]...)

	return nil
}

func (s *MemoryAddressRefStore) indexOf(key AddressRefKey) int {
	for i, record := range s.Records {
		if record.Key().Equals(key) {
			return i
		}
	}

	return -1
}

func (s *MemoryAddressRefStore) cloneAll() []AddressRef {
	records := make([]AddressRef, 0, len(s.Records))
	for _, r := range s.Records {
		records = append(records, r.Clone())
	}

	return records
}
