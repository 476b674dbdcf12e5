// Package datastore records the contracts deployed by executed modules.
package datastore

// Comparable provides an Equals() method which returns true if the two instances are equal, false otherwise.
type Comparable[T any] interface {
	Equals(T) bool
}

// PrimaryKeyHolder is an interface for types that can provide a unique identifier key for themselves.
type PrimaryKeyHolder[K Comparable[K]] interface {
	Key() K
}

// FilterFunc is a function that filters a slice of records.
type FilterFunc[K Comparable[K], R PrimaryKeyHolder[K]] func([]R) []R

// Store is an interface that represents an immutable set of records.
type Store[K Comparable[K], R PrimaryKeyHolder[K]] interface {
	// Fetch returns a copy of every record.
	Fetch() ([]R, error)
	// Get returns the record with the given key, or an error if no such record exists.
	Get(K) (R, error)
	// Filter returns a copy of the records passing all filters, applied in order.
	Filter(filters ...FilterFunc[K, R]) []R
}

// MutableStore is an interface that represents a mutable set of records.
type MutableStore[K Comparable[K], R PrimaryKeyHolder[K]] interface {
	Store[K, R]

	// Add inserts a new record, failing if the key is taken.
	Add(record R) error
	// Upsert inserts the record or replaces the record with the same key.
	Upsert(record R) error
	// Update replaces an existing record, failing if the key is unknown.
	Update(record R) error
	// Delete removes the record with the key, failing if the key is unknown.
	Delete(key K) error
}

// AddressRefStore is an immutable view over AddressRef records.
type AddressRefStore interface {
	Store[AddressRefKey, AddressRef]
}

// MutableAddressRefStore is a mutable AddressRefStore.
type MutableAddressRefStore interface {
	MutableStore[AddressRefKey, AddressRef]
}
