package cache

import "github.com/rohmanhakim/spotcrime/pkg/failure"

// Cache defines the port interface for the page cache.
// This interface follows the port-adapter pattern, allowing the fetcher
// and the scheduler to run against the on-disk cache in production and
// an in-memory cache in tests.
//
// Keys are exact URL strings. No normalization is applied, so
// "https://x/a" and "https://x/a/" are distinct keys.
type Cache interface {
	// Get retrieves an entry by key.
	// Returns the entry and true if found, or a zero Entry and false if not found.
	Get(key string) (Entry, bool)

	// Put stores an entry. If the key already exists, the entry is overwritten.
	Put(key string, entry Entry)

	// Save persists the full mapping. Adapters without persistence return nil.
	Save() failure.ClassifiedError
}
