// Package store provides the small key-value persistence layer behind the
// soil cache and the API health state. Both consumers treat storage as
// best-effort: a broken or missing store degrades to "no prior state" and
// never fails a detection.
package store

// KeyValueStore persists small opaque blobs by key.
type KeyValueStore interface {
	// Get returns the stored value and whether the key exists.
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}
