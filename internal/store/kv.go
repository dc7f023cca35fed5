package store

// KV defines the durable key/value contract the settings cache persists to.
// Implementations must be safe for concurrent use by multiple goroutines.
type KV interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
	Clear() error
	Keys() ([]string, error)
	All() (map[string][]byte, error)
	Sync() error
}

var _ KV = (*Store)(nil)
