package storage

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	KindMemory = "memory"
	KindSQLite = "sqlite"

	storeEnv = "EVOSELECT_STORE"
)

var ErrUnsupportedStore = errors.New("unsupported store backend")

// DefaultStoreKind reads EVOSELECT_STORE, falling back to the memory store.
func DefaultStoreKind() string {
	if kind := strings.TrimSpace(os.Getenv(storeEnv)); kind != "" {
		return kind
	}
	return KindMemory
}

// NewStore opens the backend named by kind. An empty kind selects memory;
// sqlitePath is only read by the sqlite backend.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindMemory:
		return NewMemoryStore(), nil
	case KindSQLite:
		if sqlitePath == "" {
			return nil, fmt.Errorf("sqlite store requires a database path")
		}
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedStore, kind)
	}
}

func CloseIfSupported(store Store) error {
	if closer, ok := store.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
