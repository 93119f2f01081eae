//go:build !sqlite

package storage

import "fmt"

func newSQLiteStore(path string) (Store, error) {
	return nil, fmt.Errorf("%w: %s requested for %s but this binary was built without -tags sqlite", ErrUnsupportedStore, KindSQLite, path)
}
