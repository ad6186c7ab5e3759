//go:build sqlite

package storage

// DefaultStoreKind is the backend used when none is named. Builds with sqlite
// keep run history on disk.
func DefaultStoreKind() string {
	return "sqlite"
}

func newSQLiteStore(path string) (Store, error) {
	return NewSQLiteStore(path), nil
}
