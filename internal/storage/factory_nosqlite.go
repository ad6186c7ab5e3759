//go:build !sqlite

package storage

import "errors"

var errSQLiteUnavailable = errors.New("sqlite store requires a build with -tags sqlite")

func DefaultStoreKind() string {
	return "memory"
}

func newSQLiteStore(_ string) (Store, error) {
	return nil, errSQLiteUnavailable
}
