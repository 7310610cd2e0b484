package store

import (
	"context"
	"strings"

	"github.com/sagecor-solutions/resumeintel/internal/store/pgstore"
	"github.com/sagecor-solutions/resumeintel/internal/store/sqlitestore"
)

// DefaultOpener picks the backend from the location: postgres URLs get the
// pgvector server backend, everything else is treated as a directory for the
// embedded store.
type DefaultOpener struct{}

func isPostgresURL(location string) bool {
	return strings.HasPrefix(location, "postgres://") || strings.HasPrefix(location, "postgresql://")
}

func (DefaultOpener) Open(ctx context.Context, location, collection string) (Store, error) {
	if isPostgresURL(location) {
		return pgstore.Open(ctx, location, collection)
	}
	return sqlitestore.Open(ctx, location, collection)
}

func (DefaultOpener) OpenPrimitive(ctx context.Context, location, collection string) (Store, error) {
	if isPostgresURL(location) {
		return pgstore.OpenPrimitive(ctx, location, collection)
	}
	return sqlitestore.OpenPrimitive(ctx, location, collection)
}

func (DefaultOpener) Exists(location string) bool {
	if isPostgresURL(location) {
		return pgstore.Exists(location)
	}
	return sqlitestore.Exists(location)
}
