package measurement

import (
	"context"
	"fmt"
)

// Registry resolves measurement identities against the live store. All
// lookups read column metadata back from storage rather than trusting a
// cached schema, so ingestion and queries are always checked against
// ground truth.
type Registry struct {
	store TableStore
}

// NewRegistry creates a registry backed by the given store.
func NewRegistry(store TableStore) *Registry {
	return &Registry{store: store}
}

// Exists reports whether the identity's table has been provisioned.
func (r *Registry) Exists(ctx context.Context, identity TableIdentity) (bool, error) {
	ok, err := r.store.TableExists(ctx, identity.TableName())
	if err != nil {
		return false, storageErr("table lookup", err)
	}
	return ok, nil
}

// Columns returns the identity's live logical columns (surrogate id
// stripped) and the name of its temporal column. A missing table, or a
// table without exactly one temporal column, is reported as
// ErrTableNotFound.
func (r *Registry) Columns(ctx context.Context, identity TableIdentity) ([]Column, string, error) {
	name := identity.TableName()

	exists, err := r.store.TableExists(ctx, name)
	if err != nil {
		return nil, "", storageErr("table lookup", err)
	}
	if !exists {
		return nil, "", fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}

	cols, err := r.store.ListColumns(ctx, name)
	if err != nil {
		return nil, "", storageErr("column listing", err)
	}

	logical := make([]Column, 0, len(cols))
	for _, col := range cols {
		if col.Name == SurrogateIDColumn {
			continue
		}
		logical = append(logical, col)
	}

	temporal, err := temporalFromColumns(logical)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s has no usable temporal column", ErrTableNotFound, name)
	}

	return logical, temporal, nil
}
