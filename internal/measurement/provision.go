package measurement

import "context"

// ProvisionResult reports the outcome of a provisioning call.
type ProvisionResult int

const (
	// Created means the table did not exist and was created.
	Created ProvisionResult = iota
	// AlreadyExists means a table with the derived name was already
	// provisioned. This is a reportable condition, not an error.
	AlreadyExists
)

// Provisioner creates measurement tables from validated schemas. It is
// the only part of the core that mutates storage structure.
type Provisioner struct {
	store    TableStore
	registry *Registry
}

// NewProvisioner creates a provisioner backed by the given store.
func NewProvisioner(store TableStore) *Provisioner {
	return &Provisioner{store: store, registry: NewRegistry(store)}
}

// Provision creates the identity's table. Losing a creation race is
// indistinguishable from the table having existed all along: both report
// AlreadyExists.
func (p *Provisioner) Provision(ctx context.Context, identity TableIdentity, schema Schema) (ProvisionResult, error) {
	name := identity.TableName()

	exists, err := p.registry.Exists(ctx, identity)
	if err != nil {
		return 0, err
	}
	if exists {
		return AlreadyExists, nil
	}

	if err := ValidateSchema(schema); err != nil {
		return 0, err
	}

	specs := make([]ColumnSpec, 0, len(schema))
	for _, col := range schema {
		ct := MapType(col.Type)
		specs = append(specs, ColumnSpec{Name: col.Name, SQLType: ct.SQLType, Temporal: ct.Temporal})
	}

	if err := p.store.CreateTable(ctx, name, specs); err != nil {
		// A concurrent provision of the same identity may have created the
		// table between the existence check and the create. The loser
		// observes AlreadyExists, same as a sequential caller would.
		if exists, checkErr := p.registry.Exists(ctx, identity); checkErr == nil && exists {
			return AlreadyExists, nil
		}
		return 0, storageErr("table creation", err)
	}
	return Created, nil
}
