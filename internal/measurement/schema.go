package measurement

import "fmt"

// ValidateSchema enforces the one-temporal-column rule. It is
// side-effect-free and must be called before any table creation.
func ValidateSchema(s Schema) error {
	temporal := 0
	for _, col := range s {
		if MapType(col.Type).Temporal {
			temporal++
		}
	}
	if temporal != 1 {
		return fmt.Errorf("%w: found %d", ErrInvalidSchema, temporal)
	}
	return nil
}

// TemporalColumn returns the name of the schema's single temporal column.
func (s Schema) TemporalColumn() (string, error) {
	if err := ValidateSchema(s); err != nil {
		return "", err
	}
	for _, col := range s {
		if MapType(col.Type).Temporal {
			return col.Name, nil
		}
	}
	return "", ErrInvalidSchema
}

// temporalFromColumns finds the single temporal column among live table
// columns, whose types are the concrete storage spellings. Zero or more
// than one temporal column means the table is not usable as a measurement
// table.
func temporalFromColumns(cols []Column) (string, error) {
	name := ""
	count := 0
	for _, col := range cols {
		if isTemporalType(col.Type) {
			name = col.Name
			count++
		}
	}
	if count != 1 {
		return "", fmt.Errorf("%w: found %d temporal columns", ErrInvalidSchema, count)
	}
	return name, nil
}
