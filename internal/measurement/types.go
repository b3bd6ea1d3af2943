// Package measurement implements the schema-driven measurement table core:
// schema validation and provisioning, ingestion normalization, range and
// latest-row queries, windowed-average downsampling, and CSV export. It
// talks to storage only through the TableStore interface and performs no
// response formatting or logging of its own.
package measurement

import "strings"

// Measurement types distinguish raw sensor output from corrected series.
const (
	TypeRaw       = "RAW"
	TypeCorrected = "CORRECTED"
)

// Time intervals a measurement stream can be registered under.
const (
	IntervalHourly = "HOURLY"
	IntervalDaily  = "DAILY"
	IntervalOther  = "OTHER"
)

// DefaultModel is the sentinel used when no measurement model is supplied.
// It is the single default for every code path, data tables and
// latest-reading lookups alike.
const DefaultModel = "RAW-MODEL"

// SurrogateIDColumn is the auto-incrementing identifier column added to
// every measurement table. It is not part of the logical schema and is
// stripped from live column listings and query results.
const SurrogateIDColumn = "id"

// Column pairs a column name with its type. In a Schema the type is the
// abstract token supplied at registration (string, number, float, integer,
// date, datetime); in a live column listing it is the concrete storage type
// reported by the database.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Schema is the ordered, user-supplied column set of a measurement table.
// It is fixed at registration time; no schema-altering operation exists.
type Schema []Column

// Names returns the schema's column names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, col := range s {
		names[i] = col.Name
	}
	return names
}

// TableIdentity is the five-field key naming one measurement stream. The
// physical table name is derived from it; two identities that collide on
// the derived name address the same table.
type TableIdentity struct {
	SensorBrand string `json:"sensor_brand"`
	SensorID    string `json:"sensor_id"`
	Model       string `json:"measurement_model"`
	Type        string `json:"measurement_type"`
	Interval    string `json:"measurement_time_interval"`
}

// Normalized returns a copy with the model sentinel applied when the
// model field is empty.
func (id TableIdentity) Normalized() TableIdentity {
	if id.Model == "" {
		id.Model = DefaultModel
	}
	return id
}

// TableName derives the physical table name by joining the identity
// fields with underscores. The name doubles as the provisioning key.
func (id TableIdentity) TableName() string {
	id = id.Normalized()
	return strings.Join([]string{id.SensorBrand, id.SensorID, id.Model, id.Type, id.Interval}, "_")
}

// ValidType reports whether the measurement type is one of the accepted
// tokens.
func ValidType(t string) bool {
	return t == TypeRaw || t == TypeCorrected
}

// ValidInterval reports whether the time interval is one of the accepted
// tokens.
func ValidInterval(iv string) bool {
	return iv == IntervalHourly || iv == IntervalDaily || iv == IntervalOther
}

// Record is one measurement row keyed by column name. A batch of records
// destined for the same table must all carry exactly the table's logical
// column set.
type Record map[string]interface{}

// ColumnSpec describes one physical column for table creation: the
// concrete storage type produced by the type mapper plus whether the
// column is the temporal key (which receives the uniqueness constraint
// and secondary index).
type ColumnSpec struct {
	Name     string
	SQLType  string
	Temporal bool
}
