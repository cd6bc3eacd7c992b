package table

import "github.com/rzpsarthak13/sqlobjects/internal/schema"

// IDMode selects who assigns identifiers to new records.
type IDMode int

const (
	// ClientGenerated records get an id from the handler's generator
	// (UUIDv7 by default) as soon as they are constructed.
	ClientGenerated IDMode = iota

	// DatabaseGenerated records omit the id column on INSERT and read the
	// assigned value back from the database.
	DatabaseGenerated
)

func (m IDMode) String() string {
	if m == DatabaseGenerated {
		return "database"
	}
	return "client"
}

// DefaultIDColumn is used when Schema.IDColumn is empty.
const DefaultIDColumn = "id"

// Schema declares the table a handler manages and the shape of its records.
type Schema[T any] struct {
	// Table is the unquoted table name.
	Table string

	// IDColumn is the primary key column. Defaults to "id".
	IDColumn string

	// IDMode selects the identifier policy for new records.
	IDMode IDMode

	// Fields lists every non-id column.
	Fields []Field[T]
}

func (s Schema[T]) idColumn() string {
	if s.IDColumn == "" {
		return DefaultIDColumn
	}
	return s.IDColumn
}

func (s Schema[T]) fieldSpecs() []schema.FieldSpec {
	specs := make([]schema.FieldSpec, 0, len(s.Fields))
	for _, f := range s.Fields {
		specs = append(specs, schema.FieldSpec{Name: f.Name, Nullable: f.Nullable, HasDefault: f.HasDefault})
	}
	return specs
}
