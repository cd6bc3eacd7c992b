package schema

import (
	"fmt"

	"github.com/rzpsarthak13/sqlobjects/internal/core"
)

// FieldSpec is the part of a field descriptor the validator needs.
type FieldSpec struct {
	Name       string
	Nullable   bool
	HasDefault bool
}

// SchemaValidator checks field declarations against live table metadata.
type SchemaValidator struct {
	schema *core.Schema
}

// NewSchemaValidator creates a new schema validator.
func NewSchemaValidator(schema *core.Schema) *SchemaValidator {
	return &SchemaValidator{schema: schema}
}

// ValidateFields reports every declaration that disagrees with the table.
// The returned problems are advisory; decoding still follows the declarations.
func (sv *SchemaValidator) ValidateFields(idColumn string, fields []FieldSpec) []error {
	if sv.schema == nil {
		return []error{fmt.Errorf("schema cannot be nil")}
	}

	var problems []error

	if _, ok := sv.schema.Column(idColumn); !ok {
		problems = append(problems, fmt.Errorf("id column %q not found in table %q", idColumn, sv.schema.TableName))
	} else if sv.schema.PrimaryKey != "" && sv.schema.PrimaryKey != idColumn {
		problems = append(problems, fmt.Errorf("id column %q is not the primary key %q of table %q",
			idColumn, sv.schema.PrimaryKey, sv.schema.TableName))
	}

	for _, field := range fields {
		column, ok := sv.schema.Column(field.Name)
		if !ok {
			problems = append(problems, fmt.Errorf("field %q has no column in table %q", field.Name, sv.schema.TableName))
			continue
		}

		// A field declared nullable will be inserted as NULL when unset.
		if field.Nullable && !column.Nullable && column.Default == nil {
			problems = append(problems, fmt.Errorf("field %q is declared nullable but column is NOT NULL without a default", field.Name))
		}
		if field.HasDefault && column.Default == nil {
			problems = append(problems, fmt.Errorf("field %q is declared with a default but column has none", field.Name))
		}
	}

	return problems
}
