package core

// Schema represents the structure of a database table as reported by the connection.
type Schema struct {
	// TableName is the name of the table.
	TableName string

	// PrimaryKey is the name of the primary key column, if the table has one.
	PrimaryKey string

	// Columns contains all column definitions for the table, in ordinal order.
	Columns []Column
}

// Column represents a single column in a database table.
type Column struct {
	// Name is the column name.
	Name string

	// Type is the declared database type (e.g., "int4", "varchar(255)", "INTEGER").
	Type string

	// Nullable indicates whether the column can contain NULL values.
	Nullable bool

	// Default is the column default expression, if any.
	Default *string
}

// Column returns the column with the given name.
func (s *Schema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Types returns the column name to declared type map.
func (s *Schema) Types() map[string]string {
	types := make(map[string]string, len(s.Columns))
	for _, c := range s.Columns {
		types[c.Name] = c.Type
	}
	return types
}
