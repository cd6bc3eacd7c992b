package query

import (
	"strings"

	"github.com/rzpsarthak13/sqlobjects/internal/core"
)

// DeferConfig controls when a constraint is checked within a transaction.
type DeferConfig string

const (
	DeferrableInitiallyDeferred  DeferConfig = "DEFERRABLE INITIALLY DEFERRED"
	DeferrableInitiallyImmediate DeferConfig = "DEFERRABLE INITIALLY IMMEDIATE"
	NotDeferrable                DeferConfig = "NOT DEFERRABLE"
)

// ReferentialAction is the ON DELETE / ON UPDATE behaviour of a foreign key.
type ReferentialAction string

const (
	NoAction   ReferentialAction = "NO ACTION"
	Restrict   ReferentialAction = "RESTRICT"
	Cascade    ReferentialAction = "CASCADE"
	SetNull    ReferentialAction = "SET NULL"
	SetDefault ReferentialAction = "SET DEFAULT"
)

// Constraint holds the statements that add and drop a named table constraint.
type Constraint struct {
	Name      string
	Table     string
	CreateSQL string
	DropSQL   string
}

func newConstraint(esc core.Escaper, name, table, body string, deferCfg DeferConfig) Constraint {
	escapedTable := esc.EscapeIdentifier(table)
	escapedName := esc.EscapeIdentifier(name)

	create := "ALTER TABLE " + escapedTable + " ADD CONSTRAINT " + escapedName + " " + body
	if deferCfg != "" {
		create += " " + string(deferCfg)
	}

	return Constraint{
		Name:      name,
		Table:     table,
		CreateSQL: create,
		DropSQL:   "ALTER TABLE " + escapedTable + " DROP CONSTRAINT " + escapedName,
	}
}

// PrimaryKey builds a PRIMARY KEY constraint over columns.
func PrimaryKey(esc core.Escaper, name, table string, columns []string, deferCfg DeferConfig) Constraint {
	body := "PRIMARY KEY (" + strings.Join(EscapeIdentifiers(esc, columns), ", ") + ")"
	return newConstraint(esc, name, table, body, deferCfg)
}

// Unique builds a UNIQUE constraint over columns.
func Unique(esc core.Escaper, name, table string, columns []string, deferCfg DeferConfig) Constraint {
	body := "UNIQUE (" + strings.Join(EscapeIdentifiers(esc, columns), ", ") + ")"
	return newConstraint(esc, name, table, body, deferCfg)
}

// ForeignKey describes a FOREIGN KEY constraint.
type ForeignKey struct {
	Name              string
	Table             string
	Columns           []string
	ReferencedTable   string
	ReferencedColumns []string
	OnDelete          ReferentialAction
	OnUpdate          ReferentialAction
	Defer             DeferConfig
}

// Build renders the foreign key constraint. Unset actions default to NO ACTION.
func (fk ForeignKey) Build(esc core.Escaper) Constraint {
	onDelete, onUpdate := fk.OnDelete, fk.OnUpdate
	if onDelete == "" {
		onDelete = NoAction
	}
	if onUpdate == "" {
		onUpdate = NoAction
	}

	body := "FOREIGN KEY (" + strings.Join(EscapeIdentifiers(esc, fk.Columns), ", ") + ")" +
		" REFERENCES " + esc.EscapeIdentifier(fk.ReferencedTable) +
		" (" + strings.Join(EscapeIdentifiers(esc, fk.ReferencedColumns), ", ") + ")" +
		" ON DELETE " + string(onDelete) +
		" ON UPDATE " + string(onUpdate)

	return newConstraint(esc, fk.Name, fk.Table, body, fk.Defer)
}
