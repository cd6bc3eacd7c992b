package database

import "testing"

func TestEscapeIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
		in      string
		want    string
	}{
		{"postgres plain", TypePostgres, "user", `"user"`},
		{"postgres embedded quote", TypePostgres, `we"ird`, `"we""ird"`},
		{"mysql plain", TypeMySQL, "user", "`user`"},
		{"mysql embedded backtick", TypeMySQL, "we`ird", "`we``ird`"},
		{"sqlite plain", TypeSQLite, "user", `"user"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := DialectFor(tt.dialect)
			if !ok {
				t.Fatalf("DialectFor(%q) not found", tt.dialect)
			}
			if got := d.EscapeIdentifier(tt.in); got != tt.want {
				t.Errorf("EscapeIdentifier(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestEscapeLiteral(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
		in      string
		want    string
	}{
		{"postgres quote", TypePostgres, "O'Brien", `'O''Brien'`},
		{"postgres backslash", TypePostgres, `a\b`, `E'a\\b'`},
		{"mysql quote", TypeMySQL, "O'Brien", `'O\'Brien'`},
		{"mysql control chars", TypeMySQL, "a\nb\x00", `'a\nb\0'`},
		{"sqlite quote", TypeSQLite, "O'Brien", `'O''Brien'`},
		{"sqlite backslash kept", TypeSQLite, `a\b`, `'a\b'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _ := DialectFor(tt.dialect)
			if got := d.EscapeLiteral(tt.in); got != tt.want {
				t.Errorf("EscapeLiteral(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestDialectStatements(t *testing.T) {
	tests := []struct {
		dialect   string
		truncate  string
		deferStmt string
		returning bool
	}{
		{TypePostgres, `TRUNCATE "t"`, "SET CONSTRAINTS ALL DEFERRED", true},
		{TypeMySQL, "TRUNCATE TABLE `t`", "", false},
		{TypeSQLite, `DELETE FROM "t"`, "PRAGMA defer_foreign_keys = ON", true},
	}

	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			d, _ := DialectFor(tt.dialect)
			if got := d.TruncateStatement(d.EscapeIdentifier("t")); got != tt.truncate {
				t.Errorf("TruncateStatement() = %q, want %q", got, tt.truncate)
			}
			if got := d.DeferConstraintsStatement(); got != tt.deferStmt {
				t.Errorf("DeferConstraintsStatement() = %q, want %q", got, tt.deferStmt)
			}
			if got := d.SupportsReturning(); got != tt.returning {
				t.Errorf("SupportsReturning() = %v, want %v", got, tt.returning)
			}
		})
	}

	if _, ok := DialectFor("oracle"); ok {
		t.Error("DialectFor(oracle) should not be found")
	}
}
