package query

import (
	"errors"
	"testing"
)

func TestWhereClause(t *testing.T) {
	tests := []struct {
		name  string
		pairs map[string]any
		conj  Conjunction
		want  string
	}{
		{
			name:  "no pairs",
			pairs: nil,
			conj:  And,
			want:  "",
		},
		{
			name:  "single equality",
			pairs: map[string]any{"name": "bob"},
			conj:  And,
			want:  `"name" = 'bob'`,
		},
		{
			name:  "pairs are sorted and joined with AND",
			pairs: map[string]any{"name": "bob", "age": 30},
			conj:  And,
			want:  `"age" = 30 AND "name" = 'bob'`,
		},
		{
			name:  "OR conjunction",
			pairs: map[string]any{"a": true, "b": false},
			conj:  Or,
			want:  `"a" = TRUE OR "b" = FALSE`,
		},
		{
			name:  "list becomes IN",
			pairs: map[string]any{"email": []string{"a", "b"}},
			conj:  Or,
			want:  `"email" IN ('a', 'b')`,
		},
		{
			name:  "empty list matches nothing",
			pairs: map[string]any{"id": []any{}},
			conj:  And,
			want:  "FALSE",
		},
		{
			name:  "empty list keeps other constraints",
			pairs: map[string]any{"id": []int{}, "name": "x"},
			conj:  Or,
			want:  `FALSE OR "name" = 'x'`,
		},
		{
			name:  "nil becomes IS NULL",
			pairs: map[string]any{"deleted_at": nil},
			conj:  And,
			want:  `"deleted_at" IS NULL`,
		},
		{
			name:  "zero conjunction defaults to AND",
			pairs: map[string]any{"a": 1, "b": 2},
			want:  `"a" = 1 AND "b" = 2`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WhereClause(ansiEscaper{}, tt.pairs, tt.conj)
			if err != nil {
				t.Fatalf("WhereClause() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("WhereClause() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSelectAndDeleteWhere(t *testing.T) {
	got, err := SelectWhere(ansiEscaper{}, "user", map[string]any{"id": []int64{1, 2}}, And)
	if err != nil {
		t.Fatal(err)
	}
	if want := `SELECT * FROM "user" WHERE "id" IN (1, 2)`; got != want {
		t.Errorf("SelectWhere() = %q, want %q", got, want)
	}

	got, err = SelectWhere(ansiEscaper{}, "user", nil, And)
	if err != nil {
		t.Fatal(err)
	}
	if want := `SELECT * FROM "user"`; got != want {
		t.Errorf("SelectWhere() without pairs = %q, want %q", got, want)
	}

	got, err = DeleteWhere(ansiEscaper{}, "user", map[string]any{"email": []string{}}, Or)
	if err != nil {
		t.Fatal(err)
	}
	if want := `DELETE FROM "user" WHERE FALSE`; got != want {
		t.Errorf("DeleteWhere() = %q, want %q", got, want)
	}
}

func TestInsert(t *testing.T) {
	got, err := Insert(ansiEscaper{}, "user", map[string]any{
		"name":  "bob",
		"email": nil,
		"age":   3,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := `INSERT INTO "user" ("age", "email", "name") VALUES (3, NULL, 'bob')`
	if got != want {
		t.Errorf("Insert() = %q, want %q", got, want)
	}

	got, err = Insert(ansiEscaper{}, "user", map[string]any{})
	if err != nil {
		t.Fatal(err)
	}
	if want := `INSERT INTO "user" DEFAULT VALUES`; got != want {
		t.Errorf("Insert() of empty row = %q, want %q", got, want)
	}
}

func TestBatchInsertSortsColumns(t *testing.T) {
	rows := []map[string]any{
		{"name": "a", "email": "a@x", "id": 1},
		{"id": 2, "email": "b@x", "name": "b"},
	}

	got, err := BatchInsert(ansiEscaper{}, "user", rows)
	if err != nil {
		t.Fatal(err)
	}
	want := `INSERT INTO "user" ("email", "id", "name") VALUES ('a@x', 1, 'a'), ('b@x', 2, 'b')`
	if got != want {
		t.Errorf("BatchInsert() = %q, want %q", got, want)
	}
}

func TestBatchInsertErrors(t *testing.T) {
	if _, err := BatchInsert(ansiEscaper{}, "user", nil); !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("BatchInsert(nil) error = %v, want ErrEmptyBatch", err)
	}

	mismatched := []map[string]any{
		{"a": 1, "b": 2},
		{"a": 1, "c": 2},
	}
	if _, err := BatchInsert(ansiEscaper{}, "t", mismatched); !errors.Is(err, ErrColumnMismatch) {
		t.Errorf("BatchInsert(mismatched) error = %v, want ErrColumnMismatch", err)
	}

	short := []map[string]any{
		{"a": 1, "b": 2},
		{"a": 1},
	}
	if _, err := BatchInsert(ansiEscaper{}, "t", short); !errors.Is(err, ErrColumnMismatch) {
		t.Errorf("BatchInsert(short) error = %v, want ErrColumnMismatch", err)
	}
}

func TestUpdate(t *testing.T) {
	set, err := UpdateSet(ansiEscaper{}, map[string]any{"name": "x", "active": false})
	if err != nil {
		t.Fatal(err)
	}
	if want := `"active" = FALSE, "name" = 'x'`; set != want {
		t.Errorf("UpdateSet() = %q, want %q", set, want)
	}

	got, err := Update(ansiEscaper{}, "user", map[string]any{"email": nil}, "user_id", 9)
	if err != nil {
		t.Fatal(err)
	}
	if want := `UPDATE "user" SET "email" = NULL WHERE "user_id" = 9`; got != want {
		t.Errorf("Update() = %q, want %q", got, want)
	}

	if _, err := Update(ansiEscaper{}, "user", nil, "id", 1); err == nil {
		t.Error("Update() with no columns should fail")
	}
}

func TestSelectRange(t *testing.T) {
	got := SelectRange(ansiEscaper{}, "user", "id", 20, 10)
	if want := `SELECT * FROM "user" ORDER BY "id" LIMIT 10 OFFSET 20`; got != want {
		t.Errorf("SelectRange() = %q, want %q", got, want)
	}
}

func TestNotInList(t *testing.T) {
	got, err := NotInList(ansiEscaper{}, "id", nil)
	if err != nil || got != "TRUE" {
		t.Errorf("NotInList(empty) = %q, %v; want TRUE", got, err)
	}
	got, err = NotInList(ansiEscaper{}, "id", []any{"a"})
	if err != nil || got != `"id" NOT IN ('a')` {
		t.Errorf("NotInList() = %q, %v", got, err)
	}
}
