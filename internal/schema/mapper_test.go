package schema

import (
	"math"
	"testing"

	"github.com/rzpsarthak13/sqlobjects/internal/core"
)

func TestClassify(t *testing.T) {
	tm := NewTypeMapper()
	tests := map[string]Kind{
		"int4":             KindInt,
		"INT8":             KindInt,
		"serial":           KindInt,
		"bigserial":        KindInt,
		"integer":          KindInt,
		"bigint unsigned":  KindInt,
		"int(11)":          KindInt,
		"numeric(10,2)":    KindFloat,
		"float8":           KindFloat,
		"money":            KindFloat,
		"double precision": KindFloat,
		"REAL":             KindFloat,
		"bool":             KindBool,
		"BOOLEAN":          KindBool,
		"tinyint(1)":       KindBool,
		"tinyint(4)":       KindInt,
		"varchar(255)":     KindText,
		"uuid":             KindText,
		"timestamptz":      KindText,
		"":                 KindText,
	}
	for dbType, want := range tests {
		if got := tm.Classify(dbType); got != want {
			t.Errorf("Classify(%q) = %v, want %v", dbType, got, want)
		}
	}
}

func TestCoerce(t *testing.T) {
	tm := NewTypeMapper()
	tests := []struct {
		name  string
		value any
		kind  Kind
		want  any
	}{
		{"nil stays nil", nil, KindInt, nil},
		{"int from text", "42", KindInt, int64(42)},
		{"negative int", "-3", KindInt, int64(-3)},
		{"float from text", "1.25", KindFloat, 1.25},
		{"money", "$1,234.50", KindFloat, 1234.5},
		{"postgres true", "t", KindBool, true},
		{"postgres false", "f", KindBool, false},
		{"mysql true", "1", KindBool, true},
		{"mysql false", "0", KindBool, false},
		{"word true", "TRUE", KindBool, true},
		{"word no", " no ", KindBool, false},
		{"largest uint64 that fits", uint64(math.MaxInt64), KindInt, int64(math.MaxInt64)},
		{"text passthrough", "hello", KindText, "hello"},
		{"bytes to int", []byte("7"), KindInt, int64(7)},
		{"typed int to float", 3, KindFloat, 3.0},
		{"integral json number to int", 42.0, KindInt, int64(42)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tm.Coerce(tt.value, tt.kind)
			if err != nil {
				t.Fatalf("Coerce(%v, %v) error = %v", tt.value, tt.kind, err)
			}
			if got != tt.want {
				t.Errorf("Coerce(%v, %v) = %#v, want %#v", tt.value, tt.kind, got, tt.want)
			}
		})
	}
}

func TestCoerceRejectsGarbage(t *testing.T) {
	tm := NewTypeMapper()
	if _, err := tm.Coerce("abc", KindInt); err == nil {
		t.Error("Coerce(abc, int) should fail")
	}
	if _, err := tm.Coerce("1.5.2", KindFloat); err == nil {
		t.Error("Coerce(1.5.2, float) should fail")
	}
	if _, err := tm.Coerce(1.5, KindInt); err == nil {
		t.Error("Coerce(1.5, int) should fail")
	}
	if _, err := tm.Coerce(struct{}{}, KindBool); err == nil {
		t.Error("Coerce(struct, bool) should fail")
	}
	if _, err := tm.Coerce("maybe", KindBool); err == nil {
		t.Error("Coerce(maybe, bool) should fail")
	}
	if _, err := tm.Coerce(uint64(math.MaxInt64)+1, KindInt); err == nil {
		t.Error("Coerce(MaxInt64+1, int) should fail")
	}
}

func TestValidateFields(t *testing.T) {
	def := "now()"
	s := &core.Schema{
		TableName:  "user",
		PrimaryKey: "id",
		Columns: []core.Column{
			{Name: "id", Type: "uuid"},
			{Name: "name", Type: "varchar(255)"},
			{Name: "created_at", Type: "timestamptz", Default: &def},
			{Name: "nickname", Type: "text", Nullable: true},
		},
	}

	ok := NewSchemaValidator(s).ValidateFields("id", []FieldSpec{
		{Name: "name"},
		{Name: "created_at", HasDefault: true},
		{Name: "nickname", Nullable: true},
	})
	if len(ok) != 0 {
		t.Errorf("ValidateFields() on matching fields = %v, want none", ok)
	}

	problems := NewSchemaValidator(s).ValidateFields("uid", []FieldSpec{
		{Name: "missing"},
		{Name: "name", Nullable: true},
		{Name: "nickname", HasDefault: true},
	})
	if len(problems) != 4 {
		t.Errorf("ValidateFields() problems = %d (%v), want 4", len(problems), problems)
	}
}
