package query

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rzpsarthak13/sqlobjects/internal/core"
)

// ansiEscaper quotes the way PostgreSQL and SQLite do.
type ansiEscaper struct{}

func (ansiEscaper) EscapeIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (ansiEscaper) EscapeLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func TestEscapeValue(t *testing.T) {
	name := "bob"
	var nilName *string
	id := uuid.MustParse("0190f5c4-6f2a-7c3e-8d4b-2a9e1f0c7b11")
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"nil", nil, "NULL"},
		{"true", true, "TRUE"},
		{"false", false, "FALSE"},
		{"int", 42, "42"},
		{"negative int64", int64(-7), "-7"},
		{"uint8", uint8(255), "255"},
		{"float", 1.5, "1.5"},
		{"float32", float32(0.25), "0.25"},
		{"large float has no exponent", 1e21, "1000000000000000000000"},
		{"string", "hello", "'hello'"},
		{"quote is doubled", "O'Brien", "'O''Brien'"},
		{"raw passes through", Raw("now()"), "now()"},
		{"uuid", id, "'0190f5c4-6f2a-7c3e-8d4b-2a9e1f0c7b11'"},
		{"time", ts, "'2024-03-01T12:30:00Z'"},
		{"string pointer", &name, "'bob'"},
		{"nil string pointer", nilName, "NULL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EscapeValue(ansiEscaper{}, tt.value)
			if err != nil {
				t.Fatalf("EscapeValue(%v) error = %v", tt.value, err)
			}
			if got != tt.want {
				t.Errorf("EscapeValue(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestEscapeValueUnsupported(t *testing.T) {
	for _, value := range []any{
		struct{}{},
		map[string]int{"a": 1},
		math.NaN(),
		math.Inf(1),
		[]byte("bytes"),
	} {
		_, err := EscapeValue(ansiEscaper{}, value)
		if !errors.Is(err, core.ErrUnsupportedValueType) {
			t.Errorf("EscapeValue(%T) error = %v, want ErrUnsupportedValueType", value, err)
		}
		var typed *core.UnsupportedTypeError
		if !errors.As(err, &typed) {
			t.Errorf("EscapeValue(%T) error is not *UnsupportedTypeError", value)
		}
	}
}

func TestEscapeIdentifiers(t *testing.T) {
	got := EscapeIdentifiers(ansiEscaper{}, []string{"user", `we"ird`})
	want := []string{`"user"`, `"we""ird"`}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("EscapeIdentifiers()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
