package store

import "testing"

func TestValuesClauseCastsJSONColumn(t *testing.T) {
	got := valuesClause(2, 3, 1)
	want := "($1, $2::jsonb, $3), ($4, $5::jsonb, $6)"
	if got != want {
		t.Fatalf("valuesClause() = %s, want %s", got, want)
	}
}

func TestValuesClauseNoJSONColumn(t *testing.T) {
	got := valuesClause(1, 2, -1)
	want := "($1, $2)"
	if got != want {
		t.Fatalf("valuesClause() = %s, want %s", got, want)
	}
}

func TestNullStringEmpty(t *testing.T) {
	if v := nullString(""); v != nil {
		t.Fatalf("nullString(\"\") = %v, want nil", v)
	}
	if v := nullString("x"); v != "x" {
		t.Fatalf("nullString(x) = %v, want x", v)
	}
}
