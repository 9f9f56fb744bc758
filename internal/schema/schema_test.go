package schema

import (
	"strings"
	"testing"
)

func TestCoreDDLIsIdempotent(t *testing.T) {
	stmts := coreDDL("public_testnet_15")
	for _, stmt := range stmts {
		if !strings.Contains(stmt, "IF NOT EXISTS") {
			t.Fatalf("expected idempotent DDL, got: %s", stmt)
		}
	}
}

func TestViewDDLFiltersByCodeHash(t *testing.T) {
	stmt := viewDDL("public_testnet_15", "tx_transfer", "aabbcc")
	if !strings.Contains(stmt, "code = decode('aabbcc', 'hex')") {
		t.Fatalf("expected view filtered by code hash, got: %s", stmt)
	}
}

func TestPgQuoteEscapesDoubleQuotes(t *testing.T) {
	got := pgQuote(`weird"name`)
	want := `"weird""name"`
	if got != want {
		t.Fatalf("pgQuote() = %s, want %s", got, want)
	}
}
