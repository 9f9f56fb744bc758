package checksums

import "testing"

func TestLoadRaw(t *testing.T) {
	data := []byte(`{
		"tx_transfer.wasm": "tx_transfer.aabbcc00112233445566778899aabbccddeeff0011223344556677889900aabb.wasm",
		"tx_bond.wasm": "tx_bond.00112233445566778899aabbccddeeff0011223344556677889900aabbccdd.wasm"
	}`)

	reg, err := loadRaw(data)
	if err != nil {
		t.Fatalf("loadRaw: %v", err)
	}

	got := reg.Lookup("aabbcc00112233445566778899aabbccddeeff0011223344556677889900aabb")
	if got != "tx_transfer" {
		t.Fatalf("expected tx_transfer, got %s", got)
	}

	if got := reg.Lookup("deadbeef"); got != "unknown" {
		t.Fatalf("expected unknown for unmatched hash, got %s", got)
	}
}

func TestLoadRawMalformedValue(t *testing.T) {
	data := []byte(`{"tx_transfer.wasm": "no-dot-here"}`)
	if _, err := loadRaw(data); err == nil {
		t.Fatal("expected error for malformed checksum value")
	}
}

func TestLoadProcessed(t *testing.T) {
	data := []byte(`{"AABBCC": "tx_bond"}`)
	reg, err := loadProcessed(data)
	if err != nil {
		t.Fatalf("loadProcessed: %v", err)
	}
	if got := reg.Lookup("aabbcc"); got != "tx_bond" {
		t.Fatalf("expected case-insensitive lookup to succeed, got %s", got)
	}
}

func TestReverseResolutionUnique(t *testing.T) {
	reg := &Registry{byHash: map[string]string{
		"h1": "tx_transfer",
		"h2": "tx_bond",
	}}
	seen := map[string]string{}
	for hash, kind := range reg.Kinds() {
		if prev, ok := seen[kind]; ok {
			t.Fatalf("kind %s maps to both %s and %s", kind, prev, hash)
		}
		seen[kind] = hash
	}
}
