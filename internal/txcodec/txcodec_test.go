package txcodec

import (
	"testing"

	"namadexer/internal/chain"
)

func TestDecodeWrapperRoundTrip(t *testing.T) {
	env := &Envelope{
		Type:                chain.TxTypeWrapper,
		FeeAmountPerGasUnit: "100",
		FeeToken:            "NAM",
		GasLimitMultiplier:  "2",
	}
	raw := Encode(env)

	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Type != chain.TxTypeWrapper || got.FeeToken != "NAM" || got.FeeAmountPerGasUnit != "100" {
		t.Fatalf("unexpected envelope: %+v", got)
	}
}

func TestDecodeDecryptedHashEqualsRawStampedHash(t *testing.T) {
	memo := "hello"
	env := &Envelope{
		Type: chain.TxTypeDecrypted,
		Data: []byte{1, 2, 3},
		Memo: &memo,
	}
	env.CodeHash[0] = 0xAB
	raw := Encode(env)

	decoded, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Memo == nil || *decoded.Memo != memo {
		t.Fatalf("expected memo %q, got %+v", memo, decoded.Memo)
	}
	if decoded.CodeHash[0] != 0xAB {
		t.Fatalf("code hash not preserved")
	}

	// A Raw envelope with identical body bytes must hash the same as the
	// Decrypted envelope's recomputed header hash.
	rawEnv := &Envelope{Type: chain.TxTypeRaw, Data: env.Data, CodeHash: env.CodeHash, Memo: env.Memo}
	rawBytes := Encode(rawEnv)
	rawDecoded, err := Decode(rawBytes)
	if err != nil {
		t.Fatalf("Decode raw: %v", err)
	}
	if rawDecoded.HeaderHash != decoded.HeaderHash {
		t.Fatalf("expected decrypted header hash to equal raw-stamped hash")
	}
}

func TestDecodeRejectsUnknownTag(t *testing.T) {
	if _, err := Decode([]byte{0xFF}); err == nil {
		t.Fatal("expected error for unknown tag")
	}
}

func TestDecodeRejectsEmpty(t *testing.T) {
	if _, err := Decode(nil); err == nil {
		t.Fatal("expected error for empty input")
	}
}
