package readapi

import "testing"

func TestAggregateShieldedMatchesSpecExample(t *testing.T) {
	transfers := []shieldedTransfer{
		{Source: MASPAddress, Target: "A", Token: "T", AmountStr: "10"},
		{Source: "A", Target: MASPAddress, Token: "T", AmountStr: "3"},
	}
	got, err := aggregateShielded(transfers)
	if err != nil {
		t.Fatalf("aggregateShielded() error: %v", err)
	}
	if got["T"] != -7 {
		t.Fatalf("aggregateShielded()[T] = %v, want -7", got["T"])
	}
}

func TestAggregateShieldedIgnoresSelfLoop(t *testing.T) {
	transfers := []shieldedTransfer{
		{Source: MASPAddress, Target: MASPAddress, Token: "T", AmountStr: "5"},
	}
	got, err := aggregateShielded(transfers)
	if err != nil {
		t.Fatalf("aggregateShielded() error: %v", err)
	}
	if _, ok := got["T"]; ok {
		t.Fatalf("expected self-loop to be ignored, got %v", got)
	}
}

func TestAggregateShieldedRejectsMalformedAmount(t *testing.T) {
	transfers := []shieldedTransfer{
		{Source: MASPAddress, Target: "A", Token: "T", AmountStr: "not-a-number"},
	}
	if _, err := aggregateShielded(transfers); err == nil {
		t.Fatal("expected error for malformed amount")
	}
}

func TestDecodeJSONStringArray(t *testing.T) {
	got, err := decodeJSONStringArray([]byte(`["pk1","pk2"]`))
	if err != nil {
		t.Fatalf("decodeJSONStringArray() error: %v", err)
	}
	if len(got) != 2 || got[0] != "pk1" || got[1] != "pk2" {
		t.Fatalf("decodeJSONStringArray() = %v", got)
	}
}
