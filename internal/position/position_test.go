package position

import (
	"math"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	cases := []Position{
		Forward(0, 0),
		Reverse(0, 0),
		Forward(17, -7913),
		Reverse(17, -7913),
		Forward(0x7FFF_FFFF, math.MinInt32),
		Forward(0x7FFF_FFFF, math.MaxInt32),
		Reverse(12345, -1),
	}
	for _, p := range cases {
		got := FromU64(p.ToU64())
		if got != p {
			t.Errorf("round trip mismatch: %+v -> %+v", p, got)
		}
	}
}

func TestStrandSymbol(t *testing.T) {
	if Forward(1, 1).Strand() != '+' {
		t.Error("forward should render as +")
	}
	if Reverse(1, 1).Strand() != '-' {
		t.Error("reverse should render as -")
	}
}

func TestToU64PanicsOnOversizedRefseq(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for refseq with high bit set")
		}
	}()
	Forward(0x8000_0000, 0).ToU64()
}

// TestScenarioReverseSeventeen mirrors the spec's concrete scenario 3:
// Position::reverse(17, -7913) round-trips through to_u64/from_u64.
func TestScenarioReverseSeventeen(t *testing.T) {
	p := Reverse(17, -7913)
	if got := FromU64(p.ToU64()); got != p {
		t.Errorf("got %+v, want %+v", got, p)
	}
}
