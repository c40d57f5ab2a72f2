package kmer

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	seq := []byte("ACTGAGTCAGATA")
	code, err := Encode(seq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := string(Decode(code)); got != string(seq) {
		t.Errorf("Decode(Encode(%s)) = %s", seq, got)
	}
}

func TestEncodeRejectsN(t *testing.T) {
	seq := []byte("ACTGAGTCAGATN")
	if _, err := Encode(seq); err != ErrInvalidBase {
		t.Errorf("expected ErrInvalidBase, got %v", err)
	}
}

func TestEncodeRejectsWrongLength(t *testing.T) {
	if _, err := Encode([]byte("ACGT")); err != ErrWrongLength {
		t.Errorf("expected ErrWrongLength, got %v", err)
	}
}

func TestEncodeInjective(t *testing.T) {
	seen := make(map[uint32]string)
	seqs := []string{
		"AAAAAAAAAAAAA",
		"CCCCCCCCCCCCC",
		"GGGGGGGGGGGGG",
		"TTTTTTTTTTTTT",
		"ACTGAGTCAGATA",
		"TAGACTGACTCGA",
	}
	for _, s := range seqs {
		code, err := Encode([]byte(s))
		if err != nil {
			t.Fatalf("unexpected error encoding %s: %v", s, err)
		}
		if code >= Count {
			t.Errorf("code %d out of range for %s", code, s)
		}
		if prev, ok := seen[code]; ok && prev != s {
			t.Errorf("collision: %s and %s both encode to %d", prev, s, code)
		}
		seen[code] = s
	}
}

func TestEncodeLowercase(t *testing.T) {
	upper, _ := Encode([]byte("ACTGAGTCAGATA"))
	lower, _ := Encode([]byte("actgagtcagata"))
	if upper != lower {
		t.Errorf("case should not matter: %d != %d", upper, lower)
	}
}
