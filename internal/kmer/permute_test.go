package kmer

import "testing"

func TestNeighborsIncludesIdentityOnce(t *testing.T) {
	code, _ := Encode([]byte("ACTGAGTCAGATA"))
	neighbors := Neighbors(code)

	count := 0
	for _, n := range neighbors {
		if n.Kmer == code && n.NSeed == 0 && n.NRest == 0 {
			count++
		}
	}
	if count != 1 {
		t.Errorf("identity neighbor emitted %d times, want 1", count)
	}
}

func TestNeighborsAreUnique(t *testing.T) {
	code, _ := Encode([]byte("ACTGAGTCAGATA"))
	seen := make(map[uint32]bool)
	for _, n := range Neighbors(code) {
		if seen[n.Kmer] {
			t.Fatalf("k-mer %d emitted more than once", n.Kmer)
		}
		seen[n.Kmer] = true
	}
}

func TestNeighborsCountIsInputIndependent(t *testing.T) {
	a, _ := Encode([]byte("AAAAAAAAAAAAA"))
	b, _ := Encode([]byte("TAGACTGACTCGA"))

	if len(Neighbors(a)) != len(Neighbors(b)) {
		t.Errorf("neighbor count depends on input bit pattern: %d vs %d", len(Neighbors(a)), len(Neighbors(b)))
	}
}

func TestScoreMatrixEntries(t *testing.T) {
	cases := []struct {
		nSeed, nRest int
		want         uint64
	}{
		{0, 0, 500},
		{0, 1, 100},
		{1, 0, 80},
		{2, 0, 20},
		{2, 2, 1},
		{1, 3, 2},
	}
	for _, c := range cases {
		n := Neighbor{NSeed: c.nSeed, NRest: c.nRest}
		if got := n.Score(); got != c.want {
			t.Errorf("Score(%d,%d) = %d, want %d", c.nSeed, c.nRest, got, c.want)
		}
	}
}

// TestSingleSeedMismatch checks the concrete scenario from the spec: a
// neighbor differing at bit position 2 of the encoded k-mer (within the
// seed) should appear with NSeed=1, NRest=0, scoring 80.
func TestSingleSeedMismatch(t *testing.T) {
	code, _ := Encode([]byte("ACTGAGTCAGATA"))

	shift := uint(2 * 2) // position 2, within the 5-base seed
	current := (code >> shift) & 3
	var alt uint32
	for alt = 0; alt < 4; alt++ {
		if alt != current {
			break
		}
	}
	want := (code &^ (3 << shift)) | (alt << shift)

	found := false
	for _, n := range Neighbors(code) {
		if n.Kmer == want {
			if n.NSeed != 1 || n.NRest != 0 {
				t.Errorf("mismatch counts = (%d,%d), want (1,0)", n.NSeed, n.NRest)
			}
			found = true
		}
	}
	if !found {
		t.Fatal("expected single-seed-mismatch neighbor not found")
	}
}
