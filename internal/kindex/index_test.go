package kindex

import (
	"bytes"
	"testing"

	"github.com/laeblab/crispy/internal/crispyerr"
	"github.com/laeblab/crispy/internal/enzyme"
	"github.com/laeblab/crispy/internal/kmer"
	"github.com/laeblab/crispy/internal/kmertable"
	"github.com/laeblab/crispy/internal/position"
)

func buildPositionsIndex(t *testing.T) *Index {
	t.Helper()
	table := kmertable.NewPositions()

	code1, err := kmer.Encode([]byte("ACGTACGTACGTA"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	code2, err := kmer.Encode([]byte("TTTTTTTTTTTTT"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	table.Add(position.Forward(0, 100), code1)
	table.Add(position.Reverse(1, 200), code1)
	table.Add(position.Forward(0, 5), code2)

	return New(enzyme.Cas9(), []string{"chr1", "chr2"}, table)
}

func buildCountsIndex(t *testing.T) *Index {
	t.Helper()
	table := kmertable.NewCounts()

	code1, err := kmer.Encode([]byte("ACGTACGTACGTA"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	code2, err := kmer.Encode([]byte("TTTTTTTTTTTTT"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	table.AddCount(code1, 3)
	table.AddCount(code2, 1)

	return New(enzyme.Mad7(), nil, table)
}

func TestRoundTripPositionsIndex(t *testing.T) {
	orig := buildPositionsIndex(t)

	var buf bytes.Buffer
	if err := Write(&buf, orig); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if got.Enzyme.Name != orig.Enzyme.Name {
		t.Errorf("enzyme name = %q, want %q", got.Enzyme.Name, orig.Enzyme.Name)
	}
	if !got.HasPositions() {
		t.Fatal("expected positions-mode index to round-trip as positions-mode")
	}
	if len(got.Refseqs) != len(orig.Refseqs) {
		t.Fatalf("refseqs = %v, want %v", got.Refseqs, orig.Refseqs)
	}
	for i, name := range orig.Refseqs {
		if got.Refseqs[i] != name {
			t.Errorf("refseqs[%d] = %q, want %q", i, got.Refseqs[i], name)
		}
	}
	if got.KmerCount() != orig.KmerCount() {
		t.Errorf("KmerCount = %d, want %d", got.KmerCount(), orig.KmerCount())
	}

	code1, _ := kmer.Encode([]byte("ACGTACGTACGTA"))
	gotPositions, err := got.Table.Positions(code1)
	if err != nil {
		t.Fatalf("Positions: %v", err)
	}
	if len(gotPositions) != 2 {
		t.Fatalf("expected 2 positions for code1, got %d", len(gotPositions))
	}
}

func TestRoundTripCountsIndex(t *testing.T) {
	orig := buildCountsIndex(t)

	var buf bytes.Buffer
	if err := Write(&buf, orig); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if got.HasPositions() {
		t.Fatal("expected counts-mode index to round-trip as counts-mode")
	}
	if got.Enzyme.Name != "Mad7" {
		t.Errorf("enzyme name = %q, want Mad7", got.Enzyme.Name)
	}

	code1, _ := kmer.Encode([]byte("ACGTACGTACGTA"))
	code2, _ := kmer.Encode([]byte("TTTTTTTTTTTTT"))
	if got.Table.Count(code1) != 3 {
		t.Errorf("Count(code1) = %d, want 3", got.Table.Count(code1))
	}
	if got.Table.Count(code2) != 1 {
		t.Errorf("Count(code2) = %d, want 1", got.Table.Count(code2))
	}
}

func TestReadRejectsBadMagic(t *testing.T) {
	buf := bytes.NewBufferString("NOTANINDEX-------")
	_, err := Read(buf)
	if crispyerr.KindOf(err) != crispyerr.FormatInvalid {
		t.Errorf("expected FormatInvalid, got %v (%v)", crispyerr.KindOf(err), err)
	}
}

func TestReadRejectsOldVersion(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(Magic[:])
	buf.WriteByte(Version - 1)

	_, err := Read(&buf)
	if crispyerr.KindOf(err) != crispyerr.VersionMismatch {
		t.Errorf("expected VersionMismatch, got %v (%v)", crispyerr.KindOf(err), err)
	}
}

func TestReadRejectsNewVersion(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(Magic[:])
	buf.WriteByte(Version + 1)

	_, err := Read(&buf)
	if crispyerr.KindOf(err) != crispyerr.VersionMismatch {
		t.Errorf("expected VersionMismatch, got %v (%v)", crispyerr.KindOf(err), err)
	}
}

func TestReadRejectsUnknownEnzyme(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(Magic[:])
	buf.WriteByte(Version)
	name := "Bogus"
	buf.WriteByte(byte(len(name)))
	buf.WriteString(name)

	_, err := Read(&buf)
	if crispyerr.KindOf(err) != crispyerr.UnknownEnzyme {
		t.Errorf("expected UnknownEnzyme, got %v (%v)", crispyerr.KindOf(err), err)
	}
}

func TestScoreAndOffTargets(t *testing.T) {
	idx := buildPositionsIndex(t)
	code1, _ := kmer.Encode([]byte("ACGTACGTACGTA"))

	if got := idx.Score(code1); got == 0 {
		t.Error("Score of an exact self-match should be non-zero")
	}

	offs, err := idx.OffTargets(code1, 1)
	if err != nil {
		t.Fatalf("OffTargets: %v", err)
	}
	if len(offs) == 0 {
		t.Fatal("expected at least one off-target hit")
	}
}

func TestOffTargetsRequiresPositions(t *testing.T) {
	idx := buildCountsIndex(t)
	code1, _ := kmer.Encode([]byte("ACGTACGTACGTA"))

	_, err := idx.OffTargets(code1, 1)
	if err != kmertable.ErrNotPositions {
		t.Errorf("expected ErrNotPositions, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	cas9 := buildPositionsIndex(t)
	if got := cas9.Summarize(); got == "" {
		t.Fatal("Summarize returned empty string")
	}

	mad7 := buildCountsIndex(t)
	if got := mad7.Summarize(); got == "" {
		t.Fatal("Summarize returned empty string")
	}
}
