package kmertable

import (
	"testing"

	"github.com/laeblab/crispy/internal/position"
)

func TestCountsMode(t *testing.T) {
	tbl := NewCounts()
	if tbl.HasPositions() {
		t.Fatal("counts table should not report HasPositions")
	}
	tbl.Add(position.Forward(0, 0), 42)
	tbl.Add(position.Forward(0, 1), 42)
	if got := tbl.Count(42); got != 2 {
		t.Errorf("Count(42) = %d, want 2", got)
	}
	if got := tbl.Count(7); got != 0 {
		t.Errorf("Count(unseen) = %d, want 0", got)
	}
	if _, err := tbl.Positions(42); err != ErrNotPositions {
		t.Errorf("expected ErrNotPositions, got %v", err)
	}
	if got := tbl.UniqueCount(); got != 1 {
		t.Errorf("UniqueCount = %d, want 1", got)
	}
}

func TestPositionsMode(t *testing.T) {
	tbl := NewPositions()
	if !tbl.HasPositions() {
		t.Fatal("positions table should report HasPositions")
	}
	p1 := position.Forward(0, 10)
	p2 := position.Forward(0, 10) // duplicate position permitted
	tbl.Add(p1, 5)
	tbl.Add(p2, 5)

	ps, err := tbl.Positions(5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ps) != 2 {
		t.Errorf("expected 2 positions (duplicates allowed), got %d", len(ps))
	}
	if got := tbl.Count(5); got != 2 {
		t.Errorf("Count(5) = %d, want 2", got)
	}
}

func TestEachCountOrdering(t *testing.T) {
	tbl := NewCounts()
	tbl.AddCount(3, 7)
	tbl.AddCount(9, 1)

	seen := map[uint32]uint32{}
	var order []uint32
	tbl.EachCount(func(code, count uint32) {
		seen[code] = count
		order = append(order, code)
	})
	if len(order) != 2 || order[0] != 3 || order[1] != 9 {
		t.Errorf("visit order = %v, want [3 9] (ascending table index)", order)
	}
	if seen[3] != 7 || seen[9] != 1 {
		t.Errorf("unexpected counts: %+v", seen)
	}
	if len(seen) != 2 {
		t.Errorf("expected exactly 2 non-zero entries, got %d", len(seen))
	}
}
