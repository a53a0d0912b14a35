package sparse

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAddNormalisesIntra(t *testing.T) {
	s := New(true)
	s.Add(100, 0, 7.5)
	if len(s.Triples) != 1 {
		t.Fatalf("got %d triples, want 1", len(s.Triples))
	}
	got := s.Triples[0]
	want := Triple{Row: 0, Col: 100, Value: 7.5}
	if got != want {
		t.Errorf("Add(100, 0, 7.5) stored %+v, want %+v", got, want)
	}
}

func TestAddInterNoSwap(t *testing.T) {
	s := New(false)
	s.Add(5, 2, 1.0)
	if got, want := s.Triples[0], (Triple{Row: 5, Col: 2, Value: 1.0}); got != want {
		t.Errorf("inter store swapped triple: got %+v, want %+v", got, want)
	}
}

func TestGrouped(t *testing.T) {
	s := New(true)
	s.Add(0, 0, 1.0)
	s.Add(0, 2, 2.0)
	s.Add(2, 2, 3.0)

	rows, err := s.Grouped(3)
	if err != nil {
		t.Fatal(err)
	}
	want := []Row{
		{Cells: []Cell{{Col: 0, Value: 1.0}, {Col: 2, Value: 2.0}}},
		{},
		{Cells: []Cell{{Col: 2, Value: 3.0}}},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("Grouped() mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupedEmptyRowsPermitted(t *testing.T) {
	s := New(true)
	s.Add(2, 3, 9.0)
	rows, err := s.Grouped(4)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []int{0, 0, 1, 0} {
		if got := len(rows[i].Cells); got != want {
			t.Errorf("row %d has %d cells, want %d", i, got, want)
		}
	}
}

func TestGroupedRejectsDuplicate(t *testing.T) {
	s := New(true)
	s.Add(1, 1, 1.0)
	s.Add(1, 1, 2.0)
	if _, err := s.Grouped(2); err == nil {
		t.Fatal("expected error for duplicate cell")
	}
}

func TestGroupedRejectsOutOfRange(t *testing.T) {
	s := New(true)
	s.Add(5, 5, 1.0)
	if _, err := s.Grouped(3); err == nil {
		t.Fatal("expected error for out-of-range row")
	}
}
