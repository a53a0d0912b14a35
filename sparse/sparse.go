// Package sparse accumulates (row, col, value) triples for one
// chromosome's intrachromosomal matrix or one chromosome pair's
// interchromosomal matrix, and groups them by row for the writer.
package sparse

import (
	"sort"

	"golang.org/x/xerrors"
)

// Triple is one sparse cell in bin space.
type Triple struct {
	Row, Col uint32
	Value    float32
}

// Cell is one sparse cell within a row: the column and its value.
type Cell struct {
	Col   uint32
	Value float32
}

// Row holds the cells stored for a single row, sorted ascending by Col.
// A Row with no Cells is a valid, representable empty row.
type Row struct {
	Cells []Cell
}

// Store accumulates triples for one matrix before they are grouped into
// per-row spans for writing.
type Store struct {
	intra   bool
	Triples []Triple
}

// New creates a Store. For intra, triples are normalised so Row <= Col
// on Add; for inter, Row indexes the canonical row chromosome and Col the
// canonical column chromosome, with no triangularity constraint.
func New(intra bool) *Store {
	return &Store{intra: intra}
}

// Add records one sparse cell.
func (s *Store) Add(row, col uint32, value float32) {
	if s.intra && row > col {
		row, col = col, row
	}
	s.Triples = append(s.Triples, Triple{Row: row, Col: col, Value: value})
}

// Grouped sorts the accumulated triples by (Row, Col) and groups them into
// rowCount rows. Duplicate (Row, Col) pairs are rejected: downstream readers
// expect a strictly ascending column sequence within a row.
func (s *Store) Grouped(rowCount int) ([]Row, error) {
	sort.Slice(s.Triples, func(i, j int) bool {
		if s.Triples[i].Row != s.Triples[j].Row {
			return s.Triples[i].Row < s.Triples[j].Row
		}
		return s.Triples[i].Col < s.Triples[j].Col
	})

	rows := make([]Row, rowCount)
	havePrev := false
	var prev Triple
	for _, t := range s.Triples {
		if int(t.Row) >= rowCount {
			return nil, xerrors.Errorf("sparse: row %d out of range (rowCount=%d)", t.Row, rowCount)
		}
		if havePrev && prev.Row == t.Row && prev.Col == t.Col {
			return nil, xerrors.Errorf("sparse: duplicate cell (row=%d, col=%d)", t.Row, t.Col)
		}
		rows[t.Row].Cells = append(rows[t.Row].Cells, Cell{Col: t.Col, Value: t.Value})
		prev = t
		havePrev = true
	}
	return rows, nil
}
