package ingest

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/xerrors"

	"github.com/yuelab/butlr/internal/diag"
	"github.com/yuelab/butlr/sparse"
)

// DenseSource reads a square or rectangular tab-delimited dense matrix.
// For intrachromosomal matrices only the upper triangle (columns >= row)
// is kept. Leading header rows and leading extra columns are discarded.
// Cells equal to MCV are omitted. NaN maps to 0.0, +/-Inf to +/-1e38, and
// non-numeric tokens map to 0.0 with a warning.
type DenseSource struct {
	sc       *bufio.Scanner
	intra    bool
	skipRows int
	skipCols int
	mcv      float32
	warn     diag.Sink

	row     uint32
	pending []sparse.Triple
	idx     int
	err     error
}

// NewDenseSource creates a DenseSource reading from r.
func NewDenseSource(r io.Reader, intra bool, skipRows, skipCols int, mcv float32, warn diag.Sink) *DenseSource {
	return &DenseSource{
		sc:       bufio.NewScanner(r),
		intra:    intra,
		skipRows: skipRows,
		skipCols: skipCols,
		mcv:      mcv,
		warn:     warn,
	}
}

func (d *DenseSource) Next() (row, col uint32, value float32, ok bool, err error) {
	for d.idx >= len(d.pending) {
		if !d.advanceRow() {
			return 0, 0, 0, false, d.err
		}
	}
	t := d.pending[d.idx]
	d.idx++
	return t.Row, t.Col, t.Value, true, nil
}

// advanceRow scans forward to the next data row (skipping header rows) and
// buffers its kept cells into d.pending. It returns false when there is no
// further data row, whether due to EOF or a fatal parse error (d.err).
func (d *DenseSource) advanceRow() bool {
	for d.sc.Scan() {
		if d.skipRows > 0 {
			d.skipRows--
			continue
		}
		fields := strings.Split(d.sc.Text(), "\t")
		if len(fields) < d.skipCols {
			d.err = xerrors.Errorf("ingest: dense row %d: too few columns (%d, want at least %d)", d.row, len(fields), d.skipCols)
			return false
		}
		fields = fields[d.skipCols:]

		pending := d.pending[:0]
		for ci, raw := range fields {
			col := uint32(ci)
			if d.intra && col < d.row {
				continue
			}
			v := parseCell(raw, d.warn, d.row, col)
			if v == d.mcv {
				continue
			}
			pending = append(pending, sparse.Triple{Row: d.row, Col: col, Value: v})
		}
		d.pending = pending
		d.idx = 0
		d.row++
		return true
	}
	if err := d.sc.Err(); err != nil {
		d.err = xerrors.Errorf("ingest: reading dense matrix: %w", err)
	}
	return false
}

func parseCell(raw string, warn diag.Sink, row, col uint32) float32 {
	raw = strings.TrimSpace(raw)
	f, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		warn.Warnf("row %d col %d: non-numeric value %q, using 0.0", row, col, raw)
		return 0
	}
	switch {
	case math.IsNaN(f):
		return 0
	case math.IsInf(f, 1):
		return 1.0e38
	case math.IsInf(f, -1):
		return -1.0e38
	}
	return float32(f)
}
