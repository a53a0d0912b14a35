package ingest

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"golang.org/x/xerrors"

	"github.com/yuelab/butlr/internal/diag"
)

// CoordinateSource reads a coordinate-list matrix: lines of "i j v",
// columns selected by rowCol/colCol/valCol (0-indexed). i and j are
// base-pair coordinates, converted to bins by resolution.
type CoordinateSource struct {
	sc                     *bufio.Scanner
	resolution             uint32
	rowCol, colCol, valCol int
	line                   int
	warn                   diag.Sink
}

// NewCoordinateSource creates a CoordinateSource reading from r.
func NewCoordinateSource(r io.Reader, resolution uint32, rowCol, colCol, valCol int, warn diag.Sink) *CoordinateSource {
	return &CoordinateSource{
		sc:         bufio.NewScanner(r),
		resolution: resolution,
		rowCol:     rowCol,
		colCol:     colCol,
		valCol:     valCol,
		warn:       warn,
	}
}

func (c *CoordinateSource) Next() (row, col uint32, value float32, ok bool, err error) {
	for c.sc.Scan() {
		c.line++
		line := strings.TrimSpace(c.sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		need := c.rowCol
		if c.colCol > need {
			need = c.colCol
		}
		if c.valCol > need {
			need = c.valCol
		}
		need++
		if len(fields) < need {
			return 0, 0, 0, false, xerrors.Errorf("ingest: line %d: expected at least %d columns, got %d", c.line, need, len(fields))
		}

		i, err1 := strconv.ParseUint(fields[c.rowCol], 10, 64)
		j, err2 := strconv.ParseUint(fields[c.colCol], 10, 64)
		if err1 != nil {
			return 0, 0, 0, false, xerrors.Errorf("ingest: line %d: invalid row coordinate %q: %w", c.line, fields[c.rowCol], err1)
		}
		if err2 != nil {
			return 0, 0, 0, false, xerrors.Errorf("ingest: line %d: invalid col coordinate %q: %w", c.line, fields[c.colCol], err2)
		}

		v, err3 := strconv.ParseFloat(fields[c.valCol], 32)
		if err3 != nil {
			c.warn.Warnf("line %d: non-numeric value %q, using 0.0", c.line, fields[c.valCol])
			v = 0
		}

		return uint32(i) / c.resolution, uint32(j) / c.resolution, float32(v), true, nil
	}
	if err := c.sc.Err(); err != nil {
		return 0, 0, 0, false, xerrors.Errorf("ingest: reading coordinate list: %w", err)
	}
	return 0, 0, 0, false, nil
}
