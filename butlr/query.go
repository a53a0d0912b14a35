package butlr

import (
	"bufio"
	"io"

	"golang.org/x/xerrors"
)

// Range selects a half-open bin interval [Start, End). A negative End means
// "through the end of the chromosome"; the reader resolves it once the
// chromosome's bin count is known.
type Range struct {
	Start, End int
}

// Query names a rectangular region of one matrix: the two chromosomes (which
// may be the same) and a bin range on each axis.
type Query struct {
	Chrom1 string
	Range1 Range
	Chrom2 string
	Range2 Range
}

// Matrix is a dense reconstruction of a queried region. Data is row-major,
// Data[i][j] corresponding to bin (RowStart+i, ColStart+j) of the
// (RowChrom, ColChrom) matrix.
type Matrix struct {
	RowChrom, ColChrom string
	RowStart, ColStart int
	Data               [][]float32
}

func resolveRange(rng Range, bins int) (int, int, error) {
	start, end := rng.Start, rng.End
	if end < 0 {
		end = bins
	}
	if start < 0 || start > end || end > bins {
		return 0, 0, xerrors.Errorf("range [%d, %d) out of bounds for %d bins", rng.Start, rng.End, bins)
	}
	return start, end, nil
}

func (rd *Reader) chrom(name string) (ChromEntry, error) {
	i, ok := rd.chromIdx[name]
	if !ok {
		return ChromEntry{}, xerrors.Errorf("unknown chromosome %q", name)
	}
	return rd.Chroms[i], nil
}

// Query resolves q against the file, reconstructing a dense sub-matrix.
// Intrachromosomal queries that straddle the diagonal are completed by
// mirroring cells from the stored upper triangle; interchromosomal
// queries whose axis order is opposite the file's canonical storage
// orientation are served by transposing the stored rectangle.
func (rd *Reader) Query(q Query) (*Matrix, error) {
	c1, err := rd.chrom(q.Chrom1)
	if err != nil {
		return nil, err
	}
	c2, err := rd.chrom(q.Chrom2)
	if err != nil {
		return nil, err
	}

	bins1 := int(c1.Size)/int(rd.Header.Resolution) + 1
	bins2 := int(c2.Size)/int(rd.Header.Resolution) + 1

	r1s, r1e, err := resolveRange(q.Range1, bins1)
	if err != nil {
		return nil, xerrors.Errorf("range1: %w", err)
	}
	r2s, r2e, err := resolveRange(q.Range2, bins2)
	if err != nil {
		return nil, xerrors.Errorf("range2: %w", err)
	}

	if q.Chrom1 == q.Chrom2 {
		data, err := rd.intraSubmatrix(c1, r1s, r1e, r2s, r2e)
		if err != nil {
			return nil, err
		}
		return &Matrix{RowChrom: q.Chrom1, ColChrom: q.Chrom2, RowStart: r1s, ColStart: r2s, Data: data}, nil
	}

	idx, ok := rd.pairIdx[unorderedKey(q.Chrom1, q.Chrom2)]
	if !ok {
		return nil, xerrors.Errorf("no stored pair for %s/%s", q.Chrom1, q.Chrom2)
	}
	pe := rd.Pairs[idx]

	if pe.Row == q.Chrom1 {
		data, err := rd.rectSubmatrix(pe.BodyOffset, bins1, r1s, r1e, r2s, r2e)
		if err != nil {
			return nil, err
		}
		return &Matrix{RowChrom: q.Chrom1, ColChrom: q.Chrom2, RowStart: r1s, ColStart: r2s, Data: data}, nil
	}

	data, err := rd.transposedSubmatrix(pe.BodyOffset, bins2, r2s, r2e, r1s, r1e)
	if err != nil {
		return nil, err
	}
	return &Matrix{RowChrom: q.Chrom1, ColChrom: q.Chrom2, RowStart: r1s, ColStart: r2s, Data: data}, nil
}

// rowSpan reads the [start, end) byte range of one row's cells, given the
// row-offset table entries bracketing it. An offset of 0 means the row is
// empty and no bytes are read.
func (rd *Reader) rowSpan(rowOffset, nextOffset uint64) ([]cellPair, error) {
	if rowOffset == 0 {
		return nil, nil
	}
	end := nextOffset
	if end == 0 {
		// The next row is empty; its offset doesn't mark the end of this
		// row's span, so scan forward to the next non-zero offset or body
		// end is already resolved by the caller via readRowCells.
		return nil, xerrors.New("butlr: internal: rowSpan requires a resolved end offset")
	}
	sec := io.NewSectionReader(rd.r, int64(rowOffset), int64(end-rowOffset))
	br := bufio.NewReader(sec)

	var cells []cellPair
	for {
		col, err := readU32(br)
		if err == io.EOF {
			return cells, nil
		}
		if err != nil {
			return nil, err
		}
		val, err := readF32(br)
		if err != nil {
			return nil, xerrors.Errorf("truncated cell at col %d: %w", col, err)
		}
		cells = append(cells, cellPair{Col: int(col), Value: val})
	}
}

type cellPair struct {
	Col   int
	Value float32
}

// readRowCells reads the cells of row i, given the full row-offset table
// (length rowCount+1, final entry the sentinel body end). It resolves an
// empty next-row offset by scanning forward to the next non-zero entry.
func (rd *Reader) readRowCells(offsets []uint64, i int) ([]cellPair, error) {
	rowOffset := offsets[i]
	if rowOffset == 0 {
		return nil, nil
	}
	end := uint64(0)
	for k := i + 1; k < len(offsets); k++ {
		if offsets[k] != 0 {
			end = offsets[k]
			break
		}
	}
	return rd.rowSpan(rowOffset, end)
}

func (rd *Reader) readOffsetTable(bodyOffset uint64, rowCount int) ([]uint64, error) {
	sec := io.NewSectionReader(rd.r, int64(bodyOffset), int64(8*(rowCount+1)))
	offsets := make([]uint64, rowCount+1)
	for i := range offsets {
		v, err := readU64(sec)
		if err != nil {
			return nil, xerrors.Errorf("reading row-offset table entry %d: %w", i, err)
		}
		offsets[i] = v
	}
	return offsets, nil
}

// intraSubmatrix reconstructs the dense block [r1s,r1e) x [r2s,r2e) of an
// intrachromosomal matrix, resolving cells below the diagonal via the
// symmetric stored upper-triangle entry.
func (rd *Reader) intraSubmatrix(c ChromEntry, r1s, r1e, r2s, r2e int) ([][]float32, error) {
	bins := int(c.Size)/int(rd.Header.Resolution) + 1
	offsets, err := rd.readOffsetTable(c.BodyOffset, bins)
	if err != nil {
		return nil, err
	}

	rowCache := make(map[int]map[int]float32)
	getRow := func(i int) (map[int]float32, error) {
		if m, ok := rowCache[i]; ok {
			return m, nil
		}
		cells, err := rd.readRowCells(offsets, i)
		if err != nil {
			return nil, xerrors.Errorf("reading row %d: %w", i, err)
		}
		m := make(map[int]float32, len(cells))
		for _, c := range cells {
			m[c.Col] = c.Value
		}
		rowCache[i] = m
		return m, nil
	}

	out := make([][]float32, r1e-r1s)
	for i := r1s; i < r1e; i++ {
		out[i-r1s] = make([]float32, r2e-r2s)
		for j := r2s; j < r2e; j++ {
			lo, hi := i, j
			if lo > hi {
				lo, hi = hi, lo
			}
			row, err := getRow(lo)
			if err != nil {
				return nil, err
			}
			v, ok := row[hi]
			if !ok {
				v = rd.Header.MCV
			}
			out[i-r1s][j-r2s] = v
		}
	}
	return out, nil
}

// rectSubmatrix reconstructs the dense block [r1s,r1e) x [r2s,r2e) of an
// interchromosomal matrix in its stored orientation, no mirroring. rowCount
// is the matrix's full row count, not r1e-r1s: the offset table must be read
// in full so that an empty row near the edge of the queried window can still
// be resolved by scanning forward past it.
func (rd *Reader) rectSubmatrix(bodyOffset uint64, rowCount, r1s, r1e, r2s, r2e int) ([][]float32, error) {
	offsets, err := rd.readOffsetTable(bodyOffset, rowCount)
	if err != nil {
		return nil, err
	}
	out := make([][]float32, r1e-r1s)
	for i := r1s; i < r1e; i++ {
		cells, err := rd.readRowCells(offsets, i)
		if err != nil {
			return nil, xerrors.Errorf("reading row %d: %w", i, err)
		}
		m := make(map[int]float32, len(cells))
		for _, c := range cells {
			m[c.Col] = c.Value
		}
		out[i-r1s] = make([]float32, r2e-r2s)
		for j := r2s; j < r2e; j++ {
			v, ok := m[j]
			if !ok {
				v = rd.Header.MCV
			}
			out[i-r1s][j-r2s] = v
		}
	}
	return out, nil
}

// transposedSubmatrix reconstructs the dense block [wantRowS,wantRowE) x
// [wantColS,wantColE) of a query whose axis order is opposite the file's
// canonical storage orientation for this pair. storedRowRange/storedColRange
// name the same region but in on-disk (row, col) order; the caller has
// already swapped the arguments accordingly. storedRowCount is the matrix's
// full on-disk row count.
func (rd *Reader) transposedSubmatrix(bodyOffset uint64, storedRowCount, storedRowS, storedRowE, storedColS, storedColE int) ([][]float32, error) {
	stored, err := rd.rectSubmatrix(bodyOffset, storedRowCount, storedRowS, storedRowE, storedColS, storedColE)
	if err != nil {
		return nil, err
	}
	rows := storedRowE - storedRowS
	cols := storedColE - storedColS
	out := make([][]float32, cols)
	for j := 0; j < cols; j++ {
		out[j] = make([]float32, rows)
		for i := 0; i < rows; i++ {
			out[j][i] = stored[i][j]
		}
	}
	return out, nil
}
