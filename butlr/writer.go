package butlr

import (
	"io"

	"github.com/google/renameio"
	"golang.org/x/xerrors"

	"github.com/yuelab/butlr/genome"
	"github.com/yuelab/butlr/ingest"
	"github.com/yuelab/butlr/internal/diag"
	"github.com/yuelab/butlr/sparse"
)

// writerMCV is the most-common value every writer variant of this format
// emits; see SPEC_FULL.md for why the reader does not hardcode it back.
const writerMCV float32 = 0.0

// ChromSource supplies the matrix for one chromosome's intrachromosomal
// entry. Open is called lazily, once the chromosome's position in the
// file is known, so the writer never needs more than one source file open
// at a time.
type ChromSource struct {
	Chrom string
	Open  func() (ingest.Source, error)
}

// PairSource supplies the matrix for one interchromosomal entry, exactly as
// named in the manifest -- A and B need not be in canonical row/column
// order, but must be distinct (WriteFile rejects a pair with A == B; an
// intrachromosomal matrix is a ChromSource). Open's Source must yield triples
// with i on A's axis and j on B's axis; the writer swaps as needed.
type PairSource struct {
	A, B string
	Open func() (ingest.Source, error)
}

// WriteOptions describes one BUTLR file to produce.
type WriteOptions struct {
	Assembly   string
	Version    string
	Resolution uint32
	Sizes      genome.Sizes
	Chroms     []ChromSource
	Pairs      []PairSource
	Warn       diag.Sink
}

// WriteFile writes a complete BUTLR file to path, following the two-pass
// header-patching protocol: header placeholders and both directories are
// written first (so every body offset has a fixed byte location to patch
// later), then each chromosome's and pair's body is streamed out and its
// directory entry backpatched.
//
// The output is written via a seekable temporary file and only replaces
// path on success (renameio.PendingFile); any failure -- I/O error,
// malformed source, out-of-range bin -- leaves no partial file behind.
func WriteFile(path string, opts WriteOptions) (err error) {
	if opts.Resolution == 0 {
		return xerrors.New("butlr: resolution must be greater than zero")
	}

	f, err := renameio.TempFile("", path)
	if err != nil {
		return xerrors.Errorf("butlr: creating output: %w", err)
	}
	defer f.Cleanup()

	if err := writeHeaderPrefix(f, opts.Version, opts.Assembly, opts.Resolution, writerMCV); err != nil {
		return xerrors.Errorf("butlr: writing header: %w", err)
	}

	intraDirOff, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if err := patchU32At(f, intraDirOffsetOff, uint32(intraDirOff)); err != nil {
		return err
	}

	chromByName := make(map[string]ChromSource, len(opts.Chroms))
	for _, c := range opts.Chroms {
		chromByName[c.Chrom] = c
	}
	order := genome.SortedChromosomes(opts.Sizes)
	present := make([]string, 0, len(chromByName))
	for _, name := range order {
		if _, ok := chromByName[name]; ok {
			present = append(present, name)
		}
	}

	chromPatch := make(map[string]int64, len(present))
	for _, name := range present {
		if err := writeCString(f, name); err != nil {
			return err
		}
		if err := writeU32(f, opts.Sizes[name]); err != nil {
			return err
		}
		pos, err := f.Seek(0, io.SeekCurrent)
		if err != nil {
			return err
		}
		chromPatch[name] = pos
		if err := writeU64(f, 0); err != nil {
			return err
		}
	}

	pairs, err := resolvePairs(opts.Sizes, opts.Pairs, order)
	if err != nil {
		return err
	}

	pairPatch := make(map[string]int64, len(pairs))
	if len(pairs) > 0 {
		interDirOff, err := f.Seek(0, io.SeekCurrent)
		if err != nil {
			return err
		}
		if err := patchU32At(f, interDirOffsetOff, uint32(interDirOff)); err != nil {
			return err
		}
		for _, p := range pairs {
			key := p.Row + "\t" + p.Col
			if err := writeCString(f, key); err != nil {
				return err
			}
			pos, err := f.Seek(0, io.SeekCurrent)
			if err != nil {
				return err
			}
			pairPatch[key] = pos
			if err := writeU64(f, 0); err != nil {
				return err
			}
		}
	}

	headerEnd, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if err := patchU32At(f, headerSizeOffset, uint32(headerEnd)); err != nil {
		return err
	}

	for _, name := range present {
		src, err := chromByName[name].Open()
		if err != nil {
			return xerrors.Errorf("butlr: opening chromosome %s: %w", name, err)
		}
		bodyOff, werr := writeChromBody(f, src, opts.Sizes[name], opts.Resolution)
		cerr := closeIfCloser(src)
		if werr != nil {
			return xerrors.Errorf("butlr: writing chromosome %s: %w", name, werr)
		}
		if cerr != nil {
			return xerrors.Errorf("butlr: closing source for chromosome %s: %w", name, cerr)
		}
		if err := patchU64At(f, chromPatch[name], bodyOff); err != nil {
			return err
		}
	}

	for _, p := range pairs {
		key := p.Row + "\t" + p.Col
		bodyOff, err := writePairBody(f, p, opts.Sizes, opts.Resolution)
		if err != nil {
			return xerrors.Errorf("butlr: writing pair %s: %w", key, err)
		}
		if err := patchU64At(f, pairPatch[key], bodyOff); err != nil {
			return err
		}
	}

	if err := f.CloseAtomicallyReplace(); err != nil {
		return xerrors.Errorf("butlr: finalising output: %w", err)
	}
	return nil
}

func writeHeaderPrefix(f io.WriteSeeker, version, assembly string, resolution uint32, mcv float32) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := writeU32(f, 0); err != nil { // header size placeholder
		return err
	}
	if err := writeFixedString(f, version, versionLen); err != nil {
		return err
	}
	if err := writeU32(f, 0); err != nil { // intra dir offset placeholder
		return err
	}
	if err := writeU32(f, 0); err != nil { // inter dir offset placeholder
		return err
	}
	if err := writeCString(f, assembly); err != nil {
		return err
	}
	if err := writeU32(f, resolution); err != nil {
		return err
	}
	if err := writeF32(f, mcv); err != nil {
		return err
	}
	for i := 0; i < reservedFieldCount; i++ {
		if err := writeU32(f, 0); err != nil {
			return err
		}
	}
	return nil
}

func patchU32At(f io.WriteSeeker, pos int64, v uint32) error {
	cur, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := f.Seek(pos, io.SeekStart); err != nil {
		return err
	}
	if err := writeU32(f, v); err != nil {
		return err
	}
	_, err = f.Seek(cur, io.SeekStart)
	return err
}

func patchU64At(f io.WriteSeeker, pos int64, v uint64) error {
	cur, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := f.Seek(pos, io.SeekStart); err != nil {
		return err
	}
	if err := writeU64(f, v); err != nil {
		return err
	}
	_, err = f.Seek(cur, io.SeekStart)
	return err
}

// canonicalPair is one interchromosomal entry in its canonical storage
// orientation, with enough information to re-swap the underlying source's
// triples if the manifest declared the opposite orientation.
type canonicalPair struct {
	Row, Col string
	open     func() (ingest.Source, error)
	swap     bool
}

func unorderedKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "\x00" + b
}

// resolvePairs walks sortedChromosomes in deterministic order (for all
// i > j, consider the pair (order[i], order[j])) and looks up a manifest
// entry for each unordered pair exactly once. The
// traversal order depends only on the genome's sizes, not on the order
// pairs appear in the manifest, which is what gives two manifests that
// differ only in a pair's listed order byte-identical output.
func resolvePairs(sizes genome.Sizes, pairs []PairSource, order []string) ([]canonicalPair, error) {
	byUnordered := make(map[string]PairSource, len(pairs))
	for _, p := range pairs {
		if p.A == p.B {
			return nil, xerrors.Errorf("butlr: pair entry must name two distinct chromosomes, got %q twice", p.A)
		}
		key := unorderedKey(p.A, p.B)
		if _, exists := byUnordered[key]; exists {
			return nil, xerrors.Errorf("butlr: duplicate pair entry for %s/%s", p.A, p.B)
		}
		byUnordered[key] = p
	}

	var result []canonicalPair
	for i := 1; i < len(order); i++ {
		for j := 0; j < i; j++ {
			a, b := order[i], order[j]
			p, ok := byUnordered[unorderedKey(a, b)]
			if !ok {
				continue
			}
			// a = order[i], b = order[j], j < i, so b normally outranks a;
			// the outranked chromosome is the row, so row = a
			// unless the rare tie/ordering edge case puts a ahead instead.
			row, col := a, b
			if genome.IsChromAhead(sizes, a, b) {
				row, col = b, a
			}
			result = append(result, canonicalPair{
				Row:  row,
				Col:  col,
				open: p.Open,
				swap: p.A != row,
			})
		}
	}
	return result, nil
}

func writeChromBody(f io.WriteSeeker, src ingest.Source, size, resolution uint32) (uint64, error) {
	bins := genome.Bins(size, resolution)
	store := sparse.New(true)
	for {
		row, col, val, ok, err := src.Next()
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		if int(row) >= bins || int(col) >= bins {
			return 0, xerrors.Errorf("bin index out of range (bins=%d, row=%d, col=%d)", bins, row, col)
		}
		store.Add(row, col, val)
	}
	rows, err := store.Grouped(bins)
	if err != nil {
		return 0, err
	}
	return writeRowSpans(f, rows)
}

func writePairBody(f io.WriteSeeker, p canonicalPair, sizes genome.Sizes, resolution uint32) (uint64, error) {
	rowBins := genome.Bins(sizes[p.Row], resolution)
	colBins := genome.Bins(sizes[p.Col], resolution)

	src, err := p.open()
	if err != nil {
		return 0, xerrors.Errorf("opening pair %s/%s: %w", p.Row, p.Col, err)
	}
	defer closeIfCloser(src)

	store := sparse.New(false)
	for {
		i, j, val, ok, err := src.Next()
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		row, col := i, j
		if p.swap {
			row, col = j, i
		}
		if int(row) >= rowBins || int(col) >= colBins {
			return 0, xerrors.Errorf("pair %s/%s: bin index out of range (rowBins=%d, colBins=%d, row=%d, col=%d)", p.Row, p.Col, rowBins, colBins, row, col)
		}
		store.Add(row, col, val)
	}
	rows, err := store.Grouped(rowBins)
	if err != nil {
		return 0, err
	}
	return writeRowSpans(f, rows)
}

// writeRowSpans writes the sparse cells and the row-offset table for one
// matrix body, returning the body offset to store in the directory: the
// absolute file offset of the row-offset table itself.
func writeRowSpans(f io.WriteSeeker, rows []sparse.Row) (uint64, error) {
	offsets := make([]uint64, len(rows)+1)
	for i, row := range rows {
		if len(row.Cells) == 0 {
			offsets[i] = 0
			continue
		}
		pos, err := f.Seek(0, io.SeekCurrent)
		if err != nil {
			return 0, err
		}
		offsets[i] = uint64(pos)
		for _, c := range row.Cells {
			if err := writeU32(f, c.Col); err != nil {
				return 0, err
			}
			if err := writeF32(f, c.Value); err != nil {
				return 0, err
			}
		}
	}
	bodyOffset, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	offsets[len(rows)] = uint64(bodyOffset)
	for _, off := range offsets {
		if err := writeU64(f, off); err != nil {
			return 0, err
		}
	}
	return bodyOffset, nil
}

func closeIfCloser(v interface{}) error {
	if c, ok := v.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
