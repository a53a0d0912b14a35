package butlr

import (
	"bufio"
	"encoding/binary"
	"io"
	"strings"

	"golang.org/x/xerrors"
)

// ChromEntry is one entry of the intrachromosomal directory.
type ChromEntry struct {
	Name       string
	Size       uint32
	BodyOffset uint64
}

// PairEntry is one entry of the interchromosomal directory. Row and Col are
// stored in the file's canonical orientation (see genome.IsChromAhead), not
// necessarily the orientation a caller queries in.
type PairEntry struct {
	Row, Col   string
	BodyOffset uint64
}

// Header is the fixed-layout portion of a BUTLR file.
type Header struct {
	HeaderSize     uint32
	Version        string
	Assembly       string
	Resolution     uint32
	MCV            float32
	IntraDirOffset uint32
	InterDirOffset uint32
}

// Reader provides random-access queries against an open BUTLR file. It
// reads the header and both directories eagerly at Open time; row data is
// read lazily, on demand, per query.
type Reader struct {
	r      io.ReaderAt
	Header Header
	Chroms []ChromEntry
	Pairs  []PairEntry

	chromIdx map[string]int
	pairIdx  map[string]int
}

// Open reads and validates the header and directories of a BUTLR file
// accessible through r. r must remain valid for the lifetime of the
// returned Reader.
func Open(r io.ReaderAt) (*Reader, error) {
	rd := &Reader{r: r}
	if err := rd.readHeader(); err != nil {
		return nil, xerrors.Errorf("butlr: reading header: %w", err)
	}
	if err := rd.readDirectories(); err != nil {
		return nil, xerrors.Errorf("butlr: reading directories: %w", err)
	}
	return rd, nil
}

func (rd *Reader) readHeader() error {
	prefix := make([]byte, fixedHeaderPrefix)
	if _, err := io.ReadFull(io.NewSectionReader(rd.r, 0, fixedHeaderPrefix), prefix); err != nil {
		return xerrors.Errorf("reading fixed prefix: %w", err)
	}

	headerSize := binary.LittleEndian.Uint32(prefix[headerSizeOffset:])
	version := trimNulString(prefix[versionOffset : versionOffset+versionLen])
	intraDirOffset := binary.LittleEndian.Uint32(prefix[intraDirOffsetOff:])
	interDirOffset := binary.LittleEndian.Uint32(prefix[interDirOffsetOff:])

	tail := io.NewSectionReader(rd.r, fixedHeaderPrefix, int64(headerSize)-fixedHeaderPrefix)
	tbr := bufio.NewReader(tail)
	assembly, err := readCString(tbr)
	if err != nil {
		return xerrors.Errorf("reading assembly name: %w", err)
	}
	resolution, err := readU32(tbr)
	if err != nil {
		return xerrors.Errorf("reading resolution: %w", err)
	}
	mcv, err := readF32(tbr)
	if err != nil {
		return xerrors.Errorf("reading mcv: %w", err)
	}
	for i := 0; i < reservedFieldCount; i++ {
		if _, err := readU32(tbr); err != nil {
			return xerrors.Errorf("reading reserved field %d: %w", i, err)
		}
	}

	rd.Header = Header{
		HeaderSize:     headerSize,
		Version:        version,
		Assembly:       assembly,
		Resolution:     resolution,
		MCV:            mcv,
		IntraDirOffset: intraDirOffset,
		InterDirOffset: interDirOffset,
	}
	return nil
}

func (rd *Reader) readDirectories() error {
	h := rd.Header

	intraEnd := h.InterDirOffset
	if intraEnd == 0 {
		intraEnd = h.HeaderSize
	}
	chroms, err := readChromDir(rd.r, int64(h.IntraDirOffset), int64(intraEnd))
	if err != nil {
		return xerrors.Errorf("reading intra directory: %w", err)
	}
	rd.Chroms = chroms
	rd.chromIdx = make(map[string]int, len(chroms))
	for i, c := range chroms {
		rd.chromIdx[c.Name] = i
	}

	if h.InterDirOffset != 0 {
		pairs, err := readPairDir(rd.r, int64(h.InterDirOffset), int64(h.HeaderSize))
		if err != nil {
			return xerrors.Errorf("reading inter directory: %w", err)
		}
		rd.Pairs = pairs
		rd.pairIdx = make(map[string]int, len(pairs))
		for i, p := range pairs {
			rd.pairIdx[unorderedKey(p.Row, p.Col)] = i
		}
	}
	return nil
}

func readChromDir(r io.ReaderAt, start, end int64) ([]ChromEntry, error) {
	sec := io.NewSectionReader(r, start, end-start)
	br := bufio.NewReader(sec)

	var entries []ChromEntry
	for {
		name, err := readCString(br)
		if err == io.EOF && name == "" {
			return entries, nil
		}
		if err != nil {
			return nil, xerrors.Errorf("reading chromosome name: %w", err)
		}
		size, err := readU32(br)
		if err != nil {
			return nil, xerrors.Errorf("reading size for %s: %w", name, err)
		}
		offset, err := readU64(br)
		if err != nil {
			return nil, xerrors.Errorf("reading body offset for %s: %w", name, err)
		}
		entries = append(entries, ChromEntry{Name: name, Size: size, BodyOffset: offset})
	}
}

func readPairDir(r io.ReaderAt, start, end int64) ([]PairEntry, error) {
	sec := io.NewSectionReader(r, start, end-start)
	br := bufio.NewReader(sec)

	var entries []PairEntry
	for {
		key, err := readCString(br)
		if err == io.EOF && key == "" {
			return entries, nil
		}
		if err != nil {
			return nil, xerrors.Errorf("reading pair key: %w", err)
		}
		i := strings.IndexByte(key, '\t')
		if i < 0 {
			return nil, xerrors.Errorf("malformed pair key %q", key)
		}
		row, col := key[:i], key[i+1:]
		offset, err := readU64(br)
		if err != nil {
			return nil, xerrors.Errorf("reading body offset for %s/%s: %w", row, col, err)
		}
		entries = append(entries, PairEntry{Row: row, Col: col, BodyOffset: offset})
	}
}

// Directory returns the parsed intra- and interchromosomal directories, in
// on-disk order.
func (rd *Reader) Directory() ([]ChromEntry, []PairEntry) {
	return rd.Chroms, rd.Pairs
}
