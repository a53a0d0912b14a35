// Package butlr implements the BUTLR (Binary Upper TrianguLar MatRix)
// container format: a compact, random-access binary encoding of Hi-C
// chromosomal contact matrices at a fixed bin resolution for a named
// genome assembly.
//
// Offsets are byte-absolute. All multi-byte integers are little-endian
// unsigned; floats are little-endian IEEE-754. Strings are NUL-terminated
// ASCII with no length prefix.
package butlr

import (
	"bytes"
	"encoding/binary"
	"io"

	"golang.org/x/xerrors"
)

const (
	headerSizeOffset   = 0
	versionOffset      = 4
	versionLen         = 16
	intraDirOffsetOff  = 20
	interDirOffsetOff  = 24
	fixedHeaderPrefix  = 28 // byte offset at which the assembly name begins
	reservedFieldCount = 4
)

func writeU32(w io.Writer, v uint32) error  { return binary.Write(w, binary.LittleEndian, v) }
func writeU64(w io.Writer, v uint64) error  { return binary.Write(w, binary.LittleEndian, v) }
func writeF32(w io.Writer, v float32) error { return binary.Write(w, binary.LittleEndian, v) }

func readU32(r io.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readU64(r io.Reader) (uint64, error) {
	var v uint64
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readF32(r io.Reader) (float32, error) {
	var v float32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

// writeCString writes s followed by a single NUL terminator.
func writeCString(w io.Writer, s string) error {
	if _, err := io.WriteString(w, s); err != nil {
		return err
	}
	_, err := w.Write([]byte{0})
	return err
}

// writeFixedString writes s zero-padded to exactly n bytes. s must leave
// room for at least one terminating NUL within the field.
func writeFixedString(w io.Writer, s string, n int) error {
	if len(s) >= n {
		return xerrors.Errorf("butlr: string %q exceeds fixed width %d", s, n)
	}
	buf := make([]byte, n)
	copy(buf, s)
	_, err := w.Write(buf)
	return err
}

// readCString reads bytes until a NUL terminator. It returns io.EOF with an
// empty string if the reader is exhausted before any byte is read, and any
// other error (including an EOF with partial data) is a truncation.
func readCString(r io.ByteReader) (string, error) {
	var buf bytes.Buffer
	for {
		b, err := r.ReadByte()
		if err != nil {
			return buf.String(), err
		}
		if b == 0 {
			return buf.String(), nil
		}
		buf.WriteByte(b)
	}
}

// trimNulString returns b up to (not including) its first NUL byte, or all
// of b if there is none.
func trimNulString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
