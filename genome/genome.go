// Package genome owns the chromosome name-to-size mapping that every BUTLR
// file is built against, and the canonical ordering relation used to decide
// which chromosome of an interchromosomal pair is stored as the row.
package genome

import (
	"bufio"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

// Sizes maps a chromosome name to its length in base pairs.
type Sizes map[string]uint32

// Load reads a whitespace-delimited two-column genome size file: name,
// then size. Blank lines are skipped.
func Load(path string) (Sizes, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("genome: opening %s: %w", path, err)
	}
	defer f.Close()

	sizes := make(Sizes)
	sc := bufio.NewScanner(f)
	lineno := 0
	for sc.Scan() {
		lineno++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, xerrors.Errorf("genome: %s:%d: expected \"name size\", got %q", path, lineno, sc.Text())
		}
		n, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, xerrors.Errorf("genome: %s:%d: invalid size %q: %w", path, lineno, fields[1], err)
		}
		sizes[fields[0]] = uint32(n)
	}
	if err := sc.Err(); err != nil {
		return nil, xerrors.Errorf("genome: reading %s: %w", path, err)
	}
	return sizes, nil
}

// IsChromAhead reports whether a outranks b: bigger size first, ties broken
// by ascending lexicographic name. It is used solely to determine which
// chromosome of an unordered pair is the canonical row.
func IsChromAhead(sizes Sizes, a, b string) bool {
	sa, sb := sizes[a], sizes[b]
	if sa != sb {
		return sa > sb
	}
	return a < b
}

// SortedChromosomes returns the chromosomes of sizes in canonical order:
// descending size, then ascending name.
func SortedChromosomes(sizes Sizes) []string {
	names := make([]string, 0, len(sizes))
	for name := range sizes {
		names = append(names, name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		return IsChromAhead(sizes, names[i], names[j])
	})
	return names
}

// Bins returns the number of bins a chromosome of the given size occupies
// at the given resolution: floor(size/resolution) + 1.
func Bins(size, resolution uint32) int {
	return int(size/resolution) + 1
}

// BinOf maps a base-pair coordinate to a bin index at the given resolution.
func BinOf(pos, resolution uint32) uint32 {
	return pos / resolution
}
