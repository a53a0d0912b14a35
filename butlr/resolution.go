package butlr

import (
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

// ParseResolution parses a human-written bin resolution such as "10000",
// "10k", "5K", or "1m" into a bin size in base pairs. The suffix is
// case-insensitive; "k" multiplies by 1000 and "m" by 1,000,000. The result
// must be strictly positive.
func ParseResolution(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, xerrors.New("butlr: empty resolution")
	}

	mult := uint64(1)
	switch s[len(s)-1] {
	case 'k', 'K':
		mult = 1000
		s = s[:len(s)-1]
	case 'm', 'M':
		mult = 1000000
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, xerrors.Errorf("butlr: invalid resolution %q: %w", s, err)
	}
	v := n * mult
	if v == 0 {
		return 0, xerrors.Errorf("butlr: resolution must be greater than zero, got %q", s)
	}
	if v > 1<<32-1 {
		return 0, xerrors.Errorf("butlr: resolution %q overflows 32 bits", s)
	}
	return uint32(v), nil
}
