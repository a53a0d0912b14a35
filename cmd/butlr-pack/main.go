// Command butlr-pack builds a BUTLR file from a genome size table and a
// manifest of per-chromosome and per-pair matrix sources.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/yuelab/butlr/butlr"
	"github.com/yuelab/butlr/genome"
	"github.com/yuelab/butlr/ingest"
	"github.com/yuelab/butlr/internal/diag"
)

const help = `butlr-pack -sizes=<file> -manifest=<file> -resolution=<res> -out=<path> [-assembly=<name>]

Packs a genome size table and a manifest of per-chromosome and per-pair
matrix sources into a single BUTLR file.

Manifest lines have one of two forms:
  <chrom>              <path>   (intrachromosomal)
  <chromA>  <chromB>   <path>   (interchromosomal)

Each referenced path is a coordinate-list file: "row_bp col_bp value" per
line, base-pair coordinates, tab- or space-delimited.
`

type manifestEntry struct {
	kind       string // "chrom" or "pair"
	a, b, path string
}

func parseManifest(path string) ([]manifestEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []manifestEntry
	sc := bufio.NewScanner(f)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch len(fields) {
		case 2:
			entries = append(entries, manifestEntry{kind: "chrom", a: fields[0], path: fields[1]})
		case 3:
			if fields[0] == fields[1] {
				entries = append(entries, manifestEntry{kind: "chrom", a: fields[0], path: fields[2]})
				continue
			}
			entries = append(entries, manifestEntry{kind: "pair", a: fields[0], b: fields[1], path: fields[2]})
		default:
			return nil, fmt.Errorf("manifest:%d: want \"<chrom> <path>\" or \"<chromA> <chromB> <path>\"", lineno)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func run() error {
	fset := flag.NewFlagSet("butlr-pack", flag.ExitOnError)
	fset.Usage = func() {
		fmt.Fprint(os.Stderr, help)
		fset.PrintDefaults()
	}
	var (
		sizesPath    = fset.String("sizes", "", "genome size table (name, size)")
		manifestPath = fset.String("manifest", "", "manifest of chrom/pair sources")
		resolutionS  = fset.String("resolution", "", "bin resolution, e.g. 10000, 10k, 1m")
		outPath      = fset.String("out", "", "output BUTLR file path")
		assembly     = fset.String("assembly", "", "genome assembly name")
		version      = fset.String("version", "butlr-pack", "version string recorded in the header")
	)
	fset.Parse(os.Args[1:])

	if *sizesPath == "" || *manifestPath == "" || *resolutionS == "" || *outPath == "" {
		fset.Usage()
		return fmt.Errorf("butlr-pack: -sizes, -manifest, -resolution and -out are required")
	}

	resolution, err := butlr.ParseResolution(*resolutionS)
	if err != nil {
		return err
	}

	sizes, err := genome.Load(*sizesPath)
	if err != nil {
		return err
	}

	entries, err := parseManifest(*manifestPath)
	if err != nil {
		return err
	}

	warn := diag.New(log.New(os.Stderr, "", 0), isatty.IsTerminal(os.Stderr.Fd()))

	var chroms []butlr.ChromSource
	var pairs []butlr.PairSource
	var refs []genome.PairRef
	var chromNames []string
	for _, e := range entries {
		e := e
		switch e.kind {
		case "chrom":
			chromNames = append(chromNames, e.a)
			chroms = append(chroms, butlr.ChromSource{
				Chrom: e.a,
				Open:  func() (ingest.Source, error) { return openCoordinateFile(e.path, resolution, warn) },
			})
		case "pair":
			refs = append(refs, genome.PairRef{A: e.a, B: e.b})
			pairs = append(pairs, butlr.PairSource{
				A: e.a, B: e.b,
				Open: func() (ingest.Source, error) { return openCoordinateFile(e.path, resolution, warn) },
			})
		}
	}

	components, err := genome.ValidateManifest(sizes, chromNames, refs)
	if err != nil {
		return err
	}
	for _, c := range components {
		warn.Warnf("interchromosomal component: %s", strings.Join(c, ", "))
	}

	return butlr.WriteFile(*outPath, butlr.WriteOptions{
		Assembly:   *assembly,
		Version:    *version,
		Resolution: resolution,
		Sizes:      sizes,
		Chroms:     chroms,
		Pairs:      pairs,
		Warn:       warn,
	})
}

type closingCoordinateSource struct {
	*ingest.CoordinateSource
	f *os.File
}

func (c *closingCoordinateSource) Close() error { return c.f.Close() }

func openCoordinateFile(path string, resolution uint32, warn diag.Sink) (ingest.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &closingCoordinateSource{
		CoordinateSource: ingest.NewCoordinateSource(f, resolution, 0, 1, 2, warn),
		f:                f,
	}, nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
