// Command butlr-fromdense converts whole dense matrix files (one per
// chromosome or chromosome pair) into coordinate-list files whose row and
// column fields are bin indices. butlr-pack reads its coordinate lists as
// base-pair coordinates, so these files are not in butlr-pack's input
// form. It is a preprocessing step, entirely separate from
// the BUTLR codec itself: each input file is converted independently, so
// conversions run concurrently, unlike the single-threaded writer.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yuelab/butlr/ingest"
	"github.com/yuelab/butlr/internal/diag"
)

const help = `butlr-fromdense -manifest=<file> -out-dir=<dir> [-skip-rows=0] [-skip-cols=0] [-mcv=0]

Manifest lines have one of two forms:
  <chrom>              <dense-matrix-path>   (intrachromosomal)
  <chromA>  <chromB>   <dense-matrix-path>   (interchromosomal)

Each dense matrix is tab-delimited, one row per line, with -skip-rows
leading header rows and -skip-cols leading label columns discarded.
For chrom entries, only the upper triangle is kept. Output coordinate-list
files are written to -out-dir, named "<entry>.coords", one triple "row col
value" per line in bin space.
`

type manifestEntry struct {
	kind string
	a, b string
	path string
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

func (e manifestEntry) outName() string {
	if e.kind == "chrom" {
		return e.a + ".coords"
	}
	return e.a + "__" + e.b + ".coords"
}

func convertOne(e manifestEntry, outDir string, skipRows, skipCols int, mcv float32, warn diag.Sink) error {
	in, err := os.Open(e.path)
	if err != nil {
		return fmt.Errorf("%s: %w", e.path, err)
	}
	defer in.Close()

	outPath := filepath.Join(outDir, e.outName())
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("%s: %w", outPath, err)
	}
	bw := bufio.NewWriter(out)

	src := ingest.NewDenseSource(in, e.kind == "chrom", skipRows, skipCols, mcv, warn)
	for {
		row, col, val, ok, err := src.Next()
		if err != nil {
			out.Close()
			return fmt.Errorf("%s: %w", e.path, err)
		}
		if !ok {
			break
		}
		if _, err := fmt.Fprintf(bw, "%d\t%d\t%g\n", row, col, val); err != nil {
			out.Close()
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func run() error {
	fset := flag.NewFlagSet("butlr-fromdense", flag.ExitOnError)
	fset.Usage = func() {
		fmt.Fprint(os.Stderr, help)
		fset.PrintDefaults()
	}
	var (
		manifestPath = fset.String("manifest", "", "manifest of dense matrix sources")
		outDir       = fset.String("out-dir", "", "directory to write coordinate-list files to")
		skipRows     = fset.Int("skip-rows", 0, "leading header rows to discard")
		skipCols     = fset.Int("skip-cols", 0, "leading label columns to discard")
		mcv          = fset.Float64("mcv", 0, "most-common value to omit from output")
	)
	fset.Parse(os.Args[1:])

	if *manifestPath == "" || *outDir == "" {
		fset.Usage()
		return fmt.Errorf("butlr-fromdense: -manifest and -out-dir are required")
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	entries, err := parseManifest(*manifestPath)
	if err != nil {
		return err
	}

	warn := diag.New(log.New(os.Stderr, "", 0), false)

	var eg errgroup.Group
	for _, e := range entries {
		e := e
		eg.Go(func() error {
			return convertOne(e, *outDir, *skipRows, *skipCols, float32(*mcv), warn)
		})
	}
	return eg.Wait()
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
