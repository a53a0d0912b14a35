// Command butlr-dump inspects a BUTLR file: its header and directories, or
// a queried dense sub-matrix.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/yuelab/butlr/butlr"
)

const help = `butlr-dump -in=<path> [-query=chr1:start-end,chr2:start-end]

With no -query, prints the file's header and directories. With -query,
prints the requested dense sub-matrix as tab-separated rows.

A bare chromosome name in a query range (no ":start-end") means the full
chromosome.
`

func run() error {
	fset := flag.NewFlagSet("butlr-dump", flag.ExitOnError)
	fset.Usage = func() {
		fmt.Fprint(os.Stderr, help)
		fset.PrintDefaults()
	}
	var (
		inPath = fset.String("in", "", "BUTLR file to read")
		query  = fset.String("query", "", "chr1[:start-end],chr2[:start-end]")
	)
	fset.Parse(os.Args[1:])

	if *inPath == "" {
		fset.Usage()
		return fmt.Errorf("butlr-dump: -in is required")
	}

	f, err := os.Open(*inPath)
	if err != nil {
		return err
	}
	defer f.Close()

	rd, err := butlr.Open(f)
	if err != nil {
		return err
	}

	if *query == "" {
		return dumpDirectory(rd)
	}
	return dumpQuery(rd, *query)
}

func dumpDirectory(rd *butlr.Reader) error {
	fmt.Printf("assembly=%s version=%s resolution=%d mcv=%v\n",
		rd.Header.Assembly, rd.Header.Version, rd.Header.Resolution, rd.Header.MCV)
	for _, c := range rd.Chroms {
		fmt.Printf("chrom\t%s\t%d\t%d\n", c.Name, c.Size, c.BodyOffset)
	}
	for _, p := range rd.Pairs {
		fmt.Printf("pair\t%s\t%s\t%d\n", p.Row, p.Col, p.BodyOffset)
	}
	return nil
}

// parseQueryTerm parses "chrom" or "chrom:start-end" (bin-space bounds)
// into a chromosome name and Range. An absent range means the full
// chromosome.
func parseQueryTerm(term string) (string, butlr.Range, error) {
	i := strings.IndexByte(term, ':')
	if i < 0 {
		return term, butlr.Range{Start: 0, End: -1}, nil
	}
	name := term[:i]
	bounds := term[i+1:]
	j := strings.IndexByte(bounds, '-')
	if j < 0 {
		return "", butlr.Range{}, fmt.Errorf("query term %q: expected start-end", term)
	}
	start, err := strconv.Atoi(bounds[:j])
	if err != nil {
		return "", butlr.Range{}, fmt.Errorf("query term %q: invalid start: %w", term, err)
	}
	end, err := strconv.Atoi(bounds[j+1:])
	if err != nil {
		return "", butlr.Range{}, fmt.Errorf("query term %q: invalid end: %w", term, err)
	}
	return name, butlr.Range{Start: start, End: end}, nil
}

func dumpQuery(rd *butlr.Reader, query string) error {
	parts := strings.SplitN(query, ",", 2)
	chrom1, range1, err := parseQueryTerm(parts[0])
	if err != nil {
		return err
	}
	chrom2, range2 := chrom1, range1
	if len(parts) == 2 {
		chrom2, range2, err = parseQueryTerm(parts[1])
		if err != nil {
			return err
		}
	}

	m, err := rd.Query(butlr.Query{Chrom1: chrom1, Range1: range1, Chrom2: chrom2, Range2: range2})
	if err != nil {
		return err
	}
	for _, row := range m.Data {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = strconv.FormatFloat(float64(v), 'g', -1, 32)
		}
		fmt.Println(strings.Join(cells, "\t"))
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
