package genome

import (
	"sort"

	"golang.org/x/xerrors"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// PairRef names one interchromosomal (or intrachromosomal, if A == B) entry
// from a matrix manifest, in whatever order the manifest line gave it.
type PairRef struct {
	A, B string
}

type chromNode struct {
	id   int64
	name string
}

func (n chromNode) ID() int64 { return n.id }

// ValidateManifest checks that every chromosome named by chroms or pairs
// exists in sizes, then groups the chromosomes touched by an
// interchromosomal pair into connected components: chromosomes that will
// end up sharing a BUTLR file's interchromosomal directory. The return
// value is purely diagnostic (butlr-pack prints each component as a
// warning); it has no bearing on
// how the writer lays out the file.
func ValidateManifest(sizes Sizes, chroms []string, pairs []PairRef) ([][]string, error) {
	for _, c := range chroms {
		if _, ok := sizes[c]; !ok {
			return nil, xerrors.Errorf("genome: chromosome %q not in genome size table", c)
		}
	}

	g := simple.NewUndirectedGraph()
	nodes := make(map[string]chromNode)
	nodeFor := func(name string) (chromNode, error) {
		if n, ok := nodes[name]; ok {
			return n, nil
		}
		if _, ok := sizes[name]; !ok {
			return chromNode{}, xerrors.Errorf("genome: chromosome %q not in genome size table", name)
		}
		n := chromNode{id: int64(len(nodes)), name: name}
		nodes[name] = n
		g.AddNode(n)
		return n, nil
	}

	for _, p := range pairs {
		na, err := nodeFor(p.A)
		if err != nil {
			return nil, err
		}
		nb, err := nodeFor(p.B)
		if err != nil {
			return nil, err
		}
		if na.id == nb.id {
			continue
		}
		g.SetEdge(g.NewEdge(na, nb))
	}

	raw := topo.ConnectedComponents(g)
	components := make([][]string, 0, len(raw))
	for _, comp := range raw {
		names := make([]string, 0, len(comp))
		for _, n := range comp {
			names = append(names, n.(chromNode).name)
		}
		sort.Strings(names)
		components = append(components, names)
	}
	sort.Slice(components, func(i, j int) bool { return components[i][0] < components[j][0] })
	return components, nil
}
