package genome

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sizes.txt")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeTemp(t, "chr1 500\nchr2\t1000\n\nchr3   12\n")
	sizes, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := Sizes{"chr1": 500, "chr2": 1000, "chr3": 12}
	if diff := cmp.Diff(want, sizes); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadInvalidSize(t *testing.T) {
	path := writeTemp(t, "chr1 notanumber\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for non-numeric size")
	}
}

func TestIsChromAhead(t *testing.T) {
	sizes := Sizes{"chr1": 500, "chr2": 1000, "chrX": 1000}
	tests := []struct {
		a, b string
		want bool
	}{
		{"chr2", "chr1", true},  // bigger size
		{"chr1", "chr2", false}, // smaller size
		{"chr2", "chrX", true},  // tie, "chr2" < "chrX"
		{"chrX", "chr2", false},
	}
	for _, tt := range tests {
		if got := IsChromAhead(sizes, tt.a, tt.b); got != tt.want {
			t.Errorf("IsChromAhead(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSortedChromosomes(t *testing.T) {
	sizes := Sizes{"chr1": 500, "chr2": 1000, "chrX": 1000, "chrM": 10}
	got := SortedChromosomes(sizes)
	want := []string{"chr2", "chrX", "chr1", "chrM"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SortedChromosomes() mismatch (-want +got):\n%s", diff)
	}
}

func TestBins(t *testing.T) {
	if got, want := Bins(100, 50), 3; got != want {
		t.Errorf("Bins(100, 50) = %d, want %d", got, want)
	}
	if got, want := Bins(99, 50), 2; got != want {
		t.Errorf("Bins(99, 50) = %d, want %d", got, want)
	}
}

func TestValidateManifestComponents(t *testing.T) {
	sizes := Sizes{"chr1": 500, "chr2": 1000, "chr3": 10, "chr4": 5}
	pairs := []PairRef{{A: "chr1", B: "chr2"}, {A: "chr3", B: "chr4"}}
	got, err := ValidateManifest(sizes, []string{"chr1", "chr2", "chr3", "chr4"}, pairs)
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"chr1", "chr2"}, {"chr3", "chr4"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ValidateManifest() mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateManifestUnknownChrom(t *testing.T) {
	sizes := Sizes{"chr1": 500}
	if _, err := ValidateManifest(sizes, []string{"chr1", "chr9"}, nil); err == nil {
		t.Fatal("expected error for unknown chromosome")
	}
}
