package ingest

import (
	"strings"
	"testing"

	"github.com/yuelab/butlr/internal/diag"
)

func collect(t *testing.T, src Source) [][3]float64 {
	t.Helper()
	var got [][3]float64
	for {
		row, col, val, ok, err := src.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		got = append(got, [3]float64{float64(row), float64(col), float64(val)})
	}
	return got
}

func TestCoordinateSource(t *testing.T) {
	r := strings.NewReader("0 0 1.0\n0 50 2.0\n50 50 3.0\n")
	src := NewCoordinateSource(r, 50, 0, 1, 2, diag.Sink{})
	got := collect(t, src)
	want := [][3]float64{{0, 0, 1.0}, {0, 1, 2.0}, {1, 1, 3.0}}
	if len(got) != len(want) {
		t.Fatalf("got %d triples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("triple %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCoordinateSourceNonNumericValue(t *testing.T) {
	r := strings.NewReader("0 0 NA\n")
	src := NewCoordinateSource(r, 1, 0, 1, 2, diag.Sink{})
	_, _, val, ok, err := src.Next()
	if err != nil || !ok {
		t.Fatalf("Next() = (ok=%v, err=%v)", ok, err)
	}
	if val != 0 {
		t.Errorf("non-numeric value = %v, want 0", val)
	}
}

func TestDenseSourceUpperTriangleOnly(t *testing.T) {
	matrix := "1.0\t2.0\t0.0\n2.0\t3.0\t0.0\n0.0\t0.0\t4.0\n"
	src := NewDenseSource(strings.NewReader(matrix), true, 0, 0, 0.0, diag.Sink{})
	got := collect(t, src)
	want := [][3]float64{{0, 0, 1.0}, {0, 1, 2.0}, {1, 1, 3.0}, {2, 2, 4.0}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("triple %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDenseSourceSkipsHeaderAndLeadingColumns(t *testing.T) {
	matrix := "header\trow\n" + "label\t1.0\t2.0\n" + "label\t0.0\t3.0\n"
	src := NewDenseSource(strings.NewReader(matrix), true, 1, 1, 0.0, diag.Sink{})
	got := collect(t, src)
	want := [][3]float64{{0, 0, 1.0}, {0, 1, 2.0}, {1, 1, 3.0}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDenseSourceNaNAndInf(t *testing.T) {
	matrix := "NaN\tInf\t-Inf\n"
	src := NewDenseSource(strings.NewReader(matrix), false, 0, 0, 12345, diag.Sink{})
	got := collect(t, src)
	want := [][3]float64{{0, 0, 0}, {0, 1, float64(float32(1.0e38))}, {0, 2, float64(float32(-1.0e38))}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("triple %d = %v, want %v", i, got[i], want[i])
		}
	}
}
