package tfio

import (
	"image/color"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/soma-tiles/tfserver/pkg/transfunc"
)

var (
	black  = color.RGBA{A: 255}
	white  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	orange = color.RGBA{R: 255, G: 128, A: 255}
)

type keyView struct {
	I     float32
	L, R  color.RGBA
	Split bool
}

func viewKeys(keys []*transfunc.MappingKey) []keyView {
	out := make([]keyView, len(keys))
	for i, k := range keys {
		out[i] = keyView{I: k.Intensity(), L: k.ColorL(), R: k.ColorR(), Split: k.IsSplit()}
	}
	return out
}

// approx compares intensities to within one step of a 256 entry table.
var approx = cmp.Comparer(func(a, b float32) bool {
	return math.Abs(float64(a-b)) <= 1.0/255
})

func constantTable(c color.RGBA) *transfunc.KeyTable {
	t := transfunc.New(0)
	t.SetKeys([]*transfunc.MappingKey{transfunc.NewKey(0, c), transfunc.NewKey(1, c)})
	return t
}

func stepTable() *transfunc.KeyTable {
	t := transfunc.New(0)
	t.SetKeys([]*transfunc.MappingKey{
		transfunc.NewKey(0, black),
		transfunc.NewSplitKey(0.5, black, white),
		transfunc.NewKey(1, white),
	})
	return t
}

func checkKeys(t *testing.T, imp *transfunc.Import, want []keyView) {
	t.Helper()
	if imp == nil {
		t.Fatal("nil import")
	}
	if diff := cmp.Diff(want, viewKeys(imp.Keys), approx); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}
