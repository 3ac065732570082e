package colormap

import (
	"image/color"
	"testing"
)

func TestSeuratColormapEndpoints(t *testing.T) {
	t.Parallel()

	c0, ok := Seurat.At(0).(color.RGBA)
	if !ok {
		t.Fatalf("expected color.RGBA at t=0")
	}
	if c0 != (color.RGBA{R: 211, G: 211, B: 211, A: 255}) {
		t.Fatalf("unexpected Seurat.At(0): %#v", c0)
	}

	c1, ok := Seurat.At(1).(color.RGBA)
	if !ok {
		t.Fatalf("expected color.RGBA at t=1")
	}
	if c1 != (color.RGBA{R: 255, G: 0, B: 0, A: 255}) {
		t.Fatalf("unexpected Seurat.At(1): %#v", c1)
	}
}

func TestSampleInterpolates(t *testing.T) {
	t.Parallel()

	got := Sample(Gray, 3)
	want := []color.RGBA{{0, 0, 0, 255}, {127, 127, 127, 255}, {255, 255, 255, 255}}
	if len(got) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: expected %v, got %v", i, want[i], got[i])
		}
	}
	if Sample(Gray, 0) != nil {
		t.Fatal("expected no samples for n=0")
	}

	cat := Sample(Categorical, 1)
	if len(cat) != 1 || cat[0] != Categorical.colors[0] {
		t.Fatalf("unexpected single categorical sample: %v", cat)
	}
	if c := Categorical.At(1); c != Categorical.colors[len(Categorical.colors)-1] {
		t.Fatalf("expected last color at t=1, got %v", c)
	}
}

func TestLinearKeysReproduceBreakpoints(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"viridis", "plasma", "inferno", "magma", "gray"} {
		t.Run(name, func(t *testing.T) {
			c, ok := Lookup(name)
			if !ok {
				t.Fatalf("preset %q missing", name)
			}
			lin := c.(LinearColormap)
			tab := Table(c, 0)
			if tab.NumKeys() != len(lin.colors) {
				t.Fatalf("expected %d keys, got %d", len(lin.colors), tab.NumKeys())
			}
			for i, want := range lin.colors {
				k := tab.Key(i)
				if k.ColorL() != want {
					t.Fatalf("key %d: expected %v, got %v", i, want, k.ColorL())
				}
				if got := tab.MappingForValue(k.Intensity()); got != want {
					t.Fatalf("mapping at key %d: expected %v, got %v", i, want, got)
				}
			}
		})
	}
}

func TestCategoricalKeysAreBands(t *testing.T) {
	t.Parallel()

	tab := Table(Categorical, 0)
	n := len(Categorical.colors)
	if tab.NumKeys() != n+1 {
		t.Fatalf("expected %d keys, got %d", n+1, tab.NumKeys())
	}
	for i := 0; i < n; i++ {
		mid := (float32(i) + 0.5) / float32(n)
		if got := tab.MappingForValue(mid); got != Categorical.colors[i] {
			t.Fatalf("band %d: expected %v, got %v", i, Categorical.colors[i], got)
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	t.Parallel()

	if _, ok := Lookup("jet"); ok {
		t.Fatal("expected unknown preset")
	}
	names := Names()
	if len(names) != len(presets) || names[0] != "categorical" {
		t.Fatalf("unexpected names: %v", names)
	}
}
