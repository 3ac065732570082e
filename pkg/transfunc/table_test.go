package transfunc

import (
	"image/color"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var (
	black       = color.RGBA{A: 255}
	white       = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	red         = color.RGBA{R: 255, A: 255}
	blue        = color.RGBA{B: 255, A: 255}
	transparent = color.RGBA{}
)

type keyView struct {
	I     float32
	L, R  color.RGBA
	Split bool
}

func viewKeys(keys []*MappingKey) []keyView {
	v := make([]keyView, len(keys))
	for i, k := range keys {
		v[i] = keyView{I: k.Intensity(), L: k.ColorL(), R: k.ColorR(), Split: k.IsSplit()}
	}
	return v
}

func sorted(t *testing.T, tab *KeyTable) {
	t.Helper()
	keys := tab.Keys()
	for i := 1; i < len(keys); i++ {
		if keys[i-1].Intensity() > keys[i].Intensity() {
			t.Fatalf("keys out of order at %d: %v", i, viewKeys(keys))
		}
	}
}

func TestKeyOrdering(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	tab := New(0)
	for i := 0; i < 200; i++ {
		if rng.Intn(3) == 0 {
			k := tab.Key(rng.Intn(tab.NumKeys()))
			k.SetIntensity(rng.Float32())
			tab.UpdateKey(k)
		} else {
			tab.AddKey(NewKey(rng.Float32(), red))
		}
		sorted(t, tab)
	}
}

func TestAddKeyTies(t *testing.T) {
	tab := New(0)
	a, b := NewKey(0.5, red), NewKey(0.5, blue)
	tab.AddKey(a)
	tab.AddKey(b)
	if tab.Key(1) != a || tab.Key(2) != b {
		t.Fatalf("equal intensities not kept in insertion order: %v", viewKeys(tab.Keys()))
	}
	tab.UpdateKey(a)
	if tab.Key(1) != a || tab.Key(2) != b {
		t.Fatal("UpdateKey reordered equal keys")
	}
}

func twoKeyTable(a, b color.RGBA) *KeyTable {
	tab := New(0)
	tab.SetKeys([]*MappingKey{NewKey(0, a), NewKey(1, b)})
	return tab
}

func TestMappingMidpoint(t *testing.T) {
	a := color.RGBA{R: 255, G: 100, B: 0, A: 255}
	b := color.RGBA{R: 0, G: 200, B: 255, A: 0}
	tab := twoKeyTable(a, b)

	got := tab.MappingForValue(0.5)
	want := color.RGBA{R: 128, G: 150, B: 127, A: 128}
	if got != want {
		t.Errorf("MappingForValue(0.5) = %v, want %v", got, want)
	}
	if got := tab.MappingForValue(0); got != a {
		t.Errorf("MappingForValue(0) = %v, want %v", got, a)
	}
	if got := tab.MappingForValue(1); got != b {
		t.Errorf("MappingForValue(1) = %v, want %v", got, b)
	}
}

func TestMappingClamps(t *testing.T) {
	tab := twoKeyTable(red, blue)
	if tab.MappingForValue(-1) != tab.MappingForValue(0) {
		t.Error("value below the domain not clamped")
	}
	if tab.MappingForValue(2) != tab.MappingForValue(1) {
		t.Error("value above the domain not clamped")
	}

	// Keys not covering the domain extend their outer colors.
	tab.SetKeys([]*MappingKey{NewKey(0.25, red), NewKey(0.75, blue)})
	if got := tab.MappingForValue(0.1); got != red {
		t.Errorf("before first key = %v, want %v", got, red)
	}
	if got := tab.MappingForValue(0.9); got != blue {
		t.Errorf("after last key = %v, want %v", got, blue)
	}
}

func TestMappingEmpty(t *testing.T) {
	tab := New(0)
	tab.ClearKeys()
	if got := tab.MappingForValue(0.5); got != transparent {
		t.Errorf("empty table maps to %v", got)
	}
	if !tab.IsEmpty() || tab.Key(0) != nil {
		t.Error("cleared table not empty")
	}
}

func TestMappingSplitKey(t *testing.T) {
	tab := New(0)
	tab.SetKeys([]*MappingKey{
		NewKey(0, red),
		NewSplitKey(0.5, red, blue),
		NewKey(1, blue),
	})
	if got := tab.MappingForValue(0.5); got != red {
		t.Errorf("at split key = %v, want left color %v", got, red)
	}
	if got := tab.MappingForValue(0.51); got != blue {
		t.Errorf("right of split key = %v, want %v", got, blue)
	}
}

func TestAlphaModeAndGamma(t *testing.T) {
	tab := New(0)
	tab.SetAlphaMode(OneAlpha)
	if got := tab.MappingForValue(0).A; got != 255 {
		t.Errorf("OneAlpha alpha = %d", got)
	}
	tab.SetAlphaMode(ZeroAlpha)
	if got := tab.MappingForValue(1).A; got != 0 {
		t.Errorf("ZeroAlpha alpha = %d", got)
	}

	tab.SetAlphaMode(UseAlpha)
	tab.SetGamma(2)
	if got := tab.MappingForValue(0.5).R; got != 63 {
		t.Errorf("gamma 2 at 0.5 = %d, want 63", got)
	}
}

func TestIsSignificant(t *testing.T) {
	tab := New(0)
	tab.SetKeys([]*MappingKey{NewKey(0, red), NewKey(0.5, red), NewKey(1, red)})
	if tab.IsSignificant() {
		t.Error("uniform table reported significant")
	}
	tab.Key(1).SetColorL(blue)
	if !tab.IsSignificant() {
		t.Error("changed key not significant")
	}

	tab.Key(1).SetColorL(red)
	tab.Key(1).SetSplit(true)
	tab.Key(1).SetColorR(color.RGBA{R: 255, A: 254})
	if !tab.IsSignificant() {
		t.Error("split key with different right alpha not significant")
	}
}

func TestKeyIndexClamps(t *testing.T) {
	tab := New(0)
	if tab.Key(-5) != tab.Key(0) || tab.Key(99) != tab.Key(1) {
		t.Error("Key does not clamp its index")
	}
	tab.AddKey(NewKey(0.5, red))
	tab.RemoveKeyAt(42)
	want := []keyView{
		{I: 0, L: transparent, R: transparent},
		{I: 0.5, L: red, R: red},
	}
	if diff := cmp.Diff(want, viewKeys(tab.Keys())); diff != "" {
		t.Errorf("RemoveKeyAt(42) mismatch (-want +got):\n%s", diff)
	}
}

type countingResource struct{ n *int }

func (r *countingResource) Release() { *r.n++ }

func TestResourcesReleasedOnce(t *testing.T) {
	var left, right, replaced int
	k := NewSplitKey(0.5, red, blue)
	k.SetResourceL(&countingResource{&replaced})
	k.SetResourceL(&countingResource{&left})
	if replaced != 1 {
		t.Fatalf("replaced handle released %d times", replaced)
	}
	same := &countingResource{&right}
	k.SetResourceR(same)
	k.SetResourceR(same)
	if right != 0 {
		t.Fatal("re-attaching the same handle released it")
	}

	tab := New(0)
	tab.AddKey(k)
	tab.RemoveKey(k)
	tab.RemoveKey(k)
	tab.ClearKeys()
	if left != 1 || right != 1 {
		t.Errorf("released left=%d right=%d, want 1 each", left, right)
	}
	if k.ResourceL() != nil || k.ResourceR() != nil {
		t.Error("handles still attached after removal")
	}

	calls := 0
	j := NewSplitKey(0.2, red, blue)
	j.SetResourceR(NewResource(func() { calls++ }))
	j.SetSplit(false)
	j.ReleaseResources()
	if calls != 1 {
		t.Errorf("joining a split key released %d times", calls)
	}
}

func TestUpdateTextureThresholds(t *testing.T) {
	tab := New(10)
	tab.SetThresholds(0.2, 0.8)
	samples := tab.Samples()
	if len(samples) != 10 {
		t.Fatalf("got %d samples", len(samples))
	}
	step := float32(1) / 10
	for i, c := range samples {
		zero := i < 2 || i >= 8
		if zero && c != transparent {
			t.Errorf("sample %d = %v, want transparent", i, c)
		}
		if !zero && c != tab.MappingForValue(step*float32(i)) {
			t.Errorf("sample %d = %v, want mapped color", i, c)
		}
	}
}

func TestUpdateTextureRange(t *testing.T) {
	tab := twoKeyTable(black, white)
	tab.UpdateTextureRange(4, 0.5, 1)
	want := []color.RGBA{
		tab.MappingForValue(0.5),
		tab.MappingForValue(0.625),
		tab.MappingForValue(0.75),
		tab.MappingForValue(0.875),
	}
	if diff := cmp.Diff(want, tab.Samples()); diff != "" {
		t.Errorf("zoomed samples mismatch (-want +got):\n%s", diff)
	}

	// Later changes regenerate with the same resolution and bounds.
	tab.SetThresholds(0, 0.75)
	got := tab.Samples()
	if len(got) != 4 || got[2] != transparent || got[1] == transparent {
		t.Errorf("regenerated samples = %v", got)
	}
}

func TestSamplesInvalidated(t *testing.T) {
	tab := New(4)
	before := append([]color.RGBA(nil), tab.Samples()...)
	tab.Key(0).SetColorL(red)
	tab.UpdateKey(tab.Key(0))
	after := tab.Samples()
	if cmp.Equal(before, after) {
		t.Error("samples not regenerated after key change")
	}
}

func TestStandardFunc(t *testing.T) {
	tab := New(0)
	if !tab.IsStandardFunc() {
		t.Fatal("new table is not the standard function")
	}
	tab.SetGamma(0.5)
	if tab.IsStandardFunc() {
		t.Error("gamma change not detected")
	}
	tab.SetToStandardFunc()
	tab.SetDomain(0, 100)
	if tab.IsStandardFunc() {
		t.Error("domain change not detected")
	}
}

func TestInvertKeys(t *testing.T) {
	tab := New(0)
	tab.SetKeys([]*MappingKey{
		NewKey(0, red),
		NewSplitKey(0.25, red, blue),
		NewKey(1, blue),
	})
	tab.InvertKeys()
	want := []keyView{
		{I: 0, L: blue, R: blue},
		{I: 0.75, L: blue, R: red, Split: true},
		{I: 1, L: red, R: red},
	}
	if diff := cmp.Diff(want, viewKeys(tab.Keys())); diff != "" {
		t.Errorf("InvertKeys mismatch (-want +got):\n%s", diff)
	}
}

func TestMakeRamp(t *testing.T) {
	tab := New(0)
	tab.SetKeys([]*MappingKey{NewKey(0.25, red), NewKey(0.5, red), NewKey(0.75, blue)})
	tab.MakeRamp()
	want := []keyView{
		{I: 0, L: color.RGBA{R: 255}, R: color.RGBA{R: 255}},
		{I: 0.5, L: color.RGBA{R: 255, A: 127}, R: color.RGBA{R: 255, A: 127}},
		{I: 1, L: blue, R: blue},
	}
	if diff := cmp.Diff(want, viewKeys(tab.Keys())); diff != "" {
		t.Errorf("MakeRamp mismatch (-want +got):\n%s", diff)
	}
}

func TestCloneIndependent(t *testing.T) {
	tab := New(0)
	tab.AddKey(NewSplitKey(0.3, red, blue))
	tab.SetThresholds(0.1, 0.9)
	c := tab.Clone()
	if !c.Equal(tab) {
		t.Fatal("clone differs")
	}
	c.Key(1).SetColorL(white)
	if c.Equal(tab) {
		t.Error("clone shares keys with the original")
	}
}
