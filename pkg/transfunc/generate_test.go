package transfunc

import (
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func rgba(cs ...color.RGBA) []byte {
	b := make([]byte, 0, 4*len(cs))
	for _, c := range cs {
		b = append(b, c.R, c.G, c.B, c.A)
	}
	return b
}

func TestGenerateKeysLinearRamp(t *testing.T) {
	data := make([]byte, 0, 4*256)
	for i := 0; i < 256; i++ {
		v := uint8(i)
		data = append(data, v, v, v, 255)
	}
	want := []keyView{
		{I: 0, L: black, R: black},
		{I: 1, L: white, R: white},
	}
	if diff := cmp.Diff(want, viewKeys(GenerateKeys(data, 256))); diff != "" {
		t.Errorf("GenerateKeys mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateKeysStep(t *testing.T) {
	data := rgba(black, black, black, black, white, white, white, white)
	want := []keyView{
		{I: 0, L: black, R: black},
		{I: float32(4) / 7, L: black, R: white, Split: true},
		{I: float32(5) / 7, L: white, R: white},
		{I: 1, L: white, R: white},
	}
	keys := GenerateKeys(data, 8)
	if diff := cmp.Diff(want, viewKeys(keys)); diff != "" {
		t.Fatalf("GenerateKeys mismatch (-want +got):\n%s", diff)
	}

	tab := New(0)
	if !tab.LoadSamples(data, 8) {
		t.Fatal("LoadSamples failed")
	}
	if tab.Width() != 8 {
		t.Errorf("width = %d, want 8", tab.Width())
	}
	for i, want := range []color.RGBA{black, black, black, black, black, white, white, white} {
		if got := tab.MappingForValue(float32(i) / 7); got != want {
			t.Errorf("sample %d maps to %v, want %v", i, got, want)
		}
	}
}

func TestGenerateKeysStepAtLastSample(t *testing.T) {
	samples := make([]color.RGBA, 256)
	for i := range samples {
		samples[i] = red
	}
	samples[255] = blue

	keys := GenerateKeys(rgba(samples...), 256)
	want := []keyView{
		{I: 0, L: red, R: red},
		{I: 1, L: red, R: blue, Split: true},
		{I: 1, L: blue, R: blue},
	}
	if diff := cmp.Diff(want, viewKeys(keys)); diff != "" {
		t.Fatalf("GenerateKeys mismatch (-want +got):\n%s", diff)
	}

	tab := New(0)
	tab.SetKeys(keys)
	for i := 0; i < 255; i++ {
		if got := tab.MappingForValue(float32(i) / 255); got != red {
			t.Fatalf("sample %d maps to %v, want %v", i, got, red)
		}
	}
}

func TestGenerateKeysRejectsShortInput(t *testing.T) {
	if GenerateKeys(rgba(black), 1) != nil {
		t.Error("single sample produced keys")
	}
	if GenerateKeys(rgba(black, white), 3) != nil {
		t.Error("truncated data produced keys")
	}
	tab := New(0)
	if tab.LoadSamples(nil, 4) || !tab.IsStandardFunc() {
		t.Error("failed LoadSamples modified the table")
	}
}
