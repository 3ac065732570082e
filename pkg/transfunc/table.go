// Package transfunc implements one dimensional transfer functions defined by
// an ordered list of mapping keys.
//
// A KeyTable maps a normalized intensity in [0, 1] to a color by linear
// interpolation between its neighbouring keys. The sampled lookup table
// derived from the keys is cached and regenerated lazily after changes.
package transfunc

import (
	"image/color"
	"math"
	"slices"
	"sort"
)

// DefaultWidth is the sample resolution of a new table.
const DefaultWidth = 256

// AlphaMode controls how the opacity of a mapped color is produced.
type AlphaMode int

const (
	// UseAlpha takes the opacity from the keys.
	UseAlpha AlphaMode = iota
	// ZeroAlpha makes every mapped color transparent.
	ZeroAlpha
	// OneAlpha makes every mapped color opaque.
	OneAlpha
)

func (m AlphaMode) String() string {
	switch m {
	case ZeroAlpha:
		return "zero"
	case OneAlpha:
		return "one"
	default:
		return "use"
	}
}

// KeyTable is a transfer function built from mapping keys sorted by
// intensity. It is not safe for concurrent use.
type KeyTable struct {
	keys       []*MappingKey
	thresholds [2]float32
	domain     [2]float32
	gamma      float32
	alphaMode  AlphaMode
	width      int

	samples []color.RGBA
	res     int
	left    float32
	right   float32
	valid   bool
}

// New returns the standard function, a ramp from transparent black to
// opaque white, sampled at width entries.
func New(width int) *KeyTable {
	if width <= 0 {
		width = DefaultWidth
	}
	t := &KeyTable{domain: [2]float32{0, 1}, width: width}
	t.SetToStandardFunc()
	return t
}

func (t *KeyTable) invalidate() { t.valid = false }

// AddKey inserts k after every key with a lower or equal intensity.
func (t *KeyTable) AddKey(k *MappingKey) {
	i := sort.Search(len(t.keys), func(i int) bool { return t.keys[i].intensity > k.intensity })
	t.keys = slices.Insert(t.keys, i, k)
	t.invalidate()
}

// UpdateKey restores the order after the intensity of a member key changed.
// The relative order of keys with equal intensities is kept.
func (t *KeyTable) UpdateKey(*MappingKey) {
	sort.SliceStable(t.keys, func(i, j int) bool { return t.keys[i].intensity < t.keys[j].intensity })
	t.invalidate()
}

// RemoveKey removes k and releases its resources. Keys that are not members
// are left alone. Callers keep at least two keys in a table.
func (t *KeyTable) RemoveKey(k *MappingKey) {
	i := slices.Index(t.keys, k)
	if i < 0 {
		return
	}
	t.removeAt(i)
}

// RemoveKeyAt removes the key at i, clamped to the valid range.
func (t *KeyTable) RemoveKeyAt(i int) {
	if len(t.keys) == 0 {
		return
	}
	t.removeAt(t.clamp(i))
}

func (t *KeyTable) removeAt(i int) {
	k := t.keys[i]
	t.keys = slices.Delete(t.keys, i, i+1)
	k.ReleaseResources()
	t.invalidate()
}

// ClearKeys removes every key, releasing their resources.
func (t *KeyTable) ClearKeys() {
	for _, k := range t.keys {
		k.ReleaseResources()
	}
	t.keys = nil
	t.invalidate()
}

// SetKeys replaces the keys. Previous keys not in keys are released.
func (t *KeyTable) SetKeys(keys []*MappingKey) {
	for _, k := range t.keys {
		if !slices.Contains(keys, k) {
			k.ReleaseResources()
		}
	}
	t.keys = slices.Clone(keys)
	t.UpdateKey(nil)
}

func (t *KeyTable) clamp(i int) int {
	return max(0, min(i, len(t.keys)-1))
}

// Key returns the key at i, clamped to the valid range, or nil if the table
// is empty.
func (t *KeyTable) Key(i int) *MappingKey {
	if len(t.keys) == 0 {
		return nil
	}
	return t.keys[t.clamp(i)]
}

// Keys returns the keys in order. The slice is a copy, the keys are not.
func (t *KeyTable) Keys() []*MappingKey { return slices.Clone(t.keys) }

func (t *KeyTable) NumKeys() int  { return len(t.keys) }
func (t *KeyTable) IsEmpty() bool { return len(t.keys) == 0 }

// Thresholds returns the rendered sub-range of the domain.
func (t *KeyTable) Thresholds() (low, high float32) { return t.thresholds[0], t.thresholds[1] }

// SetThresholds restricts sampling to [low, high). Samples outside the
// range are transparent black.
func (t *KeyTable) SetThresholds(low, high float32) {
	t.thresholds = [2]float32{low, high}
	t.invalidate()
}

// Domain returns the data value range mapped onto [0, 1].
func (t *KeyTable) Domain() (low, high float32) { return t.domain[0], t.domain[1] }

func (t *KeyTable) SetDomain(low, high float32) {
	t.domain = [2]float32{low, high}
	t.invalidate()
}

// Normalize maps a data value into the intensity range through the domain.
func (t *KeyTable) Normalize(v float64) float32 {
	lo, hi := float64(t.domain[0]), float64(t.domain[1])
	if hi == lo {
		return 0
	}
	return float32((v - lo) / (hi - lo))
}

func (t *KeyTable) Gamma() float32 { return t.gamma }

// SetGamma sets the exponent applied to intensities before lookup.
func (t *KeyTable) SetGamma(g float32) {
	t.gamma = g
	t.invalidate()
}

func (t *KeyTable) AlphaMode() AlphaMode { return t.alphaMode }

func (t *KeyTable) SetAlphaMode(m AlphaMode) {
	t.alphaMode = m
	t.invalidate()
}

// Width is the resolution Samples uses until UpdateTexture asks for another.
func (t *KeyTable) Width() int { return t.width }

func (t *KeyTable) SetWidth(w int) {
	if w <= 0 {
		return
	}
	t.width = w
	t.res = 0
	t.invalidate()
}

// MappingForValue returns the color for intensity v. Values outside [0, 1]
// take the color of the nearest end. Exactly at a key the ramp on its left
// applies, so a split key shows its left color there.
func (t *KeyTable) MappingForValue(v float32) color.RGBA {
	if len(t.keys) == 0 {
		return color.RGBA{}
	}
	v = min(max(v, 0), 1)
	if t.gamma != 1 {
		v = float32(math.Pow(float64(v), float64(t.gamma)))
	}

	i := 0
	for i < len(t.keys) && v > t.keys[i].intensity {
		i++
	}

	var c color.RGBA
	switch i {
	case 0:
		c = t.keys[0].colorL
	case len(t.keys):
		c = t.keys[i-1].colorR
	default:
		l, r := t.keys[i-1], t.keys[i]
		frac := (v - l.intensity) / (r.intensity - l.intensity)
		c = color.RGBA{
			R: lerp(l.colorR.R, r.colorL.R, frac),
			G: lerp(l.colorR.G, r.colorL.G, frac),
			B: lerp(l.colorR.B, r.colorL.B, frac),
			A: lerp(l.colorR.A, r.colorL.A, frac),
		}
	}
	return t.applyAlphaMode(c)
}

// lerp moves from a towards b, truncating the step towards zero.
func lerp(a, b uint8, frac float32) uint8 {
	return uint8(int(a) + int(float32(int(b)-int(a))*frac))
}

func (t *KeyTable) applyAlphaMode(c color.RGBA) color.RGBA {
	switch t.alphaMode {
	case OneAlpha:
		c.A = 255
	case ZeroAlpha:
		c.A = 0
	}
	return c
}

// UpdateTexture regenerates the lookup table over the whole domain.
func (t *KeyTable) UpdateTexture(resolution int) {
	t.UpdateTextureRange(resolution, 0, 1)
}

// UpdateTextureRange regenerates the lookup table with resolution entries
// covering [left, right). Entry i maps left + (right-left)*i/resolution;
// entries below the low threshold or at and above the high threshold are
// transparent black.
func (t *KeyTable) UpdateTextureRange(resolution int, left, right float32) {
	if resolution <= 0 {
		resolution = t.width
	}
	if cap(t.samples) >= resolution {
		t.samples = t.samples[:resolution]
	} else {
		t.samples = make([]color.RGBA, resolution)
	}

	front, back := 0, 0
	if span := right - left; span != 0 {
		n := float64(resolution)
		front = int(math.Round(float64((t.thresholds[0]-left)/span) * n))
		back = int(math.Round(float64((t.thresholds[1]-left)/span) * n))
	} else if left >= t.thresholds[0] && left < t.thresholds[1] {
		back = resolution
	}

	step := (right - left) / float32(resolution)
	for i := range t.samples {
		if i < front || i >= back {
			t.samples[i] = color.RGBA{}
			continue
		}
		t.samples[i] = t.MappingForValue(left + step*float32(i))
	}
	t.res, t.left, t.right = resolution, left, right
	t.valid = true
}

// Samples returns the lookup table, regenerating it with the last requested
// resolution and bounds if keys or settings changed since. The slice is
// owned by the table and only valid until the next change.
func (t *KeyTable) Samples() []color.RGBA {
	if !t.valid {
		if t.res == 0 {
			t.UpdateTextureRange(t.width, 0, 1)
		} else {
			t.UpdateTextureRange(t.res, t.left, t.right)
		}
	}
	return t.samples
}

// IsSignificant reports whether any key differs in color from the first
// key's left color.
func (t *KeyTable) IsSignificant() bool {
	if len(t.keys) == 0 {
		return false
	}
	ref := t.keys[0].colorL
	for _, k := range t.keys {
		if k.colorL != ref || (k.split && k.colorR != ref) {
			return true
		}
	}
	return false
}

// SetToStandardFunc resets keys, thresholds, gamma and alpha mode to the
// default ramp from transparent black to opaque white.
func (t *KeyTable) SetToStandardFunc() {
	t.ClearKeys()
	t.keys = []*MappingKey{
		NewKey(0, color.RGBA{}),
		NewKey(1, color.RGBA{R: 255, G: 255, B: 255, A: 255}),
	}
	t.thresholds = [2]float32{0, 1}
	t.gamma = 1
	t.alphaMode = UseAlpha
	t.invalidate()
}

// IsStandardFunc reports whether the table is unchanged from
// SetToStandardFunc with the default domain.
func (t *KeyTable) IsStandardFunc() bool {
	if t.domain != [2]float32{0, 1} || len(t.keys) != 2 || t.gamma != 1 || t.alphaMode != UseAlpha {
		return false
	}
	k0, k1 := t.keys[0], t.keys[1]
	return k0.intensity == 0 && !k0.split && k0.colorL == color.RGBA{} &&
		k1.intensity == 1 && !k1.split && k1.colorL == color.RGBA{R: 255, G: 255, B: 255, A: 255}
}

// InvertKeys mirrors the function: every intensity i becomes 1-i and the
// left and right sides of each key are swapped.
func (t *KeyTable) InvertKeys() {
	slices.Reverse(t.keys)
	for _, k := range t.keys {
		k.intensity = 1 - k.intensity
		k.swapSides()
	}
	t.invalidate()
}

// MakeRamp stretches the keys over [0, 1] and sets each key's opacity to
// its new intensity.
func (t *KeyTable) MakeRamp() {
	if len(t.keys) >= 2 {
		lo, hi := t.keys[0].intensity, t.keys[len(t.keys)-1].intensity
		if w := hi - lo; w > 0 {
			for _, k := range t.keys {
				v := (k.intensity - lo) / w
				k.intensity = v
				k.colorL.A = alphaByte(v)
				k.colorR.A = alphaByte(v)
			}
		}
	}
	t.invalidate()
}

// Clone returns a deep copy of t. Key resources are not copied.
func (t *KeyTable) Clone() *KeyTable {
	c := &KeyTable{}
	c.UpdateFrom(t)
	return c
}

// UpdateFrom makes t a copy of o, releasing t's current keys.
func (t *KeyTable) UpdateFrom(o *KeyTable) {
	keys := make([]*MappingKey, len(o.keys))
	for i, k := range o.keys {
		keys[i] = k.Clone()
	}
	t.ClearKeys()
	t.keys = keys
	t.thresholds = o.thresholds
	t.domain = o.domain
	t.gamma = o.gamma
	t.alphaMode = o.alphaMode
	t.width = o.width
	t.res = 0
	t.invalidate()
}

// Equal compares settings and keys.
func (t *KeyTable) Equal(o *KeyTable) bool {
	if t.thresholds != o.thresholds || t.domain != o.domain || t.gamma != o.gamma || t.alphaMode != o.alphaMode {
		return false
	}
	return slices.EqualFunc(t.keys, o.keys, (*MappingKey).Equal)
}
