package transfunc

import (
	"image/color"
	"sync"
)

// Resource is an auxiliary handle owned by one side of a key, such as a
// texture or a cached file. Implementations must be comparable; pointer
// types are.
type Resource interface {
	Release()
}

type funcResource struct {
	once    sync.Once
	release func()
}

func (r *funcResource) Release() { r.once.Do(r.release) }

// NewResource returns a Resource calling release at most once.
func NewResource(release func()) Resource {
	return &funcResource{release: release}
}

// MappingKey is one breakpoint of a transfer function: an intensity in
// [0, 1] with the color on its left and, for split keys, a different color
// on its right.
type MappingKey struct {
	intensity float32
	colorL    color.RGBA
	colorR    color.RGBA
	split     bool

	resL, resR Resource
}

// NewKey returns an unsplit key.
func NewKey(intensity float32, c color.RGBA) *MappingKey {
	return &MappingKey{intensity: intensity, colorL: c, colorR: c}
}

// NewSplitKey returns a key with distinct left and right colors.
func NewSplitKey(intensity float32, left, right color.RGBA) *MappingKey {
	return &MappingKey{intensity: intensity, colorL: left, colorR: right, split: true}
}

func (k *MappingKey) Intensity() float32 { return k.intensity }

// SetIntensity moves the key. Tables must be told through KeyTable.UpdateKey.
func (k *MappingKey) SetIntensity(i float32) { k.intensity = i }

func (k *MappingKey) ColorL() color.RGBA { return k.colorL }

// ColorR returns the right color, which equals ColorL unless the key is split.
func (k *MappingKey) ColorR() color.RGBA { return k.colorR }

func (k *MappingKey) IsSplit() bool { return k.split }

// SetColorL sets the left color, and the right one too unless split.
func (k *MappingKey) SetColorL(c color.RGBA) {
	k.colorL = c
	if !k.split {
		k.colorR = c
	}
}

// SetColorR sets the right color, and the left one too unless split.
func (k *MappingKey) SetColorR(c color.RGBA) {
	k.colorR = c
	if !k.split {
		k.colorL = c
	}
}

// SetSplit turns the key into a split key or back. Joining keeps the left
// color and releases the right resource.
func (k *MappingKey) SetSplit(split bool) {
	if k.split == split {
		return
	}
	k.split = split
	if !split {
		k.colorR = k.colorL
		k.SetResourceR(nil)
	}
}

func (k *MappingKey) AlphaL() float32 { return float32(k.colorL.A) / 255 }
func (k *MappingKey) AlphaR() float32 { return float32(k.colorR.A) / 255 }

// SetAlphaL sets the left opacity from [0, 1].
func (k *MappingKey) SetAlphaL(a float32) {
	c := k.colorL
	c.A = alphaByte(a)
	k.SetColorL(c)
}

// SetAlphaR sets the right opacity from [0, 1].
func (k *MappingKey) SetAlphaR(a float32) {
	c := k.colorR
	c.A = alphaByte(a)
	k.SetColorR(c)
}

func alphaByte(a float32) uint8 {
	switch {
	case a <= 0:
		return 0
	case a >= 1:
		return 255
	}
	return uint8(a * 255)
}

func (k *MappingKey) ResourceL() Resource { return k.resL }
func (k *MappingKey) ResourceR() Resource { return k.resR }

// SetResourceL attaches r to the left side, releasing the previous handle.
func (k *MappingKey) SetResourceL(r Resource) { replace(&k.resL, r) }

// SetResourceR attaches r to the right side, releasing the previous handle.
func (k *MappingKey) SetResourceR(r Resource) { replace(&k.resR, r) }

// ReleaseResources releases both handles.
func (k *MappingKey) ReleaseResources() {
	replace(&k.resL, nil)
	replace(&k.resR, nil)
}

func replace(slot *Resource, r Resource) {
	old := *slot
	*slot = r
	if old != nil && old != r {
		old.Release()
	}
}

// swapSides exchanges the left and right colors and resources.
func (k *MappingKey) swapSides() {
	k.colorL, k.colorR = k.colorR, k.colorL
	k.resL, k.resR = k.resR, k.resL
}

// Clone returns a copy of k without its resources, which stay owned by k.
func (k *MappingKey) Clone() *MappingKey {
	return &MappingKey{intensity: k.intensity, colorL: k.colorL, colorR: k.colorR, split: k.split}
}

// Equal compares position, split state and colors.
func (k *MappingKey) Equal(o *MappingKey) bool {
	return k.intensity == o.intensity && k.split == o.split && k.colorL == o.colorL && k.colorR == o.colorR
}
