package transfunc

import (
	"image/color"
	"sort"
)

// GenerateKeys reconstructs a small key set from width RGBA samples, the
// lossy inverse of UpdateTexture. Keys are placed at both ends and wherever
// the slope of a channel changes:
//
//   - a slope change to a non-zero slope is a discontinuity and becomes a
//     split key holding the colors on both sides,
//   - a slope that flips sign in every channel is a peak and gets a key on
//     the previous sample,
//   - any other slope change gets a plain key.
//
// It returns nil if width is below two or data holds fewer than width
// samples.
func GenerateKeys(data []byte, width int) []*MappingKey {
	if width < 2 || len(data) < 4*width {
		return nil
	}
	at := func(i int) color.RGBA {
		return color.RGBA{R: data[4*i], G: data[4*i+1], B: data[4*i+2], A: data[4*i+3]}
	}
	delta := func(i int) [4]int {
		var d [4]int
		for c := range d {
			d[c] = int(data[4*i+c]) - int(data[4*(i-1)+c])
		}
		return d
	}
	pos := func(i int) float32 { return float32(i) / float32(width-1) }

	var keys []*MappingKey
	add := func(k *MappingKey) {
		i := sort.Search(len(keys), func(i int) bool { return keys[i].intensity >= k.intensity })
		keys = append(keys, nil)
		copy(keys[i+1:], keys[i:])
		keys[i] = k
	}

	add(NewKey(0, at(0)))
	add(NewKey(1, at(width-1)))

	next := delta(1)
	for i := 2; i < width; i++ {
		prev := next
		next = delta(i)

		changed, nonZero, tilted := false, false, true
		for c := range next {
			changed = changed || prev[c] != next[c]
			nonZero = nonZero || next[c] != 0
			tilted = tilted && prev[c] == -next[c]
		}
		if !changed {
			continue
		}
		switch {
		case nonZero:
			add(NewSplitKey(pos(i), at(i-1), at(i)))
		case tilted:
			add(NewKey(pos(i-1), at(i-1)))
		default:
			add(NewKey(pos(i), at(i)))
		}
	}
	return keys
}

// LoadSamples replaces the keys with those reconstructed from width RGBA
// samples and adopts width as the table resolution. It reports false and
// leaves the table unchanged if no keys could be generated.
func (t *KeyTable) LoadSamples(data []byte, width int) bool {
	keys := GenerateKeys(data, width)
	if keys == nil {
		return false
	}
	t.SetKeys(keys)
	t.SetWidth(width)
	return true
}
