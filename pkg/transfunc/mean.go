package transfunc

import (
	"image/color"
	"math"
	"slices"
)

// gammaSteps is the number of midpoint samples used to integrate a
// gamma-corrected function.
const gammaSteps = 512

// MeanValue returns the average color over [segStart, segEnd), channels in
// [0, 255]. Between keys the function is integrated exactly as a piecewise
// linear ramp; with a gamma other than one it is integrated numerically.
// An empty segment yields the color at segStart.
func (t *KeyTable) MeanValue(segStart, segEnd float32) [4]float64 {
	if len(t.keys) == 0 {
		return [4]float64{}
	}
	a, b := float64(segStart), float64(segEnd)
	if b <= a {
		return t.rampAt(a)
	}

	var sum [4]float64
	add := func(w float64, c [4]float64) {
		for i := range sum {
			sum[i] += w * c[i]
		}
	}

	if t.gamma != 1 {
		h := (b - a) / gammaSteps
		for i := 0; i < gammaSteps; i++ {
			add(h, t.rampAt(a+h*(float64(i)+0.5)))
		}
	} else {
		// The ramp is linear between breakpoints, where the midpoint rule
		// is exact.
		cuts := []float64{a, b}
		for _, x := range []float64{0, 1} {
			if x > a && x < b {
				cuts = append(cuts, x)
			}
		}
		for _, k := range t.keys {
			if x := float64(k.intensity); x > a && x < b {
				cuts = append(cuts, x)
			}
		}
		slices.Sort(cuts)
		for i := 1; i < len(cuts); i++ {
			if w := cuts[i] - cuts[i-1]; w > 0 {
				add(w, t.rampAt((cuts[i]+cuts[i-1])/2))
			}
		}
	}

	for i := range sum {
		sum[i] /= b - a
	}
	return sum
}

// rampAt evaluates the function at x without rounding the interpolated
// channels.
func (t *KeyTable) rampAt(x float64) [4]float64 {
	x = math.Min(math.Max(x, 0), 1)
	if t.gamma != 1 {
		x = math.Pow(x, float64(t.gamma))
	}
	i := 0
	for i < len(t.keys) && x > float64(t.keys[i].intensity) {
		i++
	}

	var c [4]float64
	switch i {
	case 0:
		c = channels(t.keys[0].colorL)
	case len(t.keys):
		c = channels(t.keys[i-1].colorR)
	default:
		l, r := t.keys[i-1], t.keys[i]
		frac := (x - float64(l.intensity)) / float64(r.intensity-l.intensity)
		cl, cr := channels(l.colorR), channels(r.colorL)
		for j := range c {
			c[j] = cl[j] + (cr[j]-cl[j])*frac
		}
	}
	switch t.alphaMode {
	case OneAlpha:
		c[3] = 255
	case ZeroAlpha:
		c[3] = 0
	}
	return c
}

func channels(c color.RGBA) [4]float64 {
	return [4]float64{float64(c.R), float64(c.G), float64(c.B), float64(c.A)}
}
