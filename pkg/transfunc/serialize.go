package transfunc

import (
	"fmt"

	"github.com/soma-tiles/tfserver/pkg/serial"
)

// Serialize implements serial.Serializable.
func (k *MappingKey) Serialize(s *serial.Serializer) {
	s.Float("intensity", float64(k.intensity))
	s.Bool("split", k.split)
	s.Color("colorL", k.colorL)
	if k.split {
		s.Color("colorR", k.colorR)
	}
}

// Deserialize implements serial.Serializable.
func (k *MappingKey) Deserialize(d *serial.Deserializer) error {
	i, err := d.Float("intensity")
	if err != nil {
		return err
	}
	split := false
	if d.Has("split") {
		if split, err = d.Bool("split"); err != nil {
			return err
		}
	}
	left, err := d.Color("colorL")
	if err != nil {
		return err
	}
	right := left
	if split {
		if right, err = d.Color("colorR"); err != nil {
			return err
		}
	}
	*k = MappingKey{intensity: float32(i), colorL: left, colorR: right, split: split}
	return nil
}

// Serialize implements serial.Serializable.
func (t *KeyTable) Serialize(s *serial.Serializer) {
	s.Int("alphaMode", int(t.alphaMode))
	s.Int("width", t.Width())
	s.Float("gammaValue", float64(t.gamma))
	s.Vec2("domain", float64(t.domain[0]), float64(t.domain[1]))
	s.Vec2("threshold", float64(t.thresholds[0]), float64(t.thresholds[1]))
	s.List("Keys", "key", len(t.keys), func(i int) serial.Serializable { return t.keys[i] })
}

// Deserialize implements serial.Serializable. The table is only modified
// if the whole document decodes. Missing settings take their defaults,
// except a missing width which keeps the current one.
func (t *KeyTable) Deserialize(d *serial.Deserializer) error {
	mode, gamma := UseAlpha, float32(1)
	if d.Has("alphaMode") {
		m, err := d.Int("alphaMode")
		if err != nil {
			return err
		}
		if m < int(UseAlpha) || m > int(OneAlpha) {
			return fmt.Errorf("%w: alphaMode=%d", serial.ErrInvalidValue, m)
		}
		mode = AlphaMode(m)
	}
	width := t.width
	if d.Has("width") {
		w, err := d.Int("width")
		if err != nil {
			return err
		}
		if w <= 0 {
			return fmt.Errorf("%w: width=%d", serial.ErrInvalidValue, w)
		}
		width = w
	}
	if d.Has("gammaValue") {
		g, err := d.Float("gammaValue")
		if err != nil {
			return err
		}
		gamma = float32(g)
	}
	d0, d1, err := d.OptionalVec2("domain", 0, 1)
	if err != nil {
		return err
	}
	t0, t1, err := d.OptionalVec2("threshold", 0, 1)
	if err != nil {
		return err
	}
	var keys []*MappingKey
	err = d.List("Keys", func(d *serial.Deserializer) error {
		k := &MappingKey{}
		if err := k.Deserialize(d); err != nil {
			return err
		}
		keys = append(keys, k)
		return nil
	})
	if err != nil {
		return err
	}

	t.alphaMode = mode
	t.gamma = gamma
	t.domain = [2]float32{float32(d0), float32(d1)}
	t.thresholds = [2]float32{float32(t0), float32(t1)}
	t.SetKeys(keys)
	t.SetWidth(width)
	return nil
}
