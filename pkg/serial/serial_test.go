package serial

import (
	"bytes"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name   string
	Weight float64
	Count  int
	On     bool
	Tint   color.RGBA
	Items  []*sample
}

func (s *sample) Serialize(w *Serializer) {
	w.String("name", s.Name)
	w.Float("weight", s.Weight)
	w.Int("count", s.Count)
	w.Bool("on", s.On)
	w.Color("tint", s.Tint)
	w.Vec2("range", 0, s.Weight)
	w.List("items", "item", len(s.Items), func(i int) Serializable { return s.Items[i] })
}

func (s *sample) Deserialize(r *Deserializer) error {
	var err error
	if s.Name, err = r.String("name"); err != nil {
		return err
	}
	if s.Weight, err = r.Float("weight"); err != nil {
		return err
	}
	if s.Count, err = r.Int("count"); err != nil {
		return err
	}
	if s.On, err = r.Bool("on"); err != nil {
		return err
	}
	if s.Tint, err = r.Color("tint"); err != nil {
		return err
	}
	return r.List("items", func(d *Deserializer) error {
		item := &sample{}
		if err := item.Deserialize(d); err != nil {
			return err
		}
		s.Items = append(s.Items, item)
		return nil
	})
}

type sampleFactory struct{}

func (sampleFactory) TypeString(v any) string {
	if _, ok := v.(*sample); ok {
		return "Sample"
	}
	return ""
}

func (sampleFactory) Create(name string) (Serializable, bool) {
	if name == "Sample" {
		return &sample{}, true
	}
	return nil, false
}

func testSample() *sample {
	return &sample{
		Name:   "outer",
		Weight: 0.25,
		Count:  3,
		On:     true,
		Tint:   color.RGBA{R: 1, G: 2, B: 3, A: 4},
		Items: []*sample{
			{Name: "a", Weight: 1, Tint: color.RGBA{A: 255}},
			{Name: "b", Weight: 2.5},
		},
	}
}

func TestXMLRoundTrip(t *testing.T) {
	s := NewSerializer("Doc")
	s.Object("sample", testSample())

	var buf bytes.Buffer
	require.NoError(t, EncodeXML(&buf, s.Node()))
	assert.Contains(t, buf.String(), `<weight value="0.25"></weight>`)

	root, err := DecodeXML(&buf)
	require.NoError(t, err)

	got := &sample{}
	require.NoError(t, NewDeserializer(root).Object("sample", got))
	assert.Equal(t, testSample(), got)
}

func TestYAMLRoundTrip(t *testing.T) {
	s := NewSerializer("Doc")
	s.Object("sample", testSample())

	var buf bytes.Buffer
	require.NoError(t, EncodeYAML(&buf, s.Node()))
	assert.Contains(t, buf.String(), "weight: \"0.25\"")

	root, err := DecodeYAML(&buf)
	require.NoError(t, err)
	assert.Equal(t, "Doc", root.Name)

	got := &sample{}
	require.NoError(t, NewDeserializer(root).Object("sample", got))
	assert.Equal(t, testSample(), got)
}

func TestPolymorphic(t *testing.T) {
	s := NewSerializer("Doc")
	s.Polymorphic("known", sampleFactory{}, &sample{Name: "x"})
	s.Polymorphic("absent", sampleFactory{}, nil)
	s.Node().AddChild("unknown").SetAttr("type", "Mystery")

	d := NewDeserializer(s.Node())

	v, err := d.Polymorphic("known", sampleFactory{})
	require.NoError(t, err)
	assert.Equal(t, "x", v.(*sample).Name)

	v, err = d.Polymorphic("absent", sampleFactory{})
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = d.Polymorphic("unknown", sampleFactory{})
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestDeserializerErrors(t *testing.T) {
	root, err := DecodeXML(strings.NewReader(`<Doc><n value="abc"/><c r="1" g="2" b="3" a="300"/></Doc>`))
	require.NoError(t, err)
	d := NewDeserializer(root)

	_, err = d.Float("n")
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = d.Float("missing")
	assert.ErrorIs(t, err, ErrMissing)

	_, err = d.Color("c")
	assert.ErrorIs(t, err, ErrInvalidValue)

	x, y, err := d.OptionalVec2("domain", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, [2]float64{0, 1}, [2]float64{x, y})
}
