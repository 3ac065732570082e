package serial

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
)

var (
	// ErrMissing is returned when a required field is absent.
	ErrMissing = errors.New("serial: missing field")
	// ErrInvalidValue is returned when a field cannot be parsed.
	ErrInvalidValue = errors.New("serial: invalid value")
	// ErrUnknownType is returned when a polymorphic type tag has no
	// registered constructor. Callers treat it as recoverable.
	ErrUnknownType = errors.New("serial: unknown type")
)

// Serializable is implemented by values that can be written to and read
// from a node tree.
type Serializable interface {
	Serialize(s *Serializer)
	Deserialize(d *Deserializer) error
}

// Factory resolves polymorphic type tags.
type Factory interface {
	// TypeString returns the type tag for v, or "" if v is not known.
	TypeString(v any) string
	// Create returns a fresh instance for the type tag.
	Create(typeName string) (Serializable, bool)
}

// Serializer writes named fields into a node.
type Serializer struct {
	node *Node
}

// NewSerializer returns a Serializer writing into a new root node.
func NewSerializer(root string) *Serializer {
	return &Serializer{node: NewNode(root)}
}

// Node returns the node written by s.
func (s *Serializer) Node() *Node {
	return s.node
}

func (s *Serializer) scalar(name, value string) {
	s.node.AddChild(name).SetAttr("value", value)
}

// Float writes a floating point field.
func (s *Serializer) Float(name string, v float64) {
	s.scalar(name, strconv.FormatFloat(v, 'g', -1, 64))
}

// Int writes an integer field.
func (s *Serializer) Int(name string, v int) {
	s.scalar(name, strconv.Itoa(v))
}

// String writes a string field.
func (s *Serializer) String(name string, v string) {
	s.scalar(name, v)
}

// Bool writes a boolean field.
func (s *Serializer) Bool(name string, v bool) {
	s.scalar(name, strconv.FormatBool(v))
}

// Vec2 writes a two component vector as attributes x and y.
func (s *Serializer) Vec2(name string, x, y float64) {
	c := s.node.AddChild(name)
	c.SetAttr("x", strconv.FormatFloat(x, 'g', -1, 64))
	c.SetAttr("y", strconv.FormatFloat(y, 'g', -1, 64))
}

// Color writes an 8 bit RGBA color as attributes r, g, b and a.
func (s *Serializer) Color(name string, c color.RGBA) {
	n := s.node.AddChild(name)
	n.SetAttr("r", strconv.Itoa(int(c.R)))
	n.SetAttr("g", strconv.Itoa(int(c.G)))
	n.SetAttr("b", strconv.Itoa(int(c.B)))
	n.SetAttr("a", strconv.Itoa(int(c.A)))
}

// Object writes v as a nested child.
func (s *Serializer) Object(name string, v Serializable) {
	v.Serialize(&Serializer{node: s.node.AddChild(name)})
}

// List writes n items as children named itemName of a container named name.
func (s *Serializer) List(name, itemName string, n int, item func(i int) Serializable) {
	list := s.node.AddChild(name)
	for i := 0; i < n; i++ {
		item(i).Serialize(&Serializer{node: list.AddChild(itemName)})
	}
}

// Polymorphic writes v with its type tag so that it can be recreated
// through f. A nil v writes nothing.
func (s *Serializer) Polymorphic(name string, f Factory, v Serializable) {
	if v == nil {
		return
	}
	c := s.node.AddChild(name)
	c.SetAttr("type", f.TypeString(v))
	v.Serialize(&Serializer{node: c})
}

// Deserializer reads named fields from a node.
type Deserializer struct {
	node *Node
}

// NewDeserializer returns a Deserializer reading from n.
func NewDeserializer(n *Node) *Deserializer {
	return &Deserializer{node: n}
}

// Node returns the node read by d.
func (d *Deserializer) Node() *Node {
	return d.node
}

// Has reports whether the named field is present.
func (d *Deserializer) Has(name string) bool {
	if d.node.Child(name) != nil {
		return true
	}
	_, ok := d.node.Attr(name)
	return ok
}

// scalar looks the field up as a child carrying a value attribute, falling
// back to an attribute of the current node. The fallback is what compact
// YAML documents decode into.
func (d *Deserializer) scalar(name string) (string, error) {
	if c := d.node.Child(name); c != nil {
		if v, ok := c.Attr("value"); ok {
			return v, nil
		}
		return c.Text, nil
	}
	if v, ok := d.node.Attr(name); ok {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s/%s", ErrMissing, d.node.Name, name)
}

func invalid(name, value string, err error) error {
	return fmt.Errorf("%w: %s=%q: %v", ErrInvalidValue, name, value, err)
}

// Float reads a floating point field.
func (d *Deserializer) Float(name string) (float64, error) {
	raw, err := d.scalar(name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, invalid(name, raw, err)
	}
	return v, nil
}

// Int reads an integer field.
func (d *Deserializer) Int(name string) (int, error) {
	raw, err := d.scalar(name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalid(name, raw, err)
	}
	return v, nil
}

// String reads a string field.
func (d *Deserializer) String(name string) (string, error) {
	return d.scalar(name)
}

// Bool reads a boolean field. Integer encodings ("0", "1") are accepted.
func (d *Deserializer) Bool(name string) (bool, error) {
	raw, err := d.scalar(name)
	if err != nil {
		return false, err
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, invalid(name, raw, err)
	}
	return v, nil
}

// Vec2 reads a two component vector.
func (d *Deserializer) Vec2(name string) (x, y float64, err error) {
	c := d.node.Child(name)
	if c == nil {
		return 0, 0, fmt.Errorf("%w: %s/%s", ErrMissing, d.node.Name, name)
	}
	sub := &Deserializer{node: c}
	if x, err = sub.attrFloat("x"); err != nil {
		return 0, 0, err
	}
	if y, err = sub.attrFloat("y"); err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

// OptionalVec2 reads a vector, returning the defaults when it is absent.
func (d *Deserializer) OptionalVec2(name string, defX, defY float64) (float64, float64, error) {
	if d.node.Child(name) == nil {
		return defX, defY, nil
	}
	return d.Vec2(name)
}

// Color reads an 8 bit RGBA color.
func (d *Deserializer) Color(name string) (color.RGBA, error) {
	c := d.node.Child(name)
	if c == nil {
		return color.RGBA{}, fmt.Errorf("%w: %s/%s", ErrMissing, d.node.Name, name)
	}
	sub := &Deserializer{node: c}
	var ch [4]uint8
	for i, attr := range []string{"r", "g", "b", "a"} {
		v, err := sub.attrFloat(attr)
		if err != nil {
			return color.RGBA{}, err
		}
		if v < 0 || v > 255 {
			return color.RGBA{}, invalid(attr, strconv.FormatFloat(v, 'g', -1, 64), errors.New("out of range"))
		}
		ch[i] = uint8(v)
	}
	return color.RGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, nil
}

func (d *Deserializer) attrFloat(name string) (float64, error) {
	raw, ok := d.node.Attr(name)
	if !ok {
		if c := d.node.Child(name); c != nil {
			raw, ok = c.Attr("value")
		}
	}
	if !ok {
		return 0, fmt.Errorf("%w: %s@%s", ErrMissing, d.node.Name, name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, invalid(name, raw, err)
	}
	return v, nil
}

// Object reads a nested child into v.
func (d *Deserializer) Object(name string, v Serializable) error {
	c := d.node.Child(name)
	if c == nil {
		return fmt.Errorf("%w: %s/%s", ErrMissing, d.node.Name, name)
	}
	return v.Deserialize(&Deserializer{node: c})
}

// List calls item once per child of the named container, in order.
// A missing container is reported as ErrMissing.
func (d *Deserializer) List(name string, item func(d *Deserializer) error) error {
	list := d.node.Child(name)
	if list == nil {
		return fmt.Errorf("%w: %s/%s", ErrMissing, d.node.Name, name)
	}
	for _, c := range list.Children {
		if err := item(&Deserializer{node: c}); err != nil {
			return err
		}
	}
	return nil
}

// Polymorphic recreates the named object through f. It returns (nil, nil)
// when the field is absent and an error wrapping ErrUnknownType when the
// type tag cannot be resolved.
func (d *Deserializer) Polymorphic(name string, f Factory) (Serializable, error) {
	c := d.node.Child(name)
	if c == nil {
		return nil, nil
	}
	typeName, _ := c.Attr("type")
	v, ok := f.Create(typeName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typeName)
	}
	if err := v.Deserialize(&Deserializer{node: c}); err != nil {
		return nil, err
	}
	return v, nil
}
