// Package serial implements the key/value tree contract used to persist
// transfer functions and predicate selections.
//
// A document is a tree of named nodes. Scalar fields are stored as a child
// node carrying a single "value" attribute, compound values (vectors, colors)
// as attributes of a child node, and polymorphic objects carry a "type"
// attribute resolved through a Factory. The tree maps one to one onto XML and
// onto YAML, see EncodeXML and EncodeYAML.
package serial

// Attr is a single named attribute of a Node.
type Attr struct {
	Name  string
	Value string
}

// Node is one element of a serialized document.
type Node struct {
	Name     string
	Attrs    []Attr
	Text     string
	Children []*Node
}

// NewNode returns an empty node with the given name.
func NewNode(name string) *Node {
	return &Node{Name: name}
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets or replaces the named attribute, keeping insertion order.
func (n *Node) SetAttr(name, value string) {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

// Child returns the first child with the given name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// AddChild appends a new child node and returns it.
func (n *Node) AddChild(name string) *Node {
	c := NewNode(name)
	n.Children = append(n.Children, c)
	return c
}

// isScalar reports whether the node only carries a "value" attribute.
func (n *Node) isScalar() bool {
	return len(n.Children) == 0 && n.Text == "" && len(n.Attrs) == 1 && n.Attrs[0].Name == "value"
}
