package serial

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const textKey = "_text"

// EncodeYAML writes the tree rooted at n as a YAML document of the form
// {n.Name: body}. Attributes become scalar entries, children become nested
// mappings, repeated children become sequences, and children that only
// carry a value attribute are compacted into plain scalars.
func EncodeYAML(w io.Writer, n *Node) error {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	doc.Content = append(doc.Content, scalarNode(n.Name), yamlBody(n))
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

func scalarNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func yamlBody(n *Node) *yaml.Node {
	if n.isScalar() {
		return scalarNode(n.Attrs[0].Value)
	}
	m := &yaml.Node{Kind: yaml.MappingNode}
	for _, a := range n.Attrs {
		m.Content = append(m.Content, scalarNode(a.Name), scalarNode(a.Value))
	}
	if n.Text != "" {
		m.Content = append(m.Content, scalarNode(textKey), scalarNode(n.Text))
	}

	var order []string
	groups := make(map[string][]*Node)
	for _, c := range n.Children {
		if _, seen := groups[c.Name]; !seen {
			order = append(order, c.Name)
		}
		groups[c.Name] = append(groups[c.Name], c)
	}
	for _, name := range order {
		g := groups[name]
		if len(g) == 1 {
			m.Content = append(m.Content, scalarNode(name), yamlBody(g[0]))
			continue
		}
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, c := range g {
			seq.Content = append(seq.Content, yamlBody(c))
		}
		m.Content = append(m.Content, scalarNode(name), seq)
	}
	return m
}

// DecodeYAML parses a document written by EncodeYAML.
func DecodeYAML(r io.Reader) (*Node, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	top := &doc
	if top.Kind == yaml.DocumentNode {
		if len(top.Content) == 0 {
			return nil, errors.New("decode yaml: empty document")
		}
		top = top.Content[0]
	}
	if top.Kind != yaml.MappingNode || len(top.Content) != 2 {
		return nil, errors.New("decode yaml: expected a single root key")
	}
	root := NewNode(top.Content[0].Value)
	if err := decodeYAMLBody(root, top.Content[1]); err != nil {
		return nil, err
	}
	return root, nil
}

func decodeYAMLBody(n *Node, y *yaml.Node) error {
	switch y.Kind {
	case yaml.ScalarNode:
		n.SetAttr("value", y.Value)
		return nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(y.Content); i += 2 {
			key, val := y.Content[i].Value, y.Content[i+1]
			switch val.Kind {
			case yaml.ScalarNode:
				if key == textKey {
					n.Text = val.Value
				} else {
					n.SetAttr(key, val.Value)
				}
			case yaml.MappingNode:
				if err := decodeYAMLBody(n.AddChild(key), val); err != nil {
					return err
				}
			case yaml.SequenceNode:
				for _, item := range val.Content {
					if err := decodeYAMLBody(n.AddChild(key), item); err != nil {
						return err
					}
				}
			default:
				return fmt.Errorf("decode yaml: unsupported node for %q at line %d", key, val.Line)
			}
		}
		return nil
	default:
		return fmt.Errorf("decode yaml: unsupported node at line %d", y.Line)
	}
}
