package types

import (
	"gopkg.in/yaml.v3"
)

// ToYAML builds an ordered YAML node for a canonical tree.
// Scalars render as their signature, objects as mappings in declaration
// order and arrays as a single-item sequence holding the element.
func ToYAML(t Type) *yaml.Node {
	return toYAML(t, -1)
}

// ToYAMLDepth is ToYAML for trees that may be cyclic, such as schema types.
// Objects nested deeper than depth render as "{...}".
func ToYAMLDepth(t Type, depth int) *yaml.Node {
	return toYAML(t, depth)
}

func toYAML(t Type, depth int) *yaml.Node {
	switch v := t.(type) {
	case *ObjectType:
		if depth == 0 {
			return &yaml.Node{Kind: yaml.ScalarNode, Value: "{...}", Style: yaml.DoubleQuotedStyle}
		}
		node := &yaml.Node{Kind: yaml.MappingNode}
		if v.Nullable {
			node.LineComment = "nullable"
		}
		for _, f := range v.Fields {
			key := &yaml.Node{Kind: yaml.ScalarNode, Value: f.Name}
			if wire := f.Type.FieldName(); wire != "" {
				key.LineComment = "as " + wire
			}
			node.Content = append(node.Content, key, toYAML(f.Type, depth-1))
		}
		return node
	case *ArrayType:
		node := &yaml.Node{Kind: yaml.SequenceNode, Content: []*yaml.Node{toYAML(v.Elem, depth)}}
		if v.Nullable {
			node.LineComment = "nullable"
		}
		return node
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Value: t.Signature()}
	}
}

// MarshalYAML renders the tree, so a Type can be passed to yaml.Marshal directly.
func (o *ObjectType) MarshalYAML() (interface{}, error) {
	return ToYAML(o), nil
}

// MarshalYAML renders the list and its element.
func (a *ArrayType) MarshalYAML() (interface{}, error) {
	return ToYAML(a), nil
}

// MarshalYAML renders the scalar signature.
func (s *ScalarType) MarshalYAML() (interface{}, error) {
	return s.Signature(), nil
}
