package blueprint

import (
	"errors"
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	ErrDefinitionNotFound  = errors.New("blueprint not found")
	ErrMalformedDefinition = errors.New("malformed blueprint")
)

type pair struct {
	key   string
	value *yaml.Node
}

// Parse decodes a YAML blueprint definition. The yaml.v3 node API is used
// so that mapping order survives into the returned tree.
func Parse(id string, data []byte) (*Blueprint, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDefinition, err)
	}
	if len(doc.Content) == 0 {
		return nil, malformed(&doc, "document", "document is empty")
	}

	top := resolve(doc.Content[0])
	fields, err := mappingPairs(top, "document")
	if err != nil {
		return nil, err
	}

	bp := &Blueprint{ID: id}

	if bp.Name, err = requiredString(top, fields, "name"); err != nil {
		return nil, err
	}
	if bp.Name == "" {
		return nil, malformed(top, "name", "must not be empty")
	}
	if bp.Description, err = requiredString(top, fields, "description"); err != nil {
		return nil, err
	}

	def, ok := lookup(fields, "default")
	if !ok {
		return nil, malformed(top, "default", "field is required")
	}
	if bp.Default, err = parseSections(def, "default"); err != nil {
		return nil, err
	}

	if opt, ok := lookup(fields, "optional"); ok && !isNull(opt) {
		options, err := mappingPairs(opt, "optional")
		if err != nil {
			return nil, err
		}
		for _, p := range options {
			tree, err := parseSections(p.value, "optional."+p.key)
			if err != nil {
				return nil, err
			}
			bp.Optional = append(bp.Optional, Option{Name: p.key, Tree: tree})
		}
	}

	return bp, nil
}

func parseSections(n *yaml.Node, path string) (Directory, error) {
	n = resolve(n)
	if isNull(n) {
		return Directory{}, nil
	}
	sections, err := parseDirectory(n, path)
	if err != nil {
		return nil, err
	}
	if root, ok := sections.Lookup(RootSection); ok {
		if _, isDir := root.(Directory); !isDir {
			return nil, malformed(n, path+"."+RootSection, "root section must be a mapping")
		}
	}
	return sections, nil
}

func parseDirectory(n *yaml.Node, path string) (Directory, error) {
	pairs, err := mappingPairs(n, path)
	if err != nil {
		return nil, err
	}

	dir := make(Directory, 0, len(pairs))
	for _, p := range pairs {
		childPath := path + "." + p.key
		if !filepath.IsLocal(filepath.FromSlash(p.key)) {
			return nil, malformed(p.value, childPath, "entry name must be a relative path inside its directory")
		}
		child, err := parseNode(p.value, childPath)
		if err != nil {
			return nil, err
		}
		dir = append(dir, Entry{Name: p.key, Node: child})
	}
	return dir, nil
}

func parseNode(n *yaml.Node, path string) (Node, error) {
	n = resolve(n)
	switch {
	case isNull(n):
		return Directory{}, nil
	case n.Kind == yaml.MappingNode:
		return parseDirectory(n, path)
	case n.Kind == yaml.ScalarNode:
		if n.Value == "" {
			return nil, malformed(n, path, "piece reference is empty")
		}
		if !filepath.IsLocal(filepath.FromSlash(n.Value)) {
			return nil, malformed(n, path, fmt.Sprintf("piece %q must be a relative path inside the pieces directory", n.Value))
		}
		return Piece(n.Value), nil
	default:
		return nil, malformed(n, path, "expected a mapping or a piece path, got "+kindName(n))
	}
}

// mappingPairs returns the key/value pairs of a mapping node in declaration
// order. A repeated key keeps its first position and takes the last value.
func mappingPairs(n *yaml.Node, path string) ([]pair, error) {
	n = resolve(n)
	if n.Kind != yaml.MappingNode {
		return nil, malformed(n, path, "expected a mapping, got "+kindName(n))
	}

	pairs := make([]pair, 0, len(n.Content)/2)
	index := make(map[string]int, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := resolve(n.Content[i])
		if k.Kind != yaml.ScalarNode || k.Value == "" {
			return nil, malformed(k, path, "mapping keys must be non-empty strings")
		}
		v := n.Content[i+1]
		if at, seen := index[k.Value]; seen {
			pairs[at].value = v
			continue
		}
		index[k.Value] = len(pairs)
		pairs = append(pairs, pair{key: k.Value, value: v})
	}
	return pairs, nil
}

func requiredString(parent *yaml.Node, fields []pair, key string) (string, error) {
	v, ok := lookup(fields, key)
	if !ok {
		return "", malformed(parent, key, "field is required")
	}
	v = resolve(v)
	if v.Kind != yaml.ScalarNode || isNull(v) {
		return "", malformed(v, key, "expected a string, got "+kindName(v))
	}
	return v.Value, nil
}

func lookup(pairs []pair, key string) (*yaml.Node, bool) {
	for _, p := range pairs {
		if p.key == key {
			return p.value, true
		}
	}
	return nil, false
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

func kindName(n *yaml.Node) string {
	if isNull(n) {
		return "null"
	}
	switch n.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	default:
		return "unknown node"
	}
}

func malformed(n *yaml.Node, path, msg string) error {
	if n != nil && n.Line > 0 {
		return fmt.Errorf("%w: %s (line %d): %s", ErrMalformedDefinition, path, n.Line, msg)
	}
	return fmt.Errorf("%w: %s: %s", ErrMalformedDefinition, path, msg)
}
