package ciconfig

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const mergeTag = "!!merge"

// maxNodes bounds the size of a document once its aliases are expanded.
const maxNodes = 100000

// ReadFile parses the configuration document at path.
func ReadFile(path string) (Value, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Value{}, errors.Wrap(err, "reading build configuration")
	}
	v, err := Parse(b)
	if err != nil {
		return Value{}, errors.Wrapf(err, "%s", path)
	}
	return v, nil
}

// Parse a YAML configuration document.
//
// An empty document is an empty mapping. Streams with more than one
// document are rejected.
func Parse(b []byte) (Value, error) {
	dec := yaml.NewDecoder(bytes.NewReader(b))

	var doc yaml.Node
	err := dec.Decode(&doc)
	if err == io.EOF {
		return Value{kind: KindMapping, fields: map[string]Value{}}, nil
	}
	if err != nil {
		return Value{}, errors.Wrap(err, "parsing build configuration")
	}

	var extra yaml.Node
	err = dec.Decode(&extra)
	if err == nil {
		return Value{}, errors.Errorf("parsing build configuration: expected a single document, found another at line %d", extra.Line)
	}
	if err != io.EOF {
		return Value{}, errors.Wrap(err, "parsing build configuration")
	}

	p := &parser{expanding: map[*yaml.Node]bool{}}
	return p.fromNode(&doc, "")
}

type parser struct {
	// Anchors whose alias is being expanded, to catch an anchor containing
	// an alias to itself.
	expanding map[*yaml.Node]bool
	nodes     int
}

func (p *parser) fromNode(n *yaml.Node, path string) (Value, error) {
	p.nodes++
	if p.nodes > maxNodes {
		return Value{}, &AliasError{Path: path, Line: n.Line, Reason: fmt.Sprintf("document expands to more than %d nodes", maxNodes)}
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Value{kind: KindNull, path: path, line: n.Line}, nil
		}
		return p.fromNode(n.Content[0], path)

	case yaml.AliasNode:
		return p.expand(n, path, func(target *yaml.Node) (Value, error) {
			return p.fromNode(target, path)
		})

	case yaml.ScalarNode:
		if n.ShortTag() == "!!null" {
			return Value{kind: KindNull, path: path, line: n.Line}, nil
		}
		var raw interface{}
		if err := n.Decode(&raw); err != nil {
			return Value{}, errors.Wrapf(err, "%s", displayPath(path))
		}
		return Value{kind: KindScalar, path: path, line: n.Line, text: n.Value, raw: raw}, nil

	case yaml.SequenceNode:
		v := Value{kind: KindSequence, path: path, line: n.Line, items: make([]Value, len(n.Content))}
		for i, c := range n.Content {
			item, err := p.fromNode(c, indexPath(path, i))
			if err != nil {
				return Value{}, err
			}
			v.items[i] = item
		}
		return v, nil

	case yaml.MappingNode:
		v := Value{kind: KindMapping, path: path, line: n.Line, fields: map[string]Value{}}
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, val := n.Content[i], n.Content[i+1]
			if k.Kind == yaml.ScalarNode && k.ShortTag() == mergeTag {
				if err := p.mergeInto(&v, val, path); err != nil {
					return Value{}, err
				}
				continue
			}
			if k.Kind != yaml.ScalarNode {
				return Value{}, &ShapeError{Path: path, Line: k.Line, Want: "string key", Got: nodeKind(k)}
			}
			if _, dup := v.fields[k.Value]; dup && !v.merged(k.Value) {
				return Value{}, errors.Errorf("%s: duplicate key %q (line %d)", displayPath(path), k.Value, k.Line)
			}
			child, err := p.fromNode(val, childPath(path, k.Value))
			if err != nil {
				return Value{}, err
			}
			v.set(k.Value, child)
		}
		return v, nil
	}
	return Value{}, errors.Errorf("%s: unsupported YAML node (line %d)", displayPath(path), n.Line)
}

// mergeInto applies a YAML merge key (`<<: *anchor`). Keys set explicitly in
// the mapping win over merged ones, whichever comes first in the source.
func (p *parser) mergeInto(v *Value, n *yaml.Node, path string) error {
	if n.Kind == yaml.AliasNode {
		_, err := p.expand(n, path, func(target *yaml.Node) (Value, error) {
			return Value{}, p.mergeInto(v, target, path)
		})
		return err
	}
	var sources []*yaml.Node
	switch n.Kind {
	case yaml.MappingNode:
		sources = []*yaml.Node{n}
	case yaml.SequenceNode:
		sources = n.Content
	default:
		return &ShapeError{Path: path, Line: n.Line, Want: "mapping to merge", Got: nodeKind(n)}
	}

	for _, src := range sources {
		m, err := p.fromNode(src, path)
		if err != nil {
			return err
		}
		if m.kind != KindMapping {
			return &ShapeError{Path: path, Line: src.Line, Want: "mapping to merge", Got: m.kind}
		}
		for _, k := range m.keys {
			if _, exists := v.fields[k]; exists {
				continue
			}
			v.set(k, m.fields[k])
			if v.mergedKeys == nil {
				v.mergedKeys = map[string]bool{}
			}
			v.mergedKeys[k] = true
		}
	}
	return nil
}

// expand calls f on the anchor an alias points to, failing if that anchor is
// already being expanded.
func (p *parser) expand(alias *yaml.Node, path string, f func(target *yaml.Node) (Value, error)) (Value, error) {
	target := alias.Alias
	if target == nil {
		return Value{}, &AliasError{Path: path, Line: alias.Line, Reason: fmt.Sprintf("unknown anchor %q", alias.Value)}
	}
	if p.expanding[target] {
		return Value{}, &AliasError{Path: path, Line: alias.Line, Reason: fmt.Sprintf("anchor %q refers to itself", alias.Value)}
	}
	p.expanding[target] = true
	defer delete(p.expanding, target)
	return f(target)
}

func (v *Value) set(key string, child Value) {
	if _, exists := v.fields[key]; !exists {
		v.keys = append(v.keys, key)
	}
	if v.mergedKeys != nil {
		delete(v.mergedKeys, key)
	}
	v.fields[key] = child
}

func (v *Value) merged(key string) bool {
	return v.mergedKeys[key]
}

func nodeKind(n *yaml.Node) Kind {
	switch n.Kind {
	case yaml.ScalarNode:
		return KindScalar
	case yaml.SequenceNode:
		return KindSequence
	case yaml.MappingNode:
		return KindMapping
	}
	return KindNull
}
