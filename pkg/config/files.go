package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/astral/pkg/contextstore"
	"github.com/arthur-debert/astral/pkg/errors"
	"github.com/arthur-debert/astral/pkg/logging"
)

// ReadFile parses a YAML or TOML file into a Store. YAML mappings keep their
// declaration order; TOML tables are ordered by key. In both formats keys
// written as decimal integers become int keys.
func ReadFile(path string) (*contextstore.Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.ErrFileNotFound, "config file %s does not exist", path)
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "could not read config file %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return ParseTOML(data)
	case ".yml", ".yaml", "":
		return ParseYAML(data)
	default:
		return nil, errors.Newf(errors.ErrConfigParse, "unsupported config file type %s", path)
	}
}

// ParseYAML parses a YAML document whose root is a mapping. An empty
// document yields an empty Store.
func ParseYAML(data []byte) (*contextstore.Store, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "invalid YAML")
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return contextstore.New(), nil
	}

	value, err := nodeValue(doc.Content[0])
	if err != nil {
		return nil, err
	}
	switch v := value.(type) {
	case *contextstore.Store:
		return v, nil
	case nil:
		return contextstore.New(), nil
	default:
		return nil, errors.Newf(errors.ErrConfigParse, "YAML root must be a mapping, got %T", value)
	}
}

func nodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return nodeValue(n.Content[0])
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.MappingNode:
		store := contextstore.New()
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valueNode := n.Content[i], n.Content[i+1]
			var key any
			if err := keyNode.Decode(&key); err != nil {
				return nil, errors.Wrapf(err, errors.ErrConfigParse, "invalid key at line %d", keyNode.Line)
			}
			value, err := nodeValue(valueNode)
			if err != nil {
				return nil, err
			}
			if keyNode.Tag == "!!merge" {
				if merged, ok := value.(*contextstore.Store); ok {
					store.Update(merged)
					continue
				}
			}
			store.Set(key, value)
		}
		return store, nil
	case yaml.SequenceNode:
		list := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			value, err := nodeValue(item)
			if err != nil {
				return nil, err
			}
			list = append(list, value)
		}
		return list, nil
	default:
		var value any
		if err := n.Decode(&value); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "invalid value at line %d", n.Line)
		}
		return value, nil
	}
}

// ParseTOML parses a TOML document.
func ParseTOML(data []byte) (*contextstore.Store, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "invalid TOML")
	}
	return tomlTable(raw), nil
}

func tomlTable(table map[string]any) *contextstore.Store {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	store := contextstore.New()
	for _, k := range keys {
		store.Set(tomlKey(k), tomlValue(table[k]))
	}
	return store
}

func tomlValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return tomlTable(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = tomlValue(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = tomlTable(item)
		}
		return out
	default:
		return v
	}
}

// tomlKey turns bare decimal keys into ints.
func tomlKey(k string) any {
	if i, err := strconv.Atoi(k); err == nil && strconv.Itoa(i) == k {
		return i
	}
	return k
}

// InsertInto merges context from fromFile into store. When both toSection
// and fromSection are given, store[toSection] is replaced by
// file[fromSection]; otherwise every top-level section of the file is
// merged into store.
func InsertInto(store *contextstore.Store, fromFile, toSection, fromSection string) error {
	log := logging.GetLogger("config")
	log.Info().
		Str("from", fromFile).
		Str("fromSection", fromSection).
		Str("toSection", toSection).
		Msg("Importing context")

	contexts, err := ReadFile(fromFile)
	if err != nil {
		return err
	}

	if toSection != "" && fromSection != "" {
		section, err := contexts.Index(fromSection)
		if err != nil {
			return errors.Wrapf(err, errors.ErrKeyNotFound,
				"section %q not found in %s", fromSection, fromFile)
		}
		store.Set(toSection, section)
		return nil
	}

	store.Update(contexts)
	return nil
}

// MarshalYAML renders store as YAML, keeping its key order.
func MarshalYAML(store *contextstore.Store) ([]byte, error) {
	node, err := yamlNode(store)
	if err != nil {
		return nil, err
	}
	out, err := yaml.Marshal(node)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "could not encode YAML")
	}
	return out, nil
}

func yamlNode(value any) (*yaml.Node, error) {
	switch v := value.(type) {
	case *contextstore.Store:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, item := range v.Items() {
			keyNode := &yaml.Node{}
			if err := keyNode.Encode(item.Key); err != nil {
				return nil, err
			}
			valueNode, err := yamlNode(item.Value)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, keyNode, valueNode)
		}
		return node, nil
	case []any:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v {
			child, err := yamlNode(item)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		return node, nil
	default:
		node := &yaml.Node{}
		if err := node.Encode(v); err != nil {
			return nil, fmt.Errorf("encode %T: %w", v, err)
		}
		return node, nil
	}
}
