package contextstore

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/arthur-debert/astral/pkg/errors"
)

// Item is a key/value pair yielded by Items in insertion order.
type Item struct {
	Key   any
	Value any
}

// Store is an insertion-ordered mapping with integer-index fallback.
type Store struct {
	keys   []any
	values map[any]any

	// ints holds the integer keys in ascending order; maxInt is only
	// meaningful when len(ints) > 0, which stands in for -infinity.
	ints   []int
	maxInt int
}

// New returns an empty Store.
func New() *Store {
	return &Store{values: make(map[any]any)}
}

// FromMap builds a Store from a plain map. Go maps carry no order, so keys
// are inserted in sorted order to keep iteration deterministic.
func FromMap(m map[string]any) *Store {
	s := New()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s.Set(k, m[k])
	}
	return s
}

// Set inserts or overwrites key. Nested maps are promoted to Stores.
func (s *Store) Set(key, value any) {
	if s.values == nil {
		s.values = make(map[any]any)
	}
	k := normalizeKey(key)
	if _, exists := s.values[k]; !exists {
		s.keys = append(s.keys, k)
		if i, ok := k.(int); ok {
			s.insertInt(i)
		}
	}
	s.values[k] = promote(value)
}

func (s *Store) insertInt(i int) {
	if len(s.ints) == 0 || i > s.maxInt {
		s.maxInt = i
	}
	pos := sort.SearchInts(s.ints, i)
	s.ints = append(s.ints, 0)
	copy(s.ints[pos+1:], s.ints[pos:])
	s.ints[pos] = i
}

// Index returns the value stored under key. An absent integer key resolves to
// the greatest integer key strictly below it; ErrNoLowerIndex is returned when
// there is none. Absent string keys return ErrKeyNotFound.
func (s *Store) Index(key any) (any, error) {
	k := normalizeKey(key)
	if v, ok := s.values[k]; ok {
		return v, nil
	}

	i, isInt := k.(int)
	if !isInt {
		return nil, errors.Newf(errors.ErrKeyNotFound, "key %q not found", fmt.Sprint(k)).
			WithDetail("key", k)
	}

	lower, ok := s.lowerIndex(i)
	if !ok {
		return nil, errors.Newf(errors.ErrNoLowerIndex,
			"integer index %d is non-existent and had no lower index to be substituted for", i).
			WithDetail("key", i)
	}
	return s.values[lower], nil
}

// lowerIndex finds the greatest integer key below k. The common case of
// asking past the end is answered from maxInt without searching.
func (s *Store) lowerIndex(k int) (int, bool) {
	if len(s.ints) == 0 {
		return 0, false
	}
	if k > s.maxInt {
		return s.maxInt, true
	}
	pos := sort.SearchInts(s.ints, k)
	if pos == 0 {
		return 0, false
	}
	return s.ints[pos-1], true
}

// Get returns the value for key, or def when Index would fail.
func (s *Store) Get(key, def any) any {
	v, err := s.Index(key)
	if err != nil {
		return def
	}
	return v
}

// Has reports whether key is stored exactly, without fallback.
func (s *Store) Has(key any) bool {
	_, ok := s.values[normalizeKey(key)]
	return ok
}

// Lookup walks nested Stores and lists, applying Index at each level.
// Integer positions past the end of a list resolve to its last element.
func (s *Store) Lookup(path ...any) (any, error) {
	var current any = s
	for depth, key := range path {
		switch node := current.(type) {
		case *Store:
			v, err := node.Index(key)
			if err != nil {
				return nil, err
			}
			current = v
		case []any:
			i, ok := normalizeKey(key).(int)
			if !ok {
				return nil, errors.Newf(errors.ErrKeyNotFound, "cannot index list with %v", key)
			}
			if i < 0 || len(node) == 0 {
				return nil, errors.Newf(errors.ErrNoLowerIndex, "list index %d has no lower index", i)
			}
			if i >= len(node) {
				i = len(node) - 1
			}
			current = node[i]
		default:
			return nil, errors.Newf(errors.ErrKeyNotFound,
				"cannot look up %v in scalar at depth %d", key, depth)
		}
	}
	return current, nil
}

// Update copies every entry of other into s, overwriting collisions.
// Keys new to s are appended in other's order.
func (s *Store) Update(other *Store) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		s.Set(k, other.values[k])
	}
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	return len(s.keys)
}

// Keys returns keys in insertion order.
func (s *Store) Keys() []any {
	out := make([]any, len(s.keys))
	copy(out, s.keys)
	return out
}

// Values returns values in insertion order.
func (s *Store) Values() []any {
	out := make([]any, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, s.values[k])
	}
	return out
}

// Items returns key/value pairs in insertion order.
func (s *Store) Items() []Item {
	out := make([]Item, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, Item{Key: k, Value: s.values[k]})
	}
	return out
}

// Clone returns a deep copy; nested Stores and lists are copied too.
func (s *Store) Clone() *Store {
	c := New()
	for _, k := range s.keys {
		c.Set(k, cloneValue(s.values[k]))
	}
	return c
}

// Map converts the Store into plain nested maps keyed by strings, integer
// keys rendered in decimal. This is the shape handed to templates.
func (s *Store) Map() map[string]any {
	out := make(map[string]any, len(s.keys))
	for _, k := range s.keys {
		out[keyString(k)] = plain(s.values[k])
	}
	return out
}

// String renders the Store like a map literal in insertion order.
func (s *Store) String() string {
	buf := []byte{'{'}
	for i, k := range s.keys {
		if i > 0 {
			buf = append(buf, ", "...)
		}
		buf = append(buf, fmt.Sprintf("%v: %v", k, s.values[k])...)
	}
	return string(append(buf, '}'))
}

func keyString(k any) string {
	if i, ok := k.(int); ok {
		return strconv.Itoa(i)
	}
	return fmt.Sprint(k)
}

// normalizeKey folds every integer kind to int and every other non-string
// key to its printed form.
func normalizeKey(key any) any {
	switch k := key.(type) {
	case string:
		return k
	case int:
		return k
	case int8:
		return int(k)
	case int16:
		return int(k)
	case int32:
		return int(k)
	case int64:
		return int(k)
	case uint:
		return int(k)
	case uint8:
		return int(k)
	case uint16:
		return int(k)
	case uint32:
		return int(k)
	case uint64:
		return int(k)
	default:
		return fmt.Sprint(k)
	}
}

func promote(value any) any {
	switch v := value.(type) {
	case *Store:
		return v
	case map[string]any:
		return FromMap(v)
	case map[any]any:
		s := New()
		keys := make([]any, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return lessKey(keys[i], keys[j]) })
		for _, k := range keys {
			s.Set(k, v[k])
		}
		return s
	case map[int]any:
		s := New()
		keys := make([]int, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Ints(keys)
		for _, k := range keys {
			s.Set(k, v[k])
		}
		return s
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = promote(e)
		}
		return out
	default:
		return value
	}
}

// lessKey orders integer keys numerically ahead of string keys.
func lessKey(a, b any) bool {
	na, nb := normalizeKey(a), normalizeKey(b)
	ia, aInt := na.(int)
	ib, bInt := nb.(int)
	switch {
	case aInt && bInt:
		return ia < ib
	case aInt != bInt:
		return aInt
	default:
		return fmt.Sprint(na) < fmt.Sprint(nb)
	}
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case *Store:
		return v.Clone()
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return value
	}
}

func plain(value any) any {
	switch v := value.(type) {
	case *Store:
		return v.Map()
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = plain(e)
		}
		return out
	default:
		return value
	}
}
