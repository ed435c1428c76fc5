// Package sorteddict provides a mutable dictionary whose keys are kept in
// sorted order, backed by an unbalanced binary search tree. Set, Get and
// Delete cost O(height); iteration yields entries in ascending key order
// without sorting.
package sorteddict

import (
	"cmp"
	"iter"

	"github.com/rs/zerolog"

	"github.com/meeshkan/sorteddict/bst"
)

// Errors reported by lookups and deletes. They are the tree's own
// sentinels, so errors.Is works across both packages.
var (
	ErrKeyNotFound = bst.ErrKeyNotFound
	ErrEmptyTree   = bst.ErrEmptyTree
)

// Entry is one key-value pair, as returned by Items.
type Entry[K cmp.Ordered, V any] struct {
	Key   K
	Value V
}

// Map is a sorted dictionary. The zero value is an empty map ready for use.
//
// A Map is not safe for concurrent use.
type Map[K cmp.Ordered, V any] struct {
	tree bst.Tree[K, V]
}

// New returns an empty map.
func New[K cmp.Ordered, V any]() *Map[K, V] {
	return &Map[K, V]{}
}

// NewWithLogger returns an empty map that traces every mutation of the
// underlying tree to log at debug level.
func NewWithLogger[K cmp.Ordered, V any](log zerolog.Logger) *Map[K, V] {
	return &Map[K, V]{tree: *bst.NewWithLogger[K, V](log)}
}

// Set stores value under key, overwriting any previous value.
func (m *Map[K, V]) Set(key K, value V) {
	m.tree.Insert(key, value)
}

// Get returns the value stored under key, or ErrKeyNotFound.
func (m *Map[K, V]) Get(key K) (V, error) {
	return m.tree.Search(key)
}

// Delete removes the entry stored under key, or returns ErrKeyNotFound.
func (m *Map[K, V]) Delete(key K) error {
	return m.tree.Delete(key)
}

// Contains reports whether key is present.
func (m *Map[K, V]) Contains(key K) bool {
	_, err := m.tree.Search(key)
	return err == nil
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	return m.tree.Len()
}

// Keys returns all keys in ascending order.
func (m *Map[K, V]) Keys() []K {
	keys := make([]K, 0, m.tree.Len())
	for k := range m.tree.All() {
		keys = append(keys, k)
	}
	return keys
}

// Items returns all entries in ascending key order.
func (m *Map[K, V]) Items() []Entry[K, V] {
	items := make([]Entry[K, V], 0, m.tree.Len())
	for k, v := range m.tree.All() {
		items = append(items, Entry[K, V]{Key: k, Value: v})
	}
	return items
}

// All returns an in-order iterator over all entries. The sequence is lazy
// and restartable; the map must not be mutated while ranging.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return m.tree.All()
}

// Walk calls fn for every entry in ascending key order until fn returns
// false.
func (m *Map[K, V]) Walk(fn func(key K, value V) bool) {
	m.tree.Walk(fn)
}

// Min returns the smallest key, or ErrEmptyTree.
func (m *Map[K, V]) Min() (K, error) {
	return m.tree.Min()
}

// Max returns the largest key, or ErrEmptyTree.
func (m *Map[K, V]) Max() (K, error) {
	return m.tree.Max()
}

// Height returns the height of the backing tree. It grows with unlucky
// insertion orders; sorted inserts degenerate into a chain of Len nodes.
func (m *Map[K, V]) Height() int {
	return m.tree.Height()
}

// RenderDotGraph renders the backing tree in graphviz dot format.
func (m *Map[K, V]) RenderDotGraph() string {
	return m.tree.RenderDotGraph()
}
