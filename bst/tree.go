// Package bst implements a plain, unbalanced binary search tree mapping
// ordered keys to arbitrary values. It is deliberately unbalanced: no
// rotations are ever performed, so operations are O(height) and the height
// depends entirely on insertion order. Lookups, insertion, deletion, minimum
// and maximum, and an in-order walk are supported.
package bst

import (
	"cmp"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/rs/zerolog"
)

var (
	// ErrKeyNotFound is returned by Search and Delete when the key is not in
	// the tree. The tree is left unchanged.
	ErrKeyNotFound = errors.New("key not found")
	// ErrEmptyTree is returned by Min and Max when the tree has no entries.
	ErrEmptyTree = errors.New("empty tree")
)

// Tree is a mutable binary search tree. Keys are unique and kept in their
// natural order; inserting an existing key overwrites its value in place.
// The zero value is an empty tree ready for use.
//
// A Tree is not safe for concurrent use: mutations need exclusive access,
// reads may only run concurrently with other reads.
type Tree[K cmp.Ordered, V any] struct {
	root *node[K, V]
	size int
	log  zerolog.Logger
}

// New returns an empty tree.
func New[K cmp.Ordered, V any]() *Tree[K, V] {
	return NewWithLogger[K, V](zerolog.Nop())
}

// NewWithLogger returns an empty tree that traces inserts, deletes and
// structural relinks to log at debug level.
func NewWithLogger[K cmp.Ordered, V any](log zerolog.Logger) *Tree[K, V] {
	return &Tree[K, V]{log: log}
}

// Insert stores value under key, overwriting the previous value if the key
// is already present. Overwriting changes no links; the tree keeps its
// shape.
func (t *Tree[K, V]) Insert(key K, value V) {
	t.log.Debug().Msgf("inserting key=%v value=%v", key, value)

	var y *node[K, V]
	x := t.root
	for x != nil {
		y = x
		switch cmp.Compare(key, x.key) {
		case -1:
			x = x.left
		case 1:
			x = x.right
		default:
			x.value = value
			return
		}
	}

	z := &node[K, V]{key: key, value: value, parent: y}
	switch {
	case y == nil:
		t.root = z
	case cmp.Less(key, y.key):
		y.left = z
	default:
		y.right = z
	}
	t.size++
}

// Search returns the value stored under key, or ErrKeyNotFound.
func (t *Tree[K, V]) Search(key K) (V, error) {
	x, err := t.searchNode(key)
	if err != nil {
		var zero V
		return zero, err
	}
	return x.value, nil
}

func (t *Tree[K, V]) searchNode(key K) (*node[K, V], error) {
	x := t.root
	for x != nil {
		switch cmp.Compare(key, x.key) {
		case -1:
			x = x.left
		case 1:
			x = x.right
		default:
			return x, nil
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrKeyNotFound, key)
}

// Delete removes the entry stored under key, or returns ErrKeyNotFound. A
// failed delete leaves the tree untouched; the lookup happens before any
// link changes.
func (t *Tree[K, V]) Delete(key K) error {
	t.log.Debug().Msgf("deleting key=%v", key)

	z, err := t.searchNode(key)
	if err != nil {
		return err
	}
	t.deleteNode(z)
	t.size--
	return nil
}

// deleteNode unlinks z, restoring the search-tree ordering. With no or one
// child, z's (possibly absent) child is spliced into its place. With two
// children, z's in-order successor y is the minimum of the right subtree
// and has no left child; y is detached from its own position and then
// takes over z's position and both of z's subtrees.
func (t *Tree[K, V]) deleteNode(z *node[K, V]) {
	switch {
	case z.left == nil:
		t.transplant(z, z.right)
	case z.right == nil:
		t.transplant(z, z.left)
	default:
		y := z.right.min()
		if y.parent != z {
			t.transplant(y, y.right)
			y.right = z.right
			y.right.parent = y
		}
		t.transplant(z, y)
		y.left = z.left
		y.left.parent = y
	}
}

// transplant replaces the subtree rooted at u with the subtree rooted at v
// in u's parent (or at the root), fixing v's parent pointer.
func (t *Tree[K, V]) transplant(u, v *node[K, V]) {
	t.log.Debug().Msgf("transplanting subtree at key=%v", u.key)

	switch {
	case u.parent == nil:
		t.root = v
	case u == u.parent.left:
		u.parent.left = v
	default:
		u.parent.right = v
	}
	if v != nil {
		v.parent = u.parent
	}
}

// Min returns the smallest key, or ErrEmptyTree.
func (t *Tree[K, V]) Min() (K, error) {
	if t.root == nil {
		var zero K
		return zero, ErrEmptyTree
	}
	return t.root.min().key, nil
}

// Max returns the largest key, or ErrEmptyTree.
func (t *Tree[K, V]) Max() (K, error) {
	if t.root == nil {
		var zero K
		return zero, ErrEmptyTree
	}
	return t.root.max().key, nil
}

// Len returns the number of entries.
func (t *Tree[K, V]) Len() int {
	return t.size
}

// Height returns the number of nodes on the longest root-to-leaf path, 0
// for an empty tree. With no balancing this ranges from log2(n) up to n
// depending on insertion order. Computed level by level so that degenerate
// chains cannot exhaust the goroutine stack.
func (t *Tree[K, V]) Height() int {
	if t.root == nil {
		return 0
	}
	height := 0
	level := []*node[K, V]{t.root}
	for len(level) > 0 {
		height++
		var next []*node[K, V]
		for _, n := range level {
			if n.left != nil {
				next = append(next, n.left)
			}
			if n.right != nil {
				next = append(next, n.right)
			}
		}
		level = next
	}
	return height
}

// All returns an in-order iterator over all entries, yielding keys in
// strictly increasing order. The sequence is lazy and restartable: ranging
// over it again starts over from the smallest key. The tree must not be
// mutated while ranging.
func (t *Tree[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		x := t.root
		if x == nil {
			return
		}
		for x = x.min(); x != nil && yield(x.key, x.value); x = x.next() {
		}
	}
}

// Walk calls fn for every entry in ascending key order until fn returns
// false.
func (t *Tree[K, V]) Walk(fn func(key K, value V) bool) {
	for k, v := range t.All() {
		if !fn(k, v) {
			return
		}
	}
}

// String renders the entries in ascending key order. Only child links are
// followed; parent links never appear in any printed form of the tree.
func (t *Tree[K, V]) String() string {
	var b strings.Builder
	b.WriteString("Tree[")
	first := true
	for k, v := range t.All() {
		if !first {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%v=%v", k, v)
		first = false
	}
	b.WriteString("]")
	return b.String()
}
