package bst

import "cmp"

// node is one stored key-value pair and its position in the tree. Nodes are
// created on first insertion of a key and never escape the package; the only
// link that points against the owning direction is parent, which exists so
// that deletion can relink subtrees and the in-order walk can resume without
// a stack.
type node[K cmp.Ordered, V any] struct {
	key    K
	value  V
	parent *node[K, V]
	left   *node[K, V]
	right  *node[K, V]
}

// min returns the leftmost node of the subtree rooted at x.
func (x *node[K, V]) min() *node[K, V] {
	for x.left != nil {
		x = x.left
	}
	return x
}

// max returns the rightmost node of the subtree rooted at x.
func (x *node[K, V]) max() *node[K, V] {
	for x.right != nil {
		x = x.right
	}
	return x
}

// next returns the in-order successor of x, or nil if x holds the largest
// key. When x has a right child the successor is the minimum of that
// subtree; otherwise it is the nearest ancestor reached from a left child.
func (x *node[K, V]) next() *node[K, V] {
	if x.right != nil {
		return x.right.min()
	}
	for x.parent != nil && x == x.parent.right {
		x = x.parent
	}
	return x.parent
}
