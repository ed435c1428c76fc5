package bst

import (
	"fmt"

	"github.com/emicklei/dot"
)

// RenderDotGraph renders the tree in graphviz dot format, one graph node per
// entry and edges labeled "l" and "r". Only child links are drawn; parent
// links are an implementation detail and stay out of every rendering.
func (t *Tree[K, V]) RenderDotGraph() string {
	graph := dot.NewGraph(dot.Directed)

	if t.root == nil {
		return graph.String()
	}

	var traverse func(x *node[K, V], parent *dot.Node, direction string)
	traverse = func(x *node[K, V], parent *dot.Node, direction string) {
		n := graph.Node(fmt.Sprintf("%v=%v", x.key, x.value))
		if parent != nil {
			parent.Edge(n, direction)
		}
		if x.left != nil {
			traverse(x.left, &n, "l")
		}
		if x.right != nil {
			traverse(x.right, &n, "r")
		}
	}
	traverse(t.root, nil, "")

	return graph.String()
}
