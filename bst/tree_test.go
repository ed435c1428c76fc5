package bst

import (
	"bytes"
	"cmp"
	"slices"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestBasicTree(t *testing.T) {
	tree := New[int64, string]()
	tree.Insert(1, "value1")

	val, err := tree.Search(1)
	require.NoError(t, err)
	require.Equal(t, "value1", val)

	tree.Insert(2, "value2")
	val, err = tree.Search(1)
	require.NoError(t, err)
	require.Equal(t, "value1", val)
	val, err = tree.Search(2)
	require.NoError(t, err)
	require.Equal(t, "value2", val)

	tree.Insert(3, "value3")
	require.Equal(t, 3, tree.Len())

	_, err = tree.Search(4)
	require.ErrorIs(t, err, ErrKeyNotFound)

	tree.Insert(2, "value2x")
	val, err = tree.Search(2)
	require.NoError(t, err)
	require.Equal(t, "value2x", val, "insert of an existing key must overwrite")
	require.Equal(t, 3, tree.Len(), "overwrite must not grow the tree")

	require.NoError(t, tree.Delete(2))
	_, err = tree.Search(2)
	require.ErrorIs(t, err, ErrKeyNotFound)
	require.Equal(t, 2, tree.Len())

	min, err := tree.Min()
	require.NoError(t, err)
	require.Equal(t, int64(1), min)
	max, err := tree.Max()
	require.NoError(t, err)
	require.Equal(t, int64(3), max)

	checkInvariants(t, tree)
}

func TestEmptyTree(t *testing.T) {
	tree := New[string, int]()
	require.Equal(t, 0, tree.Len())
	require.Equal(t, 0, tree.Height())

	_, err := tree.Min()
	require.ErrorIs(t, err, ErrEmptyTree)
	_, err = tree.Max()
	require.ErrorIs(t, err, ErrEmptyTree)
	_, err = tree.Search("missing")
	require.ErrorIs(t, err, ErrKeyNotFound)
	require.ErrorIs(t, tree.Delete("missing"), ErrKeyNotFound)
}

// buildTree inserts keys in order, each valued with its own decimal string.
func buildTree(keys []int64) *Tree[int64, string] {
	tree := New[int64, string]()
	for _, k := range keys {
		tree.Insert(k, strconv.FormatInt(k, 10))
	}
	return tree
}

func inorderKeys(tree *Tree[int64, string]) []int64 {
	var keys []int64
	for k := range tree.All() {
		keys = append(keys, k)
	}
	return keys
}

func TestDeleteCases(t *testing.T) {
	// Fixed insertion order giving every delete case its own target:
	//
	//	            8
	//	         /     \
	//	        3       10
	//	       / \        \
	//	      1   6        14
	//	         / \       /
	//	        4   7    13
	//	         \
	//	          5
	seq := []int64{8, 3, 10, 1, 6, 4, 7, 14, 13, 5}

	cases := []struct {
		name string
		del  int64
		want []int64
	}{
		{"leaf", 1, []int64{3, 4, 5, 6, 7, 8, 10, 13, 14}},
		{"only right child", 10, []int64{1, 3, 4, 5, 6, 7, 8, 13, 14}},
		{"only left child", 14, []int64{1, 3, 4, 5, 6, 7, 8, 10, 13}},
		{"successor is right child", 6, []int64{1, 3, 4, 5, 7, 8, 10, 13, 14}},
		{"successor deeper in right subtree", 3, []int64{1, 4, 5, 6, 7, 8, 10, 13, 14}},
		{"root with two children", 8, []int64{1, 3, 4, 5, 6, 7, 10, 13, 14}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tree := buildTree(seq)
			require.NoError(t, tree.Delete(tc.del))
			require.Equal(t, tc.want, inorderKeys(tree))
			require.Equal(t, len(seq)-1, tree.Len())
			_, err := tree.Search(tc.del)
			require.ErrorIs(t, err, ErrKeyNotFound)
			checkInvariants(t, tree)
		})
	}
}

func TestDeleteToEmpty(t *testing.T) {
	seq := []int64{8, 3, 10, 1, 6, 4, 7, 14, 13, 5}
	tree := buildTree(seq)
	for _, k := range seq {
		require.NoError(t, tree.Delete(k))
		checkInvariants(t, tree)
	}
	require.Equal(t, 0, tree.Len())
	_, err := tree.Min()
	require.ErrorIs(t, err, ErrEmptyTree)
	require.Equal(t, "Tree[]", tree.String())
}

func TestDeleteMissingLeavesTreeUntouched(t *testing.T) {
	tree := buildTree([]int64{8, 3, 10})
	before := tree.String()
	require.ErrorIs(t, tree.Delete(4), ErrKeyNotFound)
	require.Equal(t, before, tree.String())
	require.Equal(t, 3, tree.Len())
}

func TestInsertOverwriteKeepsShape(t *testing.T) {
	tree := buildTree([]int64{8, 3, 10, 1, 6})
	height := tree.Height()
	n1, err := tree.searchNode(3)
	require.NoError(t, err)

	tree.Insert(3, "replaced")

	require.Equal(t, 5, tree.Len())
	require.Equal(t, height, tree.Height())
	n2, err := tree.searchNode(3)
	require.NoError(t, err)
	require.Same(t, n1, n2, "overwrite must reuse the existing node")
	val, err := tree.Search(3)
	require.NoError(t, err)
	require.Equal(t, "replaced", val)
	checkInvariants(t, tree)
}

func TestHeightTracksInsertionOrder(t *testing.T) {
	chain := New[int64, string]()
	for i := int64(1); i <= 50; i++ {
		chain.Insert(i, "v")
	}
	require.Equal(t, 50, chain.Height(), "ascending inserts must degenerate into a chain")
	require.Equal(t, 50, chain.Len())

	bushy := buildTree([]int64{4, 2, 6, 1, 3, 5, 7})
	require.Equal(t, 3, bushy.Height())
}

func TestWalkStopsEarly(t *testing.T) {
	tree := buildTree([]int64{5, 2, 8, 1, 3})
	var seen []int64
	tree.Walk(func(k int64, v string) bool {
		seen = append(seen, k)
		return len(seen) < 3
	})
	require.Equal(t, []int64{1, 2, 3}, seen)
}

func TestAllIsRestartable(t *testing.T) {
	tree := buildTree([]int64{5, 2, 8})
	all := tree.All()

	var first []int64
	for k := range all {
		first = append(first, k)
		if len(first) == 2 {
			break
		}
	}
	require.Equal(t, []int64{2, 5}, first)

	var second []int64
	for k := range all {
		second = append(second, k)
	}
	require.Equal(t, []int64{2, 5, 8}, second, "ranging again must start over from the smallest key")
}

func TestString(t *testing.T) {
	tree := New[int64, string]()
	require.Equal(t, "Tree[]", tree.String())
	tree.Insert(2, "b")
	tree.Insert(1, "a")
	tree.Insert(3, "c")
	require.Equal(t, "Tree[1=a 2=b 3=c]", tree.String())
}

func TestRenderDotGraph(t *testing.T) {
	tree := New[int64, string]()
	require.Contains(t, tree.RenderDotGraph(), "digraph")

	tree.Insert(2, "b")
	tree.Insert(1, "a")
	tree.Insert(3, "c")
	graph := tree.RenderDotGraph()
	require.Contains(t, graph, "2=b")
	require.Contains(t, graph, "1=a")
	require.Contains(t, graph, "3=c")
	require.Contains(t, graph, `"l"`)
	require.Contains(t, graph, `"r"`)
}

func TestDebugLogging(t *testing.T) {
	var buf bytes.Buffer
	tree := NewWithLogger[int64, string](zerolog.New(&buf))
	tree.Insert(1, "a")
	tree.Insert(2, "b")
	require.NoError(t, tree.Delete(1))

	logs := buf.String()
	require.Contains(t, logs, "inserting key=1")
	require.Contains(t, logs, "deleting key=1")
	require.Contains(t, logs, "transplanting subtree at key=1")
}

// checkInvariants walks the child links and fails if the parent pointers,
// recorded size, or in-order key ordering are inconsistent. The node count
// is bounded by size as it goes, so a corrupted tree with a link cycle
// fails instead of hanging.
func checkInvariants[K cmp.Ordered, V any](t require.TestingT, tree *Tree[K, V]) {
	count := 0
	if tree.root != nil {
		require.Nil(t, tree.root.parent, "root must not have a parent")
		stack := []*node[K, V]{tree.root}
		for len(stack) > 0 {
			x := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			count++
			require.LessOrEqual(t, count, tree.size, "more nodes reachable than Len reports")
			if x.left != nil {
				require.Same(t, x, x.left.parent, "left child of %v has a stale parent link", x.key)
				stack = append(stack, x.left)
			}
			if x.right != nil {
				require.Same(t, x, x.right.parent, "right child of %v has a stale parent link", x.key)
				stack = append(stack, x.right)
			}
		}
	}
	require.Equal(t, tree.size, count, "Len disagrees with reachable node count")

	if count > 0 {
		h := tree.Height()
		require.GreaterOrEqual(t, h, 1)
		require.LessOrEqual(t, h, count)
	}

	var prev *K
	for k := range tree.All() {
		k := k
		if prev != nil {
			require.Less(t, *prev, k, "in-order keys must be strictly increasing")
		}
		prev = &k
	}
}

func TestTreeSims(t *testing.T) {
	rapid.Check(t, testTreeSims)
}

func FuzzTree(f *testing.F) {
	f.Fuzz(rapid.MakeFuzz(testTreeSims))
}

func testTreeSims(t *rapid.T) {
	sim := &SimMachine{
		tree:  New[int64, string](),
		model: map[int64]string{},
	}
	t.Repeat(map[string]func(*rapid.T){
		"":       sim.Check,
		"Insert": sim.Insert,
		"Search": sim.Search,
		"Delete": sim.Delete,
		"MinMax": sim.MinMax,
	})
}

type SimMachine struct {
	tree *Tree[int64, string]
	// model holds the expected contents; keys deleted from the tree are
	// deleted here too.
	model map[int64]string
}

// selectKey picks either a key already in the model or a fresh draw, so
// that hits and misses both get exercised.
func (s *SimMachine) selectKey(t *rapid.T) int64 {
	if len(s.model) > 0 && rapid.Bool().Draw(t, "existingKey") {
		keys := make([]int64, 0, len(s.model))
		for k := range s.model {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		return rapid.SampledFrom(keys).Draw(t, "key")
	}
	return rapid.Int64Range(-1000, 1000).Draw(t, "key")
}

func (s *SimMachine) Insert(t *rapid.T) {
	key := s.selectKey(t)
	value := rapid.String().Draw(t, "value")
	s.tree.Insert(key, value)
	s.model[key] = value
}

func (s *SimMachine) Search(t *rapid.T) {
	key := s.selectKey(t)
	val, err := s.tree.Search(key)
	expected, found := s.model[key]
	if found {
		require.NoError(t, err, "search failed for an inserted key")
		require.Equal(t, expected, val, "value mismatch for key %d", key)
	} else {
		require.ErrorIs(t, err, ErrKeyNotFound, "search for an absent key must fail")
	}
}

func (s *SimMachine) Delete(t *rapid.T) {
	key := s.selectKey(t)
	_, found := s.model[key]
	err := s.tree.Delete(key)
	if found {
		require.NoError(t, err, "delete failed for an inserted key")
		delete(s.model, key)
		_, err = s.tree.Search(key)
		require.ErrorIs(t, err, ErrKeyNotFound, "key still present after delete")
	} else {
		require.ErrorIs(t, err, ErrKeyNotFound, "delete of an absent key must fail")
	}
}

func (s *SimMachine) MinMax(t *rapid.T) {
	min, errMin := s.tree.Min()
	max, errMax := s.tree.Max()
	if len(s.model) == 0 {
		require.ErrorIs(t, errMin, ErrEmptyTree)
		require.ErrorIs(t, errMax, ErrEmptyTree)
		return
	}
	require.NoError(t, errMin)
	require.NoError(t, errMax)
	first := true
	var wantMin, wantMax int64
	for k := range s.model {
		if first || k < wantMin {
			wantMin = k
		}
		if first || k > wantMax {
			wantMax = k
		}
		first = false
	}
	require.Equal(t, wantMin, min, "minimum mismatch")
	require.Equal(t, wantMax, max, "maximum mismatch")
}

// Check runs after every action and compares the whole tree against the
// model.
func (s *SimMachine) Check(t *rapid.T) {
	checkInvariants(t, s.tree)
	require.Equal(t, len(s.model), s.tree.Len(), "entry count mismatch")

	var wantKeys []int64
	for k := range s.model {
		wantKeys = append(wantKeys, k)
	}
	slices.Sort(wantKeys)

	var gotKeys []int64
	for k, v := range s.tree.All() {
		require.Equal(t, s.model[k], v, "value mismatch during walk for key %d", k)
		gotKeys = append(gotKeys, k)
	}
	require.Equal(t, wantKeys, gotKeys, "in-order walk must yield the model keys sorted")
}
