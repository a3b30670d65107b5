package tree

import (
	"fmt"
	"math"

	"go.uber.org/multierr"

	"github.com/lirriel/RBTree/lib/infra"
)

func isBlack[K infra.OrderedKey](node RBNode[K]) bool {
	return node == nil || node.Color() == Black
}

func isRed[K infra.OrderedKey](node RBNode[K]) bool {
	return node != nil && node.Color() == Red
}

func blackDepthTo[K infra.OrderedKey](target, to RBNode[K]) int {
	depth := 0
	for aux := target; aux != nil && aux != to; aux = aux.Parent() {
		if isBlack[K](aux) {
			depth++
		}
	}
	return depth
}

// rbtree rule validation utilities.

// References:
// https://github1s.com/minghu6/rust-minghu6/blob/master/coll_st/src/bst/rb.rs

// Inorder traversal, action returns false to stop.
func inorder[K infra.OrderedKey](tree RBTree[K], action func(idx int64, node RBNode[K]) bool) {
	aux := tree.Root()
	if aux == nil {
		return
	}

	stack := make([]RBNode[K], 0, 64)
	defer func() {
		clear(stack)
	}()

	for ; aux != nil; aux = aux.Left() {
		stack = append(stack, aux)
	}

	idx := int64(0)
	for size := len(stack); size > 0; size = len(stack) {
		if aux = stack[size-1]; !action(idx, aux) {
			return
		}
		idx++
		stack = stack[:size-1]
		for aux = aux.Right(); aux != nil; aux = aux.Left() {
			stack = append(stack, aux)
		}
	}
}

func RootColorValidate[K infra.OrderedKey](tree RBTree[K]) error {
	if root := tree.Root(); isRed[K](root) {
		return fmt.Errorf("rbtree root %v is red", root.Key())
	}
	return nil
}

func RedViolationValidate[K infra.OrderedKey](tree RBTree[K]) (err error) {
	inorder[K](tree, func(_ int64, node RBNode[K]) bool {
		if isRed[K](node) && (isRed[K](node.Left()) || isRed[K](node.Right())) {
			err = fmt.Errorf("rbtree red violation at %v", node.Key())
			return false
		}
		return true
	})
	return err
}

// ParentLinkValidate checks that every child points back to its parent.
func ParentLinkValidate[K infra.OrderedKey](tree RBTree[K]) (err error) {
	if root := tree.Root(); root != nil && root.Parent() != nil {
		return fmt.Errorf("rbtree root %v has a parent", root.Key())
	}
	inorder[K](tree, func(_ int64, node RBNode[K]) bool {
		if l := node.Left(); l != nil && l.Parent() != node {
			err = fmt.Errorf("rbtree left child %v lost its parent link to %v", l.Key(), node.Key())
			return false
		}
		if r := node.Right(); r != nil && r.Parent() != node {
			err = fmt.Errorf("rbtree right child %v lost its parent link to %v", r.Key(), node.Key())
			return false
		}
		return true
	})
	return err
}

// BFS traversal to load all nodes owning at least one nil leaf.
func bfsLeaves[K infra.OrderedKey](tree RBTree[K]) []RBNode[K] {
	aux := tree.Root()
	if aux == nil {
		return nil
	}

	leaves := make([]RBNode[K], 0, 64)
	queue := []RBNode[K]{aux}
	for len(queue) > 0 {
		aux = queue[0]
		l, r := aux.Left(), aux.Right()
		if /* nil leaves, keep one */ l == nil || r == nil {
			leaves = append(leaves, aux)
		}
		if l != nil {
			queue = append(queue, l)
		}
		if r != nil {
			queue = append(queue, r)
		}
		queue = queue[1:]
	}
	return leaves
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).

	        [13]
			/  \
		 <8>    [15]
		 / \    /  \
	  [6] [11] [14] [17]
	  /              /
	<1>            [16]

Each leaf node to root node black depth are equal.
*/
func BlackViolationValidate[K infra.OrderedKey](tree RBTree[K]) error {
	leaves := bfsLeaves[K](tree)
	if leaves == nil {
		return nil
	}

	blackDepth := blackDepthTo[K](leaves[0], nil)
	for i := 1; i < len(leaves); i++ {
		if depth := blackDepthTo[K](leaves[i], nil); depth != blackDepth {
			return fmt.Errorf("rbtree black violation at %v, black depth %d, expected %d",
				leaves[i].Key(), depth, blackDepth)
		}
	}
	return nil
}

// OrderViolationValidate checks the inorder keys are strictly ascending
// under cmp. A nil cmp means the natural order of K.
func OrderViolationValidate[K infra.OrderedKey](tree RBTree[K], cmp infra.OrderedKeyComparator[K]) (err error) {
	if cmp == nil {
		cmp = infra.OrderedKeyCompare[K]
	}
	var prev RBNode[K]
	count := int64(0)
	inorder[K](tree, func(_ int64, node RBNode[K]) bool {
		count++
		if prev != nil && cmp(prev.Key(), node.Key()) >= 0 {
			err = fmt.Errorf("rbtree order violation, %v is not before %v", prev.Key(), node.Key())
			return false
		}
		prev = node
		return true
	})
	if err == nil && count != tree.Len() {
		err = fmt.Errorf("rbtree holds %d nodes, but the length is %d", count, tree.Len())
	}
	return err
}

// HeightValidate checks the red-black height bound h <= 2*log2(n+1).
func HeightValidate[K infra.OrderedKey](tree RBTree[K]) error {
	limit := 2 * math.Log2(float64(tree.Len()+1))
	if h := tree.Height(); float64(h) > limit {
		return fmt.Errorf("rbtree height %d exceeds %.2f for %d nodes", h, limit, tree.Len())
	}
	return nil
}

// Validate runs every rbtree rule validation and combines the violations.
func Validate[K infra.OrderedKey](tree RBTree[K]) error {
	var cmp infra.OrderedKeyComparator[K]
	if t, ok := tree.(*rbTree[K]); ok {
		cmp = t.cmp
	}
	return multierr.Combine(
		RootColorValidate[K](tree),
		ParentLinkValidate[K](tree),
		RedViolationValidate[K](tree),
		BlackViolationValidate[K](tree),
		OrderViolationValidate[K](tree, cmp),
		HeightValidate[K](tree),
	)
}
