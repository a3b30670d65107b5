package tree

import "github.com/lirriel/RBTree/lib/infra"

var _ RBNode[int] = (*rbNode[int])(nil)

// rbNode owns its left and right sub-trees. The parent is a back-link
// for navigation only and never decides a node's lifetime.
type rbNode[K infra.OrderedKey] struct {
	parent *rbNode[K]
	left   *rbNode[K]
	right  *rbNode[K]
	key    K
	color  RBColor
}

func (node *rbNode[K]) Key() K {
	return node.key
}

func (node *rbNode[K]) Color() RBColor {
	if node == nil {
		return Black
	}
	return node.color
}

func (node *rbNode[K]) Left() RBNode[K] {
	if node == nil || node.left == nil {
		return nil
	}
	return node.left
}

func (node *rbNode[K]) Right() RBNode[K] {
	if node == nil || node.right == nil {
		return nil
	}
	return node.right
}

func (node *rbNode[K]) Parent() RBNode[K] {
	if node == nil || node.parent == nil {
		return nil
	}
	return node.parent
}

// Nil leaves are black.
func (node *rbNode[K]) isBlack() bool {
	return node == nil || node.color == Black
}

func (node *rbNode[K]) isRed() bool {
	return node != nil && node.color == Red
}

func (node *rbNode[K]) isRoot() bool {
	return node != nil && node.parent == nil
}

func (node *rbNode[K]) isLeftChild() bool {
	return node != nil && node.parent != nil && node.parent.left == node
}

func (node *rbNode[K]) isRightChild() bool {
	return node != nil && node.parent != nil && node.parent.right == node
}

func (node *rbNode[K]) Direction() RBDirection {
	if node == nil {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] nil leaf node without direction")
	}

	if node.isRoot() {
		return Root
	}
	if node.isLeftChild() {
		return Left
	}
	return Right
}

// child returns the sub-tree on the dir side. Root has no side.
func (node *rbNode[K]) child(dir RBDirection) *rbNode[K] {
	switch dir {
	case Left:
		return node.left
	case Right:
		return node.right
	default:
	}
	return nil
}

// setLeft installs child as the left sub-tree and keeps both back-links
// consistent. The child is taken off its previous parent first. The
// previous left sub-tree is unparented and handed back to the caller,
// who must re-attach or discard it.
// Installing the current left child again is a no-op and returns nil.
func (node *rbNode[K]) setLeft(child *rbNode[K]) *rbNode[K] {
	if node.left == child {
		return nil
	}
	if child != nil {
		child.detach()
		child.parent = node
	}
	prev := node.left
	node.left = child
	if prev != nil {
		prev.parent = nil
	}
	return prev
}

// setRight is the mirror of setLeft.
func (node *rbNode[K]) setRight(child *rbNode[K]) *rbNode[K] {
	if node.right == child {
		return nil
	}
	if child != nil {
		child.detach()
		child.parent = node
	}
	prev := node.right
	node.right = child
	if prev != nil {
		prev.parent = nil
	}
	return prev
}

// detach unlinks the node from its parent, both directions at once.
// The node keeps its own sub-trees.
func (node *rbNode[K]) detach() {
	if node.parent == nil {
		return
	}
	if node.parent.left == node {
		node.parent.left = nil
	} else if node.parent.right == node {
		node.parent.right = nil
	}
	node.parent = nil
}

func (node *rbNode[K]) sibling() *rbNode[K] {
	switch node.Direction() {
	case Left:
		return node.parent.right
	case Right:
		return node.parent.left
	default:
	}
	return nil
}

func (node *rbNode[K]) grandpa() *rbNode[K] {
	if node == nil || node.parent == nil {
		return nil
	}
	return node.parent.parent
}

func (node *rbNode[K]) uncle() *rbNode[K] {
	if node.grandpa() == nil {
		return nil
	}
	return node.parent.sibling()
}

func (node *rbNode[K]) maximum() *rbNode[K] {
	aux := node
	for ; aux != nil && aux.right != nil; aux = aux.right {
	}
	return aux
}

// The pred node of the current node is its previous node in sorted order.
// For a node with two children it is the maximum of the left sub-tree,
// which has no right child.
func (node *rbNode[K]) pred() *rbNode[K] {
	x := node
	if x == nil {
		return nil
	}
	if x.left != nil {
		return x.left.maximum()
	}

	aux := x.parent
	// Backtrack to father node that is the x's pred.
	for aux != nil && x == aux.left {
		x = aux
		aux = aux.parent
	}
	return aux
}
