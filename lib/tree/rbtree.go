package tree

import (
	"errors"
	"fmt"

	"github.com/lirriel/RBTree/lib/infra"
)

var (
	ErrDuplicateKey = errors.New("duplicate key")
	ErrKeyNotFound  = errors.New("key not found")
	// ErrStructuralPrecondition is a broken internal invariant (a caller
	// bug). It is raised as a panic and never recovered.
	ErrStructuralPrecondition = errors.New("structural precondition violated")
)

var _ RBTree[int] = (*rbTree[int])(nil)

// rbTree is a set of ordered keys. It is not thread-safe, all mutating
// calls must come from a single writer.
type rbTree[K infra.OrderedKey] struct {
	root     *rbNode[K]
	count    int64
	isDesc   bool
	cmp      infra.OrderedKeyComparator[K]
	observer Observer[K]
}

func (tree *rbTree[K]) keyCompare(k1, k2 K) int64 {
	return tree.cmp(k1, k2)
}

func (tree *rbTree[K]) Len() int64 {
	return tree.count
}

func (tree *rbTree[K]) Root() RBNode[K] {
	if tree.root == nil {
		return nil
	}
	return tree.root
}

// Height is the number of nodes on the longest root to leaf path.
func (tree *rbTree[K]) Height() int {
	if tree.root == nil {
		return 0
	}
	height := 0
	level := []*rbNode[K]{tree.root}
	for len(level) > 0 {
		height++
		next := make([]*rbNode[K], 0, len(level)<<1)
		for _, aux := range level {
			if aux.left != nil {
				next = append(next, aux.left)
			}
			if aux.right != nil {
				next = append(next, aux.right)
			}
		}
		level = next
	}
	return height
}

func (tree *rbTree[K]) emit(node *rbNode[K], event RBEvent) {
	if tree.observer == nil {
		return
	}
	tree.observer.OnEvent(tree, node, event)
}

// References:
// https://elixir.bootlin.com/linux/latest/source/lib/rbtree.c
// rbtree properties:
// https://en.wikipedia.org/wiki/Red%E2%80%93black_tree#Properties
// p1. Every node is either red or black.
// p2. All NIL nodes are considered black.
// p3. A red node does not have a red child. (red-violation)
// p4. Every path from a given node to any of its descendant
//   NIL nodes goes through the same number of black nodes. (black-violation)
// p5. The root is black.
// (Conclusion) If a node X has exactly one child, it must be a red child,
//   because if it were black, its NIL descendants would sit at a different
//   black depth than X's NIL child, violating p4.
// The longest path nodes' number is 2 * shortest path nodes' number.

/*
		 |                         |
		 X                         S
		/ \     leftRotate(X)     / \
	   L   S    ============>    X   Sd
		  / \                   / \
		Sc   Sd                L   Sc
*/
func (tree *rbTree[K]) leftRotate(x *rbNode[K]) {
	if x == nil || x.right == nil {
		// impossible run to here
		panic( /* debug assertion */ infra.WrapErrorStackWithMessage(
			ErrStructuralPrecondition,
			"[rbtree] left rotate node x is nil or x.right is nil",
		))
	}

	p, y := x.parent, x.right
	dir := x.Direction()
	x.setRight(y.left) // y is unparented here

	switch dir {
	case Root:
		tree.root = y
	case Left:
		p.setLeft(y)
	case Right:
		p.setRight(y)
	default:
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] unknown node direction to left-rotate")
	}
	y.setLeft(x)
	tree.emit(x, EventLeftRotate)
}

/*
			 |                         |
			 X                         S
			/ \     rightRotate(S)    / \
	       L   S    <============    X   R
			  / \                   / \
			Sc   Sd               Sc   Sd
*/
func (tree *rbTree[K]) rightRotate(x *rbNode[K]) {
	if x == nil || x.left == nil {
		// impossible run to here
		panic( /* debug assertion */ infra.WrapErrorStackWithMessage(
			ErrStructuralPrecondition,
			"[rbtree] right rotate node x is nil or x.left is nil",
		))
	}

	p, y := x.parent, x.left
	dir := x.Direction()
	x.setLeft(y.right) // y is unparented here

	switch dir {
	case Root:
		tree.root = y
	case Left:
		p.setLeft(y)
	case Right:
		p.setRight(y)
	default:
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] unknown node direction to right-rotate")
	}
	y.setRight(x)
	tree.emit(x, EventRightRotate)
}

// rotateToward rotates x so that its child on the opposite side of dir
// rises and x sinks toward dir.
func (tree *rbTree[K]) rotateToward(x *rbNode[K], dir RBDirection) {
	switch dir {
	case Left:
		tree.leftRotate(x)
	case Right:
		tree.rightRotate(x)
	default:
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] rotate toward root direction")
	}
}

func (tree *rbTree[K]) search(key K) *rbNode[K] {
	for aux := tree.root; aux != nil; {
		res := tree.keyCompare(key, aux.key)
		if res == 0 {
			return aux
		} else if res < 0 {
			aux = aux.left
		} else {
			aux = aux.right
		}
	}
	return nil
}

// Find returns the node holding key or nil. It never mutates the tree.
func (tree *rbTree[K]) Find(key K) RBNode[K] {
	if node := tree.search(key); node != nil {
		return node
	}
	return nil
}

// i1: Empty rbtree, insert directly, but root node is painted to black.
func (tree *rbTree[K]) Insert(key K) error {
	if tree.search(key) != nil {
		return infra.WrapErrorStackWithMessage(ErrDuplicateKey, fmt.Sprintf("[rbtree] insert %v", key))
	}

	z := &rbNode[K]{
		key:   key,
		color: Red,
	}
	if /* i1 */ tree.root == nil {
		z.color = Black
		tree.root = z
		tree.count++
		tree.emit(z, EventAfterBSTInsert)
		tree.emit(z, EventAfterInsert)
		return nil
	}

	var y *rbNode[K]
	for x := tree.root; x != nil; {
		y = x
		if /* less */ tree.keyCompare(key, x.key) < 0 {
			x = x.left
		} else /* greater */ {
			x = x.right
		}
	}
	if tree.keyCompare(key, y.key) < 0 {
		y.setLeft(z)
	} else {
		y.setRight(z)
	}
	tree.count++
	tree.emit(z, EventAfterBSTInsert)

	tree.insertRebalance(z)
	tree.emit(z, EventAfterInsert)
	return nil
}

/*
New node X is red by default.

<X> is a RED node.
[X] is a BLACK node (or NIL).
{X} is either a RED node or a BLACK node.

im1: Current node X's parent P is black, nothing to do.

im2: Current node X is root, the loop ends and the root is painted black.

im3: If both the parent P and the uncle U are red, grandpa G is black.
(red-violation)
After repainted G into red may be still red-violation.
Recursive to fix grandpa.

	    [G]             <G>
	    / \             / \
	  <P> <U>  ====>  [P] [U]
	  /               /
	<X>             <X>

im4: The parent P is red but the uncle U is black. (red-violation)
X is opposite direction to P. Rotate P to opposite direction.
After rotation may be still red-violation. Here must enter im5 to fix.

	  [G]                 [G]
	  / \    rotate(P)    / \
	<P> [U]  ========>  <X> [U]
	  \                 /
	  <X>             <P>

im5: Handle im4 scenario, current node is the same direction as parent.

	    [G]                 [P]
	    / \    repaint      / \
	  <P> [U]  rotate(G)  <X> <G>
	  /        ========>        \
	<X>                         [U]
*/
func (tree *rbTree[K]) insertRebalance(x *rbNode[K]) {
	for /* im1, im2 */ x != tree.root && x.parent.isRed() {
		p, gp := x.parent, x.grandpa()
		if gp == nil {
			// impossible run to here, a red parent is never the root
			panic( /* debug assertion */ "[rbtree] insert red parent without grandpa")
		}

		if uncle := x.uncle(); /* im3 */ uncle.isRed() {
			p.color = Black
			uncle.color = Black
			gp.color = Red
			tree.emit(x, EventRecolorUncle)
			x = gp
			continue
		}

		dir := p.Direction()
		if /* im4 */ x.Direction() != dir {
			tree.rotateToward(p, dir)
			x, p = p, x // enter im5 to fix
		}

		/* im5 */
		p.color = Black
		tree.emit(x, EventRecolorParent)
		gp.color = Red
		tree.emit(x, EventRecolorGrandpa)
		tree.rotateToward(gp, -dir)
		break
	}
	tree.root.color = Black
}

/*
r1: Current node X is not found, nothing changes.

r2: Current node X has left and right node.
Find node X's pred to replace it to be removed.
Copy the key only. The pred has no right child.

	  |                    |
	  X                    L
	 / \                  / \
	L  ..   copy(L, X)   X  ..
		|   =========>       |
		P                    P
	   / \                  / \
	  S  ..                S  ..

r3: Current node X has a single child C. The child takes the place of X.
If X is black the child carries the lost black (double black).
A red C is simply repainted by the fix-up.

r4: Current node X is the root without children, the tree becomes empty.

r5: Current node X is a leaf. A black X has to be fixed up before it is
unlinked, the walk still needs X's parent.
*/
func (tree *rbTree[K]) Remove(key K) error {
	z := tree.search(key)
	if /* r1 */ z == nil {
		return infra.WrapErrorStackWithMessage(ErrKeyNotFound, fmt.Sprintf("[rbtree] remove %v", key))
	}

	if /* r2 */ z.left != nil && z.right != nil {
		y := z.pred()
		z.key = y.key
		z = y
	}

	child := z.left
	if child == nil {
		child = z.right
	}

	switch {
	case /* r3 */ child != nil:
		switch dir := z.Direction(); dir {
		case Root:
			child.detach()
			tree.root = child
		case Left:
			z.parent.setLeft(child)
		case Right:
			z.parent.setRight(child)
		default:
			// impossible run to here
			panic( /* debug assertion */ "[rbtree] remove unknown node direction (r3)")
		}
		tree.emit(z, EventAfterBSTRemove)
		if z.isBlack() {
			tree.removeRebalance(child)
		}
	case /* r4 */ z == tree.root:
		tree.root = nil
		tree.emit(z, EventAfterBSTRemove)
	default: /* r5 */
		tree.emit(z, EventAfterBSTRemove)
		if z.isBlack() {
			tree.removeRebalance(z)
		}
		z.detach()
	}

	// Unlink node
	z.parent, z.left, z.right = nil, nil, nil
	tree.count--
	tree.emit(z, EventAfterRemove)
	return nil
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).
{X} is either a RED node or a BLACK node.

Sc is the same direction to X and it X's sibling's child node.
Sd is the opposite direction to X and it X's sibling's child node.

rm1: Current node X's sibling S is red, so the parent P, nephew node Sc and Sd
must be black. (Otherwise, red-violation)
(1) repaint S into black, P into red.
(2) X is left node of P, left rotate P.
(3) X is right node of P, right rotate P.

	  [P]                   <S>               [S]
	  / \    l-rotate(P)    / \    repaint    / \
	[X] <S>  ==========>  [P] [Sd]  ======>  <P> [Sd]
	    / \               / \               / \
	 [Sc] [Sd]          [X] [Sc]          [X] [Sc]

rm2: X's sibling S, nephew node Sc and Sd are black.
Paint S into red to satisfy p4 locally, then move the double black up
to P. A red P leaves the loop and is painted black.

	  {P}             {P}
	  / \             / \
	[X] [S]  ====>  [X] <S>
	    / \             / \
	 [Sc] [Sd]       [Sc] [Sd]

rm3: Current node X's sibling S is black, nephew node Sc is red and Sd
is black. Ignore X's parent P's color (red or black is okay)
(1) Repaint S into red, Sc into black.
(2) If X is left node of P, right rotate S.
(3) If X is right node of P, left rotate S.
Enter into rm4 to fix.

	                        {P}                {P}
	  {P}                   / \                / \
	  / \    r-rotate(S)  [X] <Sc>   repaint  [X] [Sc]
	[X] [S]  ==========>        \    ======>       \
	    / \                     [S]                <S>
	  <Sc> [Sd]                   \                  \
	                              [Sd]               [Sd]

rm4: Current node X's sibling S is black, nephew node Sd is red.
Ignore X's parent P's color (red or black is okay)
(1) S takes P's color, P and Sd are painted black.
(2) If X is left node of P, left rotate P.
(3) If X is right node of P, right rotate P.
The black deficiency is resolved, jump to root.

	  {P}                   [S]                {S}
	  / \    l-rotate(P)    / \     repaint    / \
	[X] [S]  ==========>  {P} <Sd>  ======>  [P] [Sd]
	    / \               / \                / \
	 [Sc] <Sd>          [X] [Sc]           [X] [Sc]
*/
func (tree *rbTree[K]) removeRebalance(x *rbNode[K]) {
	for x != tree.root && x.isBlack() {
		dir := x.Direction()
		sibling := x.sibling()
		if /* rm1 */ sibling.isRed() {
			sibling.color = Black
			x.parent.color = Red
			tree.rotateToward(x.parent, dir)
			sibling = x.sibling()
		}

		if sibling == nil {
			// impossible run to here, a double black node always has a sibling
			panic( /* debug assertion */ "[rbtree] remove double black node without sibling")
		}

		sc, sd := sibling.child(dir), sibling.child(-dir)
		if /* rm2 */ sc.isBlack() && sd.isBlack() {
			sibling.color = Red
			x = x.parent
			continue
		}

		if /* rm3 */ sd.isBlack() {
			sc.color = Black
			sibling.color = Red
			tree.rotateToward(sibling, -dir)
			sibling = x.sibling()
			sd = sibling.child(-dir)
		}

		/* rm4 */
		sibling.color = x.parent.color
		x.parent.color = Black
		sd.color = Black
		tree.rotateToward(x.parent, dir)
		x = tree.root
	}
	x.color = Black
}

// Release tears the tree down in post-order, every node is unlinked
// after its sub-trees. Iterative, deep trees do not grow the goroutine
// stack.
func (tree *rbTree[K]) Release() {
	aux := tree.root
	tree.root = nil
	if aux == nil {
		return
	}

	stack := make([]*rbNode[K], 0, 64)
	defer func() {
		clear(stack)
	}()
	stack = append(stack, aux)
	for size := len(stack); size > 0; size = len(stack) {
		aux = stack[size-1]
		if aux.left != nil {
			stack = append(stack, aux.left)
			continue
		}
		if aux.right != nil {
			stack = append(stack, aux.right)
			continue
		}
		stack = stack[:size-1]
		aux.detach()
		tree.count--
	}
}

type RBTreeOpt[K infra.OrderedKey] func(*rbTree[K])

func WithRBTreeDesc[K infra.OrderedKey]() RBTreeOpt[K] {
	return func(tree *rbTree[K]) {
		tree.isDesc = true
	}
}

// WithRBTreeComparator replaces the natural order of K. The comparator
// must be a strict weak ordering and report 0 only for keys that are
// the same element; equal keys descend to the right.
func WithRBTreeComparator[K infra.OrderedKey](cmp infra.OrderedKeyComparator[K]) RBTreeOpt[K] {
	return func(tree *rbTree[K]) {
		tree.cmp = cmp
	}
}

// WithRBTreeObserver attaches an observer to the tree events. A nil
// observer disables the notifications.
func WithRBTreeObserver[K infra.OrderedKey](observer Observer[K]) RBTreeOpt[K] {
	return func(tree *rbTree[K]) {
		tree.observer = observer
	}
}

func NewRBTree[K infra.OrderedKey](opts ...RBTreeOpt[K]) RBTree[K] {
	return newRBTree[K](opts...)
}

func newRBTree[K infra.OrderedKey](opts ...RBTreeOpt[K]) *rbTree[K] {
	tree := &rbTree[K]{
		count:  0,
		isDesc: false,
	}

	for _, o := range opts {
		if o == nil {
			continue
		}
		o(tree)
	}
	if tree.cmp == nil {
		tree.cmp = infra.OrderedKeyCompare[K]
	}
	if tree.isDesc {
		tree.cmp = infra.ReverseComparator(tree.cmp)
	}
	return tree
}
