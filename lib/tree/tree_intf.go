package tree

import (
	"strings"

	"github.com/samber/lo"

	"github.com/lirriel/RBTree/lib/infra"
)

// go install golang.org/x/tools/cmd/stringer@latest
//go:generate stringer -type=RBColor,RBDirection,RBEvent -trimprefix=Event -output=rbtree_string.go

type RBColor uint8

const (
	Black RBColor = iota
	Red
)

type RBDirection int8

const (
	Left RBDirection = -1 + iota
	Root
	Right
)

type RBEvent uint8

const (
	// EventAfterBSTInsert the new node is spliced in, not yet rebalanced.
	EventAfterBSTInsert RBEvent = iota
	// EventAfterInsert the insertion is complete and rebalanced.
	EventAfterInsert
	// EventAfterBSTRemove the node is spliced out, not yet fixed up.
	EventAfterBSTRemove
	// EventAfterRemove the removal is complete and fixed up.
	EventAfterRemove
	EventLeftRotate
	EventRightRotate
	// EventRecolorUncle parent and uncle painted black, grandpa red.
	EventRecolorUncle
	// EventRecolorParent parent painted black (black uncle case).
	EventRecolorParent
	// EventRecolorGrandpa grandpa painted red (black uncle case).
	EventRecolorGrandpa
	_eventMax
)

// RBEvents lists every event kind the tree emits.
func RBEvents() []RBEvent {
	events := make([]RBEvent, 0, _eventMax)
	for e := EventAfterBSTInsert; e < _eventMax; e++ {
		events = append(events, e)
	}
	return events
}

// ParseRBEvent looks the event up by its name, "AfterInsert" or
// "afterinsert" for EventAfterInsert.
func ParseRBEvent(name string) (RBEvent, bool) {
	name = strings.TrimSpace(name)
	return lo.Find(RBEvents(), func(e RBEvent) bool {
		return strings.EqualFold(e.String(), name)
	})
}

type RBNode[K infra.OrderedKey] interface {
	Key() K
	Color() RBColor
	Left() RBNode[K]
	Right() RBNode[K]
	Parent() RBNode[K]
}

type RBTree[K infra.OrderedKey] interface {
	Len() int64
	Root() RBNode[K]
	Height() int
	Insert(key K) error
	Find(key K) RBNode[K]
	Remove(key K) error
	Release()
}

// Observer receives the tree lifecycle events. It is called
// synchronously from inside Insert and Remove, so it must not mutate
// the tree. The node is the one the event is about: the new node, the
// removed node or the rotation pivot. The removed node is already
// detached when EventAfterRemove is delivered.
type Observer[K infra.OrderedKey] interface {
	OnEvent(tree RBTree[K], node RBNode[K], event RBEvent)
}

type ObserverFunc[K infra.OrderedKey] func(tree RBTree[K], node RBNode[K], event RBEvent)

func (fn ObserverFunc[K]) OnEvent(tree RBTree[K], node RBNode[K], event RBEvent) {
	fn(tree, node, event)
}

type multiObserver[K infra.OrderedKey] []Observer[K]

func (mo multiObserver[K]) OnEvent(tree RBTree[K], node RBNode[K], event RBEvent) {
	for _, o := range mo {
		o.OnEvent(tree, node, event)
	}
}

// MultiObserver fans every event out to observers in order.
// Nil observers are skipped.
func MultiObserver[K infra.OrderedKey](observers ...Observer[K]) Observer[K] {
	mo := make(multiObserver[K], 0, len(observers))
	for _, o := range observers {
		if o == nil {
			continue
		}
		if nested, ok := o.(multiObserver[K]); ok {
			mo = append(mo, nested...)
			continue
		}
		mo = append(mo, o)
	}
	if len(mo) == 1 {
		return mo[0]
	}
	return mo
}
