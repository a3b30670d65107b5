package observability

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/lirriel/RBTree/lib/infra"
	"github.com/lirriel/RBTree/lib/tree"
)

var _ tree.Observer[int] = (*DotDumper[int])(nil)

// DotDumper renders the whole tree as a Graphviz digraph on each
// selected event, one graph per event, into the writer.
//
//	dot -Tsvg -O dump.dot
//
// The node the event is about is drawn with a thick border. Nil leaves
// are drawn as points.
type DotDumper[K infra.OrderedKey] struct {
	w      io.Writer
	events map[tree.RBEvent]struct{}
	seq    uint64
	err    error
}

// NewDotDumper dumps on the listed events, no events means
// EventAfterInsert and EventAfterRemove.
func NewDotDumper[K infra.OrderedKey](w io.Writer, events ...tree.RBEvent) *DotDumper[K] {
	if len(events) == 0 {
		events = []tree.RBEvent{tree.EventAfterInsert, tree.EventAfterRemove}
	}
	return &DotDumper[K]{
		w:      w,
		events: eventSet(events),
	}
}

func (d *DotDumper[K]) OnEvent(t tree.RBTree[K], node tree.RBNode[K], event tree.RBEvent) {
	if d == nil || d.w == nil || d.err != nil {
		return
	}
	if _, ok := d.events[event]; !ok {
		return
	}
	d.seq++
	graph := RenderDot[K](t, node, fmt.Sprintf("%s #%d", event, d.seq))
	if _, err := d.w.Write(graph); err != nil {
		d.err = err
	}
}

// Err is the first write error, the dumper stops writing after it.
func (d *DotDumper[K]) Err() error {
	if d == nil {
		return nil
	}
	return d.err
}

// Dumped is the number of rendered graphs.
func (d *DotDumper[K]) Dumped() uint64 {
	if d == nil {
		return 0
	}
	return d.seq
}

// RenderDot renders t as a DOT digraph labelled with label. A non-nil
// focus node is highlighted.
func RenderDot[K infra.OrderedKey](t tree.RBTree[K], focus tree.RBNode[K], label string) []byte {
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "digraph %s {\n", strconv.Quote(label))
	fmt.Fprintf(buf, "\tlabel=%s;\n", strconv.Quote(label))
	buf.WriteString("\tnode [style=filled, fontcolor=white, shape=circle];\n")

	root := t.Root()
	if root == nil {
		buf.WriteString("\tempty [shape=plaintext, fontcolor=black, label=\"empty\"];\n}\n")
		return buf.Bytes()
	}

	ids := make(map[tree.RBNode[K]]int, t.Len())
	leaves := 0
	nodeID := func(n tree.RBNode[K]) int {
		id, ok := ids[n]
		if !ok {
			id = len(ids)
			ids[n] = id
		}
		return id
	}

	queue := []tree.RBNode[K]{root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		id := nodeID(n)

		fillColor := "black"
		if n.Color() == tree.Red {
			fillColor = "red"
		}
		penWidth := 1
		if focus != nil && n == focus {
			penWidth = 3
		}
		fmt.Fprintf(buf, "\tn%d [label=%s, fillcolor=%s, penwidth=%d];\n",
			id, strconv.Quote(fmt.Sprint(n.Key())), fillColor, penWidth)

		for _, child := range []tree.RBNode[K]{n.Left(), n.Right()} {
			if child == nil {
				fmt.Fprintf(buf, "\tnil%d [shape=point, fillcolor=black];\n", leaves)
				fmt.Fprintf(buf, "\tn%d -> nil%d;\n", id, leaves)
				leaves++
				continue
			}
			fmt.Fprintf(buf, "\tn%d -> n%d;\n", id, nodeID(child))
			queue = append(queue, child)
		}
	}
	buf.WriteString("}\n")
	return buf.Bytes()
}
