// Package canvas models the JSON canvas board: a node/edge graph persisted
// as a single JSON document, with placement for appended nodes.
//
// A board lives for one operation: it is parsed from its persisted form,
// mutated, and saved back. Nothing is cached across operations, so
// concurrent external edits follow last-writer-wins.
package canvas

import (
	"bytes"
	"encoding/json"
)

// DefaultPlacementGap is the horizontal spacing between the rightmost node
// and a newly placed one, in plane units.
const DefaultPlacementGap = 100

// Document is the root of a canvas file.
type Document struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Parse decodes a persisted board. Malformed, empty, or truncated input
// yields a fresh empty document rather than an error: a board that cannot
// be read is treated as a board that does not exist yet.
func Parse(raw []byte) *Document {
	doc := &Document{Nodes: []Node{}, Edges: []Edge{}}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) < 2 {
		return doc
	}
	var decoded Document
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		return doc
	}
	if decoded.Nodes != nil {
		doc.Nodes = decoded.Nodes
	}
	if decoded.Edges != nil {
		doc.Edges = decoded.Edges
	}
	return doc
}

// Save serialises the board with stable key order and indentation so diffs
// stay readable. A trailing newline is always present.
func (d *Document) Save() ([]byte, error) {
	out, err := json.MarshalIndent(d, "", "\t")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// NextPosition computes where a new node should land: the origin on an
// empty board, otherwise just right of the rightmost positioned node at the
// same y. Nodes without a well-formed position are ignored. This yields a
// simple left-to-right layout; it deliberately does not pack or detect
// overlap beyond the rightmost heuristic.
func NextPosition(nodes []Node, gap float64) (float64, float64) {
	if gap <= 0 {
		gap = DefaultPlacementGap
	}
	var rightmost *Node
	for i := range nodes {
		if !nodes[i].hasPosition {
			continue
		}
		if rightmost == nil || nodes[i].X > rightmost.X {
			rightmost = &nodes[i]
		}
	}
	if rightmost == nil {
		return 0, 0
	}
	return rightmost.X + rightmost.Width + gap, rightmost.Y
}

// AppendTextNode places and inserts a text node, returning its ID.
func (d *Document) AppendTextNode(text string, width, height, gap float64) string {
	x, y := NextPosition(d.Nodes, gap)
	n := Node{
		ID:          newNodeID(),
		Type:        NodeText,
		X:           x,
		Y:           y,
		Width:       width,
		Height:      height,
		Text:        text,
		hasPosition: true,
	}
	d.Nodes = append(d.Nodes, n)
	return n.ID
}

// AppendFileNode places and inserts a file-reference node, returning its ID.
func (d *Document) AppendFileNode(path string, width, height, gap float64) string {
	x, y := NextPosition(d.Nodes, gap)
	n := Node{
		ID:          newNodeID(),
		Type:        NodeFile,
		X:           x,
		Y:           y,
		Width:       width,
		Height:      height,
		File:        path,
		hasPosition: true,
	}
	d.Nodes = append(d.Nodes, n)
	return n.ID
}
