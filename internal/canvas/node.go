package canvas

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// Node type discriminants recognised in persisted boards.
const (
	NodeText = "text"
	NodeFile = "file"
	NodeLink = "link"
)

// nodeIDPrefix namespaces generated node IDs.
const nodeIDPrefix = "node-"

// Node is one placed element on the canvas plane. The variant is selected
// by Type; Text, File, and URL are populated per variant. Unrecognised
// variants are carried through reads and writes untouched but are never
// produced by this package.
type Node struct {
	ID     string
	Type   string
	X      float64
	Y      float64
	Width  float64
	Height float64
	Text   string
	File   string
	URL    string
	Color  string

	// hasPosition records whether the persisted form carried a usable
	// coordinate pair. Placement skips nodes without one.
	hasPosition bool

	// extra holds fields outside the declared schema (e.g. a group node's
	// label) so unrecognised variants round-trip untouched.
	extra map[string]json.RawMessage
}

// nodeWire is the persisted encoding. Coordinates are written flat; on read
// an older nested "position" object is also accepted.
type nodeWire struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	X        *float64  `json:"x,omitempty"`
	Y        *float64  `json:"y,omitempty"`
	Position *struct { // legacy encoding
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"position,omitempty"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Text   string  `json:"text,omitempty"`
	File   string  `json:"file,omitempty"`
	URL    string  `json:"url,omitempty"`
	Color  string  `json:"color,omitempty"`
}

// nodeWireKeys are the field names nodeWire accounts for; anything else in
// a persisted node is carried through as-is.
var nodeWireKeys = []string{
	"id", "type", "x", "y", "position", "width", "height",
	"text", "file", "url", "color",
}

// UnmarshalJSON decodes a node, accepting both the flat x/y convention and
// the legacy nested position object. The nested form wins when both appear.
// Fields outside the declared schema are retained verbatim.
func (n *Node) UnmarshalJSON(data []byte) error {
	var w nodeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for _, k := range nodeWireKeys {
		delete(fields, k)
	}
	if len(fields) > 0 {
		n.extra = fields
	}
	n.ID = w.ID
	n.Type = w.Type
	n.Width = w.Width
	n.Height = w.Height
	n.Text = w.Text
	n.File = w.File
	n.URL = w.URL
	n.Color = w.Color

	switch {
	case w.Position != nil:
		n.X, n.Y = w.Position.X, w.Position.Y
		n.hasPosition = true
	case w.X != nil && w.Y != nil:
		n.X, n.Y = *w.X, *w.Y
		n.hasPosition = true
	default:
		n.X, n.Y = 0, 0
		n.hasPosition = false
	}
	return nil
}

// MarshalJSON always writes the flat x/y convention. Retained unknown
// fields are emitted after the declared ones, in sorted key order.
func (n Node) MarshalJSON() ([]byte, error) {
	x, y := n.X, n.Y
	out, err := json.Marshal(nodeWire{
		ID:     n.ID,
		Type:   n.Type,
		X:      &x,
		Y:      &y,
		Width:  n.Width,
		Height: n.Height,
		Text:   n.Text,
		File:   n.File,
		URL:    n.URL,
		Color:  n.Color,
	})
	if err != nil || len(n.extra) == 0 {
		return out, err
	}

	keys := make([]string, 0, len(n.extra))
	for k := range n.extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(out[:len(out)-1]) // strip closing brace
	for _, k := range keys {
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(n.extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// HasPosition reports whether the node carried a well-formed coordinate pair.
// Nodes built by this package always do.
func (n Node) HasPosition() bool {
	return n.hasPosition
}

// Edge connects two nodes. Edges are read and written but never created by
// this package.
type Edge struct {
	ID       string `json:"id"`
	FromNode string `json:"fromNode"`
	FromSide string `json:"fromSide,omitempty"`
	ToNode   string `json:"toNode"`
	ToSide   string `json:"toSide,omitempty"`
	Label    string `json:"label,omitempty"`
}

// newNodeID returns a namespaced random node ID. Uniqueness is
// probabilistic and not checked against existing nodes.
func newNodeID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return nodeIDPrefix + hex.EncodeToString(buf)
}
