package canvas

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestParse_Resilience(t *testing.T) {
	for _, raw := range []string{"", " ", "\n\t ", "{", "not json at all", "[1,2,3"} {
		doc := Parse([]byte(raw))
		if doc == nil {
			t.Fatalf("Parse(%q) returned nil", raw)
		}
		if doc.Nodes == nil || doc.Edges == nil {
			t.Errorf("Parse(%q): nodes/edges must be non-nil", raw)
		}
		if len(doc.Nodes) != 0 || len(doc.Edges) != 0 {
			t.Errorf("Parse(%q): expected empty document", raw)
		}
	}
}

func TestParse_MissingKeysDefaulted(t *testing.T) {
	doc := Parse([]byte(`{}`))
	if doc.Nodes == nil || doc.Edges == nil {
		t.Error("missing keys must default to empty slices")
	}
}

func TestParse_FlatCoordinates(t *testing.T) {
	raw := `{"nodes":[{"id":"a","type":"text","x":10,"y":20,"width":400,"height":100,"text":"hi"}],"edges":[]}`
	doc := Parse([]byte(raw))
	if len(doc.Nodes) != 1 {
		t.Fatalf("nodes = %d", len(doc.Nodes))
	}
	n := doc.Nodes[0]
	if n.X != 10 || n.Y != 20 || !n.HasPosition() {
		t.Errorf("node = %+v", n)
	}
}

func TestParse_NestedPositionAccepted(t *testing.T) {
	raw := `{"nodes":[{"id":"a","type":"text","position":{"x":5,"y":-7},"width":100,"height":50,"text":"old"}]}`
	doc := Parse([]byte(raw))
	n := doc.Nodes[0]
	if n.X != 5 || n.Y != -7 || !n.HasPosition() {
		t.Errorf("node = %+v", n)
	}
}

func TestParse_MissingPositionFlagged(t *testing.T) {
	raw := `{"nodes":[{"id":"a","type":"text","width":100,"height":50}]}`
	doc := Parse([]byte(raw))
	if doc.Nodes[0].HasPosition() {
		t.Error("node without coordinates must not report a position")
	}
}

func TestSave_WritesFlatCoordinates(t *testing.T) {
	raw := `{"nodes":[{"id":"a","type":"text","position":{"x":5,"y":6},"width":1,"height":1,"text":"x"}]}`
	out, err := Parse([]byte(raw)).Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	s := string(out)
	if strings.Contains(s, `"position"`) {
		t.Error("save must not emit the legacy nested encoding")
	}
	if !strings.Contains(s, `"x": 5`) || !strings.Contains(s, `"y": 6`) {
		t.Errorf("flat coordinates missing:\n%s", s)
	}
	if !strings.HasSuffix(s, "\n") {
		t.Error("save must end with a newline")
	}
}

func TestRoundTrip(t *testing.T) {
	raw := `{
		"nodes": [
			{"id":"n1","type":"text","x":0,"y":0,"width":400,"height":100,"text":"hello"},
			{"id":"n2","type":"file","x":500,"y":0,"width":400,"height":400,"file":"notes/a.md"},
			{"id":"n3","type":"link","x":1000,"y":50,"width":300,"height":80,"url":"https://example.com"}
		],
		"edges": [
			{"id":"e1","fromNode":"n1","fromSide":"right","toNode":"n2","toSide":"left"}
		]
	}`
	saved, err := Parse([]byte(raw)).Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	again := Parse(saved)
	if len(again.Nodes) != 3 || len(again.Edges) != 1 {
		t.Fatalf("round trip lost records: %d nodes, %d edges", len(again.Nodes), len(again.Edges))
	}
	if again.Nodes[1].File != "notes/a.md" || again.Nodes[2].URL != "https://example.com" {
		t.Errorf("variant fields lost: %+v", again.Nodes)
	}
	if again.Edges[0].FromNode != "n1" || again.Edges[0].ToSide != "left" {
		t.Errorf("edge fields lost: %+v", again.Edges[0])
	}
}

func TestRoundTrip_UnknownVariantKeepsFields(t *testing.T) {
	raw := `{"nodes":[
		{"id":"g1","type":"group","x":0,"y":0,"width":800,"height":600,"label":"Sprint","background":"img.png"},
		{"id":"t1","type":"text","x":900,"y":0,"width":400,"height":100,"text":"hi"}
	],"edges":[]}`
	doc := Parse([]byte(raw))
	doc.AppendTextNode("added", 400, 100, 100)

	saved, err := doc.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	s := string(saved)
	if !strings.Contains(s, `"label": "Sprint"`) || !strings.Contains(s, `"background": "img.png"`) {
		t.Errorf("unknown variant fields lost:\n%s", s)
	}

	again := Parse(saved)
	if len(again.Nodes) != 3 {
		t.Fatalf("nodes = %d, want 3", len(again.Nodes))
	}
	if again.Nodes[0].Type != "group" || again.Nodes[0].Width != 800 {
		t.Errorf("group node = %+v", again.Nodes[0])
	}
	// A second save emits the same unknown fields.
	saved2, _ := again.Save()
	if string(saved2) != s {
		t.Error("round trip not stable")
	}
}

func TestNextPosition_EmptyBoard(t *testing.T) {
	x, y := NextPosition(nil, 100)
	if x != 0 || y != 0 {
		t.Errorf("got (%v, %v), want origin", x, y)
	}
}

func TestNextPosition_RightOfRightmost(t *testing.T) {
	nodes := []Node{
		{X: 0, Y: 10, Width: 400, hasPosition: true},
		{X: 900, Y: -30, Width: 200, hasPosition: true},
		{X: 500, Y: 0, Width: 400, hasPosition: true},
	}
	x, y := NextPosition(nodes, 100)
	if x != 1200 || y != -30 {
		t.Errorf("got (%v, %v), want (1200, -30)", x, y)
	}
}

func TestNextPosition_SkipsMalformedNodes(t *testing.T) {
	nodes := []Node{
		{X: 100, Width: 50, hasPosition: true},
		{X: 99999, Width: 1, hasPosition: false}, // no usable coordinates
	}
	x, _ := NextPosition(nodes, 100)
	if x != 250 {
		t.Errorf("x = %v, want 250", x)
	}
}

func TestAppend_PlacementMonotonic(t *testing.T) {
	doc := Parse(nil)
	var prev float64 = -1
	for i := 0; i < 5; i++ {
		doc.AppendTextNode("n", 400, 100, 100)
		n := doc.Nodes[len(doc.Nodes)-1]
		if i == 0 && n.X != 0 {
			t.Errorf("first node x = %v, want 0", n.X)
		}
		if n.X <= prev {
			t.Errorf("node %d x = %v, not increasing past %v", i, n.X, prev)
		}
		prev = n.X
	}
}

func TestAppendFileNode(t *testing.T) {
	doc := Parse(nil)
	id := doc.AppendFileNode("notes/ref.md", 400, 400, 100)
	if !strings.HasPrefix(id, "node-") || len(id) != len("node-")+16 {
		t.Errorf("id = %q", id)
	}
	n := doc.Nodes[0]
	if n.Type != NodeFile || n.File != "notes/ref.md" {
		t.Errorf("node = %+v", n)
	}
}

func TestNodeJSON_FieldNames(t *testing.T) {
	n := Node{ID: "a", Type: NodeText, X: 1, Y: 2, Width: 3, Height: 4, Text: "t"}
	out, err := json.Marshal(n)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"id", "type", "x", "y", "width", "height", "text"} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing key %q in %s", key, out)
		}
	}
	if _, ok := m["file"]; ok {
		t.Error("empty variant fields must be omitted")
	}
}

func TestFormatReference(t *testing.T) {
	if got := FormatReference(RefEmbed, "", "Notes", "abc123", RefOptions{}); got != "![[Notes#^abc123]]" {
		t.Errorf("embed = %q", got)
	}
	if got := FormatReference(RefLink, "", "Notes", "abc123", RefOptions{}); got != "[[Notes#^abc123]]" {
		t.Errorf("link = %q", got)
	}
	if got := FormatReference(RefPlain, "raw selection", "Notes", "abc123", RefOptions{}); got != "raw selection" {
		t.Errorf("plain = %q", got)
	}
}

func TestFormatReference_Timestamp(t *testing.T) {
	opts := RefOptions{
		AppendTimestamp: true,
		TimestampLayout: "2006-01-02T15:04",
		Now:             func() time.Time { return time.Date(2025, 3, 8, 8, 7, 0, 0, time.UTC) },
	}
	got := FormatReference(RefEmbed, "", "Notes", "abc123", opts)
	if got != "![[Notes#^abc123]] 2025-03-08T08:07" {
		t.Errorf("got %q", got)
	}
	// Plain content never gets a timestamp.
	if got := FormatReference(RefPlain, "text", "Notes", "abc123", opts); got != "text" {
		t.Errorf("plain = %q", got)
	}
}
