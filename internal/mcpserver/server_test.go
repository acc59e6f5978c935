package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/sowilo/internal/anchor"
	"github.com/starford/sowilo/internal/sendservice"
	"github.com/starford/sowilo/internal/storage"
	"github.com/starford/sowilo/internal/testutil"
)

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()

	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)

	mgr := anchor.NewManager(anchor.Options{})
	svc := sendservice.NewService(store, db, mgr, sendservice.Settings{}, nil)
	return New(svc), store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we call the
	// handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "send_to_canvas":
		result, err = srv.sendToCanvas(ctx, req)
	case "select_canvas":
		result, err = srv.selectCanvas(ctx, req)
	case "list_canvases":
		result, err = srv.listCanvases(ctx, req)
	case "read_canvas":
		result, err = srv.readCanvas(ctx, req)
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestSelectAndSendToCanvas(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("b.canvas", []byte(`{"nodes":[],"edges":[]}`))
	_ = store.Write("n.md", []byte("a useful line\n"))

	r := callTool(t, srv, "select_canvas", map[string]interface{}{"path": "b.canvas"})
	if resultText(r) != "selected: b.canvas" {
		t.Errorf("select result = %q", resultText(r))
	}

	r = callTool(t, srv, "send_to_canvas", map[string]interface{}{
		"note":     "n.md",
		"fragment": "a useful line",
		"kind":     "link",
	})
	if r.IsError {
		t.Fatalf("send errored: %q", resultText(r))
	}
	text := resultText(r)
	if !strings.Contains(text, `"node_id"`) || !strings.Contains(text, `"anchor_id"`) {
		t.Errorf("send result = %q", text)
	}

	note, _ := store.Read("n.md")
	if !strings.Contains(string(note), " ^") {
		t.Errorf("note not anchored: %q", note)
	}
}

func TestSendToCanvas_NoSelection(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("n.md", []byte("line\n"))

	r := callTool(t, srv, "send_to_canvas", map[string]interface{}{
		"note":     "n.md",
		"fragment": "line",
		"kind":     "plain",
	})
	if !r.IsError {
		t.Error("expected error when no canvas selected")
	}
}

func TestSendToCanvas_MissingFragment(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("b.canvas", []byte(`{"nodes":[],"edges":[]}`))
	_ = store.Write("n.md", []byte("\n# Title\nbody\n"))
	callTool(t, srv, "select_canvas", map[string]interface{}{"path": "b.canvas"})

	for _, kind := range []string{"plain", "link", "embed"} {
		r := callTool(t, srv, "send_to_canvas", map[string]interface{}{
			"note": "n.md",
			"kind": kind,
		})
		if !r.IsError {
			t.Errorf("kind %s: expected error without fragment", kind)
		}
	}

	// The note kind needs no fragment.
	r := callTool(t, srv, "send_to_canvas", map[string]interface{}{
		"note": "n.md",
		"kind": "note",
	})
	if r.IsError {
		t.Errorf("note kind errored: %q", resultText(r))
	}

	note, _ := store.Read("n.md")
	if string(note) != "\n# Title\nbody\n" {
		t.Errorf("note mutated: %q", note)
	}
}

func TestSelectCanvas_Missing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "select_canvas", map[string]interface{}{"path": "ghost.canvas"})
	if !r.IsError {
		t.Error("expected error for missing board")
	}
}

func TestListCanvases(t *testing.T) {
	srv, store := testServer(t)

	r := callTool(t, srv, "list_canvases", map[string]interface{}{})
	if resultText(r) != "no canvases indexed" {
		t.Errorf("empty list = %q", resultText(r))
	}

	_ = store.Write("b.canvas", []byte(`{"nodes":[],"edges":[]}`))
	_ = store.Write("n.md", []byte("line\n"))
	callTool(t, srv, "select_canvas", map[string]interface{}{"path": "b.canvas"})
	callTool(t, srv, "send_to_canvas", map[string]interface{}{
		"note": "n.md", "fragment": "line", "kind": "plain",
	})

	r = callTool(t, srv, "list_canvases", map[string]interface{}{})
	if !strings.Contains(resultText(r), "b.canvas (1 nodes, 0 edges)") {
		t.Errorf("list = %q", resultText(r))
	}
}

func TestReadCanvas(t *testing.T) {
	srv, store := testServer(t)
	raw := `{"nodes":[],"edges":[]}`
	_ = store.Write("b.canvas", []byte(raw))

	r := callTool(t, srv, "read_canvas", map[string]interface{}{"path": "b.canvas"})
	if resultText(r) != raw {
		t.Errorf("read = %q", resultText(r))
	}

	r = callTool(t, srv, "read_canvas", map[string]interface{}{"path": "nope.canvas"})
	if !r.IsError {
		t.Error("expected error for missing board")
	}
}

func TestCanvasFormatResource(t *testing.T) {
	srv, _ := testServer(t)

	contents, err := srv.readCanvasFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("unexpected content type %T", contents[0])
	}
	if !strings.Contains(tc.Text, "node-") || !strings.Contains(tc.Text, "![[") {
		t.Error("contract missing expected sections")
	}
}
