// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Sowilo tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/sowilo/internal/sendservice"
)

// Server wraps the MCP server with Sowilo tools.
type Server struct {
	mcp *server.MCPServer
	svc *sendservice.Service
}

// New creates a new MCP server with all Sowilo tools registered.
func New(svc *sendservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Sowilo",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("send_to_canvas",
		mcp.WithDescription("Send a note fragment to a canvas board as a new node. "+
			"Kinds: plain (raw text), link ([[note#^id]] reference), embed "+
			"(![[note#^id]] reference), note (the whole note as a file node). "+
			"Link and embed kinds anchor the fragment's line in the source note. "+
			"Read the sowilo://canvas-format resource for the persisted board shape."),
		mcp.WithString("note", mcp.Required(), mcp.Description("Relative path of the source note (e.g. folder/note.md)")),
		mcp.WithString("fragment", mcp.Description("Selected text to send; required for all kinds except note")),
		mcp.WithNumber("line", mcp.Description("Zero-based cursor line, used when the fragment cannot be located")),
		mcp.WithString("kind", mcp.Required(), mcp.Description("Node kind: plain, link, embed, or note")),
		mcp.WithString("canvas", mcp.Description("Target board path; empty uses the selected canvas")),
	), s.sendToCanvas)

	s.mcp.AddTool(mcp.NewTool("select_canvas",
		mcp.WithDescription("Select the target canvas board for subsequent sends. The board must exist."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path of the board (must end with .canvas)")),
	), s.selectCanvas)

	s.mcp.AddTool(mcp.NewTool("list_canvases",
		mcp.WithDescription("List all indexed canvas boards with node and edge counts."),
	), s.listCanvases)

	s.mcp.AddTool(mcp.NewTool("read_canvas",
		mcp.WithDescription("Read the raw JSON of a canvas board."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path of the board")),
	), s.readCanvas)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through notes content and titles."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	// Resource: canvas format contract.
	s.mcp.AddResource(
		mcp.NewResource("sowilo://canvas-format", "Canvas Format Contract",
			mcp.WithResourceDescription("Persisted JSON canvas board format and reference conventions."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readCanvasFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) sendToCanvas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	note, err := req.RequireString("note")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	kind, err := req.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fragment := req.GetString("fragment", "")
	if kind != sendservice.KindNote && strings.TrimSpace(fragment) == "" {
		return mcp.NewToolResultError(fmt.Sprintf("fragment is required for kind %q", kind)), nil
	}

	res, err := s.svc.Send(ctx, sendservice.SendRequest{
		NotePath: note,
		Fragment: fragment,
		Line:     req.GetInt("line", 0),
		Kind:     kind,
		Canvas:   req.GetString("canvas", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) selectCanvas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.SelectCanvas(ctx, path); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("selected: %s", path)), nil
}

func (s *Server) listCanvases(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	boards, err := s.svc.ListCanvases(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(boards) == 0 {
		return mcp.NewToolResultText("no canvases indexed"), nil
	}
	var lines []string
	for _, b := range boards {
		lines = append(lines, fmt.Sprintf("%s (%d nodes, %d edges)", b.Path, b.NodeCount, b.EdgeCount))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readCanvas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.GetCanvas(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(detail.Raw), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readCanvasFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "sowilo://canvas-format",
			MIMEType: "text/markdown",
			Text:     CanvasFormatContract,
		},
	}, nil
}
