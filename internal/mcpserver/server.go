// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the Sowilo pipeline for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/sowilo/internal/apperr"
	"github.com/starford/sowilo/internal/gallery"
)

// Server wraps the MCP server with pipeline tools.
type Server struct {
	mcp *server.MCPServer
	svc *gallery.Service
}

// New creates a new MCP server with all pipeline tools registered. The
// gallery service decides what is reachable: constructed without a runner,
// run_unit and build_montage report not found.
func New(svc *gallery.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Sowilo",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_collections",
		mcp.WithDescription("List every collection in the outputs tree with unit and artifact counts."),
	), s.listCollections)

	s.mcp.AddTool(mcp.NewTool("list_units",
		mcp.WithDescription("List the units of one collection with their artifact counts."),
		mcp.WithString("collection", mcp.Required(), mcp.Description("Collection slug (e.g. week-01)")),
	), s.listUnits)

	s.mcp.AddTool(mcp.NewTool("list_artifacts",
		mcp.WithDescription("List one unit's artifacts in figure order."),
		mcp.WithString("collection", mcp.Required(), mcp.Description("Collection slug")),
		mcp.WithString("unit", mcp.Required(), mcp.Description("Unit slug")),
	), s.listArtifacts)

	s.mcp.AddTool(mcp.NewTool("search_artifacts",
		mcp.WithDescription("Search artifacts by collection, unit, and figure label tokens."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchArtifacts)

	s.mcp.AddTool(mcp.NewTool("read_artifact",
		mcp.WithDescription("Read one artifact as a PNG image. Paths are relative to the outputs "+
			"root (e.g. week-01/pca-demo/01-scree-plot.png); read the contract first via "+
			"the get_layout_contract tool or the sowilo://layout resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Tree-relative artifact path")),
	), s.readArtifact)

	s.mcp.AddTool(mcp.NewTool("run_unit",
		mcp.WithDescription("Execute one unit script and capture its figures into the outputs tree. "+
			"Returns the run record; a failing unit still yields a record with status failed."),
		mcp.WithString("collection", mcp.Required(), mcp.Description("Collection directory name under the lab root")),
		mcp.WithString("unit", mcp.Required(), mcp.Description("Unit script name without the .go extension")),
	), s.runUnit)

	s.mcp.AddTool(mcp.NewTool("build_montage",
		mcp.WithDescription("Compose the overview montage for one collection from its captured artifacts."),
		mcp.WithString("collection", mcp.Required(), mcp.Description("Collection slug")),
	), s.buildMontage)

	s.mcp.AddTool(mcp.NewTool("get_layout_contract",
		mcp.WithDescription("Returns the canonical outputs tree layout contract. "+
			"Call this before constructing artifact paths by hand."),
	), s.getLayoutContract)

	// Resource: outputs layout contract.
	s.mcp.AddResource(
		mcp.NewResource("sowilo://layout", "Outputs Layout Contract",
			mcp.WithResourceDescription("Canonical outputs tree layout that every artifact path follows."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readLayoutResource,
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

func (s *Server) listCollections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, err := s.svc.Collections(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(rows, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listUnits(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collection, err := req.RequireString("collection")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rows, err := s.svc.Units(ctx, collection)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(rows, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listArtifacts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collection, err := req.RequireString("collection")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	unit, err := req.RequireString("unit")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rows, _, err := s.svc.Artifacts(ctx, collection, unit, 0, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(rows, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchArtifacts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

func (s *Server) readArtifact(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.svc.ReadArtifact(ctx, path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	return mcp.NewToolResultImage(path, encoded, "image/png"), nil
}

func (s *Server) runUnit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collection, err := req.RequireString("collection")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	unit, err := req.RequireString("unit")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.svc.RunUnit(ctx, collection, unit)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("unknown unit: %s/%s", collection, unit)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(rec, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) buildMontage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collection, err := req.RequireString("collection")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := s.svc.BuildMontage(ctx, collection)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if path == "" {
		return mcp.NewToolResultError(fmt.Sprintf("collection has no artifacts: %s", collection)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("montage written: %s", path)), nil
}

func (s *Server) getLayoutContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(LayoutContract), nil
}

func (s *Server) readLayoutResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "sowilo://layout",
			MIMEType: "text/markdown",
			Text:     LayoutContract,
		},
	}, nil
}
