// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes a note library to LLM clients over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/knt/internal/apperr"
	"github.com/starford/knt/internal/noteservice"
	"github.com/starford/knt/internal/storage"
)

const (
	formatURI      = "knt://format"
	defaultResults = 20
)

// Server wraps the MCP server with library tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *noteservice.Service
	store storage.Provider
}

// New creates a new MCP server with all tools registered.
func New(svc *noteservice.Service, store storage.Provider, version string) *Server {
	s := &Server{svc: svc, store: store}

	s.mcp = server.NewMCPServer(
		"knt",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through note names, sections and tree nodes."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of hits (default 20)")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("list_files",
		mcp.WithDescription("List the catalogued note files with format and note count."),
	), s.listFiles)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note file. Without id returns the document summary; "+
			"with id returns that note with plain text and raw content."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path of the file (e.g. work/projects.knt)")),
		mcp.WithNumber("id", mcp.Description("Note id from the document summary")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("get_outline",
		mcp.WithDescription("Return the notes of a file with the node hierarchy of tree notes."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path of the file")),
	), s.getOutline)

	s.mcp.AddTool(mcp.NewTool("get_format_contract",
		mcp.WithDescription("Returns a description of the KeyNote file format and of how "+
			"this server maps it to notes, sections and nodes."),
	), s.getFormatContract)

	s.mcp.AddTool(mcp.NewTool("import_note_file",
		mcp.WithDescription("Download a KeyNote or DartNotes file from an http(s) URL or a "+
			"base64 data URI into the library and index it."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data:...;base64, URI")),
		mcp.WithString("filename", mcp.Description("Optional file name; the extension follows the detected format")),
		mcp.WithString("folder", mcp.Description("Target folder (default imports)")),
	), s.importNoteFile)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "KeyNote File Format",
			mcp.WithResourceDescription("Structure of KeyNote note files as served by this library."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
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

// toolError renders err as a tool error result.
func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrPassphraseRequired):
		return mcp.NewToolResultError("file is encrypted and no passphrase is configured")
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %v", err))
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, req.GetInt("limit", defaultResults))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(results)
}

func (s *Server) listFiles(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := s.svc.ListFiles(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(files)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id := req.GetInt("id", 0)
	if id <= 0 {
		doc, err := s.svc.GetDocument(ctx, path)
		if err != nil {
			return toolError(err), nil
		}
		return jsonResult(doc)
	}
	note, err := s.svc.GetNote(ctx, path, id)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(note)
}

func (s *Server) getOutline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes, err := s.svc.Outline(ctx, path)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(notes)
}

func (s *Server) getFormatContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(FormatContract), nil
}

func (s *Server) readFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     FormatContract,
		},
	}, nil
}
