// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes promptdesk documents to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/promptdesk/internal/document"
	"github.com/starford/promptdesk/internal/editor"
)

const contractURI = "promptdesk://document-format"

// Server wraps the MCP server with promptdesk tools.
type Server struct {
	mcp *server.MCPServer
	svc *editor.Service
}

// New creates a new MCP server with all document tools registered.
func New(svc *editor.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"promptdesk",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List prompt documents, most recently updated first."),
		mcp.WithString("tag", mcp.Description("Optional tag filter")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read a prompt document: every representation, the selected shape and its metadata."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document id")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Full-text search through document names and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("create_document",
		mcp.WithDescription("Create a seeded prompt document and return its id."),
		mcp.WithString("name", mcp.Description("Display name (defaults to \"Untitled Prompt\")")),
	), s.createDocument)

	s.mcp.AddTool(mcp.NewTool("set_plain_text",
		mcp.WithDescription("Replace the plain-text representation of a document and save it. "+
			"Read the format contract first via get_document_contract."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document id")),
		mcp.WithString("text", mcp.Required(), mcp.Description("New plain text; {{name}} marks a template variable")),
	), s.setPlainText)

	s.mcp.AddTool(mcp.NewTool("add_outline_node",
		mcp.WithDescription("Add a section to the outline and save the document."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document id")),
		mcp.WithString("parent_id", mcp.Description("Parent section id; empty adds a root section")),
		mcp.WithString("title", mcp.Description("Section title")),
		mcp.WithString("body", mcp.Description("Section body")),
	), s.addOutlineNode)

	s.mcp.AddTool(mcp.NewTool("add_fragment",
		mcp.WithDescription("Append a fragment to the fragment list and save the document."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document id")),
		mcp.WithString("name", mcp.Description("Fragment name")),
		mcp.WithString("body", mcp.Description("Fragment body")),
	), s.addFragment)

	s.mcp.AddTool(mcp.NewTool("add_lane_fragment",
		mcp.WithDescription("Append a fragment to one lane of the board and save the document."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document id")),
		mcp.WithString("lane_id", mcp.Required(), mcp.Description("Lane id")),
		mcp.WithString("name", mcp.Description("Fragment name")),
		mcp.WithString("body", mcp.Description("Fragment body")),
	), s.addLaneFragment)

	s.mcp.AddTool(mcp.NewTool("import_document",
		mcp.WithDescription("Import an encoded snapshot from an http(s) URL or a base64 data URI."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Snapshot location")),
	), s.importDocument)

	s.mcp.AddTool(mcp.NewTool("get_document_contract",
		mcp.WithDescription("Returns the promptdesk document format contract. "+
			"Call this before editing documents to learn the shapes and conventions."),
	), s.getDocumentContract)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Document Format Contract",
			mcp.WithResourceDescription("Representations, shapes and template conventions of prompt documents."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
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

// optional returns a string argument or "" when absent.
func optional(req mcp.CallToolRequest, key string) string {
	if v, err := req.RequireString(key); err == nil {
		return v
	}
	return ""
}

func jsonResult(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

// edit applies fn to the document and saves it.
func (s *Server) edit(ctx context.Context, id string, fn func(*document.Document) error) error {
	sess, err := s.svc.Open(ctx, id)
	if err != nil {
		return err
	}
	if err := sess.Do(fn); err != nil {
		return err
	}
	_, err = s.svc.Save(ctx, id, "")
	return err
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, _, err := s.svc.List(ctx, 0, 0, optional(req, "tag"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText("no documents"), nil
	}
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, fmt.Sprintf("%s\t%s\t%s", row.ID, row.Shape, row.Name))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sess, err := s.svc.Open(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return jsonResult(sess.Detail()), nil
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) createDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.svc.Create(ctx, optional(req, "name"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", sess.ID())), nil
}

func (s *Server) setPlainText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.edit(ctx, id, func(d *document.Document) error { return d.SetPlainText(text) }); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated: %s", id)), nil
}

func (s *Server) addOutlineNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var patch document.OutlinePatch
	if v := optional(req, "title"); v != "" {
		patch.Title = &v
	}
	if v := optional(req, "body"); v != "" {
		patch.Body = &v
	}

	var node document.OutlineNode
	err = s.edit(ctx, id, func(d *document.Document) error {
		n, err := d.AddOutlineNode(optional(req, "parent_id"))
		if err != nil {
			return err
		}
		node = n
		if patch.Title == nil && patch.Body == nil {
			return nil
		}
		node, err = d.UpdateOutlineNode(n.ID, patch)
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(node), nil
}

func fragmentPatch(req mcp.CallToolRequest) document.FragmentPatch {
	var patch document.FragmentPatch
	if v := optional(req, "name"); v != "" {
		patch.Name = &v
	}
	if v := optional(req, "body"); v != "" {
		patch.Body = &v
	}
	return patch
}

func (s *Server) addFragment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	patch := fragmentPatch(req)

	var frag document.Fragment
	err = s.edit(ctx, id, func(d *document.Document) error {
		f, err := d.AddFragment()
		if err != nil {
			return err
		}
		frag = f
		if patch.Name == nil && patch.Body == nil {
			return nil
		}
		frag, err = d.UpdateFragment(f.ID, patch)
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(frag), nil
}

func (s *Server) addLaneFragment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	laneID, err := req.RequireString("lane_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	patch := fragmentPatch(req)

	var frag document.Fragment
	err = s.edit(ctx, id, func(d *document.Document) error {
		f, err := d.AddFragmentToLane(laneID)
		if err != nil {
			return err
		}
		frag = f
		if patch.Name == nil && patch.Body == nil {
			return nil
		}
		frag, err = d.UpdateLaneFragment(laneID, f.ID, patch)
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(frag), nil
}

func (s *Server) getDocumentContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DocumentFormatContract), nil
}

func (s *Server) readContractResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     DocumentFormatContract,
		},
	}, nil
}
