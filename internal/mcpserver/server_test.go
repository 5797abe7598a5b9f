package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/promptdesk/internal/document"
	"github.com/starford/promptdesk/internal/editor"
	"github.com/starford/promptdesk/internal/testutil"
	"github.com/starford/promptdesk/internal/workspace"
)

func testServer(t *testing.T) (*Server, *editor.Service) {
	t.Helper()
	store, codec := testutil.TestStore(t)
	svc := editor.NewService(store, testutil.TestDB(t), codec, editor.WithLogger(testutil.Logger()))
	t.Cleanup(svc.Close)
	return New(svc), svc
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so handlers are invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_documents":
		result, err = srv.listDocuments(ctx, req)
	case "read_document":
		result, err = srv.readDocument(ctx, req)
	case "search_documents":
		result, err = srv.searchDocuments(ctx, req)
	case "create_document":
		result, err = srv.createDocument(ctx, req)
	case "set_plain_text":
		result, err = srv.setPlainText(ctx, req)
	case "add_outline_node":
		result, err = srv.addOutlineNode(ctx, req)
	case "add_fragment":
		result, err = srv.addFragment(ctx, req)
	case "add_lane_fragment":
		result, err = srv.addLaneFragment(ctx, req)
	case "import_document":
		result, err = srv.importDocument(ctx, req)
	case "get_document_contract":
		result, err = srv.getDocumentContract(ctx, req)
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

func createDoc(t *testing.T, srv *Server, name string) string {
	t.Helper()
	r := callTool(t, srv, "create_document", map[string]interface{}{"name": name})
	text := resultText(r)
	if r.IsError || !strings.HasPrefix(text, "created: ") {
		t.Fatalf("create result = %q", text)
	}
	return strings.TrimPrefix(text, "created: ")
}

func readDoc(t *testing.T, srv *Server, id string) editor.Detail {
	t.Helper()
	r := callTool(t, srv, "read_document", map[string]interface{}{"id": id})
	if r.IsError {
		t.Fatalf("read error: %s", resultText(r))
	}
	var d editor.Detail
	if err := json.Unmarshal([]byte(resultText(r)), &d); err != nil {
		t.Fatal(err)
	}
	return d
}

func TestCreateAndReadDocument(t *testing.T) {
	srv, _ := testServer(t)
	id := createDoc(t, srv, "Triage")

	d := readDoc(t, srv, id)
	if d.ID != id || d.Name != "Triage" {
		t.Errorf("detail = %+v", d.Meta)
	}
	if len(d.Document.Lanes) != 3 {
		t.Errorf("lanes = %d, want 3", len(d.Document.Lanes))
	}
}

func TestReadDocumentMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_document", map[string]interface{}{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing document")
	}
}

func TestSetPlainTextSavesAndIndexes(t *testing.T) {
	srv, _ := testServer(t)
	id := createDoc(t, srv, "Greeter")

	r := callTool(t, srv, "set_plain_text", map[string]interface{}{
		"id":   id,
		"text": "Greet {{customer}} warmly. #onboarding",
	})
	if r.IsError {
		t.Fatalf("set_plain_text: %s", resultText(r))
	}
	if d := readDoc(t, srv, id); d.Status != "saved" || d.Document.Plain == "" {
		t.Errorf("after set = %+v", d.Meta)
	}

	r = callTool(t, srv, "search_documents", map[string]interface{}{"query": "warmly"})
	if !strings.Contains(resultText(r), id) {
		t.Errorf("search result = %q", resultText(r))
	}

	r = callTool(t, srv, "list_documents", map[string]interface{}{"tag": "onboarding"})
	if text := resultText(r); !strings.HasPrefix(text, id+"\t") {
		t.Errorf("list by tag = %q", text)
	}
}

func TestAddOutlineNode(t *testing.T) {
	srv, _ := testServer(t)
	id := createDoc(t, srv, "Outline")
	root := readDoc(t, srv, id).Document.Outline[0]

	r := callTool(t, srv, "add_outline_node", map[string]interface{}{
		"id":        id,
		"parent_id": root.ID,
		"title":     "Tone",
	})
	var node document.OutlineNode
	if err := json.Unmarshal([]byte(resultText(r)), &node); err != nil {
		t.Fatalf("decode %q: %v", resultText(r), err)
	}
	if node.ParentID != root.ID || node.Title != "Tone" {
		t.Errorf("node = %+v", node)
	}

	r = callTool(t, srv, "add_outline_node", map[string]interface{}{"id": id, "parent_id": "ghost"})
	if !r.IsError {
		t.Error("expected error for unknown parent")
	}
	if got := len(readDoc(t, srv, id).Document.Outline); got != 2 {
		t.Errorf("outline size = %d, want 2", got)
	}
}

func TestAddFragments(t *testing.T) {
	srv, _ := testServer(t)
	id := createDoc(t, srv, "Board")
	lane := readDoc(t, srv, id).Document.Lanes[1]

	r := callTool(t, srv, "add_fragment", map[string]interface{}{"id": id, "body": "Stay on topic."})
	if r.IsError {
		t.Fatalf("add_fragment: %s", resultText(r))
	}
	r = callTool(t, srv, "add_lane_fragment", map[string]interface{}{
		"id": id, "lane_id": lane.ID, "name": "Persona",
	})
	if r.IsError {
		t.Fatalf("add_lane_fragment: %s", resultText(r))
	}

	d := readDoc(t, srv, id)
	if n := len(d.Document.Fragments); n != 3 || d.Document.Fragments[2].Body != "Stay on topic." {
		t.Errorf("fragments = %+v", d.Document.Fragments)
	}
	if items := d.Document.Lanes[1].Items; len(items) != 1 || items[0].Name != "Persona" {
		t.Errorf("lane items = %+v", items)
	}

	r = callTool(t, srv, "add_lane_fragment", map[string]interface{}{"id": id, "lane_id": "ghost"})
	if !r.IsError {
		t.Error("expected error for unknown lane")
	}
}

func TestEditRejectedInViewingMode(t *testing.T) {
	srv, svc := testServer(t)
	id := createDoc(t, srv, "Frozen")
	sess, err := svc.Open(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if err := sess.Workspace().SetMode(workspace.ModeViewing); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "set_plain_text", map[string]interface{}{"id": id, "text": "x"})
	if !r.IsError {
		t.Error("expected read-only error")
	}
	if d := readDoc(t, srv, id); d.Document.Plain != "" {
		t.Errorf("plain = %q, want empty", d.Document.Plain)
	}
}

func TestImportDocumentFromDataURI(t *testing.T) {
	srv, svc := testServer(t)
	id := createDoc(t, srv, "Source")
	data, err := svc.Export(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(context.Background(), id); err != nil {
		t.Fatal(err)
	}

	uri := "data:application/yaml;base64," + base64.StdEncoding.EncodeToString(data)
	r := callTool(t, srv, "import_document", map[string]interface{}{"url": uri})
	if r.IsError {
		t.Fatalf("import: %s", resultText(r))
	}
	var res importResult
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatal(err)
	}
	if res.ID != id || res.Name != "Source" {
		t.Errorf("import result = %+v", res)
	}
}

func TestImportDocumentRejectsLoopback(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "import_document", map[string]interface{}{"url": "http://127.0.0.1/doc.yaml"})
	if !r.IsError || !strings.Contains(resultText(r), "loopback") {
		t.Errorf("result = %q", resultText(r))
	}
}

func TestDecodeDataURI_RequiresBase64(t *testing.T) {
	if _, err := decodeDataURI("data:text/plain,hello"); err == nil {
		t.Error("expected error for non-base64 data URI")
	}
}

func TestGetDocumentContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_document_contract", map[string]interface{}{})
	if !strings.Contains(resultText(r), "add_lane_fragment") {
		t.Error("contract should describe the lane tool")
	}
}
