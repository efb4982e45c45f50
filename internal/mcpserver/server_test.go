package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/knt/internal/noteservice"
	"github.com/starford/knt/internal/storage"
	"github.com/starford/knt/internal/testutil"
)

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()
	dir, store := testutil.TestLibrary(t)
	db := testutil.TestDB(t)
	testutil.WriteFile(t, dir, "sample.knt", testutil.SampleNote)

	svc := noteservice.NewService(store, db)
	if err := svc.IndexFile("sample.knt", []byte(testutil.SampleNote)); err != nil {
		t.Fatalf("IndexFile: %v", err)
	}
	return New(svc, store, "test"), store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"search_notes":        srv.searchNotes,
		"list_files":          srv.listFiles,
		"read_note":           srv.readNote,
		"get_outline":         srv.getOutline,
		"get_format_contract": srv.getFormatContract,
		"import_note_file":    srv.importNoteFile,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := h(ctx, req)
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

func decodeResult(t *testing.T, r *mcp.CallToolResult, v any) {
	t.Helper()
	if r.IsError {
		t.Fatalf("tool error: %s", resultText(r))
	}
	if err := json.Unmarshal([]byte(resultText(r)), v); err != nil {
		t.Fatalf("decode %q: %v", resultText(r), err)
	}
}

func TestSearchNotes(t *testing.T) {
	srv, _ := testServer(t)
	var hits []struct {
		Path   string `json:"path"`
		NoteID int    `json:"note_id"`
		Name   string `json:"name"`
	}
	decodeResult(t, callTool(t, srv, "search_notes", map[string]any{"query": "seeds"}), &hits)
	if len(hits) != 1 || hits[0].Name != "Seeds" || hits[0].NoteID != 2 {
		t.Errorf("hits = %+v", hits)
	}

	if r := callTool(t, srv, "search_notes", map[string]any{}); !r.IsError {
		t.Error("expected error without query")
	}
}

func TestListFiles(t *testing.T) {
	srv, _ := testServer(t)
	var files []struct {
		Path      string `json:"path"`
		NoteCount int    `json:"note_count"`
	}
	decodeResult(t, callTool(t, srv, "list_files", map[string]any{}), &files)
	if len(files) != 1 || files[0].Path != "sample.knt" || files[0].NoteCount != 2 {
		t.Errorf("files = %+v", files)
	}
}

func TestReadNote(t *testing.T) {
	srv, _ := testServer(t)

	var doc noteservice.DocumentDetail
	decodeResult(t, callTool(t, srv, "read_note", map[string]any{"path": "sample.knt"}), &doc)
	if len(doc.Notes) != 2 {
		t.Errorf("document = %+v", doc)
	}

	var note noteservice.NoteDetail
	decodeResult(t, callTool(t, srv, "read_note", map[string]any{"path": "sample.knt", "id": 1}), &note)
	if note.Name != "Inbox" || len(note.Sections) != 1 || note.Sections[0].Text != "buy milk" {
		t.Errorf("note = %+v", note)
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _ := testServer(t)
	if r := callTool(t, srv, "read_note", map[string]any{"path": "nope.knt"}); !r.IsError {
		t.Error("expected error for missing file")
	}
	if r := callTool(t, srv, "read_note", map[string]any{"path": "sample.knt", "id": 42}); !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestReadNoteEncrypted(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("secret.knt", []byte("GFKNE 2.0\n"+strings.Repeat("z", 32)))
	r := callTool(t, srv, "read_note", map[string]any{"path": "secret.knt"})
	if !r.IsError || !strings.Contains(resultText(r), "encrypted") {
		t.Errorf("result = %q", resultText(r))
	}
}

func TestGetOutline(t *testing.T) {
	srv, _ := testServer(t)
	var notes []noteservice.OutlineNote
	decodeResult(t, callTool(t, srv, "get_outline", map[string]any{"path": "sample.knt"}), &notes)
	if len(notes) != 2 || len(notes[1].Nodes) != 1 || notes[1].Nodes[0].Name != "Garden" {
		t.Errorf("outline = %+v", notes)
	}
}

func TestFormatContract(t *testing.T) {
	srv, _ := testServer(t)
	text := resultText(callTool(t, srv, "get_format_contract", nil))
	for _, want := range []string{"GFKNT", "#!BeginNode!#", "%%"} {
		if !strings.Contains(text, want) {
			t.Errorf("contract missing %q", want)
		}
	}

	contents, err := srv.readFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("resource = %v, %v", contents, err)
	}
	if tc, ok := contents[0].(mcp.TextResourceContents); !ok || tc.URI != "knt://format" {
		t.Errorf("resource = %+v", contents[0])
	}
}

func dataURI(s string) string {
	return "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString([]byte(s))
}

func TestImportNoteFile(t *testing.T) {
	srv, store := testServer(t)
	content := "GFKNT 2.0\n%-\nTT=Imported\n%:\nbrand new words\n%%\n"

	var res importResult
	decodeResult(t, callTool(t, srv, "import_note_file", map[string]any{
		"url":      dataURI(content),
		"filename": "../../evil name.txt",
	}), &res)
	if res.SavedPath != "imports/evil_name.knt" || res.Format != "keynote" {
		t.Errorf("result = %+v", res)
	}
	data, err := store.Read(res.SavedPath)
	if err != nil || string(data) != content {
		t.Fatalf("saved file = %q, %v", data, err)
	}

	var hits []struct {
		Path string `json:"path"`
	}
	decodeResult(t, callTool(t, srv, "search_notes", map[string]any{"query": "brand"}), &hits)
	if len(hits) != 1 || hits[0].Path != res.SavedPath {
		t.Errorf("imported file not indexed: %+v", hits)
	}

	// Same name again is refused.
	r := callTool(t, srv, "import_note_file", map[string]any{"url": dataURI(content), "filename": "evil name"})
	if !r.IsError {
		t.Error("expected error for existing file")
	}
}

func TestImportNoteFile_UUIDName(t *testing.T) {
	srv, _ := testServer(t)
	var res importResult
	decodeResult(t, callTool(t, srv, "import_note_file", map[string]any{
		"url":    dataURI("GFKNT 2.0\n%%\n"),
		"folder": "inbox/",
	}), &res)
	if !strings.HasPrefix(res.SavedPath, "inbox/") || !strings.HasSuffix(res.SavedPath, ".knt") || len(res.SavedPath) != len("inbox/")+36+4 {
		t.Errorf("saved path = %q", res.SavedPath)
	}
}

func TestImportNoteFile_Rejects(t *testing.T) {
	srv, _ := testServer(t)
	cases := map[string]string{
		"not a note":     dataURI("just some text"),
		"not base64":     "data:text/plain,GFKNT 2.0",
		"no comma":       "data:abc",
		"bad scheme":     "ftp://example.com/a.knt",
		"loopback":       "http://127.0.0.1/a.knt",
		"cloud metadata": "http://169.254.169.254/latest",
	}
	for name, u := range cases {
		if r := callTool(t, srv, "import_note_file", map[string]any{"url": u}); !r.IsError {
			t.Errorf("%s: expected error, got %q", name, resultText(r))
		}
	}
}
