package server

import (
	"net/http"
	"strings"
	"testing"

	"github.com/lazypower/recollect/internal/store"
)

func addMemory(t *testing.T, srv *Server, category string, sig int, title, content string) store.Memory {
	t.Helper()
	w := do(t, srv, "POST", "/api/memories", map[string]any{
		"title":        title,
		"content":      content,
		"category":     category,
		"significance": sig,
		"tags":         []string{"go"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("add status = %d; body: %s", w.Code, w.Body.String())
	}
	var m store.Memory
	decode(t, w, &m)
	return m
}

func TestAddAndGetMemory(t *testing.T) {
	srv := testServer(t)

	m := addMemory(t, srv, "knowledge", 5, "Build tags", "use go build -tags sqlite")
	if m.ID == "" {
		t.Fatal("empty id")
	}
	if m.Source != "manual" {
		t.Errorf("source = %q, want manual", m.Source)
	}
	if m.RecallStrength != 1 {
		t.Errorf("recall_strength = %v, want 1", m.RecallStrength)
	}

	w := do(t, srv, "GET", "/api/memories/"+m.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d; body: %s", w.Code, w.Body.String())
	}
	var got store.Memory
	decode(t, w, &got)
	if got.Title != "Build tags" || got.Category != store.CategoryKnowledge {
		t.Errorf("got %+v", got)
	}
}

func TestSearchMemories(t *testing.T) {
	srv := testServer(t)

	addMemory(t, srv, "decision", 5, "Use sqlite", "embedded database for storage")
	addMemory(t, srv, "knowledge", 3, "Deploy steps", "run the sqlite migration first")
	addMemory(t, srv, "knowledge", 3, "Unrelated", "nothing to see")

	w := do(t, srv, "GET", "/api/memories/search?q=sqlite&limit=5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Query string `json:"query"`
		Hits  []struct {
			Memory store.Memory `json:"memory"`
			Score  float64      `json:"score"`
		} `json:"hits"`
	}
	decode(t, w, &resp)

	if len(resp.Hits) != 2 {
		t.Fatalf("hits = %d, want 2", len(resp.Hits))
	}
	if resp.Hits[0].Memory.Title != "Use sqlite" {
		t.Errorf("first hit = %q, want title match first", resp.Hits[0].Memory.Title)
	}
	if resp.Hits[0].Score <= resp.Hits[1].Score {
		t.Errorf("scores not descending: %v, %v", resp.Hits[0].Score, resp.Hits[1].Score)
	}
}

func TestSearchRejectsBadMinStrength(t *testing.T) {
	srv := testServer(t)

	for _, q := range []string{"min_strength=abc", "min_strength=1.5"} {
		w := do(t, srv, "GET", "/api/memories/search?q=x&"+q, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, w.Code)
		}
	}
}

func TestDecayAndPrune(t *testing.T) {
	srv := testServer(t)

	addMemory(t, srv, "session", 1, "Old session", "worked on the parser")
	addMemory(t, srv, "knowledge", 1, "Pinned", "never fades")

	w := do(t, srv, "POST", "/api/decay", map[string]string{"now": "2026-06-01T12:00:00Z"})
	if w.Code != http.StatusOK {
		t.Fatalf("decay status = %d; body: %s", w.Code, w.Body.String())
	}
	var res store.DecayResult
	decode(t, w, &res)
	if res.Clear != 1 || res.Fading != 1 {
		t.Errorf("decay result = %+v, want 1 clear and 1 fading", res)
	}

	w = do(t, srv, "POST", "/api/prune", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("prune status = %d; body: %s", w.Code, w.Body.String())
	}
	var pr map[string]int
	decode(t, w, &pr)
	if pr["pruned"] != 1 {
		t.Errorf("pruned = %d, want 1", pr["pruned"])
	}
}

func TestDecayWithoutBody(t *testing.T) {
	srv := testServer(t)

	w := do(t, srv, "POST", "/api/decay", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}
}

func TestDecayRejectsBadTime(t *testing.T) {
	srv := testServer(t)

	w := do(t, srv, "POST", "/api/decay", map[string]string{"now": "yesterday"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestExportAndStats(t *testing.T) {
	srv := testServer(t)

	addMemory(t, srv, "decision", 4, "Pick chi", "router for the api")

	w := do(t, srv, "GET", "/api/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content-type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "Pick chi") {
		t.Errorf("export missing memory:\n%s", w.Body.String())
	}

	w = do(t, srv, "GET", "/api/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d", w.Code)
	}
	var st store.Stats
	decode(t, w, &st)
	if st.Total != 1 || st.Clear != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestSaveAndListSessions(t *testing.T) {
	srv := testServer(t)

	w := do(t, srv, "POST", "/api/sessions", map[string]any{
		"summary":       "refactored the store",
		"project":       "recollect",
		"files_changed": []string{"internal/store/db.go", ""},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("save status = %d; body: %s", w.Code, w.Body.String())
	}
	var res store.SaveResult
	decode(t, w, &res)
	if res.Session == nil || len(res.Session.FilesChanged) != 1 {
		t.Fatalf("save result = %+v", res)
	}

	w = do(t, srv, "GET", "/api/sessions", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var list struct {
		Sessions []store.Session `json:"sessions"`
	}
	decode(t, w, &list)
	if len(list.Sessions) != 1 || list.Sessions[0].Summary != "refactored the store" {
		t.Errorf("sessions = %+v", list.Sessions)
	}
}

func TestSaveSessionRequiresSummary(t *testing.T) {
	srv := testServer(t)

	w := do(t, srv, "POST", "/api/sessions", map[string]any{"project": "recollect"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestListSessionsEmpty(t *testing.T) {
	srv := testServer(t)

	w := do(t, srv, "GET", "/api/sessions", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"sessions":[]`) {
		t.Errorf("body = %s, want empty array", w.Body.String())
	}
}
