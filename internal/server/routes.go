package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"

	"github.com/lazypower/recollect/internal/engine"
	"github.com/lazypower/recollect/internal/errutil"
	"github.com/lazypower/recollect/internal/store"
)

// DefaultSessionLimit applies to GET /api/sessions without a limit.
const DefaultSessionLimit = 50

// maxBodyBytes bounds request bodies; a session is far smaller.
const maxBodyBytes = 1 << 20

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v); err != nil {
		return errutil.Validation("invalid json body", goerr.V("error", err.Error()))
	}
	return nil
}

type addMemoryRequest struct {
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	Category     string   `json:"category"`
	Significance int      `json:"significance"`
	Tags         []string `json:"tags"`
	Source       string   `json:"source"`
}

func (s *Server) handleAddMemory(w http.ResponseWriter, r *http.Request) {
	var req addMemoryRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	m, err := s.eng.Add(store.AddParams{
		Title:        req.Title,
		Content:      req.Content,
		Category:     req.Category,
		Significance: req.Significance,
		Tags:         req.Tags,
		Source:       req.Source,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleGetMemory(w http.ResponseWriter, r *http.Request) {
	m, err := s.eng.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := engine.RecallQuery{Query: q.Get("q")}

	if v := q.Get("min_strength"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			s.writeError(w, r, errutil.Validation("min_strength must be a number", goerr.V("min_strength", v)))
			return
		}
		query.MinStrength = f
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, r, errutil.Validation("limit must be an integer", goerr.V("limit", v)))
			return
		}
		query.Limit = n
	}

	hits, err := s.eng.Recall(query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query": query.Query,
		"hits":  hits,
	})
}

func (s *Server) handleDecay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Now string `json:"now"`
	}
	// An empty body decays at the current time.
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, r, errutil.Validation("invalid json body", goerr.V("error", err.Error())))
		return
	}

	now := s.eng.DB.Now()
	if strings.TrimSpace(req.Now) != "" {
		t, err := time.Parse(time.RFC3339, req.Now)
		if err != nil {
			s.writeError(w, r, errutil.Validation("now must be an RFC 3339 timestamp", goerr.V("now", req.Now)))
			return
		}
		now = t
	}

	res, err := s.eng.Decay(now)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePrune(w http.ResponseWriter, r *http.Request) {
	n, err := s.eng.Prune()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"pruned": n})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	text, err := s.eng.ExportText()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, text)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.eng.Stats()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type saveSessionRequest struct {
	Summary      string   `json:"summary"`
	Project      string   `json:"project"`
	FilesChanged []string `json:"files_changed"`
}

func (s *Server) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	var req saveSessionRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.eng.SaveSession(store.SaveSessionParams{
		Summary:      req.Summary,
		Project:      req.Project,
		FilesChanged: req.FilesChanged,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit := DefaultSessionLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, r, errutil.Validation("limit must be an integer", goerr.V("limit", v)))
			return
		}
		limit = n
	}

	sessions, err := s.eng.Sessions(limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []store.Session{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}
