package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/FocuswithJustin/MarkdownViewer/core/blocks"
	cerrors "github.com/FocuswithJustin/MarkdownViewer/core/errors"
	"github.com/FocuswithJustin/MarkdownViewer/core/render"
	"github.com/FocuswithJustin/MarkdownViewer/core/sqlite"
	"github.com/FocuswithJustin/MarkdownViewer/internal/logging"
	"github.com/FocuswithJustin/MarkdownViewer/internal/server"
	"github.com/FocuswithJustin/MarkdownViewer/internal/store"
)

// Response headers set on render responses.
const (
	HeaderStructureCount = "X-Structure-Count"
	HeaderRenderStatus   = "X-Render-Status"
)

// defaultListLimit bounds GET /render when no limit is given.
const defaultListLimit = 50

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *APIMeta  `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

// RenderResponse is the result of rendering one drawing.
type RenderResponse struct {
	Hash       string        `json:"hash"`
	Structures int           `json:"structures"`
	Status     render.Status `json:"status"`
	SVG        string        `json:"svg"`
	Cached     bool          `json:"cached"`
	Error      string        `json:"error,omitempty"`
	CreatedAt  string        `json:"created_at,omitempty"`
}

// BlocksResponse is the result of classifying one Markdown document.
type BlocksResponse struct {
	Lines   int             `json:"lines"`
	Records []blocks.Record `json:"records"`
}

// HealthInfo is the health check response.
type HealthInfo struct {
	Status     string       `json:"status"`
	Version    string       `json:"version"`
	Uptime     string       `json:"uptime"`
	Cache      CacheHealth  `json:"cache"`
	Stored     int          `json:"stored"`
	Storage    *sqlite.Info `json:"storage,omitempty"`
	Jobs       int          `json:"jobs"`
	ActiveJobs int          `json:"active_jobs"`
	WSClients  int          `json:"ws_clients"`
}

// CacheHealth summarizes the render cache.
type CacheHealth struct {
	Entries int   `json:"entries"`
	Bytes   int64 `json:"bytes"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"name":    "Markdown Viewer API",
		"version": Version,
		"welcome": blocks.WelcomeDocument,
		"endpoints": []string{
			"GET /health",
			"GET /render",
			"POST /render",
			"GET /render/:hash",
			"DELETE /render/:hash",
			"POST /blocks",
			"POST /jobs",
			"GET /jobs/:id",
			"DELETE /jobs/:id",
			"WS /ws",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	stats := s.cache.Stats()
	info := HealthInfo{
		Status:  "healthy",
		Version: Version,
		Uptime:  time.Since(s.started).String(),
		Cache: CacheHealth{
			Entries: stats.Size,
			Bytes:   stats.TotalBytes,
			Hits:    stats.Hits,
			Misses:  stats.Misses,
		},
		Jobs:       s.jobs.Len(),
		ActiveJobs: s.jobs.Active(),
		WSClients:  s.hub.Clients(),
	}

	if s.store != nil {
		n, err := s.store.Count(r.Context())
		if err != nil {
			logging.ErrorContext(r.Context(), "failed to count stored renders", "error", err)
			info.Status = "degraded"
		}
		info.Stored = n
		driver := sqlite.GetInfo()
		info.Storage = &driver
	}

	respond(w, http.StatusOK, info)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listRendersHandler(w, r)
	case http.MethodPost:
		s.renderHandler(w, r)
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET and POST are allowed")
	}
}

func (s *Server) renderHandler(w http.ResponseWriter, r *http.Request) {
	text, ok := s.readBody(w, r, server.AllowedDrawingContentTypes)
	if !ok {
		return
	}

	res, hash, hit := s.render(r.Context(), text)

	w.Header().Set(HeaderStructureCount, strconv.Itoa(res.Structures))
	w.Header().Set(HeaderRenderStatus, string(res.Status))
	if r.URL.Query().Get("format") == "svg" {
		respondSVG(w, res.SVG)
		return
	}

	resp := RenderResponse{
		Hash:       hash,
		Structures: res.Structures,
		Status:     res.Status,
		SVG:        res.SVG,
		Cached:     hit,
	}
	if res.Err != nil {
		resp.Error = res.Err.Error()
	}
	respond(w, http.StatusOK, resp)
}

func (s *Server) listRendersHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	summaries := []store.Summary{}
	if s.store != nil {
		var err error
		summaries, err = s.store.List(r.Context(), limit)
		if err != nil {
			logging.ErrorContext(r.Context(), "failed to list renders", "error", err)
			respondError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to list renders")
			return
		}
	}

	respondWithMeta(w, http.StatusOK, summaries, len(summaries))
}

func (s *Server) handleRenderByHash(w http.ResponseWriter, r *http.Request) {
	hash := strings.TrimPrefix(r.URL.Path, "/render/")
	if hash == "" {
		respondError(w, http.StatusBadRequest, "MISSING_HASH", "Render hash is required")
		return
	}
	if !validHash(hash) {
		respondError(w, http.StatusBadRequest, "INVALID_HASH", "Render hash must be 64 hex characters")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.getRenderHandler(w, r, hash)
	case http.MethodDelete:
		s.deleteRenderHandler(w, r, hash)
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET and DELETE are allowed")
	}
}

func (s *Server) getRenderHandler(w http.ResponseWriter, r *http.Request, hash string) {
	resp, err := s.lookup(r.Context(), hash)
	if err != nil {
		if cerrors.Is(err, cerrors.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Render not found")
			return
		}
		logging.ErrorContext(r.Context(), "failed to load render", "hash", hash, "error", err)
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to load render")
		return
	}

	w.Header().Set(HeaderStructureCount, strconv.Itoa(resp.Structures))
	w.Header().Set(HeaderRenderStatus, string(resp.Status))
	if r.URL.Query().Get("format") == "svg" {
		respondSVG(w, resp.SVG)
		return
	}
	respond(w, http.StatusOK, resp)
}

// lookup finds a render in the cache, then in the store.
func (s *Server) lookup(ctx context.Context, hash string) (*RenderResponse, error) {
	if res, ok := s.cache.Get(hash); ok {
		return &RenderResponse{
			Hash:       hash,
			Structures: res.Structures,
			Status:     res.Status,
			SVG:        res.SVG,
			Cached:     true,
		}, nil
	}
	if s.store == nil {
		return nil, cerrors.NewNotFound("render", hash)
	}

	rec, err := s.store.Get(ctx, hash)
	if err != nil {
		return nil, err
	}
	s.cache.Put(hash, render.Result{SVG: rec.SVG, Structures: rec.Structures, Status: rec.Status})
	return &RenderResponse{
		Hash:       rec.Hash,
		Structures: rec.Structures,
		Status:     rec.Status,
		SVG:        rec.SVG,
		CreatedAt:  rec.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}

func (s *Server) deleteRenderHandler(w http.ResponseWriter, r *http.Request, hash string) {
	_, cached := s.cache.Get(hash)
	s.cache.Remove(hash)

	stored := false
	if s.store != nil {
		err := s.store.Delete(r.Context(), hash)
		switch {
		case err == nil:
			stored = true
		case !cerrors.Is(err, cerrors.ErrNotFound):
			logging.ErrorContext(r.Context(), "failed to delete render", "hash", hash, "error", err)
			respondError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to delete render")
			return
		}
	}

	if !cached && !stored {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Render not found")
		return
	}
	respond(w, http.StatusOK, map[string]string{"message": "Render deleted"})
}

func (s *Server) handleBlocks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return
	}

	text, ok := s.readBody(w, r, server.AllowedMarkdownContentTypes)
	if !ok {
		return
	}

	respond(w, http.StatusOK, s.classify(r.Context(), text))
}

// render runs text through the cache and persists fresh results.
func (s *Server) render(ctx context.Context, text string) (render.Result, string, bool) {
	start := time.Now()
	res, hash, hit := s.cache.Render(text)
	logging.RenderEvent(ctx, hash, string(res.Status), res.Structures, time.Since(start), "cached", hit)
	if res.Err != nil {
		logging.RenderError(ctx, hash, res.Err)
	}

	if s.store != nil && !hit {
		if err := s.store.Put(ctx, hash, res); err != nil {
			logging.ErrorContext(ctx, "failed to persist render", "hash", hash, "error", err)
		}
	}
	return res, hash, hit
}

func (s *Server) classify(ctx context.Context, text string) BlocksResponse {
	start := time.Now()
	records := blocks.Classify(text)
	lines := strings.Count(text, "\n") + 1
	logging.BlocksEvent(ctx, lines, len(records), time.Since(start))
	return BlocksResponse{Lines: lines, Records: records}
}

// readBody reads a size-limited request body, answering the request itself
// when it is refused.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request, allowed []string) (string, bool) {
	if !server.ValidateContentType(r.Header.Get("Content-Type"), allowed) {
		respondError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE",
			"Unsupported Content-Type: "+r.Header.Get("Content-Type"))
		return "", false
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if cerrors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE",
				"Request body exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes")
			return "", false
		}
		respondError(w, http.StatusBadRequest, "READ_FAILED", "Failed to read request body")
		return "", false
	}
	return string(body), true
}

func validHash(hash string) bool {
	if len(hash) != 64 || strings.ToLower(hash) != hash {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}

// previewCSP lets a raw SVG response apply its inline stylesheet.
var previewCSP = server.PreviewCSPConfig().BuildCSPHeader()

func respondSVG(w http.ResponseWriter, svg string) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Content-Security-Policy", previewCSP)
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, svg)
}

func respond(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Meta:    newMeta(0),
	})
}

func respondWithMeta(w http.ResponseWriter, status int, data any, total int) {
	writeJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Meta:    newMeta(total),
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
		Meta: newMeta(0),
	})
}

func newMeta(total int) *APIMeta {
	return &APIMeta{
		Total:     total,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, response APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}
