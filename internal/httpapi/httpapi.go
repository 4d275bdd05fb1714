// Package httpapi implements the HTTP control plane from spec §6: a
// read-mostly surface for the articles a site has published, plus two
// operator toggles and the loop/health endpoints. It continues the
// teacher's cmd/main.go chi+cors wiring rather than introducing a new
// router.
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/geraldfingburke/autopress/internal/models"
	"github.com/geraldfingburke/autopress/internal/registry"
)

const defaultLimit = 20
const listCacheMaxAge = 300

// arxivIDPattern extracts an arXiv identifier embedded in a folder name,
// used to resolve :id when an operator passes a folder name instead of a
// registry key, per §6's id-resolution rule.
var arxivIDPattern = regexp.MustCompile(`(\d{4}\.\d{4,6})`)

// LoopStatusProvider supplies the running/cooldown view GET /loop/status
// reports; the pipeline's run loop implements this.
type LoopStatusProvider interface {
	Running() bool
	NextCycleAt() string
}

// Server wires the registry and loop status into a chi router.
type Server struct {
	Registry   *registry.Registry
	LoopStats  func() (*models.LoopStats, error)
	LoopStatus LoopStatusProvider
}

// New builds a Server.
func New(reg *registry.Registry, loopStats func() (*models.LoopStats, error), loopStatus LoopStatusProvider) *Server {
	return &Server{Registry: reg, LoopStats: loopStats, LoopStatus: loopStatus}
}

// Router assembles the chi router with the teacher's standard middleware
// stack (Logger, Recoverer, RequestID) and a permissive any-origin CORS
// policy suited to a read-mostly public API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/articles", s.handleListArticles)
	r.Get("/articles/{slug}", s.handleGetArticle)
	r.Post("/articles/{id}/hidden", s.handleSetHidden)
	r.Post("/articles/{id}/featured", s.handleSetFeatured)
	r.Get("/loop/stats", s.handleLoopStats)
	r.Get("/loop/status", s.handleLoopStatus)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListArticles implements GET /articles?category=&limit=&offset=:
// published, non-hidden articles sorted by published_at desc with
// featured-first tie-break, with ETag/Cache-Control support.
func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	limit := parseIntDefault(r.URL.Query().Get("limit"), defaultLimit)
	offset := parseIntDefault(r.URL.Query().Get("offset"), 0)

	entries := s.Registry.ListByStatus(models.StatusPublished)

	filtered := make([]models.ArticleMetadata, 0, len(entries))
	for _, e := range entries {
		if e.Hidden {
			continue
		}
		if category != "" && e.Category != category {
			continue
		}
		filtered = append(filtered, e)
	}

	sort.Slice(filtered, func(i, j int) bool {
		ti, tj := publishedAtUnix(filtered[i]), publishedAtUnix(filtered[j])
		if ti != tj {
			return ti > tj
		}
		return filtered[i].Featured && !filtered[j].Featured
	})

	if offset > len(filtered) {
		offset = len(filtered)
	}
	end := offset + limit
	if end > len(filtered) {
		end = len(filtered)
	}
	page := filtered[offset:end]

	etag := fmt.Sprintf(`"%d-%d-%d"`, len(filtered), offset, limit)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", fmt.Sprintf("max-age=%d", listCacheMaxAge))
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"articles": page,
		"total":    len(filtered),
		"limit":    limit,
		"offset":   offset,
	})
}

// handleGetArticle implements GET /articles/:slug: lookup by registry id,
// falling back to a scan for a matching slug.
func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	slugOrID := chi.URLParam(r, "slug")

	if entry, ok := s.Registry.Get(slugOrID); ok {
		writeJSON(w, http.StatusOK, entry)
		return
	}

	for _, entry := range s.Registry.GetAll() {
		if entry.Slug == slugOrID {
			writeJSON(w, http.StatusOK, entry)
			return
		}
	}

	writeError(w, http.StatusNotFound, "article not found")
}

func (s *Server) handleSetHidden(w http.ResponseWriter, r *http.Request) {
	s.handleToggle(w, r, s.Registry.SetHidden)
}

func (s *Server) handleSetFeatured(w http.ResponseWriter, r *http.Request) {
	s.handleToggle(w, r, s.Registry.SetFeatured)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request, apply func(id string, value bool) error) {
	rawID := chi.URLParam(r, "id")
	id := resolveID(s.Registry, rawID)

	var body struct {
		Value bool `json:"value"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	} else {
		body.Value = true
	}

	if err := apply(id, body.Value); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "value": body.Value})
}

func (s *Server) handleLoopStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.LoopStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleLoopStatus(w http.ResponseWriter, r *http.Request) {
	if s.LoopStatus == nil {
		writeJSON(w, http.StatusOK, map[string]any{"running": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"running":       s.LoopStatus.Running(),
		"next_cycle_at": s.LoopStatus.NextCycleAt(),
	})
}

// resolveID returns rawID directly if it is already a registered key;
// otherwise it tries extracting an embedded arXiv id (e.g. from a folder
// name like "2501.00001_quantum-paper"), per §6.
func resolveID(reg *registry.Registry, rawID string) string {
	if reg.IsRegistered(rawID) {
		return rawID
	}
	if match := arxivIDPattern.FindString(rawID); match != "" && reg.IsRegistered(match) {
		return match
	}
	return rawID
}

func publishedAtUnix(e models.ArticleMetadata) int64 {
	if e.PublishedAt == nil {
		return 0
	}
	return e.PublishedAt.Unix()
}

func parseIntDefault(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
