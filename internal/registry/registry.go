// Package registry implements the article registry described in §4.B: a
// single JSON document tracking every article the pipeline has ever seen,
// keyed by ID, guarded by a mutex so concurrent collectors and the HTTP
// control plane never race on the same document.
package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/geraldfingburke/autopress/internal/atomicfile"
	"github.com/geraldfingburke/autopress/internal/models"
)

// Registry is the in-memory, mutex-guarded view of articles_registry.json.
// All reads and writes to the underlying file go through here; nothing
// else in the pipeline opens the registry file directly.
type Registry struct {
	path string
	mu   sync.RWMutex
	doc  *models.Registry
}

// Load opens the registry file at path, running the self-repair chain
// described in §4.B if the document is malformed. A missing file is not an
// error: it is treated as an empty registry that will be created on first
// save.
func Load(path string) (*Registry, error) {
	doc, repaired, err := loadWithRepair(path)
	if err != nil {
		return nil, err
	}
	r := &Registry{path: path, doc: doc}
	if repaired {
		if err := r.save(); err != nil {
			return nil, fmt.Errorf("registry: persist repaired document: %w", err)
		}
	}
	return r, nil
}

func (r *Registry) save() error {
	return atomicfile.WriteJSON(r.path, r.doc)
}

// IsRegistered reports whether id already has an entry, regardless of
// status.
func (r *Registry) IsRegistered(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.doc.Articles[id]
	return ok
}

// IsPublished reports whether id's entry is in the Published status.
func (r *Registry) IsPublished(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.doc.Articles[id]
	return ok && entry.Status == models.StatusPublished
}

// Get returns a copy of the entry for id, or false if it does not exist.
func (r *Registry) Get(id string) (models.ArticleMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.doc.Articles[id]
	if !ok {
		return models.ArticleMetadata{}, false
	}
	return *entry, true
}

// GetAll returns a copy of every entry in the registry.
func (r *Registry) GetAll() []models.ArticleMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.ArticleMetadata, 0, len(r.doc.Articles))
	for _, entry := range r.doc.Articles {
		out = append(out, *entry)
	}
	return out
}

// ListByStatus returns a copy of every entry currently in the given
// status.
func (r *Registry) ListByStatus(status models.Status) []models.ArticleMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.ArticleMetadata, 0)
	for _, entry := range r.doc.Articles {
		if entry.Status == status {
			out = append(out, *entry)
		}
	}
	return out
}

// RegisterCollected inserts a new Collected entry for an article. If the ID
// is already registered, the existing entry is left unchanged and ok is
// false — callers use this to detect and skip a re-collect of the same
// source.
func (r *Registry) RegisterCollected(a models.Article) (ok bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.doc.Articles[a.ID]; exists {
		return false, nil
	}

	now := time.Now().UTC()
	r.doc.Articles[a.ID] = &models.ArticleMetadata{
		ID:            a.ID,
		Status:        models.StatusCollected,
		OriginalTitle: a.OriginalTitle,
		URL:           a.URL,
		SourceType:    a.SourceType,
		CollectorID:   a.CollectorID,
		PDFURL:        a.PDFURL,
		CollectedAt:   &now,
	}

	if err := r.save(); err != nil {
		delete(r.doc.Articles, a.ID)
		return false, fmt.Errorf("registry: register collected %s: %w", a.ID, err)
	}
	return true, nil
}

// SetDestinations records which site destinations an article was matched to
// during filtering, without changing its status.
func (r *Registry) SetDestinations(id string, destinations []string) error {
	return r.mutate(id, func(entry *models.ArticleMetadata) {
		entry.Destinations = destinations
	})
}

// RegisterFiltered transitions an entry from Collected to Filtered,
// recording the filter score and assigned category.
func (r *Registry) RegisterFiltered(id string, score float64, category string) error {
	now := time.Now().UTC()
	return r.mutate(id, func(entry *models.ArticleMetadata) {
		entry.Status = models.StatusFiltered
		entry.FilterScore = score
		entry.Category = category
		entry.FilteredAt = &now
	})
}

// RegisterRejected transitions an entry to the terminal Rejected status,
// recording the score that drove the rejection alongside the reason.
func (r *Registry) RegisterRejected(id string, score float64, reason string) error {
	now := time.Now().UTC()
	return r.mutate(id, func(entry *models.ArticleMetadata) {
		entry.Status = models.StatusRejected
		entry.FilterScore = score
		entry.RejectionReason = reason
		entry.RejectedAt = &now
	})
}

// RegisterPublished transitions an entry to Published, recording where it
// was written, what title the writer produced, and the slug it resolved to
// (empty for scholarly publications, which have no slug.txt).
func (r *Registry) RegisterPublished(id, outputDir, generatedTitle, slug string, tokens models.Tokens) error {
	now := time.Now().UTC()
	return r.mutate(id, func(entry *models.ArticleMetadata) {
		entry.Status = models.StatusPublished
		entry.OutputDir = outputDir
		entry.GeneratedTitle = generatedTitle
		if slug != "" {
			entry.Slug = slug
		}
		entry.PublishedAt = &now
		entry.Tokens.Prompt += tokens.Prompt
		entry.Tokens.Completion += tokens.Completion
	})
}

// MarkVerified records that the reconciler confirmed output_dir and its
// required files exist on disk.
func (r *Registry) MarkVerified(id string) error {
	return r.mutate(id, func(entry *models.ArticleMetadata) {
		entry.Verified = true
	})
}

// SetCategory overwrites an entry's category outside the normal
// Collected->Filtered transition, used by the recategorize pass when a
// published article's category was assigned before a detection rule
// existed or changed.
func (r *Registry) SetCategory(id string, category string) error {
	return r.mutate(id, func(entry *models.ArticleMetadata) {
		entry.Category = category
	})
}

// SetOutputDir overwrites an entry's recorded output_dir, used when the
// reconcile-names pass renames a published article's folder to match a
// corrected category or slug.
func (r *Registry) SetOutputDir(id string, outputDir string) error {
	return r.mutate(id, func(entry *models.ArticleMetadata) {
		entry.OutputDir = outputDir
	})
}

// SetHidden toggles whether a published article is hidden from public
// listing without removing it from the registry.
func (r *Registry) SetHidden(id string, hidden bool) error {
	return r.mutate(id, func(entry *models.ArticleMetadata) {
		entry.Hidden = hidden
	})
}

// SetFeatured toggles whether an article is promoted into
// promo_articles.json on the next reconcile pass.
func (r *Registry) SetFeatured(id string, featured bool) error {
	return r.mutate(id, func(entry *models.ArticleMetadata) {
		entry.Featured = featured
	})
}

// SetLastError records the most recent processing error for an entry, used
// to surface persistent failures without changing its lifecycle status.
func (r *Registry) SetLastError(id string, errMsg string) error {
	return r.mutate(id, func(entry *models.ArticleMetadata) {
		entry.LastError = errMsg
	})
}

// MutateBatch holds the write lock across the entire callback and persists
// exactly once when it returns, for callers like the reconciler that need
// to apply many small mutations as one logical unit (§4.N: "persist
// registry once at the end of the batch") instead of one save per article.
func (r *Registry) MutateBatch(fn func(doc *models.Registry)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fn(r.doc)

	if err := r.save(); err != nil {
		return fmt.Errorf("registry: batch save: %w", err)
	}
	return nil
}

// Remove deletes an entry entirely, so a later collection run can register
// and process the article again.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.doc.Articles[id]
	if !ok {
		return nil
	}
	delete(r.doc.Articles, id)
	if err := r.save(); err != nil {
		r.doc.Articles[id] = entry
		return fmt.Errorf("registry: remove %s: %w", id, err)
	}
	return nil
}

// mutate applies fn to the entry for id under the write lock and persists
// the result. A missing id is an error: every mutator above is only called
// on entries that RegisterCollected already created.
func (r *Registry) mutate(id string, fn func(*models.ArticleMetadata)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.doc.Articles[id]
	if !ok {
		return fmt.Errorf("registry: no entry for id %s", id)
	}

	before := *entry
	fn(entry)

	if err := r.save(); err != nil {
		*entry = before
		log.Error().Err(err).Str("id", id).Msg("registry save failed, entry rolled back")
		return fmt.Errorf("registry: save after mutating %s: %w", id, err)
	}
	return nil
}
