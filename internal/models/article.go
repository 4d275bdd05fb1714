// Package models defines the core domain types for the content pipeline.
//
// This package contains the data structures shared across every stage of the
// pipeline: the in-memory Article produced by a collector, the durable
// ArticleMetadata stored in the registry, the per-site configuration that
// governs collection and writing, and the loop statistics surfaced over
// HTTP.
package models

import "time"

// SourceType identifies which collector produced an Article.
type SourceType string

const (
	SourceRSS      SourceType = "rss"
	SourceHTML     SourceType = "html"
	SourceArxiv    SourceType = "arxiv"
	SourcePMC      SourceType = "pmc"
	SourceSemantic SourceType = "semantic"
)

// Status is an ArticleMetadata lifecycle stage. Progression is monotonic
// forward except that Rejected is terminal.
type Status string

const (
	StatusCollected Status = "Collected"
	StatusFiltered  Status = "Filtered"
	StatusRejected  Status = "Rejected"
	StatusPublished Status = "Published"
)

// Article is the canonical, in-memory representation of a piece of content
// as it flows from a collector through cleaning and into the writer.
//
// Field Descriptions mirror the registry entry created from this article
// (see ArticleMetadata): ID is stable across runs so that re-collecting the
// same source never creates a duplicate registry entry.
type Article struct {
	ID             string
	URL            string
	OriginalTitle  string
	PublishedDate  *time.Time
	Author         string
	Summary        string
	SourceType     SourceType
	ContentHTML    string
	ContentText    string
	Category       string
	Slug           string
	ImageURL       string
	PDFURL         string
	CollectorID    string
}

// MinContentChars is the acceptance threshold from spec §3/§4.E/§4.F: an
// article whose cleaned content_text is shorter than this is dropped before
// it ever reaches the registry or the writer.
const MinContentChars = 1000

// Tokens captures prompt/completion token counts from a single writer call,
// feeding loop_stats.json's tokens_total/used/saved aggregates.
type Tokens struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
}

// ArticleMetadata is the durable registry entry for an Article, keyed by ID.
// See internal/registry for the operations that mutate it.
type ArticleMetadata struct {
	ID              string     `json:"id"`
	Status          Status     `json:"status"`
	OriginalTitle   string     `json:"original_title"`
	GeneratedTitle  string     `json:"generated_title,omitempty"`
	ArxivURL        string     `json:"arxiv_url,omitempty"`
	PDFURL          string     `json:"pdf_url,omitempty"`
	URL             string     `json:"url"`
	SourceType      SourceType `json:"source_type"`
	CollectorID     string     `json:"collector_id,omitempty"`

	CollectedAt *time.Time `json:"collected_at,omitempty"`
	FilteredAt  *time.Time `json:"filtered_at,omitempty"`
	RejectedAt  *time.Time `json:"rejected_at,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`

	OutputDir    string   `json:"output_dir,omitempty"`
	Slug         string   `json:"slug,omitempty"`
	Destinations []string `json:"destinations,omitempty"`

	Hidden   bool `json:"hidden"`
	Featured bool `json:"featured"`
	Verified bool `json:"verified"`

	FilterScore      float64 `json:"filter_score,omitempty"`
	Category         string  `json:"category,omitempty"`
	RejectionReason  string  `json:"rejection_reason,omitempty"`

	LastError string `json:"last_error,omitempty"`
	Tokens    Tokens `json:"tokens,omitempty"`
}

// Registry is the on-disk document shape: a flat map keyed by article ID.
type Registry struct {
	Articles map[string]*ArticleMetadata `json:"articles"`
}

// NewRegistry returns an empty, ready-to-use registry document.
func NewRegistry() *Registry {
	return &Registry{Articles: make(map[string]*ArticleMetadata)}
}
