package models

import "time"

// SiteWriterConfig is the per-site writer sub-object from spec §3:
// vendor credentials and channel behavior flags.
type SiteWriterConfig struct {
	Provider      string  `json:"provider,omitempty"`
	Model         string  `json:"model,omitempty"`
	APIKey        string  `json:"api_key,omitempty"`
	BaseURL       string  `json:"base_url,omitempty"`
	Temperature   float32 `json:"temperature,omitempty"`
	MaxTokens     int     `json:"max_tokens,omitempty"`
	Enabled       bool    `json:"enabled"`
	UseCompressor bool    `json:"use_compressor,omitempty"`
}

// SiteConfig describes one publication destination: where its output lives,
// what voice the writer should use, and which collectors feed it.
type SiteConfig struct {
	Name        string           `json:"name"`
	Slug        string           `json:"slug"`
	OutputRoot  string           `json:"output_root"`
	Voice       string           `json:"voice"`
	Categories  []string         `json:"categories,omitempty"`
	FeedURLs    []string         `json:"feed_urls,omitempty"`
	HTMLSeeds   []string         `json:"html_seeds,omitempty"`
	Writer      SiteWriterConfig `json:"writer"`
	Enabled     bool             `json:"enabled"`
	MaxPerCycle int              `json:"max_per_cycle,omitempty"`
}

// SystemConfig is the full contents of system_config.json.
type SystemConfig struct {
	Sites         []SiteConfig `json:"sites"`
	LoopIntervalS int          `json:"loop_interval_seconds"`
	OllamaBaseURL string       `json:"llm_base_url,omitempty"`
	OllamaModel   string       `json:"llm_model,omitempty"`
	JSRenderCmd   string       `json:"js_render_cmd,omitempty"`
	UserAgent     string       `json:"user_agent,omitempty"`
}

// DefaultSystemConfig returns the skeleton config written on first run when
// system_config.json does not yet exist: two sites enabled, their writers
// disabled, per §4.A, so a fresh workspace can collect without accidentally
// burning LLM credits until an operator supplies credentials.
func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		Sites: []SiteConfig{
			{Name: "technology", Slug: "technology", OutputRoot: "technology", Voice: "neutral technology desk", Enabled: true, Writer: SiteWriterConfig{Enabled: false}},
			{Name: "robotics", Slug: "robotics", OutputRoot: "robotics", Voice: "robotics beat reporter", Enabled: true, Writer: SiteWriterConfig{Enabled: false}},
		},
		LoopIntervalS: 900,
		OllamaModel:   "gpt-4o-mini",
		UserAgent:     "autopress/1.0 (+content pipeline)",
	}
}

// LoopStats is the contents of loop_stats.json: a running record of pipeline
// cycle activity, consumed by the HTTP control plane's /loop/stats.
type LoopStats struct {
	LastCycleStart *time.Time `json:"last_cycle_start,omitempty"`
	LastCycleEnd   *time.Time `json:"last_cycle_end,omitempty"`
	CyclesRun      int        `json:"cycles_run"`
	Collected      int        `json:"collected_total"`
	Filtered       int        `json:"filtered_total"`
	Rejected       int        `json:"rejected_total"`
	Published      int        `json:"published_total"`
	TokensPrompt   int        `json:"tokens_prompt_total"`
	TokensComplete int        `json:"tokens_completion_total"`
	Errors         []string   `json:"recent_errors,omitempty"`
}

// NewLoopStats returns a zeroed stats document.
func NewLoopStats() *LoopStats {
	return &LoopStats{Errors: []string{}}
}
