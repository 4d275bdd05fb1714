// Package orchestrator implements the Writer Orchestrator (§4.K) and the
// Scholarly Writer (§4.L): the per-article, per-destination pipeline that
// turns a staged ArticleMetadata (or a PDF, for scholarly sources) into
// published output files and a registry update.
//
// It generalizes the teacher's scheduler.Service — a ticker firing a
// per-config goroutine wrapped in a timeout context — into a per-article,
// per-destination write loop. Per-destination fan-out uses plain
// goroutines with a completion channel rather than
// golang.org/x/sync/errgroup: per-site failures must isolate (a failure
// writing to one site must not cancel an in-flight write to another),
// which is the opposite of errgroup's Wait() first-error-cancels-context
// semantics.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/geraldfingburke/autopress/internal/category"
	"github.com/geraldfingburke/autopress/internal/models"
	"github.com/geraldfingburke/autopress/internal/prompt"
	"github.com/geraldfingburke/autopress/internal/publish"
	"github.com/geraldfingburke/autopress/internal/registry"
	"github.com/geraldfingburke/autopress/internal/writerclient"
)

// Destination is the resolved writer configuration for one site, built
// from site configuration per the DESIGN NOTES' "explicit SiteContext"
// guidance: never derive "which site" from ambient state.
type Destination struct {
	SiteID              string
	DisplayName         string
	BaseOutputDir       string
	Writer              writerclient.Config
	ArticleTemplates    []string
	SocialTemplates     []string
	CustomArticlePrompt prompt.SiteChannelConfig
	CustomSocialPrompt  prompt.SiteChannelConfig
	UseCompressor       bool
}

// Orchestrator wires together the registry, writer client, and publication
// layout for the web-article path (§4.K).
type Orchestrator struct {
	Registry      *registry.Registry
	WriterClient  *writerclient.Client
	WorkspaceRoot string
}

// New builds an Orchestrator.
func New(reg *registry.Registry, client *writerclient.Client, workspaceRoot string) *Orchestrator {
	return &Orchestrator{Registry: reg, WriterClient: client, WorkspaceRoot: workspaceRoot}
}

// PerSiteResult is what each destination's write attempt yields; a batch
// of these is how per-site isolation is surfaced to the caller.
type PerSiteResult struct {
	SiteID  string
	Err     error
	Skipped bool
	Tokens  models.Tokens
}

// ProcessArticle runs §4.K steps 2 and 4 over a staged article for a resolved
// set of destinations. Step 1 (collection-date derivation) and step 3
// (destination resolution against site config) are the caller's
// responsibility — they depend on filesystem path parsing and site config
// lookups the orchestrator itself is deliberately decoupled from, per the
// DESIGN NOTES' explicit-context guidance.
func (o *Orchestrator) ProcessArticle(ctx context.Context, article models.Article, collectionDate string, destinations []Destination) []PerSiteResult {
	if !o.Registry.IsRegistered(article.ID) {
		if _, err := o.Registry.RegisterCollected(article); err != nil {
			log.Error().Err(err).Str("id", article.ID).Msg("orchestrator: self-heal register_collected failed")
		}
	}

	results := make([]PerSiteResult, len(destinations))
	done := make(chan struct{})
	for i, dest := range destinations {
		go func(i int, dest Destination) {
			defer func() { done <- struct{}{} }()
			results[i] = o.writeToDestination(ctx, article, collectionDate, dest)
		}(i, dest)
	}
	for range destinations {
		<-done
	}
	return results
}

func (o *Orchestrator) writeToDestination(ctx context.Context, article models.Article, collectionDate string, dest Destination) PerSiteResult {
	sourceCategory := category.Detect(article.URL, article.OriginalTitle)
	targetDir := filepath.Join(dest.BaseOutputDir, publish.FolderName(collectionDate, sourceCategory, article.ID))

	if publish.IsComplete(targetDir) {
		if err := o.backfillGeneratedTitleIfMissing(article.ID, targetDir); err != nil {
			log.Warn().Err(err).Str("id", article.ID).Msg("orchestrator: idempotent skip, title backfill failed")
		}
		return PerSiteResult{SiteID: dest.SiteID, Skipped: true}
	}

	sourceText := article.ContentText
	if sourceText == "" {
		sourceText = article.ContentHTML
	}
	if sourceText == "" {
		sourceText = article.Summary
	}
	if len(sourceText) < 100 {
		log.Warn().Str("id", article.ID).Str("site", dest.SiteID).Msg("orchestrator: source text under 100 chars, proceeding anyway")
	}

	promptText := prompt.Assemble(dest.CustomArticlePrompt, dest.ArticleTemplates, prompt.ChannelArticle, sourceText)
	var tokens models.Tokens
	if dest.UseCompressor {
		compression := prompt.Compress(promptText, prompt.ChannelArticle)
		promptText = compression.Text
	}
	promptText = prompt.AppendSourceVerification(promptText, article.URL)

	articleResp, articleTokens, err := o.WriterClient.GenerateArticle(ctx, dest.Writer, "article", promptText)
	if err != nil {
		o.recordError(article.ID, err)
		return PerSiteResult{SiteID: dest.SiteID, Err: fmt.Errorf("orchestrator: writer call for %s failed: %w", dest.SiteID, err)}
	}
	tokens.Prompt += articleTokens.Prompt
	tokens.Completion += articleTokens.Completion

	linkedIn, xPost, shorts := articleResp.LinkedInPost, articleResp.XPost, articleResp.ShortsScript
	if !articleResp.HasSocialFields() {
		socialPrompt := prompt.Assemble(dest.CustomSocialPrompt, dest.SocialTemplates, prompt.ChannelSocial, articleResp.ArticleText)
		socialResp, socialTokens, err := o.WriterClient.GenerateSocial(ctx, dest.Writer, socialPrompt)
		if err != nil {
			o.recordError(article.ID, err)
			return PerSiteResult{SiteID: dest.SiteID, Err: fmt.Errorf("orchestrator: social fallback for %s failed: %w", dest.SiteID, err)}
		}
		linkedIn, xPost, shorts = socialResp.LinkedInPost, socialResp.XPost, socialResp.ShortsScript
		tokens.Prompt += socialTokens.Prompt
		tokens.Completion += socialTokens.Completion
	}

	slugCandidate := publish.Slugify(articleResp.Title, article.ID)
	slug, err := publish.UniqueSlug(dest.BaseOutputDir, slugCandidate)
	if err != nil {
		o.recordError(article.ID, err)
		return PerSiteResult{SiteID: dest.SiteID, Err: fmt.Errorf("orchestrator: slug resolution for %s failed: %w", dest.SiteID, err)}
	}

	imageCategories := sanitizeImageCategories(articleResp.ImageCategories)

	if !publish.ValidateUnderRoot(dest.BaseOutputDir, targetDir) {
		return PerSiteResult{SiteID: dest.SiteID, Err: fmt.Errorf("orchestrator: target dir %s escapes site base %s, refusing to write", targetDir, dest.BaseOutputDir)}
	}

	if err := publish.Write(targetDir, publish.ArticleContent{
		Title:           articleResp.Title,
		Subtitle:        articleResp.Subtitle,
		ArticleMarkdown: articleResp.ArticleText,
		ImageCategories: imageCategories,
		SourceCategory:  sourceCategory,
		Slug:            slug,
		XPost:           xPost,
		LinkedInPost:    linkedIn,
		ShortsScript:    shorts,
	}); err != nil {
		o.recordError(article.ID, err)
		return PerSiteResult{SiteID: dest.SiteID, Err: fmt.Errorf("orchestrator: write output for %s failed: %w", dest.SiteID, err)}
	}

	relOutputDir := publish.NormalizeOutputDir(o.WorkspaceRoot, targetDir)
	if err := o.Registry.RegisterPublished(article.ID, relOutputDir, articleResp.Title, slug, tokens); err != nil {
		return PerSiteResult{SiteID: dest.SiteID, Err: fmt.Errorf("orchestrator: registry update for %s failed: %w", dest.SiteID, err)}
	}

	return PerSiteResult{SiteID: dest.SiteID, Tokens: tokens}
}

func (o *Orchestrator) recordError(id string, err error) {
	if setErr := o.Registry.SetLastError(id, err.Error()); setErr != nil {
		log.Error().Err(setErr).Str("id", id).Msg("orchestrator: failed to record last_error")
	}
}

func (o *Orchestrator) backfillGeneratedTitleIfMissing(id, dir string) error {
	entry, ok := o.Registry.Get(id)
	if !ok || entry.GeneratedTitle != "" {
		return nil
	}
	title, err := readTitleFile(dir)
	if err != nil || title == "" {
		return nil
	}
	return o.Registry.RegisterPublished(id, entry.OutputDir, title, entry.Slug, models.Tokens{})
}

// imageCategoryClosedSet is the exact 14-tag closed set from spec §6.
var imageCategoryClosedSet = map[string]struct{}{
	"ai": {}, "coding": {}, "crypto": {}, "data": {}, "ethics": {}, "games": {},
	"hardware": {}, "legal": {}, "network": {}, "quantum_computing": {},
	"robotics": {}, "science": {}, "security": {}, "sound": {},
}

// sanitizeImageCategories remaps any tag outside the closed set to "ai"
// per §6 ("consumers treat unknown tags as invalid and may remap to ai").
func sanitizeImageCategories(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		normalized := strings.ToLower(strings.TrimSpace(t))
		if _, ok := imageCategoryClosedSet[normalized]; ok {
			out = append(out, normalized)
		} else {
			out = append(out, "ai")
		}
	}
	return out
}

func readTitleFile(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "title.txt"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// CollectionDateFromPath implements §4.K step 1: take YYYY-MM-DD from the
// name of the directory holding the staged input file, falling back to the
// name of that directory's parent, falling back to the current UTC date.
func CollectionDateFromPath(stagedPath string) string {
	dir := filepath.Dir(stagedPath)
	base := filepath.Base(dir)
	if looksLikeDate(base) {
		return base
	}
	parent := filepath.Base(filepath.Dir(dir))
	if looksLikeDate(parent) {
		return parent
	}
	return time.Now().UTC().Format("2006-01-02")
}

func looksLikeDate(s string) bool {
	if len(s) != 10 {
		return false
	}
	return s[4] == '-' && s[7] == '-'
}
