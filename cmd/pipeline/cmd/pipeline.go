package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/geraldfingburke/autopress/internal/atomicfile"
	"github.com/geraldfingburke/autopress/internal/category"
	"github.com/geraldfingburke/autopress/internal/collector/html"
	"github.com/geraldfingburke/autopress/internal/collector/rss"
	"github.com/geraldfingburke/autopress/internal/fetch"
	"github.com/geraldfingburke/autopress/internal/models"
	"github.com/geraldfingburke/autopress/internal/orchestrator"
	"github.com/geraldfingburke/autopress/internal/pathcfg"
	"github.com/geraldfingburke/autopress/internal/prompt"
	"github.com/geraldfingburke/autopress/internal/reconcile"
	"github.com/geraldfingburke/autopress/internal/registry"
	"github.com/geraldfingburke/autopress/internal/writerclient"
)

// environment bundles the resolved workspace, loaded config, and the
// long-lived services every subcommand needs, so each command's RunE stays
// a thin wrapper over setup() + one operation.
type environment struct {
	Paths        *pathcfg.Paths
	Config       *models.SystemConfig
	Registry     *registry.Registry
	FetchClient  *fetch.Client
	Orchestrator *orchestrator.Orchestrator
}

func setup() (*environment, error) {
	paths, err := pathcfg.Resolve()
	if err != nil {
		return nil, fmt.Errorf("pipeline: resolve paths: %w", err)
	}
	if err := paths.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("pipeline: ensure workspace dirs: %w", err)
	}

	cfg, err := paths.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("pipeline: load config: %w", err)
	}

	reg, err := registry.Load(paths.RegistryFile)
	if err != nil {
		return nil, fmt.Errorf("pipeline: load registry: %w", err)
	}

	fetchClient, err := fetch.NewClient(cfg.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("pipeline: build fetch client: %w", err)
	}

	return &environment{
		Paths:        paths,
		Config:       cfg,
		Registry:     reg,
		FetchClient:  fetchClient,
		Orchestrator: orchestrator.New(reg, nil, paths.Root),
	}, nil
}

// writerClientFor builds a fresh writerclient.Client scoped to one site's
// vendor credentials, since each site may speak to a different provider.
func writerClientFor(site models.SiteConfig) *writerclient.Client {
	return writerclient.New(writerclient.Config{
		Provider:    site.Writer.Provider,
		Model:       site.Writer.Model,
		APIKey:      site.Writer.APIKey,
		BaseURL:     site.Writer.BaseURL,
		Temperature: site.Writer.Temperature,
		MaxTokens:   site.Writer.MaxTokens,
	})
}

func destinationFor(paths *pathcfg.Paths, site models.SiteConfig) orchestrator.Destination {
	return orchestrator.Destination{
		SiteID:        site.Name,
		DisplayName:   site.Name,
		BaseOutputDir: paths.SiteOutputDir(site.OutputRoot),
		Writer: writerclient.Config{
			Provider:    site.Writer.Provider,
			Model:       site.Writer.Model,
			APIKey:      site.Writer.APIKey,
			BaseURL:     site.Writer.BaseURL,
			Temperature: site.Writer.Temperature,
			MaxTokens:   site.Writer.MaxTokens,
		},
		CustomArticlePrompt: prompt.SiteChannelConfig{},
		CustomSocialPrompt:  prompt.SiteChannelConfig{},
		UseCompressor:       site.Writer.UseCompressor,
	}
}

// cycleResult tallies one run's activity for loop_stats.json.
type cycleResult struct {
	Collected int
	Filtered  int
	Rejected  int
	Published int
	Tokens    models.Tokens
	Errors    []string
}

// runOnce implements the data flow from §2: collect via RSS/HTML per
// enabled site, route by category against the site's allowlist, then hand
// accepted articles to the orchestrator for dual-phase writing.
func runOnce(ctx context.Context, env *environment) (cycleResult, error) {
	var result cycleResult

	for _, site := range env.Config.Sites {
		if !site.Enabled || !site.Writer.Enabled {
			continue
		}

		dest := destinationFor(env.Paths, site)
		writer := writerClientFor(site)
		env.Orchestrator.WriterClient = writer

		articles := collectSite(ctx, env, site)
		result.Collected += len(articles)

		for _, article := range articles {
			if env.Registry.IsRegistered(article.ID) {
				continue
			}

			detected := category.Detect(article.URL, article.OriginalTitle)
			if !categoryAllowed(site.Categories, detected) {
				if _, err := env.Registry.RegisterCollected(article); err != nil {
					log.Error().Err(err).Str("id", article.ID).Msg("pipeline: register_collected failed before reject")
					continue
				}
				if err := env.Registry.RegisterRejected(article.ID, 0, "category not in site allowlist"); err != nil {
					log.Error().Err(err).Str("id", article.ID).Msg("pipeline: register_rejected failed")
				}
				result.Rejected++
				continue
			}

			if _, err := env.Registry.RegisterCollected(article); err != nil {
				log.Error().Err(err).Str("id", article.ID).Msg("pipeline: register_collected failed")
				continue
			}
			if err := env.Registry.RegisterFiltered(article.ID, 100, detected); err != nil {
				log.Error().Err(err).Str("id", article.ID).Msg("pipeline: register_filtered failed")
				continue
			}
			if err := env.Registry.SetDestinations(article.ID, []string{site.Name}); err != nil {
				log.Error().Err(err).Str("id", article.ID).Msg("pipeline: set_destinations failed")
			}
			result.Filtered++

			collectionDate := time.Now().UTC().Format("2006-01-02")
			for _, siteResult := range env.Orchestrator.ProcessArticle(ctx, article, collectionDate, []orchestrator.Destination{dest}) {
				if siteResult.Err != nil {
					result.Errors = append(result.Errors, siteResult.Err.Error())
					continue
				}
				if !siteResult.Skipped {
					result.Published++
					result.Tokens.Prompt += siteResult.Tokens.Prompt
					result.Tokens.Completion += siteResult.Tokens.Completion
				}
			}
		}
	}

	return result, nil
}

func collectSite(ctx context.Context, env *environment, site models.SiteConfig) []models.Article {
	var articles []models.Article

	if len(site.FeedURLs) > 0 {
		collectorID := fmt.Sprintf("%s-rss", site.Name)
		rssCollector := rss.New(env.FetchClient, site.MaxPerCycle, collectorID)
		articles = append(articles, rssCollector.CollectFeeds(ctx, site.FeedURLs)...)
	}

	if len(site.HTMLSeeds) > 0 {
		collectorID := fmt.Sprintf("%s-html", site.Name)
		htmlCollector := html.New(env.FetchClient, collectorID)
		for _, seed := range site.HTMLSeeds {
			found, err := htmlCollector.CollectListing(ctx, seed, html.SiteRules{Mode: html.ModeDirectLinkSelector, MaxResults: site.MaxPerCycle})
			if err != nil {
				log.Warn().Err(err).Str("site", site.Name).Str("seed", seed).Msg("pipeline: html seed failed, continuing")
				continue
			}
			articles = append(articles, found...)
		}
	}

	return articles
}

func categoryAllowed(allowlist []string, detected string) bool {
	if len(allowlist) == 0 {
		return true
	}
	for _, c := range allowlist {
		if c == detected {
			return true
		}
	}
	return false
}

// mergeIntoLoopStats folds a cycle's tally into the persistent loop_stats.json.
func mergeIntoLoopStats(paths *pathcfg.Paths, result cycleResult) error {
	var stats models.LoopStats
	if err := atomicfile.ReadJSON(paths.LoopStatsFile, &stats); err != nil {
		stats = *models.NewLoopStats()
	}

	now := time.Now().UTC()
	stats.LastCycleEnd = &now
	stats.CyclesRun++
	stats.Collected += result.Collected
	stats.Filtered += result.Filtered
	stats.Rejected += result.Rejected
	stats.Published += result.Published
	stats.TokensPrompt += result.Tokens.Prompt
	stats.TokensComplete += result.Tokens.Completion

	stats.Errors = append(stats.Errors, result.Errors...)
	const maxRecentErrors = 50
	if len(stats.Errors) > maxRecentErrors {
		stats.Errors = stats.Errors[len(stats.Errors)-maxRecentErrors:]
	}

	return atomicfile.WriteJSON(paths.LoopStatsFile, &stats)
}

func loadLoopStats(paths *pathcfg.Paths) (*models.LoopStats, error) {
	var stats models.LoopStats
	if err := atomicfile.ReadJSON(paths.LoopStatsFile, &stats); err != nil {
		return models.NewLoopStats(), nil
	}
	return &stats, nil
}

func reconcilerFor(env *environment) *reconcile.Reconciler {
	return reconcile.New(env.Registry, env.Paths.Root, env.Paths.DownloadsRawDir, env.Paths.PromoFile)
}
