// Package pathcfg resolves the pipeline's workspace root and loads the
// persistent system configuration from it. Every other package that
// touches the filesystem is handed an already-resolved *Paths rather than
// computing its own paths, so the on-disk layout stays defined in exactly
// one place.
package pathcfg

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/geraldfingburke/autopress/internal/atomicfile"
	"github.com/geraldfingburke/autopress/internal/models"
)

// workspaceEnvVar overrides the workspace root; when unset the current
// working directory is used.
const workspaceEnvVar = "NEWS_BASE_DIR"

// Paths holds every well-known location under the workspace root.
type Paths struct {
	Root            string
	RegistryFile    string
	ConfigFile      string
	LoopStatsFile   string
	DownloadsRawDir string
	OutputDir       string
	PromoFile       string
}

// Resolve determines the workspace root (NEWS_BASE_DIR, falling back to the
// current working directory), loads a .env file if present in that root,
// and returns the derived well-known paths. It does not create any
// directories; callers that need them to exist call EnsureDirs.
func Resolve() (*Paths, error) {
	root := os.Getenv(workspaceEnvVar)
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("pathcfg: resolve working directory: %w", err)
		}
		root = wd
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("pathcfg: absolute path for %s: %w", root, err)
	}

	envPath := filepath.Join(root, ".env")
	if _, statErr := os.Stat(envPath); statErr == nil {
		if loadErr := godotenv.Load(envPath); loadErr != nil {
			log.Warn().Err(loadErr).Str("path", envPath).Msg("failed to load .env, continuing without it")
		}
	}

	return &Paths{
		Root:            root,
		RegistryFile:    filepath.Join(root, "articles_registry.json"),
		ConfigFile:      filepath.Join(root, "system_config.json"),
		LoopStatsFile:   filepath.Join(root, "loop_stats.json"),
		DownloadsRawDir: filepath.Join(root, "downloads", "raw"),
		OutputDir:       filepath.Join(root, "output"),
		PromoFile:       filepath.Join(root, "promo_articles.json"),
	}, nil
}

// EnsureDirs creates the directories a fresh workspace needs before the
// first collection cycle can run.
func (p *Paths) EnsureDirs() error {
	for _, dir := range []string{p.Root, p.DownloadsRawDir, p.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("pathcfg: create %s: %w", dir, err)
		}
	}
	return nil
}

// LoadConfig reads system_config.json, writing a default skeleton on first
// run if the file does not yet exist.
func (p *Paths) LoadConfig() (*models.SystemConfig, error) {
	if _, err := os.Stat(p.ConfigFile); os.IsNotExist(err) {
		cfg := models.DefaultSystemConfig()
		if writeErr := atomicfile.WriteJSON(p.ConfigFile, cfg); writeErr != nil {
			return nil, fmt.Errorf("pathcfg: write default config: %w", writeErr)
		}
		log.Info().Str("path", p.ConfigFile).Msg("initialized default system_config.json")
		return cfg, nil
	}

	var cfg models.SystemConfig
	if err := atomicfile.ReadJSON(p.ConfigFile, &cfg); err != nil {
		return nil, fmt.Errorf("pathcfg: parse %s: %w", p.ConfigFile, err)
	}
	return &cfg, nil
}

// SaveConfig persists cfg back to system_config.json.
func (p *Paths) SaveConfig(cfg *models.SystemConfig) error {
	return atomicfile.WriteJSON(p.ConfigFile, cfg)
}

// DownloadRawPath returns where a collector stores the raw fetched payload
// for an article ID collected on the given date (YYYY-MM-DD).
func (p *Paths) DownloadRawPath(date, id string) string {
	return filepath.Join(p.DownloadsRawDir, date, id+".json")
}

// SiteOutputDir returns a site's top-level output directory.
func (p *Paths) SiteOutputDir(siteName string) string {
	return filepath.Join(p.OutputDir, siteName)
}

// ArticleOutputDir returns the fixed-shape folder an article is published
// into: output/<SiteName>/<date>_<category>_<id>/.
func (p *Paths) ArticleOutputDir(siteName, date, category, id string) string {
	return filepath.Join(p.SiteOutputDir(siteName), fmt.Sprintf("%s_%s_%s", date, category, id))
}

// ImagesDir returns the shared per-category image pool for a site.
func (p *Paths) ImagesDir(siteName, category string) string {
	return filepath.Join(p.SiteOutputDir(siteName), "images", category)
}
