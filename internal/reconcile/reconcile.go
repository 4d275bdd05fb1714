// Package reconcile implements the Cleanup/Reconciler (spec §4.N): a
// post-write batch pass over the input JSON paths a collection run staged,
// verifying published output, backfilling generated_title, and removing
// consumed input files. It also writes promo_articles.json, the featured
// subset the filesystem layout names but the core pipeline never
// otherwise populates.
package reconcile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/geraldfingburke/autopress/internal/atomicfile"
	"github.com/geraldfingburke/autopress/internal/models"
	"github.com/geraldfingburke/autopress/internal/publish"
	"github.com/geraldfingburke/autopress/internal/registry"
)

// Reconciler runs the batch verification pass described in §4.N.
type Reconciler struct {
	Registry      *registry.Registry
	WorkspaceRoot string
	RawDir        string
	PromoFile     string
}

// New builds a Reconciler over the given registry and well-known
// directories.
func New(reg *registry.Registry, workspaceRoot, rawDir, promoFile string) *Reconciler {
	return &Reconciler{Registry: reg, WorkspaceRoot: workspaceRoot, RawDir: rawDir, PromoFile: promoFile}
}

// Result summarizes what a batch run did, for the caller to log or surface
// over the CLI.
type Result struct {
	Verified         int
	TitlesBackfilled int
	InputsRemoved    int
	InputsNotFound   int
}

// ReconcileBatch runs §4.N over inputPaths: staged input JSON files from a
// single collection run. Registry mutations are batched into one save;
// filesystem removal happens per path since it has nothing to do with
// registry durability.
func (r *Reconciler) ReconcileBatch(inputPaths []string) (Result, error) {
	var result Result

	err := r.Registry.MutateBatch(func(doc *models.Registry) {
		for _, path := range inputPaths {
			id := idFromInputPath(path)
			entry, ok := doc.Articles[id]
			if !ok {
				continue
			}
			if entry.OutputDir == "" {
				continue
			}

			fullDir := filepath.Join(r.WorkspaceRoot, entry.OutputDir)
			if !publish.IsComplete(fullDir) {
				continue
			}

			if !entry.Verified {
				entry.Verified = true
				result.Verified++
			}

			if entry.GeneratedTitle == "" {
				if title, titleErr := readTitleFile(fullDir); titleErr == nil && title != "" {
					entry.GeneratedTitle = title
					result.TitlesBackfilled++
				}
			}
		}
	})
	if err != nil {
		return result, fmt.Errorf("reconcile: batch registry update: %w", err)
	}

	for _, path := range inputPaths {
		id := idFromInputPath(path)
		removed, removeErr := r.removeInput(path, id)
		if removeErr != nil {
			log.Warn().Err(removeErr).Str("id", id).Msg("reconcile: failed to remove consumed input")
			continue
		}
		if removed {
			result.InputsRemoved++
		} else {
			result.InputsNotFound++
		}
	}

	if r.PromoFile != "" {
		if err := r.writePromoFile(); err != nil {
			log.Warn().Err(err).Msg("reconcile: failed to write promo_articles.json")
		}
	}

	return result, nil
}

func idFromInputPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func readTitleFile(dir string) (string, error) {
	return readTextFile(filepath.Join(dir, "title.txt"))
}

func readTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// removeInput deletes the input JSON for id at its expected path under
// RawDir/<date>/. If not present there, it scans sibling date folders for
// a file named <id>.json, per §4.N's fallback.
func (r *Reconciler) removeInput(expectedPath, id string) (bool, error) {
	if err := os.Remove(expectedPath); err == nil {
		return true, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("remove %s: %w", expectedPath, err)
	}

	entries, err := os.ReadDir(r.RawDir)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("scan %s: %w", r.RawDir, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		candidate := filepath.Join(r.RawDir, entry.Name(), id+".json")
		if removeErr := os.Remove(candidate); removeErr == nil {
			return true, nil
		}
	}
	return false, nil
}

// PromoArticle is the schema written to promo_articles.json: the subset of
// fields a social-posting collaborator needs to promote a featured
// article, without exposing the full registry entry.
type PromoArticle struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Slug      string `json:"slug,omitempty"`
	Category  string `json:"category"`
	OutputDir string `json:"output_dir"`
}

// writePromoFile rebuilds promo_articles.json from every Published,
// Featured, non-Hidden entry in the registry.
func (r *Reconciler) writePromoFile() error {
	entries := r.Registry.ListByStatus(models.StatusPublished)

	promoted := make([]PromoArticle, 0)
	for _, entry := range entries {
		if !entry.Featured || entry.Hidden {
			continue
		}
		slug, _ := readTextFile(filepath.Join(r.WorkspaceRoot, entry.OutputDir, "slug.txt"))
		promoted = append(promoted, PromoArticle{
			ID:        entry.ID,
			Title:     entry.GeneratedTitle,
			Slug:      slug,
			Category:  entry.Category,
			OutputDir: entry.OutputDir,
		})
	}

	return atomicfile.WriteJSON(r.PromoFile, promoted)
}
