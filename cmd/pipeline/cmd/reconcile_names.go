package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/geraldfingburke/autopress/internal/models"
	"github.com/geraldfingburke/autopress/internal/publish"
)

var reconcileNamesCmd = &cobra.Command{
	Use:   "reconcile-names",
	Short: "Rename published articles' output_dir folders whose embedded category has drifted from the registry",
	RunE: func(_ *cobra.Command, _ []string) error {
		env, err := setup()
		if err != nil {
			return err
		}

		renamed := 0
		for _, entry := range env.Registry.ListByStatus(models.StatusPublished) {
			date, embeddedCategory, ok := splitFolderName(filepath.Base(entry.OutputDir), entry.ID)
			if !ok {
				log.Debug().Str("id", entry.ID).Str("output_dir", entry.OutputDir).Msg("reconcile-names: folder name doesn't match the expected grammar, skipping")
				continue
			}
			if embeddedCategory == entry.Category {
				continue
			}

			oldAbs := filepath.Join(env.Paths.Root, entry.OutputDir)
			newBase := publish.FolderName(date, entry.Category, entry.ID)
			newAbs := filepath.Join(filepath.Dir(oldAbs), newBase)

			if err := os.Rename(oldAbs, newAbs); err != nil {
				log.Error().Err(err).Str("id", entry.ID).Msg("reconcile-names: rename failed")
				continue
			}

			newRel := publish.NormalizeOutputDir(env.Paths.Root, newAbs)
			if err := env.Registry.SetOutputDir(entry.ID, newRel); err != nil {
				log.Error().Err(err).Str("id", entry.ID).Msg("reconcile-names: registry update failed after rename")
				continue
			}

			log.Info().Str("id", entry.ID).Str("from", entry.OutputDir).Str("to", newRel).Msg("reconcile-names: folder renamed")
			renamed++
		}

		fmt.Printf("renamed=%d\n", renamed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reconcileNamesCmd)
}

// splitFolderName reverses publish.FolderName's "date_category_id" grammar
// given the known id, since a category like "quantum_computing" itself
// contains an underscore and can't be told apart from the date/category
// separators by splitting alone.
func splitFolderName(base, id string) (date, category string, ok bool) {
	suffix := "_" + id
	if !strings.HasSuffix(base, suffix) {
		return "", "", false
	}
	remainder := strings.TrimSuffix(base, suffix)
	const dateLen = len("2006-01-02")
	if len(remainder) <= dateLen+1 || remainder[dateLen] != '_' {
		return "", "", false
	}
	return remainder[:dateLen], remainder[dateLen+1:], true
}
