package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/geraldfingburke/autopress/internal/category"
	"github.com/geraldfingburke/autopress/internal/models"
)

var recategorizeCmd = &cobra.Command{
	Use:   "recategorize",
	Short: "Re-score every published article's category detection",
	RunE: func(_ *cobra.Command, _ []string) error {
		env, err := setup()
		if err != nil {
			return err
		}

		published := env.Registry.ListByStatus(models.StatusPublished)
		changed := 0
		for _, entry := range published {
			detected := category.Detect(entry.URL, entry.OriginalTitle)
			if detected == entry.Category {
				continue
			}
			if err := env.Registry.SetCategory(entry.ID, detected); err != nil {
				log.Error().Err(err).Str("id", entry.ID).Msg("recategorize: failed to update registry entry")
				continue
			}
			log.Info().Str("id", entry.ID).Str("from", entry.Category).Str("to", detected).Msg("recategorize: category updated")
			changed++
		}

		fmt.Printf("scanned=%d changed=%d\n", len(published), changed)
		fmt.Println("note: run reconcile-names to move output_dir folders onto the new category")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recategorizeCmd)
}
