package cmd

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Run the reconciler over staged input files without collecting new articles",
	RunE: func(_ *cobra.Command, _ []string) error {
		env, err := setup()
		if err != nil {
			return err
		}

		inputPaths, err := stagedInputPaths(env.Paths.DownloadsRawDir)
		if err != nil {
			return fmt.Errorf("backfill: list staged inputs: %w", err)
		}

		result, err := reconcilerFor(env).ReconcileBatch(inputPaths)
		if err != nil {
			return fmt.Errorf("backfill: %w", err)
		}

		fmt.Printf("verified=%d titles_backfilled=%d inputs_removed=%d inputs_not_found=%d\n",
			result.Verified, result.TitlesBackfilled, result.InputsRemoved, result.InputsNotFound)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backfillCmd)
}

// stagedInputPaths walks downloads/raw for the per-article JSON files a
// collection run leaves behind, skipping anything that isn't a plain
// .json document.
func stagedInputPaths(rawDir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(rawDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d == nil {
				log.Warn().Err(err).Str("dir", rawDir).Msg("backfill: raw downloads dir unreadable")
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), ".json") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}
