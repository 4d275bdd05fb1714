package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single collect-write-publish cycle over every enabled site",
	RunE: func(c *cobra.Command, _ []string) error {
		env, err := setup()
		if err != nil {
			return err
		}

		log.Info().Msg("pipeline: starting one-shot cycle")
		result, err := runOnce(c.Context(), env)
		if err != nil {
			return fmt.Errorf("pipeline run: %w", err)
		}

		if err := mergeIntoLoopStats(env.Paths, result); err != nil {
			log.Error().Err(err).Msg("pipeline: failed to persist loop stats")
		}

		fmt.Printf("collected=%d filtered=%d rejected=%d published=%d errors=%d\n",
			result.Collected, result.Filtered, result.Rejected, result.Published, len(result.Errors))
		for _, e := range result.Errors {
			fmt.Println("  error:", e)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
