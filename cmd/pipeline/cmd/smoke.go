package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/geraldfingburke/autopress/internal/strategy"
)

// smokeInterProbeDelay paces successive URL probes per §5, so a multi-URL
// smoke run behaves like a polite collector rather than a burst scraper.
const smokeInterProbeDelay = 300 * time.Millisecond

var smokeHTML bool

var smokeCmd = &cobra.Command{
	Use:   "smoke <url> [url...]",
	Short: "Probe the adaptive strategy cascade against one or more URLs without touching the registry",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}

		engine := strategy.New(env.FetchClient)

		for i, rawURL := range args {
			if i > 0 {
				time.Sleep(smokeInterProbeDelay)
			}
			rec := engine.Resolve(c.Context(), rawURL, smokeHTML)
			printRecommendation(rawURL, rec)
		}
		return nil
	},
}

func init() {
	smokeCmd.Flags().BoolVar(&smokeHTML, "html", false, "treat URLs as HTML listing pages (enables RSS autodiscovery)")
	rootCmd.AddCommand(smokeCmd)
}

func printRecommendation(rawURL string, rec *strategy.Recommendation) {
	fmt.Printf("%s\n", rawURL)
	for _, a := range rec.Attempts {
		status := "ok"
		if a.Err != nil {
			status = a.Err.Error()
		}
		blocker := string(a.Blocker)
		if blocker == "" {
			blocker = "-"
		}
		fmt.Printf("  %-18s status=%-4d len=%-7d blocker=%-10s %s\n", a.Strategy, a.StatusCode, a.BodyLen, blocker, status)
	}
	if rec.Succeeded {
		fmt.Printf("  => succeeded via %s, final_url=%s\n", rec.Strategy, rec.FinalURL)
	} else if rec.EscalateToJS {
		fmt.Println("  => escalate to JS rendering")
	} else {
		fmt.Println("  => all strategies exhausted")
	}
	if rec.DiscoveredFeed != "" {
		fmt.Printf("  discovered feed: %s\n", rec.DiscoveredFeed)
	}
}
