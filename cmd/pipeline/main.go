// Command pipeline is the autopress content pipeline's entrypoint.
package main

import (
	"fmt"
	"os"

	"github.com/geraldfingburke/autopress/cmd/pipeline/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
