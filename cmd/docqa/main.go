// Command docqa answers questions about a folder of documents.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath     string
	sourceOverride string
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Question answering over a Google Drive folder or local directory",
	Long: `docqa loads every supported document from a Google Drive folder or a
local directory, splits it into overlapping chunks, embeds the chunks into an
in-memory index and answers questions about them over HTTP.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "optional YAML config file (environment variables override it)")
	rootCmd.PersistentFlags().StringVar(&sourceOverride, "source", "", "document source: drive or local (overrides SOURCE)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
