package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the index once and print the ingestion report as JSON",
	Args:  cobra.NoArgs,
	RunE:  runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := map[string]any{}
	ix, report, err := buildIndex(ctx, cfg, log)
	out["ingest"] = report
	if ix != nil {
		out["index"] = ix.Stats()
	}

	data, merr := json.MarshalIndent(out, "", "  ")
	if merr != nil {
		return merr
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
