package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vasd85/voxenote/internal/cache"
	"github.com/vasd85/voxenote/internal/state"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var recent int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show ingest, cache, and processing counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			store := state.NewStore(cfg.Paths.StateDir, logger)
			index, err := store.LoadIndex()
			if err != nil {
				return fmt.Errorf("load processed entries: %w", err)
			}
			collected, err := store.LoadCollectedIndex()
			if err != nil {
				return fmt.Errorf("load collected records: %w", err)
			}

			var processed, noSpeech int
			for _, entry := range index {
				switch entry.Outcome {
				case state.OutcomeNoSpeech:
					noSpeech++
				default:
					processed++
				}
			}

			pending := countSupportedFiles(cfg.Paths.InputDir, cfg.SupportsFormat)
			prepared := countCacheArtifacts(cfg.CacheRoot(), cache.StagePrepared)
			trimmed := countCacheArtifacts(cfg.CacheRoot(), cache.StageTrimmed)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Metric", "Count"},
				[][]string{
					{"Pending in ingest", fmt.Sprintf("%d", pending)},
					{"Collected records", fmt.Sprintf("%d", len(collected))},
					{"Processed notes", fmt.Sprintf("%d", processed)},
					{"No-speech recordings", fmt.Sprintf("%d", noSpeech)},
					{"Cached prepared audio", fmt.Sprintf("%d", prepared)},
					{"Cached trimmed audio", fmt.Sprintf("%d", trimmed)},
				},
			))

			if rows := recentNoteRows(index, recent); len(rows) > 0 {
				fmt.Fprintln(out, renderTable(
					[]string{"Processed", "Title", "Category", "Note"},
					rows,
				))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&recent, "recent", 10, "Number of recent notes to list")
	return cmd
}

func countSupportedFiles(dir string, supported func(string) bool) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	count := 0
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if supported(filepath.Ext(entry.Name())) {
			count++
		}
	}
	return count
}

func countCacheArtifacts(root string, stage cache.Stage) int {
	entries, err := os.ReadDir(filepath.Join(root, string(stage)))
	if err != nil {
		return 0
	}
	count := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			count++
		}
	}
	return count
}

func recentNoteRows(index map[string]state.Entry, limit int) [][]string {
	entries := make([]state.Entry, 0, len(index))
	for _, entry := range index {
		if entry.Outcome == state.OutcomeSuccess {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ProcessedAt.After(entries[j].ProcessedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{
			entry.ProcessedAt.Local().Format("2006-01-02 15:04"),
			entry.Title,
			entry.Category,
			entry.NotePath,
		})
	}
	return rows
}
