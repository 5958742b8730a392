package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/connectors/filesystem"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

var (
	indexCollection string
	indexWatch      string
)

var indexCmd = &cobra.Command{
	Use:   "index [paths...]",
	Short: "Index files into a collection",
	Long: `Extracts, chunks and embeds the given files into a collection.

Directories are searched recursively for supported files. Files already
in the collection are skipped.

With --watch, new and changed files under the directory are indexed as
they appear until interrupted.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVarP(&indexCollection, "collection", "c", "", "target collection (default from settings)")
	indexCmd.Flags().StringVar(&indexWatch, "watch", "", "watch a directory and index new files")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && indexWatch == "" {
		return errors.New("requires at least one path or --watch")
	}
	ctx := commandContext(cmd)

	collection, err := resolveCollection(indexCollection)
	if err != nil {
		return err
	}
	svc, err := retrieval(ctx)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		files, err := filesystem.Collect(args)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			cmd.Println("No supported files found.")
		} else {
			report, err := svc.IndexFiles(ctx, collection, files)
			printReport(cmd, report)
			if err != nil {
				return fmt.Errorf("indexing failed: %w", err)
			}
		}
	}

	if indexWatch == "" {
		return nil
	}
	return watchAndIndex(ctx, cmd, svc, collection, indexWatch)
}

func watchAndIndex(ctx context.Context, cmd *cobra.Command, svc driving.RetrievalService, collection, dir string) error {
	w := filesystem.NewWatcher(dir)
	defer w.Close()

	changes, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("Watching %s for changes (Ctrl+C to stop)\n", dir)

	for change := range changes {
		switch change.Type {
		case domain.ChangeCreated, domain.ChangeUpdated:
			report, err := svc.IndexFiles(ctx, collection, []string{change.Path})
			if err != nil {
				cmd.Printf("  %s: %v\n", change.Path, err)
				continue
			}
			switch {
			case report.Indexed > 0:
				cmd.Printf("  indexed %s (%d chunks)\n", change.Path, report.ChunksAdded)
			case report.SkippedExisting > 0:
				cmd.Printf("  %s is already indexed, skipped\n", change.Path)
			}
			for _, warning := range report.Warnings {
				cmd.Printf("  %s\n", warning)
			}
		case domain.ChangeDeleted:
			cmd.Printf("  %s removed; reset the collection to drop its passages\n", change.Path)
		}
	}
	return nil
}

func printReport(cmd *cobra.Command, report *domain.IndexReport) {
	if report == nil {
		return
	}
	cmd.Printf("Collection %s: %s\n", report.Collection, report.Summary())
	for _, f := range report.Files {
		cmd.Printf("  + %s\n", f)
	}
	printWarnings(cmd, report.Warnings)
}
