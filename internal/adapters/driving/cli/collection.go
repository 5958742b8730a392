package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

var collectionForce bool

var collectionCmd = &cobra.Command{
	Use:     "collection",
	Aliases: []string{"collections"},
	Short:   "Manage collections",
	Long:    `List, inspect, delete and reset collections.`,
}

var collectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections",
	Args:  cobra.NoArgs,
	RunE:  runCollectionList,
}

var collectionStatsCmd = &cobra.Command{
	Use:   "stats [name]",
	Short: "Show record count and indexed files",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCollectionStats,
}

var collectionDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a collection",
	Long:  `Deletes a collection and all of its passages. This cannot be undone.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionDelete,
}

var collectionResetCmd = &cobra.Command{
	Use:   "reset [name]",
	Short: "Empty a collection",
	Long:  `Deletes a collection, if it exists, and recreates it empty.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCollectionReset,
}

func init() {
	collectionDeleteCmd.Flags().BoolVarP(&collectionForce, "force", "f", false, "do not fail if the collection is missing")
	collectionCmd.AddCommand(collectionListCmd)
	collectionCmd.AddCommand(collectionStatsCmd)
	collectionCmd.AddCommand(collectionDeleteCmd)
	collectionCmd.AddCommand(collectionResetCmd)
	rootCmd.AddCommand(collectionCmd)
}

func runCollectionList(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	svc, err := retrieval(ctx)
	if err != nil {
		return err
	}

	names, err := svc.ListCollections(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		cmd.Println("No collections.")
		return nil
	}
	for _, name := range names {
		cmd.Println(name)
	}
	return nil
}

func runCollectionStats(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	name, err := resolveCollection(firstArg(args))
	if err != nil {
		return err
	}
	svc, err := retrieval(ctx)
	if err != nil {
		return err
	}

	stats, err := svc.CollectionStats(ctx, name)
	if err != nil {
		return err
	}

	cmd.Printf("Collection: %s\n", stats.Name)
	cmd.Printf("Passages:   %d\n", stats.Count)
	cmd.Printf("Files:      %d\n", len(stats.Filenames))
	for _, f := range stats.Filenames {
		cmd.Printf("  %s\n", f)
	}
	return nil
}

func runCollectionDelete(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	svc, err := retrieval(ctx)
	if err != nil {
		return err
	}

	err = svc.DeleteCollection(ctx, args[0])
	if errors.Is(err, domain.ErrNotFound) && collectionForce {
		err = nil
	}
	if err != nil {
		return err
	}
	cmd.Printf("Deleted collection %s\n", args[0])
	return nil
}

func runCollectionReset(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	name, err := resolveCollection(firstArg(args))
	if err != nil {
		return err
	}
	svc, err := retrieval(ctx)
	if err != nil {
		return err
	}

	if err := svc.ResetCollection(ctx, name); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	cmd.Printf("Collection %s is now empty\n", name)
	return nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
