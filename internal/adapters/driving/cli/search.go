package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// defaultWidth is used when stdout is not a terminal.
const defaultWidth = 100

var (
	searchCollection string
	searchLimit      int
	searchJSON       bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Retrieves the passages most similar to the query from a collection.

Candidates are ranked by vector distance. When reranking is enabled, a
larger candidate set is rescored and the best passages are returned.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchCollection, "collection", "c", "", "collection to search (default from settings)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default from settings)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	ctx := commandContext(cmd)

	collection, err := resolveCollection(searchCollection)
	if err != nil {
		return err
	}
	svc, err := retrieval(ctx)
	if err != nil {
		return err
	}

	resp, err := svc.Search(ctx, collection, query, searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, resp)
	}
	outputSearchTable(cmd, resp)
	return nil
}

func outputSearchJSON(cmd *cobra.Command, resp *domain.SearchResponse) error {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, resp *domain.SearchResponse) {
	if len(resp.Results) == 0 {
		cmd.Println("No results found.")
		printWarnings(cmd, resp.Warnings)
		return
	}

	width := terminalWidth() - 6

	cmd.Println("Results:")
	cmd.Println()
	for i, r := range resp.Results {
		cmd.Printf("  [%d] %s (chunk %d)  distance %.4f", i+1, r.Metadata.Filename, r.Metadata.ChunkIndex, r.Distance)
		if r.RelevanceScore != nil {
			cmd.Printf("  score %.4f", *r.RelevanceScore)
		}
		cmd.Println()
		cmd.Printf("      %s\n", snippet(r.Content, width))
		cmd.Println()
	}

	if resp.Reranked {
		cmd.Printf("Reranked %d candidates.\n", resp.Candidates)
	}
	printWarnings(cmd, resp.Warnings)
}

// terminalWidth returns the width of stdout, or defaultWidth.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

// snippet collapses whitespace and truncates text to width runes.
func snippet(text string, width int) string {
	text = strings.Join(strings.Fields(text), " ")
	if width < 4 {
		width = 4
	}
	if utf8.RuneCountInString(text) <= width {
		return text
	}
	runes := []rune(text)
	return string(runes[:width-3]) + "..."
}
