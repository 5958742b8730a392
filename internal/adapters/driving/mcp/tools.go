package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Collection string `json:"collection,omitempty" jsonschema:"collection to search (default from settings)"`
	Query      string `json:"query" jsonschema:"the search query to find passages"`
	K          int    `json:"k,omitempty" jsonschema:"maximum number of passages to return (default from settings)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results    []SearchResultOutput `json:"results"`
	Count      int                  `json:"count"`
	Reranked   bool                 `json:"reranked"`
	Candidates int                  `json:"candidates"`
	Warnings   []string             `json:"warnings,omitempty"`
}

// SearchResultOutput represents a single passage.
type SearchResultOutput struct {
	Filename       string   `json:"filename"`
	ChunkIndex     int      `json:"chunk_index"`
	Content        string   `json:"content"`
	Distance       float64  `json:"distance"`
	RelevanceScore *float64 `json:"relevance_score,omitempty"`
}

// IndexFilesInput is the input schema for the index_files tool.
type IndexFilesInput struct {
	Collection string   `json:"collection,omitempty" jsonschema:"collection to index into (default from settings)"`
	Paths      []string `json:"paths" jsonschema:"absolute paths of the files to index"`
}

// IndexFilesOutput is the output schema for the index_files tool.
type IndexFilesOutput struct {
	Collection       string   `json:"collection"`
	Success          bool     `json:"success"`
	Indexed          int      `json:"indexed"`
	SkippedExisting  int      `json:"skipped_existing"`
	SkippedDuplicate int      `json:"skipped_duplicate"`
	Failed           int      `json:"failed"`
	ChunksAdded      int      `json:"chunks_added"`
	Summary          string   `json:"summary"`
	Warnings         []string `json:"warnings,omitempty"`
}

// ListCollectionsInput is the (empty) input schema for list_collections.
type ListCollectionsInput struct{}

// ListCollectionsOutput is the output schema for list_collections.
type ListCollectionsOutput struct {
	Collections []string `json:"collections"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search a document collection for passages relevant to a query",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_files",
		Description: "Index PDF, DOCX, TXT, MD, CSV or XLSX files into a collection",
	}, s.handleIndexFiles)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_collections",
		Description: "List all document collections",
	}, s.handleListCollections)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	collection, err := s.ports.collection(input.Collection)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	resp, err := s.ports.Retrieval.Search(ctx, collection, input.Query, input.K)
	if err != nil {
		return nil, SearchOutput{}, fmt.Errorf("searching %s: %w", collection, err)
	}

	output := SearchOutput{
		Results:    make([]SearchResultOutput, len(resp.Results)),
		Count:      len(resp.Results),
		Reranked:   resp.Reranked,
		Candidates: resp.Candidates,
		Warnings:   warningStrings(resp.Warnings),
	}
	for i, r := range resp.Results {
		output.Results[i] = SearchResultOutput{
			Filename:       r.Metadata.Filename,
			ChunkIndex:     r.Metadata.ChunkIndex,
			Content:        r.Content,
			Distance:       r.Distance,
			RelevanceScore: r.RelevanceScore,
		}
	}

	return nil, output, nil
}

// handleIndexFiles handles the index_files tool invocation.
func (s *Server) handleIndexFiles(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IndexFilesInput,
) (*mcp.CallToolResult, IndexFilesOutput, error) {
	collection, err := s.ports.collection(input.Collection)
	if err != nil {
		return nil, IndexFilesOutput{}, err
	}
	if len(input.Paths) == 0 {
		return nil, IndexFilesOutput{}, fmt.Errorf("paths: %w", domain.ErrInvalidInput)
	}

	report, err := s.ports.Retrieval.IndexFiles(ctx, collection, input.Paths)
	if err != nil {
		return nil, IndexFilesOutput{}, fmt.Errorf("indexing into %s: %w", collection, err)
	}

	return nil, IndexFilesOutput{
		Collection:       report.Collection,
		Success:          report.Success,
		Indexed:          report.Indexed,
		SkippedExisting:  report.SkippedExisting,
		SkippedDuplicate: report.SkippedDuplicate,
		Failed:           report.Failed,
		ChunksAdded:      report.ChunksAdded,
		Summary:          report.Summary(),
		Warnings:         warningStrings(report.Warnings),
	}, nil
}

// handleListCollections handles the list_collections tool invocation.
func (s *Server) handleListCollections(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListCollectionsInput,
) (*mcp.CallToolResult, ListCollectionsOutput, error) {
	names, err := s.ports.Retrieval.ListCollections(ctx)
	if err != nil {
		return nil, ListCollectionsOutput{}, fmt.Errorf("listing collections: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return nil, ListCollectionsOutput{Collections: names}, nil
}

func warningStrings(warnings []domain.Warning) []string {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]string, len(warnings))
	for i, w := range warnings {
		out[i] = w.String()
	}
	return out
}
