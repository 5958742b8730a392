// Package cli implements the docrag command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

var version = "dev"

var verbose bool

// Service wiring, set by SetServices before Execute.
var (
	settingsService driving.SettingsService
	openRetrieval   func(ctx context.Context) (driving.RetrievalService, error)
	checkModels     func(ctx context.Context, settings *domain.RetrievalSettings) []CheckResult

	retrievalService driving.RetrievalService
)

// CheckResult is the outcome of probing one configured model.
type CheckResult struct {
	Component string
	Model     string
	Err       error
}

// Services holds what the commands drive.
type Services struct {
	Settings driving.SettingsService

	// Retrieval opens the retrieval service. It is called at most once,
	// by the first command that needs it, so settings commands keep
	// working when storage is misconfigured.
	Retrieval func(ctx context.Context) (driving.RetrievalService, error)

	// Check probes the embedding and rerank models. Optional.
	Check func(ctx context.Context, settings *domain.RetrievalSettings) []CheckResult
}

// SetServices installs the services used by every command.
func SetServices(s Services) {
	settingsService = s.Settings
	openRetrieval = s.Retrieval
	checkModels = s.Check
	retrievalService = nil
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var rootCmd = &cobra.Command{
	Use:   "docrag",
	Short: "Index documents and retrieve relevant passages",
	Long: `docrag extracts text from PDF, DOCX, TXT, Markdown, CSV and XLSX files,
splits it into token-bounded chunks, embeds the chunks into a vector index
and retrieves the passages most relevant to a query.

Indexes are organised into named collections.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// retrieval returns the retrieval service, opening it on first use.
func retrieval(ctx context.Context) (driving.RetrievalService, error) {
	if retrievalService != nil {
		return retrievalService, nil
	}
	if openRetrieval == nil {
		return nil, errors.New("retrieval service not configured")
	}
	svc, err := openRetrieval(ctx)
	if err != nil {
		return nil, err
	}
	retrievalService = svc
	return svc, nil
}

// resolveCollection returns flagValue, or the configured default collection.
func resolveCollection(flagValue string) (string, error) {
	if name := strings.TrimSpace(flagValue); name != "" {
		return name, nil
	}
	if settingsService == nil {
		return "", errors.New("settings service not configured")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return "", fmt.Errorf("loading settings: %w", err)
	}
	return settings.Collection, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printWarnings(cmd *cobra.Command, warnings []domain.Warning) {
	if len(warnings) == 0 {
		return
	}
	cmd.Println()
	cmd.Println("Warnings:")
	for _, w := range warnings {
		cmd.Printf("  %s\n", w)
	}
}
