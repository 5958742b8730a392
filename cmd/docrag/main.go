// Command docrag indexes documents and retrieves relevant passages.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/docrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/docrag/internal/adapters/driven/config/env"
	"github.com/custodia-labs/docrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docrag/internal/adapters/driving/cli"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/core/services"
	"github.com/custodia-labs/docrag/internal/extractors"
	"github.com/custodia-labs/docrag/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx)
	stop()
	os.Exit(code)
}

func run(ctx context.Context) int {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
		return 1
	}
	environment, err := env.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading .env: %v\n", err)
		return 1
	}
	settingsService := services.NewSettingsService(configStore, environment)

	var components *ai.Components
	defer func() {
		if components == nil {
			return
		}
		if err := components.Close(); err != nil {
			logger.Warn("closing components: %v", err)
		}
	}()

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Settings: settingsService,
		Retrieval: func(ctx context.Context) (driving.RetrievalService, error) {
			svc, c, err := openRetrieval(ctx, settingsService)
			components = c
			return svc, err
		},
		Check: checkModels,
	})

	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}

// openRetrieval wires the retrieval service from the effective settings.
func openRetrieval(
	ctx context.Context,
	settingsService *services.SettingsService,
) (driving.RetrievalService, *ai.Components, error) {
	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("loading settings: %w", err)
	}

	entities := settings.Entities
	if entities.File != "" {
		entities, err = file.LoadEntities(entities.File, entities)
		if err != nil {
			return nil, nil, fmt.Errorf("loading entities: %w", err)
		}
	}

	components, err := ai.Open(ctx, settings)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("storage mode %s, embedding model %s", components.Backend.Mode(), settings.Embedding.Model)

	svc := services.NewRetrievalService(
		components.Backend,
		extractors.NewDefaultRegistry(entities),
		components.Pipeline,
		components.Embedding,
		services.NewReranker(components.CrossEncoder),
		*settings,
	)
	return svc, components, nil
}

// checkModels probes the configured embedding and rerank models.
func checkModels(ctx context.Context, settings *domain.RetrievalSettings) []cli.CheckResult {
	results := []cli.CheckResult{{
		Component: "embedding",
		Model:     settings.Embedding.Model,
		Err:       ai.ValidateEmbeddingConfig(ctx, settings.Embedding),
	}}
	if settings.Rerank.Enabled {
		results = append(results, cli.CheckResult{
			Component: "reranker",
			Model:     settings.Rerank.Model,
			Err:       ai.ValidateRerankConfig(ctx, settings.Rerank),
		})
	}
	return results
}
