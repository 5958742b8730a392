package mcp

import (
	"strings"

	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval indexes and searches collections.
	Retrieval driving.RetrievalService

	// Settings supplies the default collection and the settings resource.
	// Optional.
	Settings driving.SettingsService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}

// collection returns name, or the configured default when name is blank.
func (p *Ports) collection(name string) (string, error) {
	if name = strings.TrimSpace(name); name != "" {
		return name, nil
	}
	if p.Settings == nil {
		return "", ErrNoCollection
	}
	settings, err := p.Settings.Get()
	if err != nil {
		return "", err
	}
	if settings.Collection == "" {
		return "", ErrNoCollection
	}
	return settings.Collection, nil
}
