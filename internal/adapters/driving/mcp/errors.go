// Package mcp provides an MCP (Model Context Protocol) server adapter for docrag.
// It lets AI assistants search and index document collections.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")

// ErrNoCollection is returned when a tool call names no collection and no
// default collection is configured.
var ErrNoCollection = errors.New("mcp: collection is required")
