// Package connectors provides document sources for ingestion.
// The filesystem connector expands paths into indexable files and
// watches directories for new ones.
package connectors
