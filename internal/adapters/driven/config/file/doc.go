// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage at ~/.docrag/config.toml
//   - LoadEntities: YAML entity lists for the tabular entity scan
package file
