// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Extractor: Converts one file format to plain text
//   - ExtractorRegistry: Selects the extractor for a file type
//   - PostProcessorPipeline: Cleans and chunks extracted text
//   - EmbeddingService: Maps text to vectors. Retrieval cannot run without it.
//   - VectorStorageBackend: Owns named collections of vector records
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - CrossEncoder: Second-stage relevance scoring. Without it, results keep distance order.
//   - Tokenizer: Token counting. Without it, chunkers return whole documents.
//   - FileWatcher: Directory watching for continuous ingestion.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, extractor, or post-processor package
package driven
