// Package extractors provides implementations of the Extractor interface
// for the supported file formats. Each extractor knows how to turn the
// bytes of one format into plain text.
//
// Extractors are registered with the Registry at startup.
package extractors
