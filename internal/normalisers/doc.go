// Package normalisers provides implementations of the Normaliser
// interface for the supported upload formats. Each normaliser knows how
// to extract plain text from a specific set of file extensions.
//
// Normalisers are registered with the Registry at startup; the registry
// dispatches uploads by extension, preferring the highest-priority
// normaliser when several claim the same extension.
package normalisers
