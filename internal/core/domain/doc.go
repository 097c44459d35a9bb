// Package domain defines the core business entities for Finsight.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chunk: A retrievable unit of parsed document text
//   - EmbeddedChunk: A chunk plus its embedding vector
//   - ChatSession: An uploaded document batch scoped to a stakeholder role
//   - Message: A persisted chat turn with optional source citations
//   - Snippet: An extracted answer span consumed by synthesis
//   - Role: A stakeholder role with a configured topic scope
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
