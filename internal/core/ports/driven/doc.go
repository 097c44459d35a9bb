// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Model Capability Interfaces
//
// Each trained model is a narrow typed capability, never reimplemented:
//
//   - EmbeddingService: Text to vector
//   - Classifier: Document text to category label
//   - EntityExtractor: Chunk text to named entities
//   - ExtractiveAnswerer: (question, context) to a literal span
//   - RelevanceClassifier: Question to scored topic labels
//   - Synthesizer: Sub-question generation and grounded synthesis
//
// # Storage Interfaces
//
//   - SessionStore: Sessions and message history persistence
//   - VectorStore: Embedded chunk persistence and similarity search,
//     namespaced per session
//
// # Parsing Interfaces
//
//   - Normaliser: Converts one file format to plain text
//   - NormaliserRegistry: Selects the normaliser for an upload
//   - Chunker: Splits parsed text into overlapping segments
//   - PromptStore: Prompt template overrides for the synthesizer
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
