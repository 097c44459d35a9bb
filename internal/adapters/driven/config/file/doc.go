// Package file provides file-based configuration adapters.
//
// Adapters:
//   - LoadSettings: TOML run configuration, loaded once at startup
//   - PromptStore: user-editable prompt templates with embedded defaults
package file
