// Package file provides file-based configuration adapters.
//
// Adapters:
//   - ConfigStore: TOML configuration at ~/.ragdesk/config.toml
//   - PromptStore: editable prompt templates in ~/.ragdesk/prompts
//   - LoadEnv: credentials from .env files
package file
