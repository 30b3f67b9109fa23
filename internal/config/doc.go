// Package config loads and validates tubeqa's TOML configuration.
//
// Configuration resolves in three layers: built-in defaults, the config file
// (default ~/.config/tubeqa/config.toml), and environment overrides for
// secrets (TUBEQA_LLM_API_KEY, OPENAI_API_KEY). Validate applies defaults for
// unset values and rejects inconsistent threshold tables, so the rest of the
// system can assume a well-formed Config.
package config
