// Package config loads process configuration for the lostfound binaries.
//
// Values come from, in increasing precedence: built-in defaults, an
// optional YAML/TOML/JSON file, a .env file in the working directory, and
// LOSTFOUND_* environment variables. Nested keys map to variables by
// upper-casing and replacing dots with underscores, so ai.embedding_host is
// LOSTFOUND_AI_EMBEDDING_HOST.
package config
