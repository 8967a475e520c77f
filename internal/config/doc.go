// Package config loads the service settings from an optional config.yaml and
// LOOPMIND_* environment variables, applies defaults, and validates them per
// group (server, database, auth, llm, generation, render). Binaries that need
// only some groups validate just those with LoadGroups.
package config
