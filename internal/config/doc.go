// Package config loads and merges the eln-sync engine configuration from
// environment variables, command-line flags, an optional JSON file, and
// built-in defaults.
//
// The merged [StructuredConfig] is projected into a validated [SyncConfig]
// view via [GetSyncConfig]; the rest of the engine only consumes the view.
// Merge precedence is env > flags > JSON file > defaults, implemented with
// dario.cat/mergo (earlier sources win because mergo only fills empty
// fields).
package config
