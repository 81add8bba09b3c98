// Package file provides file-based configuration for casesync.
//
// ConfigStore persists dot-notation keys ("indexing.top_k") to a TOML file
// as nested tables. LoadSettings overlays stored values on the defaults.
package file
