// Package config loads, validates, and normalizes reelforge configuration.
//
// Configuration lives in a TOML file (default ~/.config/reelforge/config.toml
// or reelforge.toml in the working directory). Load applies repository
// defaults first, then file values, then normalizes every path field to an
// absolute location so downstream components never expand paths themselves.
package config
