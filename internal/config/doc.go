// Package config loads and validates the wordreel TOML configuration.
//
// Loading resolves the config path (explicit flag, then
// ~/.config/wordreel/config.toml, then ./wordreel.toml), decodes TOML over
// repository defaults, expands and normalizes paths, and validates ranges.
// A missing file is not an error; defaults apply.
package config
