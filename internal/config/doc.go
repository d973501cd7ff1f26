// Copyright (c) 2026 Targeted Entropy.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package config provides loading and typed accessors for change-log-o-matic's
// user configuration. The configuration is expected to be a YAML document
// located in the user's configuration directory, typically:
//   - Linux/macOS: $XDG_CONFIG_HOME/change-log-o-matic.yaml or
//     $HOME/.config/change-log-o-matic.yaml
//   - Windows: %APPDATA%/change-log-o-matic.yaml
//
// Actual resolution relies on os.UserConfigDir which follows platform
// conventions.
package config
