// Copyright (c) 2026 Targeted Entropy.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package command wires the CLI surface: flag definitions (with env and
// config-file value sources) and the compare action that drives the
// load -> diff -> enrich -> render pipeline.
package command
