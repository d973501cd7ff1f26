// Copyright (c) 2026 Targeted Entropy.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package curse looks up human-readable mod and file metadata from the
// CurseForge website. Lookups are best-effort: candidate URL shapes are tried
// in priority order, and a response of drifting shape still yields a name
// when one is present. A confirmed "does not exist" is distinguished from
// infrastructure failure so callers can cache the former and retry the
// latter.
package curse
