// Copyright (c) 2026 Targeted Entropy.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package manifest models a CurseForge modpack manifest and loads it from a
// pack archive. Loading is the validation boundary: everything downstream
// (differ, enrichment, report) trusts a *Manifest.
package manifest
