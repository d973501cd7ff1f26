// Copyright (c) 2026 Targeted Entropy.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package enrich fans lookups for every changed entry of a diff across a
// bounded worker pool, cache-first, with a per-worker politeness delay, and
// merges the results back into the diff's order.
package enrich
