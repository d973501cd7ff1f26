// Copyright (c) 2026 Targeted Entropy.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package differ computes the structured difference between two pack
// manifests and can render a raw JSON delta of the underlying documents.
package differ
