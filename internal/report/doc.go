// Copyright (c) 2026 Targeted Entropy.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package report turns an enriched diff into the final changelog artifact.
// Markdown is the canonical format; text (terminal tables), json and yaml are
// alternates over the same document.
package report
