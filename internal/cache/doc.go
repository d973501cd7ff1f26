// Copyright (c) 2026 Targeted Entropy.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package cache exposes the persistent lookup cache as a Registry of two
// independent namespaces (mod metadata and file metadata), each a flat
// directory of one file per sha256-encoded key. Payloads are opaque bytes;
// their format is owned by the lookup client.
package cache
