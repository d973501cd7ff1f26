// Copyright (c) 2026 Targeted Entropy.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/TargetedEntropy/change-log-o-matic/internal/log"
)

// Entry represents a cached artifact on disk.
// Key is the clear-text key; EncodedKey is the hashed filename.
type Entry struct {
	Key        string
	EncodedKey string
	Path       string
	Data       []byte
	FetchedAt  time.Time
}

// Dir resolves the default base cache directory for callers that did not pass
// one explicitly.
// Precedence:
//  1. CLOM_CACHE_DIR, if set and non-empty
//  2. os.UserCacheDir()/change-log-o-matic
//
// Returns ("", false) if a base cannot be resolved (treat as disabled).
func Dir() (string, bool) {
	if c, ok := os.LookupEnv("CLOM_CACHE_DIR"); ok && c != "" {
		return c, true
	}
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "change-log-o-matic"), true
	}
	return "", false
}

// Enabled returns true unless CLOM_CACHE explicitly disables it ("0"/"false").
func Enabled() bool {
	enabled, _ := os.LookupEnv("CLOM_CACHE")
	return enabled == "" || (enabled != "0" && enabled != "false")
}

// EntryPath returns the absolute path where a cache entry would live beneath
// base given subdirectory components and the clear-text key. It also returns
// true if a file currently exists at that path.
func EntryPath(base string, subdirs []string, clearKey string) (string, bool) {
	encoded := EncodeKey(clearKey)
	p := filepath.Join(append([]string{base}, append(subdirs, encoded)...)...)
	if _, err := os.Stat(p); err == nil {
		return p, true
	}
	return p, false
}

// Purge removes files beneath base older than the provided number of hours.
// If hours <= 0 or base is empty, it is a no-op.
func Purge(base string, hours int) error {
	if hours <= 0 || base == "" {
		log.Debug("cache cleaning disabled")
		return nil
	}

	maxAge := time.Duration(hours) * time.Hour
	if err := filepath.Walk(base, func(path string, info os.FileInfo, walkErr error) error {
		// Guard against nil info (can occur if the file disappeared from under
		// a concurrent run racing on the same cache directory).
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}

		if info == nil {
			return nil
		}

		if !info.IsDir() && time.Since(info.ModTime()) > maxAge {
			if err := os.Remove(path); err == nil {
				log.Debugf("removed cache file %s", path)
			} else {
				log.WithError(err).Warnf("failed to remove cache file %s", path)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}
	return nil
}

// Read attempts to read a cached entry. The second return value is false when
// the entry is absent or unreadable; unreadable entries are misses, never
// errors.
func Read(base string, subdirs []string, clearKey string) (*Entry, bool) {
	if base == "" {
		return nil, false
	}
	p, ok := EntryPath(base, subdirs, clearKey)
	if !ok {
		return nil, false
	}
	fetched := time.Now()
	if info, err := os.Stat(p); err == nil {
		fetched = info.ModTime()
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false
	}
	b = bytes.TrimSpace(b)
	log.Debugf("cache hit: key=%s", clearKey)
	return &Entry{
		Key:        clearKey,
		EncodedKey: EncodeKey(clearKey),
		Path:       p,
		Data:       b,
		FetchedAt:  fetched,
	}, true
}

// Write stores data for the given key beneath base/subdirs. Creates
// directories as needed. The write is atomic per key: data lands in a temp
// file first and is renamed into place, so concurrent readers observe either
// the full payload or nothing.
func Write(base string, subdirs []string, clearKey string, data []byte) error {
	if base == "" {
		return nil // treat as disabled.
	}
	encoded := EncodeKey(clearKey)
	dir := filepath.Join(append([]string{base}, subdirs...)...)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, encoded+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create cache temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close cache temp file: %w", err)
	}

	p := filepath.Join(dir, encoded)
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to commit cache entry: %w", err)
	}
	log.Debugf("cache write: key=%s", clearKey)
	return nil
}

// EncodeKey returns the filesystem-safe form of a clear-text key: the hex of
// its sha256 digest. Stable across runs, collision-resistant, and indifferent
// to characters the filesystem would reject.
func EncodeKey(input string) string {
	h := sha256.New()
	h.Write([]byte(input))
	return hex.EncodeToString(h.Sum(nil))
}
