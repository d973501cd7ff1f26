// Copyright (c) 2026 Targeted Entropy.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/TargetedEntropy/change-log-o-matic/internal/cacheutil"
)

// Namespace subdirectories beneath the registry root. The two stores never
// collide because each owns its own subdirectory.
const (
	modsDir  = "mods"
	filesDir = "files"
)

// Record is one cached lookup result. Write-once: records are never mutated,
// only replaced wholesale by an equivalent payload.
type Record struct {
	Key       string
	Payload   []byte
	FetchedAt time.Time
}

// Stats is a point-in-time snapshot of a store's counters.
type Stats struct {
	Hits   uint64
	Misses uint64
	Writes uint64
	Errors uint64
}

// Add returns the element-wise sum of two snapshots.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Hits:   s.Hits + o.Hits,
		Misses: s.Misses + o.Misses,
		Writes: s.Writes + o.Writes,
		Errors: s.Errors + o.Errors,
	}
}

// Store is one cache namespace. Implementations must be safe for concurrent
// use; same-key races are last-write-wins.
type Store interface {
	// Get returns the record for key, or (nil, false) when absent. Corrupt or
	// unreadable entries read as absent.
	Get(key string) (*Record, bool)
	// Put stores payload under key. Failures are counted and returned but
	// never abort the caller's run.
	Put(key string, payload []byte) error
	// Stats returns a snapshot of the counters.
	Stats() Stats
}

// Registry binds the two lookup namespaces to one cache root. Passed
// explicitly to every component that caches; there is no ambient global.
type Registry struct {
	Mods  Store
	Files Store

	root    string
	enabled bool
}

// New binds a registry to root, creating the mods/ and files/ subdirectories
// if absent.
func New(root string) (Registry, error) {
	for _, sub := range []string{modsDir, filesDir} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil { //nolint:mnd
			return Registry{}, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}
	return Registry{
		Mods:    &diskStore{root: root, namespace: modsDir},
		Files:   &diskStore{root: root, namespace: filesDir},
		root:    root,
		enabled: true,
	}, nil
}

// Disabled returns a registry whose stores never hit disk: Get always misses
// and Put always succeeds without writing. Callers stay cache-agnostic.
func Disabled() Registry {
	return Registry{
		Mods:  noopStore{},
		Files: noopStore{},
	}
}

// Enabled reports whether the registry is backed by disk.
func (r Registry) Enabled() bool { return r.enabled }

// Root returns the bound cache directory; empty for a disabled registry.
func (r Registry) Root() string { return r.root }

// TotalStats aggregates both namespaces.
func (r Registry) TotalStats() Stats {
	return r.Mods.Stats().Add(r.Files.Stats())
}

// counters uses atomics: workers racing on the same store must not lose
// increments, and a mutex here would serialize the whole pool on bookkeeping.
type counters struct {
	hits   atomic.Uint64
	misses atomic.Uint64
	writes atomic.Uint64
	errors atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Writes: c.writes.Load(),
		Errors: c.errors.Load(),
	}
}

type diskStore struct {
	root      string
	namespace string
	counters
}

func (s *diskStore) Get(key string) (*Record, bool) {
	e, ok := cacheutil.Read(s.root, []string{s.namespace}, key)
	if !ok {
		s.misses.Add(1)
		return nil, false
	}
	s.hits.Add(1)
	return &Record{Key: key, Payload: e.Data, FetchedAt: e.FetchedAt}, true
}

func (s *diskStore) Put(key string, payload []byte) error {
	if err := cacheutil.Write(s.root, []string{s.namespace}, key, payload); err != nil {
		s.errors.Add(1)
		return err
	}
	s.writes.Add(1)
	return nil
}

func (s *diskStore) Stats() Stats { return s.snapshot() }

type noopStore struct{}

func (noopStore) Get(string) (*Record, bool) { return nil, false }
func (noopStore) Put(string, []byte) error { return nil }
func (noopStore) Stats() Stats { return Stats{} }
