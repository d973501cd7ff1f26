// Copyright (c) 2026 Targeted Entropy.
// SPDX-License-Identifier: Apache-2.0

package enrich

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/TargetedEntropy/change-log-o-matic/internal/cache"
	"github.com/TargetedEntropy/change-log-o-matic/internal/curse"
	"github.com/TargetedEntropy/change-log-o-matic/internal/differ"
	"github.com/TargetedEntropy/change-log-o-matic/internal/log"
	"github.com/TargetedEntropy/change-log-o-matic/internal/manifest"
)

// Defaults match the politeness envelope the website tolerates.
const (
	DefaultMaxWorkers = 3
	DefaultDelay      = 500 * time.Millisecond
)

// Status records how an entry's metadata was obtained. The zero value means
// enrichment was not attempted (disabled runs).
type Status string

const (
	StatusNone   Status = ""
	StatusHit    Status = "hit"    // served entirely from cache
	StatusMiss   Status = "miss"   // at least one fresh lookup ran
	StatusFailed Status = "failed" // a lookup failed transiently
)

// Entry is a manifest entry plus whatever metadata enrichment resolved.
type Entry struct {
	manifest.Entry
	ResolvedName     string `json:"resolvedName,omitempty"`
	ResolvedFileInfo string `json:"resolvedFileInfo,omitempty"`
	Status           Status `json:"status,omitempty"`
}

// Update pairs the enriched old and new sides of one updated project.
type Update struct {
	Old Entry `json:"old"`
	New Entry `json:"new"`
}

// Result is the report model: the original diff plus enriched buckets in diff
// order, and the aggregate cache statistics of the run.
type Result struct {
	Diff    differ.Result `json:"diff"`
	Added   []Entry       `json:"added"`
	Removed []Entry       `json:"removed"`
	Updated []Update      `json:"updated"`
	Stats   cache.Stats   `json:"cacheStats"`
}

// Lookup is the external metadata source. *curse.Client satisfies it; tests
// substitute fakes.
type Lookup interface {
	LookupProject(ctx context.Context, identity string) (*curse.ProjectInfo, error)
	LookupFile(ctx context.Context, identity, fileID string) (*curse.FileInfo, error)
}

// Options controls one enrichment run.
type Options struct {
	// Enable gates the whole component; when false Enrich is a pass-through.
	Enable bool
	// FetchFileInfo additionally resolves per-file metadata, roughly doubling
	// the external call volume.
	FetchFileInfo bool
	// Delay is the minimum spacing between one worker's successive external
	// calls. Aggregate request rate is bounded by MaxWorkers/Delay.
	Delay time.Duration
	// MaxWorkers bounds the concurrent lookups.
	MaxWorkers int
	// Cache supplies the two lookup namespaces. A disabled registry works
	// identically, it just never hits.
	Cache cache.Registry
}

// taskKind discriminates the two lookup flavors.
type taskKind int

const (
	taskProject taskKind = iota
	taskFile
)

type task struct {
	kind      taskKind
	projectID string
	fileID    string
}

// outcomes collects worker results keyed by identity / identity_file.
// Workers only ever write their own task's key, so a plain mutex suffices.
type outcomes struct {
	mu       sync.Mutex
	projects map[string]projectOutcome
	files    map[string]fileOutcome
}

type projectOutcome struct {
	info   *curse.ProjectInfo
	status Status
}

type fileOutcome struct {
	info   *curse.FileInfo
	status Status
}

func fileKey(projectID, fileID string) string { return projectID + "_" + fileID }

// Enrich attaches looked-up metadata to every changed entry of the diff.
// Unchanged entries carry no new information and are skipped. No lookup
// failure aborts the run; the only error returned is context cancellation.
func Enrich(ctx context.Context, d differ.Result, client Lookup, opts Options) (*Result, error) {
	if !opts.Enable {
		return passthrough(d), nil
	}

	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = DefaultMaxWorkers
	}
	if opts.Delay < 0 {
		opts.Delay = DefaultDelay
	}

	tasks := buildTasks(d, opts.FetchFileInfo)
	log.Infof("enriching %d entries: tasks=%d workers=%d delay=%s",
		len(d.Added)+len(d.Removed)+2*len(d.Updated), len(tasks), opts.MaxWorkers, opts.Delay)

	out := &outcomes{
		projects: make(map[string]projectOutcome),
		files:    make(map[string]fileOutcome),
	}

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan task)

	g.Go(func() error {
		defer close(jobs)
		for _, t := range tasks {
			select {
			case jobs <- t:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < opts.MaxWorkers; i++ {
		g.Go(func() error {
			// One limiter per worker: a worker sleeps between its own calls
			// without stalling the rest of the pool.
			limiter := rate.NewLimiter(rate.Every(opts.Delay), 1)
			for t := range jobs {
				if err := runTask(gctx, t, client, opts.Cache, limiter, out); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return merge(d, opts, out), nil
}

// buildTasks derives the deduplicated work set: one project task per unique
// identity among added, removed and both sides of updated, plus one file task
// per unique (identity, fileID) pair when file info is wanted.
func buildTasks(d differ.Result, fetchFiles bool) []task {
	var tasks []task
	seenProjects := make(map[string]struct{})
	seenFiles := make(map[string]struct{})

	addProject := func(e manifest.Entry) {
		if _, ok := seenProjects[e.ProjectID]; ok {
			return
		}
		seenProjects[e.ProjectID] = struct{}{}
		tasks = append(tasks, task{kind: taskProject, projectID: e.ProjectID})
	}
	addFile := func(e manifest.Entry) {
		if !fetchFiles || e.FileID == "" {
			return
		}
		k := fileKey(e.ProjectID, e.FileID)
		if _, ok := seenFiles[k]; ok {
			return
		}
		seenFiles[k] = struct{}{}
		tasks = append(tasks, task{kind: taskFile, projectID: e.ProjectID, fileID: e.FileID})
	}

	for _, e := range d.Added {
		addProject(e)
		addFile(e)
	}
	for _, e := range d.Removed {
		addProject(e)
		addFile(e)
	}
	for _, u := range d.Updated {
		addProject(u.Old)
		addFile(u.Old)
		addFile(u.New)
	}

	return tasks
}

// runTask resolves one work item: cache first, lookup on miss. The returned
// error is only ever a cancellation; lookup failures are recorded as Failed
// outcomes and the pool keeps draining.
func runTask(ctx context.Context, t task, client Lookup, reg cache.Registry, limiter *rate.Limiter, out *outcomes) error {
	switch t.kind {
	case taskProject:
		return runProject(ctx, t.projectID, client, reg.Mods, limiter, out)
	case taskFile:
		return runFile(ctx, t.projectID, t.fileID, client, reg.Files, limiter, out)
	}
	return nil
}

func runProject(ctx context.Context, id string, client Lookup, store cache.Store, limiter *rate.Limiter, out *outcomes) error {
	if rec, ok := store.Get(id); ok {
		if info, err := curse.DecodeProject(rec.Payload); err == nil {
			out.setProject(id, projectOutcome{info: info, status: StatusHit})
			return nil
		}
		// Corrupt payload reads as a miss.
		log.Warnf("corrupt cache payload for %s, refetching", id)
	}

	if err := limiter.Wait(ctx); err != nil {
		return err
	}

	info, err := client.LookupProject(ctx, id)
	switch {
	case err == nil:
		putLogged(store, id, curse.EncodeProject(info))
		out.setProject(id, projectOutcome{info: info, status: StatusMiss})
	case errors.Is(err, curse.ErrNotFound):
		// Cache the absence so future runs short-circuit.
		sentinel := &curse.ProjectInfo{ID: id, NotFound: true}
		putLogged(store, id, curse.EncodeProject(sentinel))
		out.setProject(id, projectOutcome{info: sentinel, status: StatusMiss})
	case errors.Is(err, curse.ErrTransient):
		log.WithError(err).Warnf("project lookup failed: id=%s", id)
		out.setProject(id, projectOutcome{status: StatusFailed})
	default:
		return err
	}
	return nil
}

func runFile(ctx context.Context, id, fileID string, client Lookup, store cache.Store, limiter *rate.Limiter, out *outcomes) error {
	key := fileKey(id, fileID)
	if rec, ok := store.Get(key); ok {
		if info, err := curse.DecodeFile(rec.Payload); err == nil {
			out.setFile(key, fileOutcome{info: info, status: StatusHit})
			return nil
		}
		log.Warnf("corrupt cache payload for %s, refetching", key)
	}

	if err := limiter.Wait(ctx); err != nil {
		return err
	}

	info, err := client.LookupFile(ctx, id, fileID)
	switch {
	case err == nil:
		putLogged(store, key, curse.EncodeFile(info))
		out.setFile(key, fileOutcome{info: info, status: StatusMiss})
	case errors.Is(err, curse.ErrNotFound):
		sentinel := &curse.FileInfo{ProjectID: id, ID: fileID, NotFound: true}
		putLogged(store, key, curse.EncodeFile(sentinel))
		out.setFile(key, fileOutcome{info: sentinel, status: StatusMiss})
	case errors.Is(err, curse.ErrTransient):
		log.WithError(err).Warnf("file lookup failed: id=%s file=%s", id, fileID)
		out.setFile(key, fileOutcome{status: StatusFailed})
	default:
		return err
	}
	return nil
}

// putLogged writes through to the cache. Write failures are already counted
// by the store; they must not fail the task.
func putLogged(store cache.Store, key string, payload []byte) {
	if err := store.Put(key, payload); err != nil {
		log.WithError(err).Warnf("cache write failed: key=%s", key)
	}
}

func (o *outcomes) setProject(key string, v projectOutcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.projects[key] = v
}

func (o *outcomes) setFile(key string, v fileOutcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.files[key] = v
}

// merge folds worker outcomes back into the diff's original positions, so
// report order matches diff order regardless of completion order.
func merge(d differ.Result, opts Options, out *outcomes) *Result {
	r := &Result{Diff: d, Stats: opts.Cache.TotalStats()}

	for _, e := range d.Added {
		r.Added = append(r.Added, out.enrichEntry(e, opts.FetchFileInfo))
	}
	for _, e := range d.Removed {
		r.Removed = append(r.Removed, out.enrichEntry(e, opts.FetchFileInfo))
	}
	for _, u := range d.Updated {
		r.Updated = append(r.Updated, Update{
			Old: out.enrichEntry(u.Old, opts.FetchFileInfo),
			New: out.enrichEntry(u.New, opts.FetchFileInfo),
		})
	}

	return r
}

func (o *outcomes) enrichEntry(e manifest.Entry, withFile bool) Entry {
	o.mu.Lock()
	defer o.mu.Unlock()

	enriched := Entry{Entry: e}

	po, ok := o.projects[e.ProjectID]
	if !ok {
		return enriched
	}
	enriched.Status = po.status
	if po.info != nil && !po.info.NotFound {
		enriched.ResolvedName = po.info.Name
	}

	if withFile && e.FileID != "" {
		fo, ok := o.files[fileKey(e.ProjectID, e.FileID)]
		if ok {
			if fo.info != nil && !fo.info.NotFound {
				if fo.info.DisplayName != "" {
					enriched.ResolvedFileInfo = fo.info.DisplayName
				} else {
					enriched.ResolvedFileInfo = fo.info.FileName
				}
			}
			enriched.Status = combine(enriched.Status, fo.status)
		}
	}

	return enriched
}

// combine degrades a status pessimistically: any failure wins, any fresh
// fetch beats a pure cache hit.
func combine(a, b Status) Status {
	switch {
	case a == StatusFailed || b == StatusFailed:
		return StatusFailed
	case a == StatusMiss || b == StatusMiss:
		return StatusMiss
	case a == StatusHit || b == StatusHit:
		return StatusHit
	default:
		return StatusNone
	}
}

// passthrough wraps the diff into the enriched shapes with every resolution
// field absent, so callers need not special-case disabled enrichment.
func passthrough(d differ.Result) *Result {
	r := &Result{Diff: d}
	for _, e := range d.Added {
		r.Added = append(r.Added, Entry{Entry: e})
	}
	for _, e := range d.Removed {
		r.Removed = append(r.Removed, Entry{Entry: e})
	}
	for _, u := range d.Updated {
		r.Updated = append(r.Updated, Update{Old: Entry{Entry: u.Old}, New: Entry{Entry: u.New}})
	}
	return r
}
