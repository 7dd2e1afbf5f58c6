// Package loader turns diff requests into diff results: it resolves the
// request, runs the retrieval strategies against git and fetches each
// file's diff concurrently.
package loader

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/zjrosen/diffnav/internal/cachemanager"
	"github.com/zjrosen/diffnav/internal/diff"
	"github.com/zjrosen/diffnav/internal/git"
	"github.com/zjrosen/diffnav/internal/log"
	"github.com/zjrosen/diffnav/internal/tracing"
)

// DefaultConcurrency bounds concurrent per-file git invocations.
const DefaultConcurrency = 8

// DefaultCacheTTL is how long a loaded result is reused.
const DefaultCacheTTL = 5 * time.Minute

// CacheKey identifies a request in the result cache.
type CacheKey string

// KeyFor returns the cache key of req.
func KeyFor(req git.Request) CacheKey {
	return CacheKey(strings.Join([]string{
		req.Target,
		req.Base,
		strconv.FormatBool(req.IgnoreWhitespace),
		strconv.Itoa(req.ContextLines),
	}, "\x00"))
}

// Option configures a Loader.
type Option func(*Loader)

// WithConcurrency bounds concurrent per-file retrievals. Values below 1
// are ignored.
func WithConcurrency(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// WithUntracked controls whether untracked files are shown as additions
// in modes that compare against the working directory.
func WithUntracked(enabled bool) Option {
	return func(l *Loader) { l.untracked = enabled }
}

// WithCacheTTL sets the result TTL. Zero or less disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(l *Loader) { l.ttl = ttl }
}

// WithTracer sets the tracer used for load spans.
func WithTracer(t trace.Tracer) Option {
	return func(l *Loader) {
		if t != nil {
			l.tracer = t
		}
	}
}

// WithViewMode sets the display mode echoed in every result.
func WithViewMode(m diff.ViewMode) Option {
	return func(l *Loader) { l.viewMode = m }
}

// Loader loads diff results through a GitExecutor.
type Loader struct {
	exec        git.GitExecutor
	concurrency int
	untracked   bool
	ttl         time.Duration
	viewMode    diff.ViewMode
	tracer      trace.Tracer
	cache       *cachemanager.ReadThroughCache[CacheKey, *diff.Result, git.Request]
}

// New creates a Loader.
func New(exec git.GitExecutor, opts ...Option) *Loader {
	l := &Loader{
		exec:        exec,
		concurrency: DefaultConcurrency,
		untracked:   true,
		ttl:         DefaultCacheTTL,
		viewMode:    diff.ViewUnified,
		tracer:      noop.NewTracerProvider().Tracer("noop"),
	}
	for _, opt := range opts {
		opt(l)
	}

	manager := cachemanager.NewInMemoryCacheManager[CacheKey, *diff.Result](
		"diff-results", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	l.cache = cachemanager.NewReadThroughCache[CacheKey, *diff.Result, git.Request](manager, l.load, l.ttl <= 0)
	return l
}

// Load returns the diff result for req, from cache when possible.
func (l *Loader) Load(ctx context.Context, req git.Request) (*diff.Result, error) {
	return l.cache.Get(ctx, KeyFor(req), req, l.ttl)
}

// Invalidate drops every cached result. It is the watcher's invalidation
// callback.
func (l *Loader) Invalidate() {
	if err := l.cache.Invalidate(context.Background()); err != nil {
		log.ErrorErr(log.CatCache, "Failed to invalidate diff cache", err)
	}
}

func (l *Loader) load(ctx context.Context, req git.Request) (result *diff.Result, err error) {
	ctx, span := l.tracer.Start(ctx, tracing.SpanLoad, trace.WithAttributes(
		attribute.String(tracing.AttrDiffTarget, req.Target),
		attribute.String(tracing.AttrDiffBase, req.Base),
	))
	defer func() {
		tracing.RecordError(span, err)
		span.End()
	}()

	plan, err := l.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String(tracing.AttrDiffMode, string(plan.Mode)))

	strategy, changes, err := l.list(ctx, plan)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String(tracing.AttrDiffStrategy, strategy.Name))

	files, err := l.fetch(ctx, plan, strategy, changes)
	if err != nil {
		return nil, err
	}
	if plan.IgnoreWhitespace {
		files = dropWhitespaceOnly(files)
	}

	if plan.IncludeUntracked && l.untracked {
		extra, err := l.loadUntracked(ctx)
		if err != nil {
			return nil, err
		}
		files = append(files, extra...)
	}

	result = diff.NewResult(files)
	result.IgnoreWhitespace = plan.IgnoreWhitespace
	result.ViewMode = l.viewMode
	result.DiffMode = string(plan.Mode)
	result.Target = plan.Target
	result.Base = plan.Base

	failed := 0
	for _, f := range files {
		if f.Failed() {
			failed++
		}
	}
	span.SetAttributes(
		attribute.Int(tracing.AttrDiffFiles, len(files)),
		attribute.Int(tracing.AttrDiffFailed, failed),
	)
	log.Info(log.CatDiff, "Diff loaded",
		"target", plan.Target,
		"base", plan.Base,
		"mode", string(plan.Mode),
		"strategy", strategy.Name,
		"files", len(files),
		"failed", failed,
		"additions", result.Stats.Additions,
		"deletions", result.Stats.Deletions)
	return result, nil
}

// prepare resolves req and checks that named revisions exist before any
// diff runs.
func (l *Loader) prepare(ctx context.Context, req git.Request) (git.Plan, error) {
	plan, err := git.Resolve(req)
	if err != nil {
		return git.Plan{}, err
	}
	for _, rev := range plan.RevisionsToVerify() {
		if err := l.exec.VerifyRevision(ctx, rev); err != nil {
			return git.Plan{}, fmt.Errorf("revision %q: %w", rev, err)
		}
	}
	return plan, nil
}

// list tries the plan's strategies in order. The first one that yields a
// non-empty listing wins. If every strategy that ran came back empty the
// diff is empty; if none ran successfully the last error is returned.
// Strategies marked OnlyOnError run only after their predecessor failed.
func (l *Loader) list(ctx context.Context, plan git.Plan) (git.Strategy, []diff.Change, error) {
	var (
		lastErr    error
		empty      git.Strategy
		anyEmpty   bool
		prevFailed bool
	)

	for _, s := range plan.Strategies {
		if s.OnlyOnError && !prevFailed {
			log.Debug(log.CatGit, "Skipping fallback strategy", "strategy", s.Name)
			prevFailed = false
			continue
		}
		changes, err := l.listOne(ctx, plan, s)
		prevFailed = err != nil
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return git.Strategy{}, nil, ctxErr
			}
			log.Warn(log.CatGit, "Retrieval strategy failed", "strategy", s.Name, "error", err)
			lastErr = err
			continue
		}
		if len(changes) == 0 {
			log.Debug(log.CatGit, "Retrieval strategy found no changes", "strategy", s.Name)
			if !anyEmpty {
				empty, anyEmpty = s, true
			}
			continue
		}
		return s, changes, nil
	}

	if anyEmpty {
		return empty, nil, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no retrieval strategy")
	}
	return git.Strategy{}, nil, fmt.Errorf("listing changes: %w", lastErr)
}

func (l *Loader) listOne(ctx context.Context, plan git.Plan, s git.Strategy) ([]diff.Change, error) {
	ctx, span := l.tracer.Start(ctx, tracing.SpanList, trace.WithAttributes(
		attribute.String(tracing.AttrDiffStrategy, s.Name),
	))
	defer span.End()

	changes, err := l.exec.ListChanges(ctx, plan.ListArgs(s))
	tracing.RecordError(span, err)
	return changes, err
}

// fetch retrieves every file's diff concurrently. A file that fails is
// kept with LoadError set.
func (l *Loader) fetch(ctx context.Context, plan git.Plan, s git.Strategy, changes []diff.Change) ([]diff.FileDiff, error) {
	files := make([]diff.FileDiff, len(changes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, c := range changes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			files[i] = l.fetchOne(gctx, plan, s, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return files, nil
}

func (l *Loader) fetchOne(ctx context.Context, plan git.Plan, s git.Strategy, c diff.Change) diff.FileDiff {
	ctx, span := l.tracer.Start(ctx, tracing.SpanFile, trace.WithAttributes(
		attribute.String(tracing.AttrFilePath, c.Path),
	))
	defer span.End()

	raw, err := l.exec.Diff(ctx, plan.DiffArgs(s, c.Path, c.OldPath))
	if err == nil {
		var f diff.FileDiff
		f, err = diff.BuildFile(c, raw)
		if err == nil {
			return f
		}
	}

	tracing.RecordError(span, err)
	log.Warn(log.CatDiff, "File diff failed", "path", c.Path, "error", err)
	return failedFile(c, err)
}

// dropWhitespaceOnly removes modified files whose -w diff came back empty.
// The listing still names them, but nothing is left to show.
func dropWhitespaceOnly(files []diff.FileDiff) []diff.FileDiff {
	kept := files[:0]
	for _, f := range files {
		if f.Status == diff.StatusModified && !f.Binary && !f.Failed() && len(f.Chunks) == 0 {
			log.Debug(log.CatDiff, "Hiding whitespace-only change", "path", f.Path)
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

func failedFile(c diff.Change, err error) diff.FileDiff {
	f := diff.FileDiff{
		Path:      c.Path,
		Status:    c.Status,
		Chunks:    []diff.DiffChunk{},
		LoadError: err.Error(),
	}
	if c.Status == diff.StatusRenamed {
		f.OldPath = c.OldPath
	}
	if f.Status == "" {
		f.Status = diff.StatusModified
	}
	return f
}

// loadUntracked synthesizes all-added diffs for untracked files. A failed
// listing is logged and contributes nothing.
func (l *Loader) loadUntracked(ctx context.Context) ([]diff.FileDiff, error) {
	paths, err := l.exec.UntrackedFiles(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.Warn(log.CatGit, "Listing untracked files failed", "error", err)
		return nil, nil
	}

	files := make([]diff.FileDiff, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			files[i] = l.untrackedFile(gctx, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

func (l *Loader) untrackedFile(ctx context.Context, path string) diff.FileDiff {
	c := diff.Change{Status: diff.StatusAdded, Path: path}

	data, ok, err := l.exec.ReadFile(ctx, git.Source{Kind: git.SourceWorktree}, path)
	if err == nil && !ok {
		err = fmt.Errorf("%w: %s", git.ErrPathNotFound, path)
	}
	if err != nil {
		log.Warn(log.CatDiff, "Untracked file unreadable", "path", path, "error", err)
		return failedFile(c, err)
	}
	return diff.SynthesizeAddition(path, data)
}
