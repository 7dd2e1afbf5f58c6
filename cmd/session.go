package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/zjrosen/diffnav/internal/flags"
	"github.com/zjrosen/diffnav/internal/git"
	"github.com/zjrosen/diffnav/internal/loader"
	"github.com/zjrosen/diffnav/internal/log"
	"github.com/zjrosen/diffnav/internal/nav"
	"github.com/zjrosen/diffnav/internal/tracing"
	"github.com/zjrosen/diffnav/internal/watcher"
)

// shutdownTimeout bounds how long pending spans may take to flush.
const shutdownTimeout = 5 * time.Second

// session holds what every command needs to load a diff.
type session struct {
	root     string
	request  git.Request
	plan     git.Plan
	loader   *loader.Loader
	provider *tracing.Provider
}

// requestFromArgs maps positional arguments and configuration to a request.
func requestFromArgs(args []string) git.Request {
	req := git.Request{
		IgnoreWhitespace: cfg.Diff.IgnoreWhitespace,
		ContextLines:     cfg.Diff.ContextLines,
	}
	if len(args) > 0 {
		req.Target = args[0]
	}
	if len(args) > 1 {
		req.Base = args[1]
	}
	return req
}

func newSession(ctx context.Context, args []string, featureFlags *flags.Registry) (*session, error) {
	req := requestFromArgs(args)
	plan, err := git.Resolve(req)
	if err != nil {
		return nil, err
	}

	dir := repoDir
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
	}

	probe := git.NewRealExecutor(dir)
	root, err := probe.RepoRoot(ctx)
	if err != nil {
		return nil, err
	}
	log.Info(log.CatGit, "Resolved repository", "root", root, "mode", string(plan.Mode))

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}

	ld := loader.New(git.NewRealExecutor(root),
		loader.WithConcurrency(cfg.Diff.Concurrency),
		loader.WithUntracked(featureFlags.Enabled(flags.FlagUntrackedFiles)),
		loader.WithCacheTTL(cfg.Diff.CacheTTL),
		loader.WithTracer(provider.Tracer()),
		loader.WithViewMode(cfg.UI.ViewMode),
	)

	return &session{
		root:     root,
		request:  req,
		plan:     plan,
		loader:   ld,
		provider: provider,
	}, nil
}

// startWatcher begins watching the repository; reloads invalidate the
// loader's cache before listeners hear about them.
func (s *session) startWatcher(useGitignore bool) (*watcher.Watcher, error) {
	wcfg := watcher.DefaultConfig(s.root, s.plan.Mode)
	if cfg.Watch.Debounce > 0 {
		wcfg.Debounce = cfg.Watch.Debounce
	}
	wcfg.IgnoreGlobs = slices.Concat(wcfg.IgnoreGlobs, cfg.Watch.IgnoreGlobs)
	wcfg.UseGitignore = cfg.Watch.UseGitignore && useGitignore
	wcfg.OnInvalidate = s.loader.Invalidate

	w, err := watcher.New(wcfg)
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		_ = w.Stop()
		return nil, err
	}
	return w, nil
}

// Close flushes traces.
func (s *session) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.provider.Shutdown(ctx); err != nil {
		log.ErrorErr(log.CatConfig, "Trace shutdown failed", err)
	}
}

// readComments loads review comments from a JSON array file.
func readComments(path string) ([]nav.Comment, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied path
	if err != nil {
		return nil, fmt.Errorf("reading comments: %w", err)
	}
	var comments []nav.Comment
	if err := json.Unmarshal(data, &comments); err != nil {
		return nil, fmt.Errorf("parsing comments %s: %w", path, err)
	}
	return comments, nil
}
