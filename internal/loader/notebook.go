package loader

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/diffnav/internal/diff"
	"github.com/zjrosen/diffnav/internal/git"
	"github.com/zjrosen/diffnav/internal/log"
	"github.com/zjrosen/diffnav/internal/notebook"
	"github.com/zjrosen/diffnav/internal/tracing"
)

// LoadNotebook reads both sides of the notebook at path for req and diffs
// them cell by cell. A side that is missing or fails to parse counts as
// absent. Strategies are tried in order until both sides can be read.
func (l *Loader) LoadNotebook(ctx context.Context, req git.Request, path string) (result notebook.Result, err error) {
	ctx, span := l.tracer.Start(ctx, tracing.SpanLoadNotebook, trace.WithAttributes(
		attribute.String(tracing.AttrFilePath, path),
		attribute.String(tracing.AttrDiffTarget, req.Target),
	))
	defer func() {
		tracing.RecordError(span, err)
		span.End()
	}()

	plan, err := l.prepare(ctx, req)
	if err != nil {
		return notebook.Result{}, err
	}

	var lastErr error
	for _, s := range plan.Strategies {
		oldData, oldOK, err := l.exec.ReadFile(ctx, s.OldSource, path)
		if err != nil {
			lastErr = err
			log.Debug(log.CatNotebook, "Old side unreadable", "strategy", s.Name, "path", path, "error", err)
			continue
		}
		newData, newOK, err := l.exec.ReadFile(ctx, s.NewSource, path)
		if err != nil {
			lastErr = err
			log.Debug(log.CatNotebook, "New side unreadable", "strategy", s.Name, "path", path, "error", err)
			continue
		}
		if !oldOK && !newOK {
			lastErr = fmt.Errorf("%w: %s", git.ErrPathNotFound, path)
			continue
		}

		var oldNB, newNB *notebook.Notebook
		if oldOK {
			oldNB = notebook.ParseOrNil(oldData, s.OldSource.String()+":"+path)
		}
		if newOK {
			newNB = notebook.ParseOrNil(newData, s.NewSource.String()+":"+path)
		}

		var opts []notebook.Option
		if plan.ContextLines > 0 {
			opts = append(opts, notebook.WithContextLines(plan.ContextLines))
		}
		span.SetAttributes(attribute.String(tracing.AttrDiffStrategy, s.Name))
		return notebook.Diff(path, notebookStatus(oldOK, newOK), oldNB, newNB, opts...), nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return notebook.Result{}, ctxErr
	}
	return notebook.Result{}, fmt.Errorf("loading notebook %s: %w", path, lastErr)
}

func notebookStatus(oldOK, newOK bool) diff.FileStatus {
	switch {
	case !oldOK:
		return diff.StatusAdded
	case !newOK:
		return diff.StatusDeleted
	}
	return diff.StatusModified
}
