package tracing

import (
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys.
const (
	AttrDiffTarget   = "diff.target"
	AttrDiffBase     = "diff.base"
	AttrDiffMode     = "diff.mode"
	AttrDiffStrategy = "diff.strategy"
	AttrDiffFiles    = "diff.files"
	AttrDiffFailed   = "diff.files_failed"
	AttrFilePath     = "file.path"
	AttrCacheHit     = "cache.hit"
)

// Span names.
const (
	SpanLoad         = "diff.load"
	SpanList         = "diff.list"
	SpanFile         = "diff.file"
	SpanLoadNotebook = "notebook.load"
)

// RecordError marks span failed with err. A nil err is ignored.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
