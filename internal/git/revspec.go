package git

import (
	"fmt"
	"strconv"
)

// Special target tokens.
const (
	TargetWorking     = "working" // unstaged changes: worktree vs index
	TargetStaged      = "staged"  // index vs base
	TargetUncommitted = "."       // worktree (staged + unstaged) vs base
)

// DefaultRevision is the implicit target and the default base for the
// special tokens.
const DefaultRevision = "HEAD"

// EmptyTree is the object name of git's empty tree. Diffing a commit
// against it lists every file of that commit as added.
const EmptyTree = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

// Mode classifies what a request compares. Watchers use it to decide
// which paths to observe.
type Mode string

const (
	ModeDefault     Mode = "default"     // HEAD against its parent
	ModeWorking     Mode = "working"     // unstaged changes
	ModeStaged      Mode = "staged"      // staged changes
	ModeUncommitted Mode = "uncommitted" // everything not yet committed
	ModeSpecific    Mode = "specific"    // a fixed pair of revisions
)

// SourceKind says where one side's full file contents can be read from.
type SourceKind string

const (
	SourceNone     SourceKind = "none"
	SourceRevision SourceKind = "revision"
	SourceIndex    SourceKind = "index"
	SourceWorktree SourceKind = "worktree"
)

// Source locates one side of a comparison.
type Source struct {
	Kind SourceKind
	Rev  string // set for SourceRevision
}

func (s Source) String() string {
	if s.Kind == SourceRevision {
		return s.Rev
	}
	return string(s.Kind)
}

// Request is a diff request as typed by a user.
type Request struct {
	Target           string
	Base             string
	IgnoreWhitespace bool
	// ContextLines is passed as -U; zero keeps git's default.
	ContextLines int
}

// Strategy is one way of obtaining the changed paths and their diffs.
type Strategy struct {
	Name string
	// Revs are the revision arguments placed before "--", e.g.
	// ["--cached", "HEAD"] or ["HEAD^", "HEAD"].
	Revs      []string
	OldSource Source
	NewSource Source
	// OnlyOnError limits the strategy to runs where the one before it
	// failed. An empty listing from a successful predecessor is final.
	OnlyOnError bool
}

// Plan is a resolved Request. Strategies are tried in order; the first one
// that yields a non-empty listing wins.
type Plan struct {
	Mode             Mode
	Target           string
	Base             string
	BaseExplicit     bool
	IgnoreWhitespace bool
	ContextLines     int
	IncludeUntracked bool
	Strategies       []Strategy
}

// Resolve maps a Request to a Plan without touching the repository.
func Resolve(req Request) (Plan, error) {
	target := req.Target
	if target == "" {
		target = DefaultRevision
	}
	if req.ContextLines < 0 {
		return Plan{}, fmt.Errorf("%w: context lines must not be negative", ErrInvalidSpec)
	}
	if isSpecial(req.Base) {
		return Plan{}, fmt.Errorf("%w: base %q must be a revision", ErrInvalidSpec, req.Base)
	}

	plan := Plan{
		Target:           target,
		Base:             req.Base,
		BaseExplicit:     req.Base != "",
		IgnoreWhitespace: req.IgnoreWhitespace,
		ContextLines:     req.ContextLines,
	}

	switch target {
	case TargetWorking:
		if req.Base != "" && req.Base != DefaultRevision {
			return Plan{}, fmt.Errorf("%w: %q compares the worktree with the index and cannot take base %q",
				ErrInvalidSpec, TargetWorking, req.Base)
		}
		plan.Mode = ModeWorking
		plan.Base = DefaultRevision
		plan.IncludeUntracked = true
		plan.Strategies = []Strategy{{
			Name:      "worktree-vs-index",
			OldSource: Source{Kind: SourceIndex},
			NewSource: Source{Kind: SourceWorktree},
		}}

	case TargetStaged:
		plan.Mode = ModeStaged
		if plan.Base == "" {
			plan.Base = DefaultRevision
		}
		plan.Strategies = []Strategy{{
			Name:      "index-vs-base",
			Revs:      []string{"--cached", plan.Base},
			OldSource: Source{Kind: SourceRevision, Rev: plan.Base},
			NewSource: Source{Kind: SourceIndex},
		}}

	case TargetUncommitted:
		plan.Mode = ModeUncommitted
		if plan.Base == "" {
			plan.Base = DefaultRevision
		}
		plan.IncludeUntracked = true
		plan.Strategies = []Strategy{{
			Name:      "worktree-vs-base",
			Revs:      []string{plan.Base},
			OldSource: Source{Kind: SourceRevision, Rev: plan.Base},
			NewSource: Source{Kind: SourceWorktree},
		}}

	default:
		plan.Mode = ModeSpecific
		if plan.Base == "" {
			plan.Base = target + "^"
			if target == DefaultRevision {
				plan.Mode = ModeDefault
			}
		}
		plan.Strategies = []Strategy{{
			Name:      "range",
			Revs:      []string{plan.Base, target},
			OldSource: Source{Kind: SourceRevision, Rev: plan.Base},
			NewSource: Source{Kind: SourceRevision, Rev: target},
		}}
		// A commit compared with its parent may have no parent at all. An
		// empty commit that has one lists nothing and must stay empty.
		if !plan.BaseExplicit {
			plan.Strategies = append(plan.Strategies, Strategy{
				Name:        "root-commit",
				Revs:        []string{EmptyTree, target},
				OldSource:   Source{Kind: SourceNone},
				NewSource:   Source{Kind: SourceRevision, Rev: target},
				OnlyOnError: true,
			})
		}
	}

	return plan, nil
}

func isSpecial(spec string) bool {
	return spec == TargetWorking || spec == TargetStaged || spec == TargetUncommitted
}

// ListArgs returns the arguments listing changed paths for a strategy.
func (p Plan) ListArgs(s Strategy) []string {
	args := []string{"diff", "--name-status", "-z", "-M", "--no-color", "--no-ext-diff"}
	if p.IgnoreWhitespace {
		args = append(args, "-w")
	}
	args = append(args, s.Revs...)
	return append(args, "--")
}

// DiffArgs returns the arguments producing one path's unified diff. For a
// rename both paths are passed so git can pair them.
func (p Plan) DiffArgs(s Strategy, path, oldPath string) []string {
	args := []string{"diff", "-M", "--no-color", "--no-ext-diff"}
	if p.ContextLines > 0 {
		args = append(args, "-U"+strconv.Itoa(p.ContextLines))
	}
	if p.IgnoreWhitespace {
		args = append(args, "-w")
	}
	args = append(args, s.Revs...)
	args = append(args, "--")
	if oldPath != "" && oldPath != path {
		args = append(args, oldPath)
	}
	return append(args, path)
}

// RevisionsToVerify lists revisions that must exist before any diff runs.
// A derived parent is left out: a root commit has none, which the
// root-commit strategy handles.
func (p Plan) RevisionsToVerify() []string {
	var revs []string
	switch p.Mode {
	case ModeWorking:
		return nil
	case ModeStaged, ModeUncommitted:
		if p.BaseExplicit {
			revs = append(revs, p.Base)
		}
	default:
		revs = append(revs, p.Target)
		if p.BaseExplicit {
			revs = append(revs, p.Base)
		}
	}
	return revs
}
