// Package diffview is the terminal diff viewer: a Bubble Tea model that
// renders a loaded diff, moves a cursor through it and reloads when the
// repository changes.
package diffview

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/diffnav/internal/config"
	"github.com/zjrosen/diffnav/internal/diff"
	"github.com/zjrosen/diffnav/internal/git"
	"github.com/zjrosen/diffnav/internal/highlight"
	"github.com/zjrosen/diffnav/internal/keys"
	"github.com/zjrosen/diffnav/internal/log"
	"github.com/zjrosen/diffnav/internal/nav"
	"github.com/zjrosen/diffnav/internal/pubsub"
	"github.com/zjrosen/diffnav/internal/watcher"
)

// Loader produces diffs. *loader.Loader satisfies it.
type Loader interface {
	Load(ctx context.Context, req git.Request) (*diff.Result, error)
	Invalidate()
}

// Config wires the view to its collaborators.
type Config struct {
	Context context.Context
	Loader  Loader
	Request git.Request

	// Listener delivers reload notifications; nil disables live reload.
	Listener *watcher.Listener
	// ConfigPath is where view toggles are saved; "" disables saving.
	ConfigPath string

	ViewMode    diff.ViewMode
	Intraline   bool
	Highlighter *highlight.Highlighter
	Comments    []nav.Comment
}

// LoadedMsg carries the outcome of a load.
type LoadedMsg struct {
	Result *diff.Result
	Err    error
}

// Model is the diff viewer state.
type Model struct {
	ctx      context.Context
	loader   Loader
	req      git.Request
	listener *pubsub.ContinuousListener[watcher.Notification]

	configPath  string
	intraline   bool
	highlighter *highlight.Highlighter

	result  *diff.Result
	aligned [][][]diff.Row // per file, per chunk
	nav     *nav.Navigator
	split   bool

	lines     []renderedLine
	cursorRow int

	viewport viewport.Model
	help     help.Model
	showHelp bool

	width, height int
	loading       bool
	status        string
	err           error
}

// New creates a Model. Nothing is loaded until Init runs.
func New(cfg Config) Model {
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}

	m := Model{
		ctx:         ctx,
		loader:      cfg.Loader,
		req:         cfg.Request,
		configPath:  cfg.ConfigPath,
		intraline:   cfg.Intraline,
		highlighter: cfg.Highlighter,
		nav:         nav.NewNavigator(nil),
		split:       cfg.ViewMode == diff.ViewSplit,
		viewport:    viewport.New(0, 0),
		help:        help.New(),
		cursorRow:   -1,
		loading:     true,
	}
	m.nav.SetSplit(m.split)
	m.nav.SetComments(nav.NewCommentIndex(cfg.Comments))
	if cfg.Listener != nil {
		m.listener = pubsub.ListenerFromChannel(ctx, cfg.Listener.Events,
			pubsub.WithCoalesce(watcher.MergeNotifications))
	}
	return m
}

// Init starts the first load and, when live reload is on, listening.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.listener.Listen())
}

func (m Model) loadCmd() tea.Cmd {
	if m.loader == nil {
		return nil
	}
	ctx, l, req := m.ctx, m.loader, m.req
	return func() tea.Msg {
		res, err := l.Load(ctx, req)
		return LoadedMsg{Result: res, Err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.layout()
		m.rebuild()
		return m, nil

	case LoadedMsg:
		return m.handleLoaded(msg), nil

	case pubsub.Event[watcher.Notification]:
		return m.handleNotification(msg)

	case tea.KeyMsg:
		return m.executeCommand(keyToCommand(msg))
	}
	return m, nil
}

func (m Model) handleLoaded(msg LoadedMsg) Model {
	m.loading = false
	if msg.Err != nil {
		log.ErrorErr(log.CatUI, "Diff load failed", msg.Err)
		m.err = msg.Err
		return m
	}
	m.err = nil
	m.result = msg.Result

	files := msg.Result.Files
	m.aligned = make([][][]diff.Row, len(files))
	for i, f := range files {
		if m.intraline {
			m.aligned[i] = diff.AlignFileIntraline(f)
		} else {
			m.aligned[i] = diff.AlignFile(f)
		}
	}

	m.nav.Reset(files)
	if _, ok := m.nav.Cursor(); !ok {
		if _, ok := m.nav.Next(nav.FilterChunk); !ok {
			m.nav.Next(nav.FilterLine)
		}
	}
	m.rebuild()
	return m
}

func (m Model) handleNotification(ev pubsub.Event[watcher.Notification]) (tea.Model, tea.Cmd) {
	next := m.listener.Listen()
	switch ev.Type {
	case pubsub.ReloadEvent:
		log.Debug(log.CatUI, "Reload requested", "change", string(ev.Payload.ChangeType))
		m.status = ev.Payload.Message
		m.loading = true
		return m, tea.Batch(m.loadCmd(), next)
	case pubsub.ErrorEvent:
		m.status = ev.Payload.Message
	case pubsub.ConnectedEvent:
		if ev.Payload.Message != "" {
			m.status = ev.Payload.Message
		}
	}
	return m, next
}

func (m Model) executeCommand(id commandID) (tea.Model, tea.Cmd) {
	switch id {
	case cmdNextLine:
		m.move(nav.Forward, nav.FilterLine)
	case cmdPrevLine:
		m.move(nav.Backward, nav.FilterLine)
	case cmdNextChunk:
		m.move(nav.Forward, nav.FilterChunk)
	case cmdPrevChunk:
		m.move(nav.Backward, nav.FilterChunk)
	case cmdNextFile:
		m.move(nav.Forward, nav.FilterFile)
	case cmdPrevFile:
		m.move(nav.Backward, nav.FilterFile)
	case cmdNextComment:
		if !m.move(nav.Forward, nav.FilterComment) {
			m.status = "no comments"
		}
	case cmdPrevComment:
		if !m.move(nav.Backward, nav.FilterComment) {
			m.status = "no comments"
		}
	case cmdToggleSide:
		if m.nav.ToggleSide() {
			m.compose()
		}
	case cmdPageDown:
		m.page(nav.Forward)
	case cmdPageUp:
		m.page(nav.Backward)

	case cmdToggleView:
		m.split = !m.split
		m.nav.SetSplit(m.split)
		m.rebuild()
		m.save(func(path string) error { return config.SaveViewMode(path, m.viewMode()) })
	case cmdToggleWhitespace:
		m.req.IgnoreWhitespace = !m.req.IgnoreWhitespace
		m.save(func(path string) error { return config.SaveIgnoreWhitespace(path, m.req.IgnoreWhitespace) })
		m.loading = true
		return m, m.loadCmd()
	case cmdReload:
		if m.loader != nil {
			m.loader.Invalidate()
		}
		m.loading = true
		m.status = "reloading"
		return m, m.loadCmd()

	case cmdShowHelp:
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		m.layout()
		m.scrollToCursor()
	case cmdQuit:
		return m, tea.Quit
	}
	return m, nil
}

// move steps the cursor and redraws. It reports whether the cursor moved.
func (m *Model) move(dir nav.Direction, filter nav.Filter) bool {
	var ok bool
	if dir == nav.Forward {
		_, ok = m.nav.Next(filter)
	} else {
		_, ok = m.nav.Prev(filter)
	}
	if ok {
		m.compose()
	}
	return ok
}

// page moves the cursor half a screen, stopping at the ends of the diff
// instead of wrapping.
func (m *Model) page(dir nav.Direction) {
	steps := max(m.viewport.Height/2, 1)
	for range steps {
		start, ok := m.nav.Cursor()
		if !ok {
			break
		}
		edge, _ := nav.Last(m.nav.View().Files)
		if dir == nav.Backward {
			edge, _ = nav.First(m.nav.View().Files)
		}
		if start.SamePlace(edge) {
			break
		}
		if dir == nav.Forward {
			m.nav.Next(nav.FilterLine)
		} else {
			m.nav.Prev(nav.FilterLine)
		}
	}
	m.compose()
}

func (m *Model) save(write func(path string) error) {
	if m.configPath == "" {
		return
	}
	if err := write(m.configPath); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to save setting", err, "path", m.configPath)
		m.status = "could not save setting"
	}
}

func (m Model) viewMode() diff.ViewMode {
	if m.split {
		return diff.ViewSplit
	}
	return diff.ViewUnified
}

// layout sizes the viewport to the space left by the footer.
func (m *Model) layout() {
	footer := 1
	if m.showHelp {
		footer += lipgloss.Height(m.help.View(keys.DiffView))
	}
	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-footer, 0)
}

// Cursor returns the navigator's cursor.
func (m Model) Cursor() (nav.Position, bool) {
	return m.nav.Cursor()
}

// Split reports whether the two-column layout is active.
func (m Model) Split() bool { return m.split }

// IgnoreWhitespace reports whether whitespace changes are hidden.
func (m Model) IgnoreWhitespace() bool { return m.req.IgnoreWhitespace }

// View renders the model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	footer := m.statusBar()
	if m.showHelp {
		footer = lipgloss.JoinVertical(lipgloss.Left, m.help.View(keys.DiffView), footer)
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.body(), footer)
}

func (m Model) body() string {
	switch {
	case m.err != nil:
		return lipgloss.NewStyle().Height(m.viewport.Height).Render(errorText(m.err))
	case m.result == nil:
		return lipgloss.NewStyle().Height(m.viewport.Height).Render(mutedText("Loading..."))
	case m.result.IsEmpty:
		return lipgloss.NewStyle().Height(m.viewport.Height).Render(mutedText("No changes"))
	}
	return m.viewport.View()
}

func (m Model) statusBar() string {
	left := describeRequest(m.req, m.result)
	if m.result != nil {
		s := m.result.Stats
		left += fmt.Sprintf("  %d files +%d -%d", s.Files, s.Additions, s.Deletions)
	}
	left += "  " + string(m.viewMode())
	if m.req.IgnoreWhitespace {
		left += "  -w"
	}
	if pos, ok := m.nav.Cursor(); ok && m.result != nil {
		left += fmt.Sprintf("  file %d/%d", pos.FileIndex+1, len(m.result.Files))
	}
	if m.loading {
		left += "  loading"
	}
	if m.status != "" {
		left += "  " + m.status
	}
	return statusText(left, m.width)
}

func describeRequest(req git.Request, res *diff.Result) string {
	target, base := req.Target, req.Base
	if res != nil {
		target, base = res.Target, res.Base
	}
	if target == "" {
		target = git.DefaultRevision
	}
	if base == "" {
		return target
	}
	return base + ".." + target
}
