// Package tui renders a search.Controller as a Bubble Tea list picker.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/runger/searchpick/internal/search"
)

// nearEndMargin is how close to the last displayed row the cursor must
// come before the next page is requested.
const nearEndMargin = 3

// maxQueryLen bounds the query input in runes.
const maxQueryLen = 256

// bindDoneMsg is sent when the initial load finishes.
type bindDoneMsg struct {
	err error
}

// nearEndDoneMsg is sent when a NearEnd step returns.
type nearEndDoneMsg struct {
	grew bool
}

// errMsg carries an error reported by the controller.
type errMsg struct {
	err error
}

// completeMsg is sent when a show-loader selection finished processing.
type completeMsg struct {
	item *search.Item
	err  error
}

// Options configures a Model.
type Options struct {
	Search  search.Config
	Fetcher search.Fetcher
	Loader  search.Loader
	Logger  *slog.Logger

	// Process runs while the loader is shown for a direct selection
	// (ShowLoaderOnSelect without a submit button). Optional.
	Process func(ctx context.Context, items []*search.Item) error

	Query       string // Initial query
	Placeholder string
}

// session is shared between value copies of Model and the controller
// callbacks, which run on the Update goroutine.
type session struct {
	selected       []*search.Item
	closeRequested bool
}

// Model is the Bubble Tea model for the picker.
type Model struct {
	ctrl    *search.Controller
	cfg     search.Config
	loader  search.Loader
	process func(ctx context.Context, items []*search.Item) error
	sess    *session
	box     *mailbox
	ctx     context.Context
	cancel  context.CancelFunc

	input textinput.Model
	spin  spinner.Model

	snap   search.Snapshot
	cursor int // Index into snap.Displayed
	top    int // First rendered row
	width  int
	height int

	nearEndInFlight bool
	processing      bool
	err             error
	cancelled       bool
	done            bool
}

// New creates a picker model and the controller behind it.
func New(opts Options) (Model, error) {
	sess := &session{}
	ctrl, err := search.New(search.Options{
		Config: opts.Search,
		Handlers: search.Handlers{
			Selected: func(items []*search.Item) error {
				sess.selected = append([]*search.Item(nil), items...)
				return nil
			},
			Close: func() { sess.closeRequested = true },
		},
		Fetcher: opts.Fetcher,
		Logger:  opts.Logger,
	})
	if err != nil {
		return Model{}, err
	}

	box := newMailbox()
	ctrl.Subscribe(box.put)

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = opts.Placeholder
	if ti.Placeholder == "" {
		ti.Placeholder = "Type to search..."
	}
	ti.CharLimit = maxQueryLen
	ti.PromptStyle = queryStyle
	ti.SetValue(opts.Query)
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		ctrl:    ctrl,
		cfg:     ctrl.Config(),
		loader:  opts.Loader,
		process: opts.Process,
		sess:    sess,
		box:     box,
		ctx:     ctx,
		cancel:  cancel,
		input:   ti,
		spin:    sp,
		snap:    search.Snapshot{Busy: true},
	}, nil
}

// Controller exposes the underlying controller.
func (m Model) Controller() *search.Controller {
	return m.ctrl
}

// Result returns the delivered items, or nil if the picker was cancelled.
func (m Model) Result() []*search.Item {
	if m.cancelled {
		return nil
	}
	return m.sess.selected
}

// IsCancelled reports whether the user dismissed the picker.
func (m Model) IsCancelled() bool {
	return m.cancelled
}

// Err returns the most recent error shown in the status line.
func (m Model) Err() error {
	if m.snap.Err != nil {
		return m.snap.Err
	}
	return m.err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spin.Tick,
		m.bind(),
		m.box.wait(),
		m.waitError(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-len(m.input.Prompt)-1, 1)
		m.scroll()
		return m, nil

	case snapshotMsg:
		m.applySnapshot(msg.snap)
		return m, m.box.wait()

	case bindDoneMsg:
		if msg.err != nil {
			m.err = msg.err
		}
		if q := m.input.Value(); q != "" {
			m.ctrl.TextChanged(q)
		}
		return m, nil

	case nearEndDoneMsg:
		m.nearEndInFlight = false
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, m.waitError()

	case completeMsg:
		if msg.err != nil {
			m.err = msg.err
		}
		m.processing = false
		m.ctrl.CompleteSelection(msg.item)
		if m.sess.closeRequested {
			return m, m.quit()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.cancelled = true
		return m, m.quit()

	case tea.KeyEnter:
		return m.activate()

	case tea.KeyTab:
		if m.cfg.SubmitVisible {
			return m.activate()
		}
		return m, nil

	case tea.KeyCtrlS:
		if m.ctrl.Submit() && m.sess.closeRequested {
			return m, m.quit()
		}
		return m, nil

	case tea.KeyUp, tea.KeyCtrlP:
		m.move(-1)
		return m, nil

	case tea.KeyDown, tea.KeyCtrlN:
		m.move(1)
		return m, m.maybeNearEnd()

	case tea.KeyPgUp:
		m.move(-m.listHeight())
		return m, nil

	case tea.KeyPgDown:
		m.move(m.listHeight())
		return m, m.maybeNearEnd()
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.err = nil
		m.ctrl.TextChanged(after)
	}
	return m, cmd
}

// activate hands the row under the cursor to the controller.
func (m Model) activate() (tea.Model, tea.Cmd) {
	if m.processing {
		return m, nil
	}
	item := m.current()
	if item == nil {
		return m, nil
	}

	m.ctrl.Activate(item)
	if m.sess.closeRequested {
		return m, m.quit()
	}
	if m.cfg.ShowLoaderOnSelect && !m.cfg.SubmitVisible {
		m.processing = true
		return m, m.runProcess(item)
	}
	return m, nil
}

// runProcess returns a command that runs the embedder's processing for a
// show-loader selection and reports completion.
func (m Model) runProcess(item *search.Item) tea.Cmd {
	ctx, process := m.ctx, m.process
	items := m.sess.selected
	return func() tea.Msg {
		var err error
		if process != nil {
			err = process(ctx, items)
		}
		return completeMsg{item: item, err: err}
	}
}

// maybeNearEnd requests the next page when the cursor is close to the end
// of the displayed rows and more rows could exist.
func (m *Model) maybeNearEnd() tea.Cmd {
	if m.nearEndInFlight {
		return nil
	}
	if m.cursor < len(m.snap.Displayed)-nearEndMargin {
		return nil
	}
	if !m.snap.HasMore(m.cfg.FetchesFromServer) {
		return nil
	}
	m.nearEndInFlight = true
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return nearEndDoneMsg{grew: ctrl.NearEnd(ctx)}
	}
}

// bind returns a command that loads and binds the initial items.
func (m Model) bind() tea.Cmd {
	ctx, ctrl, loader := m.ctx, m.ctrl, m.loader
	return func() tea.Msg {
		if loader == nil {
			ctrl.Bind(nil)
			return bindDoneMsg{}
		}
		return bindDoneMsg{err: ctrl.BindFrom(ctx, loader)}
	}
}

// waitError returns a command that forwards the next controller error.
func (m Model) waitError() tea.Cmd {
	errs, done := m.ctrl.Errors(), m.box.done
	return func() tea.Msg {
		select {
		case err := <-errs:
			return errMsg{err: err}
		case <-done:
			return nil
		}
	}
}

// quit releases the controller and ends the program.
func (m *Model) quit() tea.Cmd {
	m.done = true
	m.cancel()
	m.ctrl.Close()
	m.box.close()
	return tea.Quit
}

func (m *Model) applySnapshot(s search.Snapshot) {
	if s.Version < m.snap.Version {
		return
	}
	if s.Query != m.snap.Query {
		m.cursor, m.top = 0, 0
	}
	m.snap = s
	m.clampCursor()
	m.scroll()
}

func (m Model) current() *search.Item {
	if m.cursor < 0 || m.cursor >= len(m.snap.Displayed) {
		return nil
	}
	return m.snap.Displayed[m.cursor]
}

func (m *Model) move(delta int) {
	m.cursor += delta
	m.clampCursor()
	m.scroll()
}

// clampCursor keeps the cursor within the displayed rows.
func (m *Model) clampCursor() {
	n := len(m.snap.Displayed)
	if n == 0 {
		m.cursor = 0
		return
	}
	m.cursor = min(max(m.cursor, 0), n-1)
}

// scroll keeps the cursor row inside the rendered window.
func (m *Model) scroll() {
	h := m.listHeight()
	if m.cursor < m.top {
		m.top = m.cursor
	}
	if m.cursor >= m.top+h {
		m.top = m.cursor - h + 1
	}
	m.top = max(m.top, 0)
}

// listHeight returns the number of list rows (terminal height minus the
// query and status lines).
func (m Model) listHeight() int {
	const chrome = 2
	h := m.height - chrome
	if h < 1 {
		h = 20 // Sensible default before first WindowSizeMsg
	}
	return h
}

// --- View rendering ---

var (
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	queryStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	spinnerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))
)

// View implements tea.Model.
func (m Model) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.viewQuery())
	b.WriteRune('\n')
	b.WriteString(m.viewContent())
	b.WriteRune('\n')
	b.WriteString(m.viewStatus())
	return b.String()
}

// working reports whether a spinner should be shown next to the query.
func (m Model) working() bool {
	return m.snap.Busy || m.snap.LoadingMore || m.snap.Pending || m.input.Value() != m.snap.Query
}

func (m Model) viewQuery() string {
	line := m.input.View()
	if m.working() {
		line += " " + m.spin.View()
	}
	return line
}

// viewContent renders the item rows or a placeholder.
func (m Model) viewContent() string {
	rows := m.snap.Displayed
	if len(rows) == 0 {
		if m.snap.Busy {
			return dimStyle.Render("Loading...")
		}
		return dimStyle.Render("No matches")
	}

	h := m.listHeight()
	end := min(m.top+h, len(rows))
	lines := make([]string, 0, end-m.top)
	for i := m.top; i < end; i++ {
		lines = append(lines, m.viewRow(rows[i], i == m.cursor))
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewRow(it *search.Item, selected bool) string {
	prefix := "  "
	if selected {
		prefix = "> "
	}
	if m.cfg.SubmitVisible {
		if it.Checked {
			prefix += "[x] "
		} else {
			prefix += "[ ] "
		}
	}

	title := it.Title
	if m.width > len(prefix) {
		title = MiddleTruncate(title, m.width-len(prefix))
	}

	line := prefix + title
	if selected {
		line = selectedStyle.Render(line)
	} else {
		line = normalStyle.Render(line)
	}
	if it.Subtitle != "" {
		sub := "  " + it.Subtitle
		if m.width == 0 || runewidth.StringWidth(prefix+title+sub) <= m.width {
			line += dimStyle.Render(sub)
		}
	}
	if it.Busy {
		line += " " + m.spin.View()
	}
	return line
}

// viewStatus renders the error indicator, or counts and key hints.
func (m Model) viewStatus() string {
	if err := m.Err(); err != nil {
		return errorStyle.Render(fmt.Sprintf("! %s", err))
	}

	status := fmt.Sprintf("%d/%d", m.snap.Exposed, m.snap.Matched)
	if m.snap.LoadingMore {
		status += " loading more"
	}
	hints := "enter select, esc cancel"
	if m.cfg.SubmitVisible {
		hints = "enter toggle, ctrl+s submit, esc cancel"
	}
	return dimStyle.Render(status + "  " + hints)
}
