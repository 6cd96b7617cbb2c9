package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmynk/worklog/internal/filter"
	"github.com/mmynk/worklog/internal/models"
	"github.com/mmynk/worklog/internal/worklist"
)

// ChangedMsg tells the model that the controller's list changed.
type ChangedMsg struct{}

// NoticeMsg carries a controller notice to the status line.
type NoticeMsg struct {
	Notice worklist.Notice
}

type loadedMsg struct {
	err error
}

type exportedMsg struct {
	path string
	err  error
}

// ExportFunc writes records somewhere and returns where.
type ExportFunc func(records []models.WorkRecord) (string, error)

// Options configures the live table.
type Options struct {
	// Filter is the initial filter.
	Filter filter.Spec
	// Export handles the "e" key. Nil disables export.
	Export ExportFunc
	// Now supplies the current year when a date window is first set.
	Now    func() time.Time
	Logger *slog.Logger
}

var columnWidths = []int{10, 10, 12, 12, 5, 5, 5, 5, 5, 12, 20}

// Model is the bubbletea model of the live table.
type Model struct {
	ctrl   *worklist.Controller
	ctx    context.Context
	send   func(tea.Msg)
	opts   Options
	spec   filter.Spec
	view   worklist.View
	table  table.Model
	status string
	failed bool
}

// New creates the model. send delivers messages from outside the event
// loop; Run passes the program's Send.
func New(ctx context.Context, ctrl *worklist.Controller, send func(tea.Msg), opts Options) Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	columns := make([]table.Column, len(Headers))
	for i, h := range Headers {
		columns[i] = table.Column{Title: h, Width: columnWidths[i]}
	}
	m := Model{
		ctrl: ctrl,
		ctx:  ctx,
		send: send,
		opts: opts,
		spec: opts.Filter,
		table: table.New(
			table.WithColumns(columns),
			table.WithFocused(true),
			table.WithHeight(15),
		),
		status: "loading...",
	}
	m.refresh()
	return m
}

// Init subscribes to changes and then loads the list, off the event loop.
func (m Model) Init() tea.Cmd {
	ctrl, ctx, send := m.ctrl, m.ctx, m.send
	return func() tea.Msg {
		// Subscribe failures surface as notices; the table still loads.
		_, _ = ctrl.Subscribe(ctx, func() { send(ChangedMsg{}) })
		return loadedMsg{err: ctrl.Load(ctx)}
	}
}

// Spec returns the active filter.
func (m Model) Spec() filter.Spec {
	return m.spec
}

// Update handles keys and controller messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Title, blank, footer and status take four lines besides the table chrome.
		if h := msg.Height - 6; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "r":
			m.setStatus("reloading...", false)
			return m, m.reload()
		case "e":
			cmd = m.export()
			return m, cmd
		case "[":
			m.shiftMonth(-1)
			return m, nil
		case "]":
			m.shiftMonth(1)
			return m, nil
		case "{":
			m.shiftYear(-1)
			return m, nil
		case "}":
			m.shiftYear(1)
			return m, nil
		case "a":
			m.spec.Year, m.spec.EndMonth = 0, 0
			m.refresh()
			return m, nil
		}

	case ChangedMsg:
		m.refresh()
		m.setStatus("updated "+m.opts.Now().Format("15:04:05"), false)
		return m, nil

	case loadedMsg:
		if msg.err == nil {
			m.refresh()
			m.setStatus("", false)
		}
		return m, nil

	case NoticeMsg:
		m.setStatus(msg.Notice.String(), true)
		return m, nil

	case exportedMsg:
		if msg.err != nil {
			m.setStatus("export failed: "+msg.err.Error(), true)
		} else {
			m.setStatus("exported "+msg.path, false)
		}
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) setStatus(s string, failed bool) {
	m.status, m.failed = s, failed
}

// refresh rebuilds the view from the controller's current list.
func (m *Model) refresh() {
	m.view = m.ctrl.View(m.spec)
	rows := make([]table.Row, len(m.view.Records))
	for i, r := range m.view.Records {
		rows[i] = Row(r)
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

func (m Model) reload() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return loadedMsg{err: ctrl.Load(ctx)}
	}
}

func (m *Model) export() tea.Cmd {
	if m.opts.Export == nil {
		m.setStatus("export is not configured", true)
		return nil
	}
	records := models.CloneRecords(m.view.Records)
	export, logger := m.opts.Export, m.opts.Logger
	m.setStatus("exporting...", false)
	return func() tea.Msg {
		path, err := export(records)
		if err != nil {
			logger.Error("Export failed", "error", err)
		}
		return exportedMsg{path: path, err: err}
	}
}

// shiftMonth moves the end of the date window, opening a window on the
// current year if none is set.
func (m *Model) shiftMonth(delta int) {
	if m.spec.Year == 0 {
		m.spec = m.spec.YearToDate(m.opts.Now())
		m.refresh()
		return
	}
	month := m.spec.EndMonth
	if month == 0 {
		month = time.December
	}
	month += time.Month(delta)
	switch {
	case month < time.January:
		month = time.December
	case month > time.December:
		month = time.January
	}
	m.spec.EndMonth = month
	m.refresh()
}

func (m *Model) shiftYear(delta int) {
	if m.spec.Year == 0 {
		m.spec.Year = m.opts.Now().Year()
	} else if y := m.spec.Year + delta; y > 0 && y <= 9999 {
		m.spec.Year = y
	}
	m.refresh()
}

func describe(s filter.Spec) string {
	var parts []string
	if from, to, ok := s.Window(); ok {
		parts = append(parts, fmt.Sprintf("%s ~ %s", from, to))
	} else {
		parts = append(parts, "all dates")
	}
	for _, f := range []struct{ label, value string }{
		{"name", s.Name},
		{"company", s.Company},
		{"location", s.Location},
	} {
		if f.value != "" {
			parts = append(parts, f.label+"="+f.value)
		}
	}
	return strings.Join(parts, ", ")
}

// View renders the title, table, totals and status line.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("worklog") + "  " + footerStyle.Render(describe(m.spec)))
	b.WriteString("\n\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")
	b.WriteString(footerStyle.Render(TotalsLine(m.view.Totals)))
	b.WriteString("\n")
	switch {
	case m.failed:
		b.WriteString(errorStyle.Render(m.status))
	case m.status != "":
		b.WriteString(footerStyle.Render(m.status))
	default:
		b.WriteString(footerStyle.Render("[/] month  {/} year  a all  r reload  e export  q quit"))
	}
	b.WriteString("\n")
	return b.String()
}

// Run shows the live table until the user quits or ctx is cancelled.
func Run(ctx context.Context, src worklist.Source, opts Options) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	var p *tea.Program
	send := func(msg tea.Msg) { p.Send(msg) }

	ctrl := worklist.New(src,
		worklist.WithLogger(opts.Logger),
		worklist.WithNotifier(worklist.NotifierFunc(func(n worklist.Notice) {
			send(NoticeMsg{Notice: n})
		})),
	)
	defer ctrl.Close()

	p = tea.NewProgram(New(ctx, ctrl, send, opts), tea.WithContext(ctx), tea.WithAltScreen())
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to run table view: %w", err)
	}
	return nil
}
