package tui

import (
	"context"
	"fmt"
	"image/color"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/hylla/krets/internal/domain"
	"github.com/hylla/krets/internal/view"
)

// Service represents service data used by this package.
type Service interface {
	RefreshAll(context.Context) error
	ResolveOne(context.Context, string) (domain.Record, error)
}

// inputMode represents a selectable mode.
type inputMode int

// modeNone and related constants define package defaults.
const (
	modeNone inputMode = iota
	modeSearch
	modeDetail
)

// Option defines a functional option for model configuration.
type Option func(*Model)

// WithActorID sets the local node identity used by the action-required filter.
func WithActorID(actorID string) Option {
	return func(m *Model) {
		m.actorID = strings.TrimSpace(actorID)
	}
}

// WithRefreshInterval overrides the periodic refresh cadence.
func WithRefreshInterval(interval time.Duration) Option {
	return func(m *Model) {
		if interval > 0 {
			m.refreshInterval = interval
		}
	}
}

// Model represents model data used by this package.
type Model struct {
	svc   Service
	store *view.Store

	ready  bool
	width  int
	height int
	err    error

	status string

	help help.Model
	keys keyMap

	actorID         string
	refreshInterval time.Duration

	records  []domain.Record
	selected int

	mode        inputMode
	searchInput textinput.Model

	// pendingDetailID ties in-flight resolutions to the latest request;
	// results for any other id are discarded as superseded.
	pendingDetailID string
	detail          domain.Record
	markdown        markdownRenderer
}

// refreshedMsg carries message data through update handling.
type refreshedMsg struct {
	err error
}

// detailMsg carries one resolved record for the detail overlay, tagged
// with the id it was requested for.
type detailMsg struct {
	id     string
	record domain.Record
	err    error
}

// refreshTickMsg fires when the periodic refresh timer elapses.
type refreshTickMsg time.Time

// NewModel constructs a new value for this package.
func NewModel(svc Service, store *view.Store, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	searchInput := textinput.New()
	searchInput.Prompt = "/ "
	searchInput.Placeholder = "id, management type, comments, members, service types"
	searchInput.CharLimit = 120
	m := Model{
		svc:             svc,
		store:           store,
		status:          "loading...",
		help:            h,
		keys:            newKeyMap(),
		refreshInterval: 10 * time.Second,
		searchInput:     searchInput,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refresh, m.scheduleRefresh())
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case refreshedMsg:
		if msg.err != nil {
			if m.store.Populated() {
				m.status = "refresh failed, showing last snapshot"
				return m, nil
			}
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.reloadVisible()
		m.status = "ready"
		return m, nil

	case refreshTickMsg:
		return m, tea.Batch(m.refresh, m.scheduleRefresh())

	case detailMsg:
		if msg.id != m.pendingDetailID {
			return m, nil
		}
		m.pendingDetailID = ""
		if msg.err != nil {
			m.status = "detail: " + msg.err.Error()
			return m, nil
		}
		m.detail = msg.record
		m.mode = modeDetail
		m.status = "detail"
		return m, nil

	case tea.KeyPressMsg:
		if m.mode == modeSearch {
			return m.handleSearchKey(msg)
		}
		if m.mode == modeDetail {
			return m.handleDetailKey(msg)
		}
		return m.handleNormalModeKey(msg)

	default:
		return m, nil
	}
}

func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		if m.help.ShowAll {
			m.status = "help"
		} else {
			m.status = "ready"
		}
		return m, nil
	case msg.String() == "esc":
		if m.help.ShowAll {
			m.help.ShowAll = false
			m.status = "ready"
			return m, nil
		}
		if !m.store.Filter().IsZero() {
			m.dispatch(view.ApplyTermFilter{})
			m.dispatch(view.ApplyStatusFilter{})
			m.status = "filters cleared"
			return m, nil
		}
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		m.status = "refreshing..."
		return m, m.refresh
	case key.Matches(msg, m.keys.moveDown):
		if len(m.records) > 0 && m.selected < len(m.records)-1 {
			m.selected++
		}
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		if m.selected > 0 {
			m.selected--
		}
		return m, nil
	case key.Matches(msg, m.keys.search):
		m.mode = modeSearch
		m.searchInput.SetValue(m.store.Filter().Term)
		m.searchInput.Focus()
		m.status = "filter"
		return m, textinput.Blink
	case key.Matches(msg, m.keys.awaitingOnly):
		filter := m.store.Filter()
		m.dispatch(view.ApplyStatusFilter{Filter: view.StatusFilter{
			AwaitingApproval: !filter.AwaitingApproval,
			ActionRequired:   filter.ActionRequired,
			ActorID:          m.actorID,
		}})
		m.status = statusFlagLabel("awaiting approval", !filter.AwaitingApproval)
		return m, nil
	case key.Matches(msg, m.keys.actionOnly):
		filter := m.store.Filter()
		m.dispatch(view.ApplyStatusFilter{Filter: view.StatusFilter{
			AwaitingApproval: filter.AwaitingApproval,
			ActionRequired:   !filter.ActionRequired,
			ActorID:          m.actorID,
		}})
		m.status = statusFlagLabel("action required", !filter.ActionRequired)
		return m, nil
	case key.Matches(msg, m.keys.cycleSort):
		spec := m.store.Sort()
		spec.Key = nextSortKey(spec.Key)
		m.dispatch(view.ApplySort{Spec: spec})
		m.status = "sort: " + string(spec.Key)
		return m, nil
	case key.Matches(msg, m.keys.flipOrder):
		spec := m.store.Sort()
		spec.Ascending = !spec.Ascending
		m.dispatch(view.ApplySort{Spec: spec})
		m.status = "sort: " + orderLabel(spec.Ascending)
		return m, nil
	case key.Matches(msg, m.keys.detail):
		rec, ok := m.selectedRecord()
		if !ok {
			m.status = "no record selected"
			return m, nil
		}
		m.pendingDetailID = rec.ID
		m.status = "resolving " + rec.ID + "..."
		return m, m.resolveDetail(rec.ID)
	default:
		return m, nil
	}
}

func (m Model) handleSearchKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.mode = modeNone
		m.searchInput.Blur()
		term := strings.TrimSpace(m.searchInput.Value())
		m.dispatch(view.ApplyTermFilter{Term: term})
		if term == "" {
			m.status = "filter cleared"
		} else {
			m.status = "filter: " + term
		}
		return m, nil
	case "esc":
		m.mode = modeNone
		m.searchInput.Blur()
		m.status = "ready"
		return m, nil
	default:
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	}
}

func (m Model) handleDetailKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "enter", "i":
		m.mode = modeNone
		m.detail = domain.Record{}
		m.status = "ready"
		return m, nil
	default:
		return m, nil
	}
}

// View handles view.
func (m Model) View() tea.View {
	if m.err != nil {
		v := tea.NewView("error: " + m.err.Error() + "\n\npress r to retry • q quit\n")
		v.AltScreen = true
		return v
	}
	if !m.ready {
		v := tea.NewView("loading...")
		v.AltScreen = true
		return v
	}

	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dim)
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	subStyle := lipgloss.NewStyle().Foreground(muted)
	pendingStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("78"))

	header := titleStyle.Render("krets")
	filter := m.store.Filter()
	spec := m.store.Sort()
	header += statusStyle.Render(fmt.Sprintf("  sort: %s %s", spec.Key, orderLabel(spec.Ascending)))
	if term := strings.TrimSpace(filter.Term); term != "" {
		header += statusStyle.Render("  filter: " + term)
	}
	if filter.AwaitingApproval {
		header += statusStyle.Render("  [awaiting approval]")
	}
	if filter.ActionRequired {
		header += statusStyle.Render("  [action required]")
	}
	header += statusStyle.Render(fmt.Sprintf("  %d/%d", len(m.records), m.store.Size()))

	sections := []string{header, ""}
	if m.mode == modeSearch {
		sections = append(sections, m.searchInput.View(), "")
	}

	if len(m.records) == 0 {
		if m.store.Populated() {
			sections = append(sections, subStyle.Render("no records match the active filters"))
		} else {
			sections = append(sections, subStyle.Render("no circuits or proposals yet"))
		}
	}
	for i, rec := range m.records {
		marker := "  "
		line := rowStyle
		if i == m.selected && m.mode != modeDetail {
			marker = "> "
			line = selectedStyle
		}
		badge := activeStyle.Render(string(rec.Status))
		if rec.Proposed {
			badge = pendingStyle.Render(string(rec.Status) + " proposal")
		}
		row := fmt.Sprintf("%s%s  %s", marker, line.Render(rec.ID), badge)
		row += subStyle.Render(fmt.Sprintf("  %s  %d service types  %s",
			rec.ManagementType, rec.DistinctServiceTypes(), truncate(rec.Comments, 40)))
		sections = append(sections, row)
	}

	if strings.TrimSpace(m.status) != "" && m.status != "ready" {
		sections = append(sections, "", statusStyle.Render(m.status))
	}

	content := strings.Join(sections, "\n")
	if m.mode == modeDetail {
		content = m.renderDetail(accent, muted)
	}

	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	v := tea.NewView(content + "\n" + helpLine)
	v.AltScreen = true
	return v
}

// renderDetail renders the resolved record as a markdown overlay.
func (m Model) renderDetail(accent, muted color.Color) string {
	width := m.width - 4
	body := m.markdown.render(recordMarkdown(m.detail), width)
	frame := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		Width(max(0, m.width-2))
	footer := lipgloss.NewStyle().Foreground(muted).Render("esc close")
	return frame.Render(body + "\n\n" + footer)
}

// recordMarkdown turns a record into the markdown body shown in the detail pane.
func recordMarkdown(rec domain.Record) string {
	var b strings.Builder
	kind := "Circuit"
	if rec.Proposed {
		kind = "Proposal"
	}
	fmt.Fprintf(&b, "# %s %s\n\n", kind, rec.ID)
	fmt.Fprintf(&b, "- **Status:** %s\n", rec.Status)
	fmt.Fprintf(&b, "- **Management type:** %s\n", rec.ManagementType)
	fmt.Fprintf(&b, "- **Comments:** %s\n", rec.Comments)
	if len(rec.Members) > 0 {
		fmt.Fprintf(&b, "- **Members:** %s\n", strings.Join(rec.Members, ", "))
	}
	if rec.Proposed && rec.RequesterID != "" {
		fmt.Fprintf(&b, "- **Requested by:** %s\n", rec.RequesterID)
	}
	if !rec.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "- **Created:** %s\n", rec.CreatedAt.Format(time.RFC3339))
	}
	if len(rec.Roster) > 0 {
		b.WriteString("\n## Roster\n\n")
		for _, svc := range rec.Roster {
			fmt.Fprintf(&b, "- `%s` (%s)", svc.ServiceID, svc.ServiceType)
			if len(svc.AllowedNodes) > 0 {
				fmt.Fprintf(&b, " on %s", strings.Join(svc.AllowedNodes, ", "))
			}
			b.WriteString("\n")
		}
	}
	if rec.Proposed {
		b.WriteString("\n## Votes\n\n")
		if len(rec.Votes) == 0 {
			b.WriteString("No votes cast yet.\n")
		}
		for _, vote := range rec.Votes {
			fmt.Fprintf(&b, "- %s: %s\n", vote.VoterID, vote.Vote)
		}
	}
	return b.String()
}

// refresh triggers a full synchronization cycle.
func (m Model) refresh() tea.Msg {
	return refreshedMsg{err: m.svc.RefreshAll(context.Background())}
}

// scheduleRefresh arms the periodic refresh timer.
func (m Model) scheduleRefresh() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}

// resolveDetail fetches one record by id for the detail overlay.
func (m Model) resolveDetail(id string) tea.Cmd {
	return func() tea.Msg {
		rec, err := m.svc.ResolveOne(context.Background(), id)
		return detailMsg{id: id, record: rec, err: err}
	}
}

// dispatch applies a store action and reloads the visible slice. Validation
// failures surface in the status line instead of crashing the session.
func (m *Model) dispatch(action view.Action) {
	if err := m.store.Dispatch(action); err != nil {
		m.status = err.Error()
		return
	}
	m.reloadVisible()
}

// reloadVisible re-reads the derived view and clamps the cursor.
func (m *Model) reloadVisible() {
	m.records = m.store.VisibleView()
	if m.selected >= len(m.records) {
		m.selected = max(0, len(m.records)-1)
	}
}

func (m Model) selectedRecord() (domain.Record, bool) {
	if len(m.records) == 0 || m.selected < 0 || m.selected >= len(m.records) {
		return domain.Record{}, false
	}
	return m.records[m.selected], true
}

func nextSortKey(current view.SortKey) view.SortKey {
	keys := view.SortKeys()
	for i, k := range keys {
		if k == current {
			return keys[(i+1)%len(keys)]
		}
	}
	return keys[0]
}

func orderLabel(ascending bool) string {
	if ascending {
		return "asc"
	}
	return "desc"
}

func statusFlagLabel(name string, enabled bool) string {
	if enabled {
		return name + " only"
	}
	return name + " filter off"
}

// truncate shortens s to limit runes, never splitting a multi-byte rune.
func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit == 1 {
		return string(runes[:1])
	}
	return string(runes[:limit-1]) + "…"
}
