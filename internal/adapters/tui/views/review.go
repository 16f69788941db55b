package views

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"catalogsync/internal/adapters/tui/styles"
	"catalogsync/internal/application/commands"
	"catalogsync/internal/domain"
)

// Reconciler is what the review screen needs from the engine
type Reconciler interface {
	Audit(ctx context.Context) (*commands.AuditResult, error)
	Apply(ctx context.Context, plan domain.AssignmentPlan) (*commands.ApplyResult, error)
}

// copyToClipboard is swapped out in tests
var copyToClipboard = clipboard.WriteAll

// Decision is the reviewer's verdict on one proposed correction
type Decision int

const (
	DecisionPending Decision = iota
	DecisionAccepted
	DecisionSkipped
)

// ReviewItem is one proposed correction with the record's audit status
type ReviewItem struct {
	Entry    domain.PlanEntry
	Status   commands.ProductImageStatus
	Decision Decision
}

// ReviewState is the phase of the review screen
type ReviewState int

const (
	ReviewLoading ReviewState = iota
	ReviewList
	ReviewConfirm
	ReviewApplying
	ReviewDone
	ReviewError
)

// ReviewKeyMap defines key bindings for the review view
type ReviewKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	NextPage  key.Binding
	PrevPage  key.Binding
	Accept    key.Binding
	Skip      key.Binding
	AcceptAll key.Binding
	Apply     key.Binding
	Copy      key.Binding
	Reload    key.Binding
	EditRules key.Binding
	Help      key.Binding
	Quit      key.Binding
}

var ReviewKeys = ReviewKeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	NextPage: key.NewBinding(
		key.WithKeys("pgdown", "right", "l"),
		key.WithHelp("→", "next page"),
	),
	PrevPage: key.NewBinding(
		key.WithKeys("pgup", "left", "h"),
		key.WithHelp("←", "prev page"),
	),
	Accept: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "accept"),
	),
	Skip: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "skip"),
	),
	AcceptAll: key.NewBinding(
		key.WithKeys("A"),
		key.WithHelp("A", "accept all"),
	),
	Apply: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "apply"),
	),
	Copy: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "copy target"),
	),
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "re-audit"),
	),
	EditRules: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit rules"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// AuditLoadedMsg carries a finished audit
type AuditLoadedMsg struct {
	Result *commands.AuditResult
}

// AuditErrMsg reports a failed audit
type AuditErrMsg struct {
	Err error
}

// ApplyFinishedMsg carries the outcome of applying the accepted entries.
// Result may be set alongside Err for an interrupted run.
type ApplyFinishedMsg struct {
	Result *commands.ApplyResult
	Err    error
}

type applyConfirmedMsg struct{}

type applyCancelledMsg struct{}

// ReviewModel lets a person accept or skip each proposed correction before
// anything is written
type ReviewModel struct {
	ViewState
	reconciler Reconciler
	rulesPath  string

	state     ReviewState
	spinner   spinner.Model
	cursor    *listCursor
	confirm   ConfirmationModel

	items  []ReviewItem
	stats  commands.AuditStats
	result *commands.ApplyResult
	err    error
}

// NewReviewModel creates a new review model. rulesPath may be empty when
// rule editing is unavailable.
func NewReviewModel(reconciler Reconciler, rulesPath string) *ReviewModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	return &ReviewModel{
		reconciler: reconciler,
		rulesPath:  rulesPath,
		state:      ReviewLoading,
		spinner:    s,
		cursor:     newListCursor(12),
		confirm:    NewConfirmationModel(),
	}
}

// Init starts the first audit
func (m *ReviewModel) Init() tea.Cmd {
	return m.Reload()
}

// Reload discards all decisions and runs a fresh audit
func (m *ReviewModel) Reload() tea.Cmd {
	m.state = ReviewLoading
	m.result = nil
	m.err = nil
	return tea.Batch(m.spinner.Tick, m.runAudit())
}

func (m *ReviewModel) runAudit() tea.Cmd {
	return func() tea.Msg {
		result, err := m.reconciler.Audit(context.Background())
		if err != nil {
			return AuditErrMsg{Err: err}
		}
		return AuditLoadedMsg{Result: result}
	}
}

func (m *ReviewModel) runApply(plan domain.AssignmentPlan) tea.Cmd {
	return func() tea.Msg {
		result, err := m.reconciler.Apply(context.Background(), plan)
		return ApplyFinishedMsg{Result: result, Err: err}
	}
}

// State returns the current phase
func (m *ReviewModel) State() ReviewState {
	return m.state
}

// Items returns the proposed corrections with their decisions
func (m *ReviewModel) Items() []ReviewItem {
	return m.items
}

// AcceptedPlan returns the accepted entries in list order
func (m *ReviewModel) AcceptedPlan() domain.AssignmentPlan {
	plan := domain.AssignmentPlan{}
	for _, it := range m.items {
		if it.Decision == DecisionAccepted {
			plan = append(plan, it.Entry)
		}
	}
	return plan
}

func (m *ReviewModel) setItems(result *commands.AuditResult) {
	byID := make(map[string]commands.ProductImageStatus, len(result.ProductImageStatus))
	for _, st := range result.ProductImageStatus {
		byID[st.ID] = st
	}

	m.items = m.items[:0]
	for _, e := range result.UpdateSuggestions {
		m.items = append(m.items, ReviewItem{Entry: e, Status: byID[e.RecordID]})
	}
	m.stats = result.Stats
	m.cursor.reset(len(m.items))
}

func (m *ReviewModel) selected() *ReviewItem {
	if len(m.items) == 0 {
		return nil
	}
	return &m.items[m.cursor.index()]
}

// Update handles messages for the review view
func (m *ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		if m.state == ReviewLoading || m.state == ReviewApplying {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case AuditLoadedMsg:
		m.setItems(msg.Result)
		m.state = ReviewList
		m.ClearMessage()
		return m, nil

	case AuditErrMsg:
		m.err = msg.Err
		m.state = ReviewError
		return m, nil

	case applyConfirmedMsg:
		m.state = ReviewApplying
		return m, tea.Batch(m.spinner.Tick, m.runApply(m.AcceptedPlan()))

	case applyCancelledMsg:
		m.state = ReviewList
		return m, nil

	case ApplyFinishedMsg:
		m.result = msg.Result
		m.state = ReviewDone
		if msg.Err != nil {
			m.SetMessage(msg.Err.Error(), true)
		} else if msg.Result != nil {
			m.SetMessage(fmt.Sprintf("%d updated, %d skipped, %d failed",
				msg.Result.Summary.SuccessCount, msg.Result.Summary.SkippedCount, msg.Result.Summary.ErrorCount),
				msg.Result.Summary.ErrorCount > 0)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *ReviewModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, ReviewKeys.Quit) && m.state != ReviewConfirm {
		return m, tea.Quit
	}

	switch m.state {
	case ReviewConfirm:
		_, cmd := m.confirm.HandleKeyMsg(msg,
			func() tea.Msg { return applyConfirmedMsg{} },
			func() tea.Msg { return applyCancelledMsg{} },
		)
		return m, cmd

	case ReviewDone, ReviewError:
		if key.Matches(msg, ReviewKeys.Reload) {
			return m, m.Reload()
		}
		return m, nil

	case ReviewList:
		return m.handleListKey(msg)
	}
	return m, nil
}

func (m *ReviewModel) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.ClearMessage()

	switch {
	case key.Matches(msg, ReviewKeys.Up):
		m.cursor.move(-1)

	case key.Matches(msg, ReviewKeys.Down):
		m.cursor.move(1)

	case key.Matches(msg, ReviewKeys.NextPage):
		m.cursor.flip(1)

	case key.Matches(msg, ReviewKeys.PrevPage):
		m.cursor.flip(-1)

	case key.Matches(msg, ReviewKeys.Accept):
		m.decide(DecisionAccepted)

	case key.Matches(msg, ReviewKeys.Skip):
		m.decide(DecisionSkipped)

	case key.Matches(msg, ReviewKeys.AcceptAll):
		for i := range m.items {
			if m.items[i].Decision == DecisionPending {
				m.items[i].Decision = DecisionAccepted
			}
		}

	case key.Matches(msg, ReviewKeys.Apply):
		n := len(m.AcceptedPlan())
		if n == 0 {
			m.SetMessage("Nothing accepted yet", true)
			return m, nil
		}
		m.confirm.Question = fmt.Sprintf("Write %d asset reference(s) to the catalog?", n)
		m.state = ReviewConfirm

	case key.Matches(msg, ReviewKeys.Copy):
		if it := m.selected(); it != nil {
			if err := copyToClipboard(it.Entry.ToRef); err != nil {
				m.SetMessage("Copy failed: "+err.Error(), true)
			} else {
				m.SetMessage("Copied "+it.Entry.ToRef, false)
			}
		}

	case key.Matches(msg, ReviewKeys.Reload):
		return m, m.Reload()

	case key.Matches(msg, ReviewKeys.EditRules):
		if m.rulesPath == "" {
			m.SetMessage("No rules file configured", true)
			return m, nil
		}
		path := m.rulesPath
		return m, func() tea.Msg { return OpenEditorMsg{Path: path} }

	case key.Matches(msg, ReviewKeys.Help):
		return m, func() tea.Msg { return SwitchToHelpMsg{} }
	}
	return m, nil
}

func (m *ReviewModel) decide(d Decision) {
	it := m.selected()
	if it == nil {
		return
	}
	it.Decision = d
	m.cursor.move(1)
}

// View renders the review view
func (m *ReviewModel) View() string {
	switch m.state {
	case ReviewLoading:
		return newFrame(nil).add(m.spinner.View() + " Auditing catalog...").String()
	case ReviewApplying:
		return newFrame(nil).add(m.spinner.View() + " Applying accepted corrections...").String()
	case ReviewError:
		return newFrame(nil).note(m.err.Error(), true).help(ReviewKeys.Reload, ReviewKeys.Quit)
	}

	f := newFrame(&m.stats)
	if m.state == ReviewDone {
		f.note(m.Message, m.MessageErr)
		if m.result != nil {
			f.add(renderFailures(m.result.Results)...)
		}
		return f.add("").help(ReviewKeys.Reload, ReviewKeys.Quit)
	}

	if len(m.items) == 0 {
		return f.add(styles.MutedText.Render("No corrections proposed. The catalog is consistent with the asset pool."), "").
			help(ReviewKeys.Reload, ReviewKeys.EditRules, ReviewKeys.Quit)
	}

	start, end := m.cursor.window()
	for i := start; i < end; i++ {
		f.add(renderRow(m.items[i], i == m.cursor.index()))
	}
	if page, pages := m.cursor.page(); pages > 1 {
		f.add(styles.MutedText.Render(fmt.Sprintf("page %d/%d", page, pages)))
	}
	f.add("")

	if it := m.selected(); it != nil {
		f.add(renderDetail(*it), "")
	}

	if m.state == ReviewConfirm {
		return f.add(m.confirm.View()).String()
	}

	return f.note(m.Message, m.MessageErr).
		help(ReviewKeys.Accept, ReviewKeys.Skip, ReviewKeys.AcceptAll, ReviewKeys.Apply,
			ReviewKeys.Copy, ReviewKeys.Reload, ReviewKeys.Help, ReviewKeys.Quit)
}
