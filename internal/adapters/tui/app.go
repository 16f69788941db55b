package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"catalogsync/internal/adapters/tui/views"
	"catalogsync/internal/application/commands"
	"catalogsync/internal/domain"
	"catalogsync/internal/ports"
)

// ViewState represents the current view
type ViewState int

const (
	ViewReview ViewState = iota
	ViewHelp
)

// EngineReconciler runs review audits and applies through the engine
type EngineReconciler struct {
	Engine   *commands.Engine
	Category string
	// Refresh, if set, runs before every audit (e.g. reloading the rules file)
	Refresh func() error
}

// Audit runs a read-only audit
func (r EngineReconciler) Audit(ctx context.Context) (*commands.AuditResult, error) {
	if r.Refresh != nil {
		if err := r.Refresh(); err != nil {
			return nil, err
		}
	}
	return commands.NewAuditCommand(r.Engine, r.Category).Execute(ctx)
}

// Apply writes exactly the accepted entries
func (r EngineReconciler) Apply(ctx context.Context, plan domain.AssignmentPlan) (*commands.ApplyResult, error) {
	if plan == nil {
		plan = domain.AssignmentPlan{}
	}
	return commands.NewApplyCommand(r.Engine, plan, r.Category, false).Execute(ctx)
}

// App is the main TUI application model
type App struct {
	editor ports.RulesOpener

	state  ViewState
	review *views.ReviewModel
	help   *views.HelpModel

	width  int
	height int
}

// NewApp creates a new TUI application. editor may be nil.
func NewApp(reconciler views.Reconciler, editor ports.RulesOpener, rulesPath string) *App {
	if editor == nil {
		rulesPath = ""
	}
	return &App{
		editor: editor,
		state:  ViewReview,
		review: views.NewReviewModel(reconciler, rulesPath),
		help:   views.NewHelpModel(),
	}
}

// Init initializes the application
func (a *App) Init() tea.Cmd {
	return a.review.Init()
}

// Update handles messages for the application
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.review.SetSize(msg.Width, msg.Height)
		a.help.SetSize(msg.Width, msg.Height)
		return a, nil

	case views.SwitchToHelpMsg:
		a.state = ViewHelp
		return a, nil

	case views.SwitchToReviewMsg:
		a.state = ViewReview
		return a, nil

	case views.OpenEditorMsg:
		return a, a.openEditor(msg.Path)

	case editorFinishedMsg:
		if msg.err != nil {
			a.review.SetMessage(msg.err.Error(), true)
			return a, nil
		}
		// Re-audit so edited rules take effect
		return a, a.review.Reload()
	}

	// Delegate to current view
	var cmd tea.Cmd
	switch a.state {
	case ViewReview:
		_, cmd = a.review.Update(msg)
	case ViewHelp:
		_, cmd = a.help.Update(msg)
	}

	return a, cmd
}

type editorFinishedMsg struct{ err error }

func (a *App) openEditor(path string) tea.Cmd {
	if a.editor == nil {
		return nil
	}

	cmd, err := a.editor.Command(path)
	if err != nil {
		return func() tea.Msg {
			return editorFinishedMsg{err: err}
		}
	}

	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorFinishedMsg{err: err}
	})
}

// View renders the current view
func (a *App) View() string {
	switch a.state {
	case ViewHelp:
		return a.help.View()
	default:
		return a.review.View()
	}
}
