// internal/tui/app.go
//
// The operator console. It follows bubbletea's Elm architecture: every key
// press becomes a message, Update mutates the model, View renders it. Apply
// runs inside Update, so a broadcast finishes before the next key is read.

package tui

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/DawPlus/healing-server-sub000/internal/bridge"
	"github.com/DawPlus/healing-server-sub000/internal/logbook"
	"github.com/DawPlus/healing-server-sub000/internal/module"
	"github.com/DawPlus/healing-server-sub000/internal/roster"
	"github.com/DawPlus/healing-server-sub000/internal/surveys"
)

// pane is the block that currently receives navigation keys.
type pane int

const (
	paneContext pane = iota
	paneRoster
	paneModules
)

func (p pane) next() pane {
	return (p + 1) % 3
}

// FormFactory builds a survey form when a module is mounted.
type FormFactory func(module.ID) (surveys.Form, error)

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithLogbook shows the journal tail under the board.
func WithLogbook(lb *logbook.Logbook) AppOption {
	return func(a *App) {
		a.logbook = lb
	}
}

// WithFormFactory overrides how forms are built on mount.
func WithFormFactory(factory FormFactory) AppOption {
	return func(a *App) {
		if factory != nil {
			a.formFactory = factory
		}
	}
}

// WithoutInitialMount starts with every module unmounted.
func WithoutInitialMount() AppOption {
	return func(a *App) {
		a.mountOnStart = false
	}
}

// App is the main application model.
type App struct {
	orch    *bridge.Orchestrator
	store   *roster.Store
	logbook *logbook.Logbook

	formFactory  FormFactory
	mountOnStart bool
	forms        map[module.ID]surveys.Form
	unmounts     map[module.ID]func()

	focus      pane
	contextSel int
	rosterRow  int
	rosterCol  int
	moduleSel  int

	editing bool
	input   textinput.Model

	summary   *bridge.Summary
	statusMsg string
	err       error

	width  int
	height int
}

// NewApp creates the console over an orchestrator.
func NewApp(orch *bridge.Orchestrator, opts ...AppOption) (*App, error) {
	if orch == nil {
		return nil, errors.New("tui: orchestrator is required")
	}
	input := textinput.New()
	input.CharLimit = 64
	input.Prompt = "› "
	a := &App{
		orch:         orch,
		store:        orch.Store(),
		formFactory:  surveys.New,
		mountOnStart: true,
		forms:        map[module.ID]surveys.Form{},
		unmounts:     map[module.ID]func(){},
		focus:        paneRoster,
		input:        input,
		statusMsg:    "ctrl+s apply · tab switch pane · q quit",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	if a.mountOnStart {
		for _, id := range orch.Modules() {
			if err := a.mount(id); err != nil {
				a.Close()
				return nil, err
			}
		}
	}
	a.logInfo("Session opened · %d participants · %d modules mounted", a.store.Len(), len(a.forms))
	return a, nil
}

// Close unmounts every form.
func (a *App) Close() {
	for id := range a.unmounts {
		a.unmount(id)
	}
}

// Form returns the mounted form for id.
func (a *App) Form(id module.ID) (surveys.Form, bool) {
	f, ok := a.forms[id]
	return f, ok
}

func (a *App) mount(id module.ID) error {
	form, err := a.formFactory(id)
	if err != nil {
		return err
	}
	unmount, err := a.orch.Mount(id, surveys.Handle(form), form.OnBroadcast)
	if err != nil {
		return err
	}
	a.forms[id] = form
	a.unmounts[id] = unmount
	return nil
}

func (a *App) unmount(id module.ID) {
	if fn, ok := a.unmounts[id]; ok {
		fn()
	}
	delete(a.unmounts, id)
	delete(a.forms, id)
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Warn(format, args...)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		if a.editing {
			return a.updateEditing(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			a.Close()
			return a, tea.Quit
		case "tab":
			a.focus = a.focus.next()
		case "up", "k":
			a.move(-1)
		case "down", "j":
			a.move(1)
		case "left", "h":
			if a.focus == paneRoster && a.rosterCol > 0 {
				a.rosterCol--
			}
		case "right", "l":
			if a.focus == paneRoster && a.rosterCol < len(rosterColumns)-1 {
				a.rosterCol++
			}
		case "a":
			if a.focus == paneRoster {
				p := a.store.AddBlank()
				a.rosterRow = a.store.Len() - 1
				a.statusMsg = fmt.Sprintf("Added participant %s", shortID(p.ID))
			}
		case "d":
			if a.focus == paneRoster {
				a.removeSelected()
			}
		case "u":
			a.unify()
		case "m":
			if a.focus == paneModules {
				a.toggleMount()
			}
		case "enter":
			return a, a.beginEdit()
		case "ctrl+s":
			a.apply()
		}
	}
	return a, nil
}

func (a *App) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.endEdit()
		a.statusMsg = "Edit cancelled"
		return a, nil
	case "enter":
		value := a.input.Value()
		a.endEdit()
		a.commit(value)
		return a, nil
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) move(delta int) {
	switch a.focus {
	case paneContext:
		a.contextSel = clamp(a.contextSel+delta, len(contextFields))
	case paneRoster:
		a.rosterRow = clamp(a.rosterRow+delta, a.store.Len())
	case paneModules:
		a.moduleSel = clamp(a.moduleSel+delta, len(a.orch.Modules()))
	}
}

func (a *App) beginEdit() tea.Cmd {
	var current string
	switch a.focus {
	case paneContext:
		current = contextFields[a.contextSel].get(a.store.Context())
	case paneRoster:
		r := a.store.Roster()
		if len(r) == 0 {
			a.statusMsg = "Roster is empty · press a to add a participant"
			return nil
		}
		current = rosterColumns[a.rosterCol].get(r[clamp(a.rosterRow, len(r))].Personal)
	default:
		return nil
	}
	a.editing = true
	a.input.SetValue(current)
	a.input.CursorEnd()
	return a.input.Focus()
}

func (a *App) endEdit() {
	a.editing = false
	a.input.Blur()
	a.input.SetValue("")
}

func (a *App) commit(value string) {
	var err error
	switch a.focus {
	case paneContext:
		field := contextFields[a.contextSel]
		err = field.set(a.store, value)
		if err == nil {
			a.statusMsg = fmt.Sprintf("%s updated", field.label)
		}
	case paneRoster:
		r := a.store.Roster()
		if len(r) == 0 {
			return
		}
		col := rosterColumns[a.rosterCol]
		p := r[clamp(a.rosterRow, len(r))]
		err = a.store.Update(p.ID, func(personal *roster.Personal) {
			col.set(personal, value)
		})
		if err == nil {
			a.statusMsg = fmt.Sprintf("%s updated for row %d", col.label, a.rosterRow+1)
		}
	}
	a.err = err
	if err != nil {
		a.statusMsg = err.Error()
	}
}

func (a *App) removeSelected() {
	r := a.store.Roster()
	if len(r) == 0 {
		return
	}
	p := r[clamp(a.rosterRow, len(r))]
	if a.store.Remove(p.ID) {
		a.statusMsg = fmt.Sprintf("Removed %s", displayName(p))
	}
	a.rosterRow = clamp(a.rosterRow, a.store.Len())
}

func (a *App) unify() {
	err := a.store.UnifyFromTemplate(
		roster.FieldSex,
		roster.FieldAge,
		roster.FieldResidence,
		roster.FieldJob,
		roster.FieldParticipationPeriod,
	)
	a.err = err
	if err != nil {
		a.statusMsg = err.Error()
		return
	}
	a.statusMsg = "Copied the first row onto every participant"
}

func (a *App) toggleMount() {
	ids := a.orch.Modules()
	if len(ids) == 0 {
		return
	}
	id := ids[clamp(a.moduleSel, len(ids))]
	if _, mounted := a.forms[id]; mounted {
		a.unmount(id)
		a.statusMsg = fmt.Sprintf("%s unmounted", id)
		return
	}
	if err := a.mount(id); err != nil {
		a.err = err
		a.statusMsg = err.Error()
		return
	}
	a.statusMsg = fmt.Sprintf("%s mounted", id)
}

func (a *App) apply() {
	summary, err := a.orch.ApplyToAllModules()
	a.err = err
	switch {
	case errors.Is(err, bridge.ErrBusy):
		a.statusMsg = "Apply already running"
	case err != nil:
		a.statusMsg = "Apply blocked: " + err.Error()
		a.logWarn("Apply blocked from console: %v", err)
	default:
		a.summary = &summary
		a.statusMsg = "Applied · " + summary.String()
	}
}

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B")).
		MarginBottom(1).
		Render("⬡ HEALING ROSTER")

	rightWidth := max(30, width/3)
	leftWidth := width - rightWidth - 4
	left := lipgloss.JoinVertical(lipgloss.Left,
		a.box(a.renderContext(), a.focus == paneContext, leftWidth),
		a.box(a.renderRoster(), a.focus == paneRoster, leftWidth),
	)
	right := a.box(a.renderModules(), a.focus == paneModules, rightWidth)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	if leftWidth < 40 {
		body = lipgloss.JoinVertical(lipgloss.Left, left, right)
	}

	sections := []string{header, body}
	if a.editing {
		sections = append(sections, a.input.View())
		if hint := a.editHint(); hint != "" {
			sections = append(sections, hint)
		}
	}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	color := "#888888"
	if a.err != nil {
		color = "#FF6B6B"
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color(color)).
		MarginTop(1).
		Render(a.statusMsg)
	sections = append(sections, footer)
	return strings.Join(sections, "\n")
}

func (a *App) box(content string, focused bool, width int) string {
	border := lipgloss.Color("#444444")
	if focused {
		border = lipgloss.Color("#5B8DEF")
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(max(20, width)).
		Render(content)
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines := a.logbook.Tail(6)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s", fileName))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
}

func clamp(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func displayName(p roster.Participant) string {
	if strings.TrimSpace(p.Personal.Name) == "" {
		return "participant " + shortID(p.ID)
	}
	return p.Personal.Name
}
