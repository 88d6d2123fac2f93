package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/DawPlus/healing-server-sub000/internal/module"
	"github.com/DawPlus/healing-server-sub000/internal/roster"
)

type contextField struct {
	label string
	get   func(roster.OrganizationContext) string
	set   func(*roster.Store, string) error
}

var contextFields = []contextField{
	{
		label: "Agency ID",
		get:   roster.OrganizationContext.AgencyIDString,
		set: func(s *roster.Store, v string) error {
			v = strings.TrimSpace(v)
			if v == "" {
				s.ClearAgency()
				return nil
			}
			id, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("agency id %q is not a number", v)
			}
			return s.SelectAgency(id)
		},
	},
	{
		label: "Agency",
		get:   func(c roster.OrganizationContext) string { return c.Agency },
		set: func(s *roster.Store, v string) error {
			return s.SetContext(func(c *roster.OrganizationContext) { c.Agency = v })
		},
	},
	{
		label: "Open day",
		get:   func(c roster.OrganizationContext) string { return c.OpenDay },
		set: func(s *roster.Store, v string) error {
			return s.SetContext(func(c *roster.OrganizationContext) { c.OpenDay = v })
		},
	},
	{
		label: "Eval date",
		get:   func(c roster.OrganizationContext) string { return c.EvalDate },
		set: func(s *roster.Store, v string) error {
			return s.SetContext(func(c *roster.OrganizationContext) { c.EvalDate = v })
		},
	},
	{
		label: "Program",
		get:   func(c roster.OrganizationContext) string { return c.Program },
		set: func(s *roster.Store, v string) error {
			return s.SetContext(func(c *roster.OrganizationContext) { c.Program = v })
		},
	},
}

type rosterColumn struct {
	label   string
	width   int
	get     func(roster.Personal) string
	set     func(*roster.Personal, string)
	choices func() []string
}

var rosterColumns = []rosterColumn{
	{
		label: "Name",
		width: 14,
		get:   func(p roster.Personal) string { return p.Name },
		set:   func(p *roster.Personal, v string) { p.Name = v },
	},
	{
		label:   "Sex",
		width:   8,
		get:     func(p roster.Personal) string { return string(p.Sex) },
		set:     func(p *roster.Personal, v string) { p.Sex = roster.ParseSex(v) },
		choices: func() []string { return []string{string(roster.SexMale), string(roster.SexFemale)} },
	},
	{
		label: "Age",
		width: 5,
		get:   func(p roster.Personal) string { return p.Age },
		set:   func(p *roster.Personal, v string) { p.Age = v },
	},
	{
		label:   "Residence",
		width:   11,
		get:     func(p roster.Personal) string { return string(p.Residence) },
		set:     func(p *roster.Personal, v string) { p.Residence = roster.ParseResidence(v) },
		choices: func() []string { return stringsOf(roster.Residences()) },
	},
	{
		label:   "Job",
		width:   14,
		get:     func(p roster.Personal) string { return string(p.Job) },
		set:     func(p *roster.Personal, v string) { p.Job = roster.ParseJob(v) },
		choices: func() []string { return stringsOf(roster.Jobs()) },
	},
	{
		label:   "Period",
		width:   10,
		get:     func(p roster.Personal) string { return string(p.ParticipationPeriod) },
		set:     func(p *roster.Personal, v string) { p.ParticipationPeriod = roster.ParsePeriod(v) },
		choices: func() []string { return stringsOf(roster.Periods()) },
	},
}

func stringsOf[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// editHint lists accepted values for the cell being edited.
func (a *App) editHint() string {
	if a.focus != paneRoster {
		return ""
	}
	col := rosterColumns[a.rosterCol]
	if col.choices == nil {
		return ""
	}
	return dimStyle.Render(col.label + ": " + strings.Join(col.choices(), " · "))
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#3A3A5A"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD787"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAF5F"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
)

func (a *App) renderContext() string {
	ctx := a.store.Context()
	lines := []string{titleStyle.Render("ORGANIZATION")}
	for i, f := range contextFields {
		value := f.get(ctx)
		if value == "" {
			value = dimStyle.Render("—")
		}
		line := fmt.Sprintf("%-10s %s", f.label, value)
		if a.focus == paneContext && i == a.contextSel {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderRoster() string {
	r := a.store.Roster()
	lines := []string{titleStyle.Render(fmt.Sprintf("ROSTER · %d", len(r)))}
	header := make([]string, 0, len(rosterColumns)+1)
	header = append(header, "  # ")
	for _, c := range rosterColumns {
		header = append(header, pad(c.label, c.width))
	}
	lines = append(lines, dimStyle.Render(strings.Join(header, " ")))
	if len(r) == 0 {
		lines = append(lines, dimStyle.Render("No participants · press a to add one"))
		return strings.Join(lines, "\n")
	}
	for i, p := range r {
		cells := make([]string, 0, len(rosterColumns)+1)
		marker := "  "
		if i == 0 {
			// the template row for unify
			marker = "T "
		}
		cells = append(cells, fmt.Sprintf("%s%-2d", marker, i+1))
		for j, c := range rosterColumns {
			cell := pad(c.get(p.Personal), c.width)
			if a.focus == paneRoster && i == a.rosterRow && j == a.rosterCol {
				cell = selectedStyle.Render(cell)
			}
			cells = append(cells, cell)
		}
		lines = append(lines, strings.Join(cells, " "))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderModules() string {
	lines := []string{titleStyle.Render("MODULES")}
	registry := a.orch.Registry()
	for i, id := range a.orch.Modules() {
		mark := "○"
		capability := "-"
		if entry, ok := registry.Get(id); ok {
			capability = entry.Capability.String()
		}
		if _, ok := a.forms[id]; ok {
			mark = "●"
		}
		fp := ""
		if stored, ok := registry.Fingerprint(id); ok {
			fp = shortID(stored)
		}
		line := fmt.Sprintf("%s %-10s %-12s %s %s", mark, id, capability, statusBadge(a.orch.Status(id)), dimStyle.Render(fp))
		if a.focus == paneModules && i == a.moduleSel {
			line = selectedStyle.Render(fmt.Sprintf("%s %-10s %-12s %s %s", mark, id, capability, a.orch.Status(id), fp))
		}
		lines = append(lines, line)
	}
	if a.summary != nil {
		lines = append(lines, "", dimStyle.Render(fmt.Sprintf("last apply %s · %d deliveries", shortID(a.summary.Fingerprint), a.summary.Deliveries)))
	}
	return strings.Join(lines, "\n")
}

func statusBadge(s module.Status) string {
	switch s {
	case module.StatusSynced:
		return okStyle.Render(string(s))
	case module.StatusUnsupported:
		return warnStyle.Render(string(s))
	case module.StatusFailed:
		return errStyle.Render(string(s))
	default:
		return dimStyle.Render(string(s))
	}
}

func pad(value string, width int) string {
	if lipgloss.Width(value) > width {
		value = truncate(value, width)
	}
	return value + strings.Repeat(" ", max(0, width-lipgloss.Width(value)))
}

// truncate cuts value to at most width cells, ending in an ellipsis.
func truncate(value string, width int) string {
	if width <= 0 {
		return ""
	}
	var b strings.Builder
	for _, r := range value {
		if lipgloss.Width(b.String()+string(r)) > width-1 {
			break
		}
		b.WriteRune(r)
	}
	return b.String() + "…"
}
