// Package tui is a terminal host for the study planner. It keeps one
// session state in memory and re-renders from planner.BuildView after
// every action, the same way the HTTP host does.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/stemsi/studyplan-backend/internal/model"
	"github.com/stemsi/studyplan-backend/internal/planner"
	"github.com/stemsi/studyplan-backend/internal/response"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")).MarginBottom(1)
	headingStyle = lipgloss.NewStyle().Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	tableBox     = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("#555555"))
)

// Input positions on each step.
const (
	fieldStart = 0
	fieldExam  = 1

	fieldName  = 0
	fieldRange = 1
)

// Input limits match the binding tags on the HTTP request models.
const (
	maxDateLen      = 50
	maxNameLen      = 100
	maxPageRangeLen = 50
)

// App is the bubbletea model wrapping one planning session.
type App struct {
	ctrl  *planner.Controller
	state *model.PlanState
	log   zerolog.Logger

	periodInputs  []textinput.Model
	subjectInputs []textinput.Model
	focus         int

	results table.Model
	errMsg  string
}

// NewApp creates an App with a fresh session state.
func NewApp(ctrl *planner.Controller, log zerolog.Logger) *App {
	a := &App{
		ctrl:  ctrl,
		state: model.NewPlanState(),
		log:   log.With().Str("component", "tui").Logger(),
		periodInputs: []textinput.Model{
			newInput("공부 시작 날짜 (예: 7/15)", maxDateLen),
			newInput("시험 날짜 (예: 7/25)", maxDateLen),
		},
		subjectInputs: []textinput.Model{
			newInput("과목명", maxNameLen),
			newInput("시험 범위 (예: 10~35)", maxPageRangeLen),
		},
		results: newResultsTable(),
	}
	a.periodInputs[fieldStart].Focus()
	return a
}

func newInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Width = 30
	return in
}

func newResultsTable() table.Model {
	cols := make([]table.Column, 0, len(planner.TableColumns))
	for _, c := range planner.TableColumns {
		width := 12
		if c.Key == "name" {
			width = 16
		}
		cols = append(cols, table.Column{Title: c.Label, Width: width})
	}
	return table.New(table.WithColumns(cols), table.WithHeight(8))
}

// State exposes the session state for inspection.
func (a *App) State() *model.PlanState {
	return a.state
}

func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, a.updateFocused(msg)
	}

	switch key.String() {
	case "ctrl+c", "esc":
		return a, tea.Quit
	case "tab", "shift+tab", "up", "down":
		a.moveFocus(key.String() == "shift+tab" || key.String() == "up")
		return a, nil
	case "enter":
		a.submit()
		return a, nil
	}

	if a.state.ShowSubjectInput {
		switch key.String() {
		case "ctrl+r":
			a.ctrl.RequestResults(a.state)
			a.afterAction("request_results", nil)
			return a, nil
		case "ctrl+e":
			a.enterEditMode()
			return a, nil
		case "pgdown", "pgup":
			a.cycleEditTarget(key.String() == "pgdown")
			return a, nil
		case "ctrl+x":
			a.ctrl.ResetStudyPeriod(a.state)
			a.afterAction("reset_period", nil)
			return a, nil
		}
	}

	return a, a.updateFocused(msg)
}

func (a *App) inputs() []textinput.Model {
	if a.state.ShowSubjectInput {
		return a.subjectInputs
	}
	return a.periodInputs
}

func (a *App) updateFocused(msg tea.Msg) tea.Cmd {
	inputs := a.inputs()
	var cmd tea.Cmd
	inputs[a.focus], cmd = inputs[a.focus].Update(msg)
	return cmd
}

func (a *App) moveFocus(back bool) {
	inputs := a.inputs()
	inputs[a.focus].Blur()
	if back {
		a.focus = (a.focus + len(inputs) - 1) % len(inputs)
	} else {
		a.focus = (a.focus + 1) % len(inputs)
	}
	inputs[a.focus].Focus()
}

// setStep focuses the first input of whichever step is now showing.
func (a *App) setStep() {
	for i := range a.periodInputs {
		a.periodInputs[i].Blur()
	}
	for i := range a.subjectInputs {
		a.subjectInputs[i].Blur()
	}
	a.focus = 0
	a.inputs()[0].Focus()
}

func (a *App) submit() {
	if !a.state.ShowSubjectInput {
		_, err := a.ctrl.SaveStudyPeriod(a.state,
			a.periodInputs[fieldStart].Value(), a.periodInputs[fieldExam].Value())
		a.afterAction("save_period", err)
		return
	}

	_, err := a.ctrl.SaveOrEditSubject(a.state,
		a.subjectInputs[fieldName].Value(), a.subjectInputs[fieldRange].Value())
	if err == nil {
		a.subjectInputs[fieldName].SetValue("")
		a.subjectInputs[fieldRange].SetValue("")
	}
	a.afterAction("save_subject", err)
}

func (a *App) enterEditMode() {
	err := a.ctrl.EnterEditMode(a.state)
	if err == nil {
		a.fillEditForm(0)
	}
	a.afterAction("enter_edit_mode", err)
}

func (a *App) cycleEditTarget(next bool) {
	if !a.state.EditMode || a.state.EditIndex == nil {
		return
	}
	n := len(a.state.Subjects)
	idx := *a.state.EditIndex
	if next {
		idx = (idx + 1) % n
	} else {
		idx = (idx + n - 1) % n
	}
	a.fillEditForm(idx)
}

func (a *App) fillEditForm(index int) {
	defaults, err := a.ctrl.SelectEditTarget(a.state, index)
	if err != nil {
		a.afterAction("select_edit_target", err)
		return
	}
	a.subjectInputs[fieldName].SetValue(defaults.Name)
	a.subjectInputs[fieldRange].SetValue(defaults.PageRange)
}

// afterAction refreshes everything derived from the state. Views are
// rebuilt after every action, failed or not.
func (a *App) afterAction(action string, err error) {
	wasSubjects := a.focusOnSubjects()
	a.errMsg = ""
	if err != nil {
		a.errMsg = errorMessage(err, action == "save_subject")
		a.log.Debug().Err(err).Str("action", action).Msg("Action rejected")
	} else {
		a.log.Info().Str("action", action).Int("subjects", len(a.state.Subjects)).Msg("Action applied")
	}

	if wasSubjects != a.state.ShowSubjectInput {
		a.setStep()
	}
	if v := planner.BuildView(a.state); v.Table != nil {
		rows := make([]table.Row, 0, len(v.Table.Rows))
		for _, cells := range v.Table.Cells() {
			rows = append(rows, table.Row(cells))
		}
		a.results.SetRows(rows)
	}
}

// focusOnSubjects reports which input set currently holds focus.
func (a *App) focusOnSubjects() bool {
	for _, in := range a.subjectInputs {
		if in.Focused() {
			return true
		}
	}
	return false
}

// errorMessage picks the same user message the HTTP API returns. A parse
// failure while saving a subject is about page numbers, not dates.
func errorMessage(err error, pages bool) string {
	var code response.ErrCode
	switch {
	case errors.Is(err, planner.ErrPrecondition):
		code = response.ErrPrecondition
	case errors.Is(err, planner.ErrOrdering):
		code = response.ErrOrdering
	case errors.Is(err, planner.ErrFormat):
		code = response.ErrFormat
	case errors.Is(err, planner.ErrRange):
		code = response.ErrRange
	case errors.Is(err, planner.ErrSchedule):
		code = response.ErrSchedule
	case errors.Is(err, planner.ErrRequired):
		code = response.ErrRequiredFields
	case errors.Is(err, planner.ErrNoSubjects):
		code = response.ErrNoSubjects
	case errors.Is(err, planner.ErrNotEditing):
		code = response.ErrNotEditing
	case errors.Is(err, planner.ErrIndexOutOfRange):
		code = response.ErrIndexOutOfRange
	case errors.Is(err, planner.ErrParse) && pages:
		code = response.ErrPageParse
	case errors.Is(err, planner.ErrParse):
		code = response.ErrDateParse
	default:
		code = response.ErrInternal
	}
	return response.GetMessage(code)
}

func (a *App) View() string {
	v := planner.BuildView(a.state)
	var b strings.Builder

	b.WriteString(titleStyle.Render("📚 시험 공부 계획 도우미"))
	b.WriteString("\n")

	if v.Step == planner.StepPeriod {
		b.WriteString(headingStyle.Render("1️⃣ 시험 날짜 입력"))
		b.WriteString("\n")
		for _, in := range a.periodInputs {
			b.WriteString(in.View() + "\n")
		}
		b.WriteString(hintStyle.Render("enter: 시험 날짜 저장 · tab: 다음 칸 · esc: 종료"))
		b.WriteString("\n")
	}

	if v.ShowSubjectInput {
		b.WriteString(headingStyle.Render("2️⃣ 과목 및 시험범위 입력"))
		b.WriteString("\n")
		if v.Period != nil {
			fmt.Fprintf(&b, "%s ~ %s (%d일)\n",
				v.Period.StartDate.Format(planner.DateLayout), v.Period.ExamDate.Format(planner.DateLayout), v.PeriodDays)
		}
		if v.EditMode && v.EditIndex != nil {
			fmt.Fprintf(&b, "수정할 과목: %s (%d/%d)\n", v.EditOptions[*v.EditIndex].Label, *v.EditIndex+1, len(v.EditOptions))
		}
		for _, in := range a.subjectInputs {
			b.WriteString(in.View() + "\n")
		}
		hints := "enter: 과목 저장 · ctrl+r: 결과 확인 · ctrl+x: 시험 날짜 다시 입력"
		if v.CanEdit {
			hints += " · ctrl+e: 과목 수정 시작"
			if v.EditMode {
				hints += " · pgup/pgdown: 과목 선택"
			}
		}
		b.WriteString(hintStyle.Render(hints))
		b.WriteString("\n")
		if !v.CanEdit {
			b.WriteString(hintStyle.Render(v.EditNotice) + "\n")
		}
	}

	if a.errMsg != "" {
		b.WriteString(errorStyle.Render(a.errMsg) + "\n")
	} else if v.Message != "" {
		b.WriteString(successStyle.Render(v.Message) + "\n")
	}

	if v.Table != nil {
		b.WriteString("\n" + headingStyle.Render("📋 과목별 공부 계획 요약 (표)") + "\n")
		if len(v.Table.Rows) == 0 {
			b.WriteString(v.Table.Notice + "\n")
		} else {
			b.WriteString(tableBox.Render(a.results.View()) + "\n")
		}
	}
	return b.String()
}
