package planner

import (
	"strconv"

	"github.com/stemsi/studyplan-backend/internal/model"
)

// Step is the wizard step a host should show.
type Step string

const (
	StepPeriod   Step = "period"
	StepSubjects Step = "subjects"
)

// Messages shown by hosts for states that are not errors.
const (
	NoSubjectsToEditNotice = "과목 수정할 데이터가 없습니다."
	EmptyTableNotice       = "아직 저장된 과목이 없습니다."
)

// Column describes one result table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// TableColumns lists the result table columns in display order.
var TableColumns = []Column{
	{Key: "name", Label: "과목명"},
	{Key: "start_page", Label: "시작 페이지"},
	{Key: "end_page", Label: "끝 페이지"},
	{Key: "total_pages", Label: "총 페이지 수"},
	{Key: "study_days", Label: "공부 기간(일)"},
	{Key: "daily_amount", Label: "하루 공부량"},
}

// Table is the result summary handed to a tabular display.
type Table struct {
	Columns []Column        `json:"columns"`
	Rows    []model.Subject `json:"rows"`
	Notice  string          `json:"notice,omitempty"`
}

// Cells returns the row values as text, in column order.
func (t *Table) Cells() [][]string {
	cells := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		cells = append(cells, []string{
			r.Name,
			strconv.Itoa(r.StartPage),
			strconv.Itoa(r.EndPage),
			strconv.Itoa(r.TotalPages),
			strconv.Itoa(r.StudyDays),
			strconv.Itoa(r.DailyAmount),
		})
	}
	return cells
}

// EditOption is one entry of the edit target selector.
type EditOption struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

// View is everything a host needs to render the session.
type View struct {
	Step             Step               `json:"step"`
	Period           *model.StudyPeriod `json:"period,omitempty"`
	PeriodDays       int                `json:"period_days,omitempty"`
	ShowSubjectInput bool               `json:"show_subject_input"`
	EditMode         bool               `json:"edit_mode"`
	EditIndex        *int               `json:"edit_index,omitempty"`
	EditOptions      []EditOption       `json:"edit_options,omitempty"`
	CanEdit          bool               `json:"can_edit"`
	EditNotice       string             `json:"edit_notice,omitempty"`
	Form             FormDefaults       `json:"form"`
	Message          string             `json:"message,omitempty"`
	SubjectCount     int                `json:"subject_count"`
	Table            *Table             `json:"table,omitempty"`
}

// BuildTable returns the result table for the saved subjects.
func BuildTable(st *model.PlanState) *Table {
	rows := make([]model.Subject, len(st.Subjects))
	copy(rows, st.Subjects)

	t := &Table{Columns: TableColumns, Rows: rows}
	if len(rows) == 0 {
		t.Notice = EmptyTableNotice
	}
	return t
}

// BuildView derives the render model from the state without changing it.
func BuildView(st *model.PlanState) *View {
	v := &View{
		Step:             StepPeriod,
		ShowSubjectInput: st.ShowSubjectInput,
		EditMode:         st.EditMode,
		CanEdit:          len(st.Subjects) > 0,
		Message:          st.Message,
		SubjectCount:     len(st.Subjects),
	}
	if st.ExamDateSaved {
		v.Step = StepSubjects
	}
	if st.Period != nil {
		p := *st.Period
		v.Period = &p
		v.PeriodDays = p.Days()
	}
	if !v.CanEdit {
		v.EditNotice = NoSubjectsToEditNotice
	}

	if st.EditMode {
		v.EditOptions = make([]EditOption, 0, len(st.Subjects))
		for i, s := range st.Subjects {
			v.EditOptions = append(v.EditOptions, EditOption{Index: i, Label: s.Name})
		}
		if st.EditIndex != nil && *st.EditIndex >= 0 && *st.EditIndex < len(st.Subjects) {
			idx := *st.EditIndex
			v.EditIndex = &idx
			sub := st.Subjects[idx]
			v.Form = FormDefaults{Name: sub.Name, PageRange: FormatPageRange(sub.StartPage, sub.EndPage)}
		}
	}

	if st.ShowResult {
		v.Table = BuildTable(st)
	}
	return v
}
