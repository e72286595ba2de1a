// Package planner holds the study plan state machine. Every action takes the
// session state explicitly and either mutates it completely or returns an
// error without touching it.
package planner

import (
	"fmt"
	"time"

	"github.com/stemsi/studyplan-backend/internal/model"
)

// DateLayout is how saved dates are shown back to the user.
const DateLayout = "2006-01-02"

// Controller runs plan actions. The clock decides which year "M/D" dates
// fall in.
type Controller struct {
	now func() time.Time
}

// NewController creates a Controller using the wall clock.
func NewController() *Controller {
	return &Controller{now: time.Now}
}

// NewControllerWithClock creates a Controller with a fixed clock, for tests
// and hosts that pin the planning year.
func NewControllerWithClock(now func() time.Time) *Controller {
	return &Controller{now: now}
}

// PeriodResult is returned by SaveStudyPeriod.
type PeriodResult struct {
	Period  model.StudyPeriod `json:"period"`
	Days    int               `json:"days"`
	Message string            `json:"message"`
}

// SubjectResult is returned by SaveOrEditSubject.
type SubjectResult struct {
	Subject model.Subject `json:"subject"`
	Index   int           `json:"index"`
	Edited  bool          `json:"edited"`
	Message string        `json:"message"`
}

// FormDefaults pre-populates the subject form.
type FormDefaults struct {
	Name      string `json:"name"`
	PageRange string `json:"page_range"`
}

// SaveStudyPeriod parses both dates in the current year and stores the
// period when the exam is strictly after the start.
func (c *Controller) SaveStudyPeriod(st *model.PlanState, startText, examText string) (*PeriodResult, error) {
	year := c.now().Year()

	start, err := ParseMonthDay(startText, year)
	if err != nil {
		return nil, fmt.Errorf("start date: %w", err)
	}
	exam, err := ParseMonthDay(examText, year)
	if err != nil {
		return nil, fmt.Errorf("exam date: %w", err)
	}
	if !exam.After(start) {
		return nil, fmt.Errorf("%w: %s is not after %s", ErrOrdering,
			exam.Format(DateLayout), start.Format(DateLayout))
	}

	period := model.StudyPeriod{StartDate: start, ExamDate: exam}
	days := period.Days()
	msg := fmt.Sprintf("시험 기간 저장됨: %s ~ %s (%d일)",
		start.Format(DateLayout), exam.Format(DateLayout), days)

	st.Period = &period
	st.ExamDateSaved = true
	st.ShowSubjectInput = true
	st.Message = msg

	return &PeriodResult{Period: period, Days: days, Message: msg}, nil
}

// SaveOrEditSubject validates the subject input against the saved period.
// In edit mode with a valid edit index the subject at that position is
// replaced and edit mode ends; otherwise the subject is appended.
//
// A missing period routes the session back to date entry, which is the
// one failure that changes state.
func (c *Controller) SaveOrEditSubject(st *model.PlanState, name, pageRange string) (*SubjectResult, error) {
	if st.Period == nil {
		st.ExamDateSaved = false
		st.ShowSubjectInput = false
		return nil, ErrPrecondition
	}
	if name == "" || pageRange == "" {
		return nil, ErrRequired
	}

	startPage, endPage, err := ParsePageRange(pageRange)
	if err != nil {
		return nil, err
	}

	totalPages, err := TotalPages(startPage, endPage)
	if err != nil {
		return nil, err
	}

	studyDays := st.Period.Days()
	if studyDays <= 0 {
		return nil, fmt.Errorf("%w: %d days", ErrSchedule, studyDays)
	}

	sub := model.Subject{
		Name:        name,
		StartPage:   startPage,
		EndPage:     endPage,
		TotalPages:  totalPages,
		StudyDays:   studyDays,
		DailyAmount: DailyAmount(totalPages, studyDays),
	}

	if st.EditMode && st.EditIndex != nil && *st.EditIndex >= 0 && *st.EditIndex < len(st.Subjects) {
		idx := *st.EditIndex
		st.Subjects[idx] = sub
		st.EditMode = false
		st.EditIndex = nil
		st.Message = name + " 수정 완료!"
		return &SubjectResult{Subject: sub, Index: idx, Edited: true, Message: st.Message}, nil
	}

	st.Subjects = append(st.Subjects, sub)
	st.Message = name + " 저장됨!"
	return &SubjectResult{Subject: sub, Index: len(st.Subjects) - 1, Message: st.Message}, nil
}

// RequestResults makes the result table visible.
func (c *Controller) RequestResults(st *model.PlanState) {
	st.ShowResult = true
}

// EnterEditMode turns on edit mode with the first subject selected.
func (c *Controller) EnterEditMode(st *model.PlanState) error {
	if len(st.Subjects) == 0 {
		return ErrNoSubjects
	}
	first := 0
	st.EditMode = true
	st.EditIndex = &first
	return nil
}

// SelectEditTarget chooses which subject the next save replaces and returns
// its current values for the form.
func (c *Controller) SelectEditTarget(st *model.PlanState, index int) (*FormDefaults, error) {
	if !st.EditMode {
		return nil, ErrNotEditing
	}
	if index < 0 || index >= len(st.Subjects) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(st.Subjects))
	}

	st.EditIndex = &index
	sub := st.Subjects[index]
	return &FormDefaults{Name: sub.Name, PageRange: FormatPageRange(sub.StartPage, sub.EndPage)}, nil
}

// ResetStudyPeriod returns the session to date entry. Subjects are kept.
func (c *Controller) ResetStudyPeriod(st *model.PlanState) {
	st.Period = nil
	st.ExamDateSaved = false
	st.ShowSubjectInput = false
	st.EditMode = false
	st.EditIndex = nil
	st.Message = ""
}
