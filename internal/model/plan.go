package model

import "time"

// StudyPeriod is the saved date range a plan is computed against.
type StudyPeriod struct {
	StartDate time.Time `json:"start_date"`
	ExamDate  time.Time `json:"exam_date"`
}

// Days returns the number of whole days between the start and exam dates.
func (p StudyPeriod) Days() int {
	return int(p.ExamDate.Sub(p.StartDate).Hours() / 24)
}

// Subject is one row of the study plan. Derived fields are computed when
// the subject is saved and are not recomputed afterwards.
type Subject struct {
	Name        string `json:"name"`
	StartPage   int    `json:"start_page"`
	EndPage     int    `json:"end_page"`
	TotalPages  int    `json:"total_pages"`
	StudyDays   int    `json:"study_days"`
	DailyAmount int    `json:"daily_amount"`
}

// PlanState is the state of one interactive planning session.
type PlanState struct {
	Period           *StudyPeriod `json:"period,omitempty"`
	Subjects         []Subject    `json:"subjects"`
	ExamDateSaved    bool         `json:"exam_date_saved"`
	ShowSubjectInput bool         `json:"show_subject_input"`
	ShowResult       bool         `json:"show_result"`
	EditMode         bool         `json:"edit_mode"`
	EditIndex        *int         `json:"edit_index,omitempty"`
	Message          string       `json:"message,omitempty"`
}

// NewPlanState returns the defaults of a fresh session.
func NewPlanState() *PlanState {
	return &PlanState{Subjects: []Subject{}}
}

// PlanSession couples a state with its session identity.
type PlanSession struct {
	ID        string     `json:"id"`
	State     *PlanState `json:"state"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// SavePeriodRequest is the payload for saving the study period. Dates are
// checked by the planner so that empty or malformed text reports a parse
// error.
type SavePeriodRequest struct {
	StartDate string `json:"start_date" form:"start_date" binding:"max=50"`
	ExamDate  string `json:"exam_date" form:"exam_date" binding:"max=50"`
}

// SaveSubjectRequest is the payload for saving or editing a subject.
// Name and PageRange are checked by the planner so that empty values
// surface the planner's own error.
type SaveSubjectRequest struct {
	Name      string `json:"name" form:"name" binding:"max=100"`
	PageRange string `json:"page_range" form:"page_range" binding:"max=50"`
	EditIndex *int   `json:"edit_index" form:"edit_index" binding:"omitempty,min=0"`
}
