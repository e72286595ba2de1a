package planner

import "errors"

// Input errors returned by the controller. Callers match them with errors.Is;
// the wrapped message carries the offending value.
var (
	ErrParse        = errors.New("value does not match the expected format")
	ErrOrdering     = errors.New("exam date must be after the start date")
	ErrFormat       = errors.New("page range must look like start~end")
	ErrRange        = errors.New("end page is before the start page")
	ErrSchedule     = errors.New("study period has no days")
	ErrPrecondition = errors.New("study period has not been saved")
	ErrRequired     = errors.New("name and page range are required")

	ErrNoSubjects      = errors.New("no subjects to edit")
	ErrNotEditing      = errors.New("edit mode is not active")
	ErrIndexOutOfRange = errors.New("subject index out of range")

	// ErrInternal reports an unexpected failure caught at the boundary.
	ErrInternal = errors.New("unexpected error while running the action")
)
