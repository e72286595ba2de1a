package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/studyplan-backend/internal/model"
	"github.com/stemsi/studyplan-backend/internal/planner"
	"github.com/stemsi/studyplan-backend/internal/repository"
	ws "github.com/stemsi/studyplan-backend/internal/websocket"
)

// PlanService runs planner actions against stored sessions. Each action
// loads the session, runs to completion under the session's lock, saves
// and publishes the new view.
type PlanService struct {
	store repository.SessionStore
	ctrl  *planner.Controller
	hub   Broadcaster
	locks *sessionLocks
	log   zerolog.Logger
}

// NewPlanService creates a new PlanService.
func NewPlanService(store repository.SessionStore, ctrl *planner.Controller, hub Broadcaster, log zerolog.Logger) *PlanService {
	return &PlanService{
		store: store,
		ctrl:  ctrl,
		hub:   hub,
		locks: newSessionLocks(),
		log:   log.With().Str("component", "plan_service").Logger(),
	}
}

// View returns the current view of a session.
func (s *PlanService) View(ctx context.Context, sessionID string) (*planner.View, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return planner.BuildView(sess.State), nil
}

// Table returns the current result rows of a session, whether or not the
// result table has been requested.
func (s *PlanService) Table(ctx context.Context, sessionID string) (*planner.Table, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return planner.BuildTable(sess.State), nil
}

// SavePeriod runs SaveStudyPeriod.
func (s *PlanService) SavePeriod(ctx context.Context, sessionID string, req *model.SavePeriodRequest) (*planner.PeriodResult, *planner.View, error) {
	var res *planner.PeriodResult
	view, err := s.apply(ctx, sessionID, "save_period", func(st *model.PlanState) error {
		var err error
		res, err = s.ctrl.SaveStudyPeriod(st, req.StartDate, req.ExamDate)
		return err
	})
	if err != nil {
		return nil, view, err
	}
	return res, view, nil
}

// SaveSubject runs SaveOrEditSubject. An explicit edit index selects the
// edit target first, as if picked from the selector.
func (s *PlanService) SaveSubject(ctx context.Context, sessionID string, req *model.SaveSubjectRequest) (*planner.SubjectResult, *planner.View, error) {
	var res *planner.SubjectResult
	view, err := s.apply(ctx, sessionID, "save_subject", func(st *model.PlanState) error {
		if req.EditIndex != nil && st.EditMode {
			if _, err := s.ctrl.SelectEditTarget(st, *req.EditIndex); err != nil {
				return err
			}
		}
		var err error
		res, err = s.ctrl.SaveOrEditSubject(st, req.Name, req.PageRange)
		return err
	})
	if err != nil {
		return nil, view, err
	}
	return res, view, nil
}

// RequestResults runs RequestResults.
func (s *PlanService) RequestResults(ctx context.Context, sessionID string) (*planner.View, error) {
	return s.apply(ctx, sessionID, "request_results", func(st *model.PlanState) error {
		s.ctrl.RequestResults(st)
		return nil
	})
}

// EnterEditMode runs EnterEditMode.
func (s *PlanService) EnterEditMode(ctx context.Context, sessionID string) (*planner.View, error) {
	return s.apply(ctx, sessionID, "enter_edit_mode", func(st *model.PlanState) error {
		return s.ctrl.EnterEditMode(st)
	})
}

// SelectEditTarget runs SelectEditTarget.
func (s *PlanService) SelectEditTarget(ctx context.Context, sessionID string, index int) (*planner.FormDefaults, *planner.View, error) {
	var defaults *planner.FormDefaults
	view, err := s.apply(ctx, sessionID, "select_edit_target", func(st *model.PlanState) error {
		var err error
		defaults, err = s.ctrl.SelectEditTarget(st, index)
		return err
	})
	if err != nil {
		return nil, view, err
	}
	return defaults, view, nil
}

// ResetPeriod runs ResetStudyPeriod.
func (s *PlanService) ResetPeriod(ctx context.Context, sessionID string) (*planner.View, error) {
	return s.apply(ctx, sessionID, "reset_period", func(st *model.PlanState) error {
		s.ctrl.ResetStudyPeriod(st)
		return nil
	})
}

// apply runs one action. Failed actions are not saved, except a failed
// precondition, which reroutes the session and must be persisted. The view
// is returned whenever the state was saved.
func (s *PlanService) apply(ctx context.Context, sessionID, action string, fn func(st *model.PlanState) error) (*planner.View, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	actErr := runGuarded(fn, sess.State)
	if actErr != nil && !errors.Is(actErr, planner.ErrPrecondition) {
		if errors.Is(actErr, planner.ErrInternal) {
			s.log.Error().Err(actErr).Str("session_id", sessionID).Str("action", action).Msg("Action failed unexpectedly")
		} else {
			s.log.Debug().Err(actErr).Str("session_id", sessionID).Str("action", action).Msg("Action rejected")
		}
		return nil, actErr
	}

	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	view := planner.BuildView(sess.State)
	s.publish(ctx, sessionID, view)

	s.log.Info().
		Str("session_id", sessionID).
		Str("action", action).
		Int("subjects", len(sess.State.Subjects)).
		Bool("ok", actErr == nil).
		Msg("Action applied")

	return view, actErr
}

// runGuarded turns a panic inside an action into ErrInternal.
func runGuarded(fn func(st *model.PlanState) error, st *model.PlanState) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", planner.ErrInternal, r)
		}
	}()
	return fn(st)
}

func (s *PlanService) publish(ctx context.Context, sessionID string, view *planner.View) {
	payload, err := json.Marshal(ws.ViewEvent{Event: ws.EventView, View: view})
	if err != nil {
		s.log.Error().Err(err).Msg("Encode view")
		return
	}
	if err := s.hub.Publish(ctx, sessionID, payload); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("Publish view failed")
	}
}

// Subscribe streams the views of a session.
func (s *PlanService) Subscribe(ctx context.Context, sessionID string) (<-chan []byte, func(), error) {
	return s.hub.Subscribe(ctx, sessionID)
}
