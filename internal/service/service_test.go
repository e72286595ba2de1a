package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/studyplan-backend/internal/model"
	"github.com/stemsi/studyplan-backend/internal/planner"
	"github.com/stemsi/studyplan-backend/internal/repository"
	ws "github.com/stemsi/studyplan-backend/internal/websocket"
)

type testEnv struct {
	store    *repository.MemorySessionStore
	hub      *MemoryBroadcaster
	sessions *SessionService
	plans    *PlanService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repository.NewMemorySessionStore()
	hub := NewMemoryBroadcaster()
	ctrl := planner.NewControllerWithClock(func() time.Time {
		return time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)
	})
	return &testEnv{
		store:    store,
		hub:      hub,
		sessions: NewSessionService(store, "test-secret", time.Hour),
		plans:    NewPlanService(store, ctrl, hub, zerolog.Nop()),
	}
}

func (e *testEnv) start(t *testing.T) string {
	t.Helper()
	issued, err := e.sessions.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return issued.Session.ID
}

func TestSessionTokenRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	issued, err := env.sessions.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	claims, err := env.sessions.ValidateToken(issued.Token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.ID != issued.Session.ID || claims.TokenType != TokenTypePlanSession {
		t.Fatalf("claims = %+v", claims)
	}

	other := NewSessionService(env.store, "other-secret", time.Hour)
	if _, err := other.ValidateToken(issued.Token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
	if _, err := env.sessions.ValidateToken("not-a-token"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestSessionTokenExpiry(t *testing.T) {
	env := newTestEnv(t)
	issued, err := env.sessions.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	env.sessions.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := env.sessions.ValidateToken(issued.Token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestPlanServiceFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.start(t)

	res, view, err := env.plans.SavePeriod(ctx, id, &model.SavePeriodRequest{StartDate: "7/15", ExamDate: "7/25"})
	if err != nil {
		t.Fatalf("SavePeriod: %v", err)
	}
	if res.Days != 10 || view.Step != planner.StepSubjects {
		t.Fatalf("res = %+v, view = %+v", res, view)
	}

	sub, _, err := env.plans.SaveSubject(ctx, id, &model.SaveSubjectRequest{Name: "Math", PageRange: "10~35"})
	if err != nil {
		t.Fatalf("SaveSubject: %v", err)
	}
	if sub.Subject.DailyAmount != 3 {
		t.Fatalf("daily amount = %d", sub.Subject.DailyAmount)
	}
	_, _, _ = env.plans.SaveSubject(ctx, id, &model.SaveSubjectRequest{Name: "English", PageRange: "1~5"})

	if _, err := env.plans.EnterEditMode(ctx, id); err != nil {
		t.Fatalf("EnterEditMode: %v", err)
	}
	idx := 1
	edited, _, err := env.plans.SaveSubject(ctx, id, &model.SaveSubjectRequest{Name: "Korean", PageRange: "1~20", EditIndex: &idx})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !edited.Edited || edited.Index != 1 {
		t.Fatalf("edited = %+v", edited)
	}

	view, err = env.plans.RequestResults(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if view.Table == nil || len(view.Table.Rows) != 2 || view.Table.Rows[1].Name != "Korean" {
		t.Fatalf("table = %+v", view.Table)
	}

	view, err = env.plans.ResetPeriod(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if view.Step != planner.StepPeriod || view.SubjectCount != 2 {
		t.Fatalf("view after reset = %+v", view)
	}
}

func TestPlanServiceRejectedActionIsNotSaved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.start(t)

	if _, _, err := env.plans.SavePeriod(ctx, id, &model.SavePeriodRequest{StartDate: "7/20", ExamDate: "7/15"}); !errors.Is(err, planner.ErrOrdering) {
		t.Fatalf("expected ErrOrdering, got %v", err)
	}
	view, err := env.plans.View(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if view.Period != nil || view.Step != planner.StepPeriod {
		t.Fatalf("period stored after failure: %+v", view)
	}
}

func TestPlanServicePreconditionIsSaved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.start(t)

	sess, _ := env.store.Get(ctx, id)
	sess.State.ExamDateSaved = true
	sess.State.ShowSubjectInput = true
	if err := env.store.Save(ctx, sess); err != nil {
		t.Fatal(err)
	}

	_, view, err := env.plans.SaveSubject(ctx, id, &model.SaveSubjectRequest{Name: "Math", PageRange: "10~35"})
	if !errors.Is(err, planner.ErrPrecondition) {
		t.Fatalf("expected ErrPrecondition, got %v", err)
	}
	if view == nil || view.Step != planner.StepPeriod || view.ShowSubjectInput {
		t.Fatalf("view = %+v", view)
	}
	stored, _ := env.store.Get(ctx, id)
	if stored.State.ExamDateSaved || stored.State.ShowSubjectInput {
		t.Fatalf("reroute not persisted: %+v", stored.State)
	}
}

func TestPlanServiceUnknownSession(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.plans.RequestResults(context.Background(), "nope"); !errors.Is(err, repository.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRunGuardedRecoversPanic(t *testing.T) {
	err := runGuarded(func(st *model.PlanState) error {
		var m map[string]int
		m["boom"] = 1
		return nil
	}, model.NewPlanState())
	if !errors.Is(err, planner.ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
}

func TestPlanServicePanicInAnyAction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.start(t)

	view, err := env.plans.apply(ctx, id, "reset_period", func(st *model.PlanState) error {
		st.Message = "half done"
		panic("reset exploded")
	})
	if !errors.Is(err, planner.ErrInternal) || view != nil {
		t.Fatalf("expected ErrInternal and no view, got %v, %+v", err, view)
	}
	if strings.Contains(err.Error(), "subject") {
		t.Fatalf("internal error names the wrong action: %v", err)
	}

	stored, err := env.plans.View(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Message != "" {
		t.Fatalf("state from a panicking action was saved: %+v", stored)
	}
}

func TestPlanServicePublishesViews(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.start(t)

	ch, cancel, err := env.plans.Subscribe(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	defer cancel()

	if _, _, err := env.plans.SavePeriod(ctx, id, &model.SavePeriodRequest{StartDate: "7/15", ExamDate: "7/25"}); err != nil {
		t.Fatal(err)
	}

	select {
	case payload := <-ch:
		var ev ws.ViewEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if ev.Event != ws.EventView || ev.View == nil || ev.View.PeriodDays != 10 {
			t.Fatalf("event = %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no view published")
	}
}

func TestPlanServiceSerialisesSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.start(t)
	if _, _, err := env.plans.SavePeriod(ctx, id, &model.SavePeriodRequest{StartDate: "7/1", ExamDate: "7/11"}); err != nil {
		t.Fatal(err)
	}

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = env.plans.SaveSubject(ctx, id, &model.SaveSubjectRequest{Name: "Math", PageRange: "1~10"})
		}()
	}
	wg.Wait()

	view, err := env.plans.View(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if view.SubjectCount != n {
		t.Fatalf("expected %d subjects, got %d", n, view.SubjectCount)
	}
	if len(env.plans.locks.locks) != 0 {
		t.Fatalf("session locks leaked: %d", len(env.plans.locks.locks))
	}
}
