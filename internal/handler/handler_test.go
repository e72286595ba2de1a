package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/studyplan-backend/internal/config"
	"github.com/stemsi/studyplan-backend/internal/handler"
	"github.com/stemsi/studyplan-backend/internal/middleware"
	"github.com/stemsi/studyplan-backend/internal/planner"
	"github.com/stemsi/studyplan-backend/internal/repository"
	"github.com/stemsi/studyplan-backend/internal/router"
	"github.com/stemsi/studyplan-backend/internal/service"
	"github.com/stemsi/studyplan-backend/internal/validator"
	ws "github.com/stemsi/studyplan-backend/internal/websocket"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type viewData struct {
	View   planner.View    `json:"view"`
	Result json.RawMessage `json:"result"`
}

func newServer(t *testing.T) http.Handler {
	t.Helper()
	validator.Setup()

	cfg := &config.Config{GinMode: "test", SessionStore: config.StoreMemory}
	store := repository.NewMemorySessionStore()
	ctrl := planner.NewControllerWithClock(func() time.Time {
		return time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	})
	sessions := service.NewSessionService(store, "test-secret", time.Hour)
	plans := service.NewPlanService(store, ctrl, service.NewMemoryBroadcaster(), zerolog.Nop())

	return router.SetupRouter(sessions, &router.Handlers{
		Session: handler.NewSessionHandler(sessions),
		Plan:    handler.NewPlanHandler(plans),
		WS:      handler.NewWSHandler(plans, zerolog.Nop(), nil),
	}, middleware.NewRateLimiter(100, time.Minute), cfg)
}

func do(t *testing.T, srv http.Handler, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
	}
	return w.Code, env
}

func startSession(t *testing.T, srv http.Handler) string {
	t.Helper()
	status, env := do(t, srv, http.MethodPost, "/api/v1/sessions", "", nil)
	if status != http.StatusCreated {
		t.Fatalf("create session: status %d", status)
	}
	var data struct {
		Token string       `json:"token"`
		View  planner.View `json:"view"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Token == "" || data.View.Step != planner.StepPeriod {
		t.Fatalf("session data = %+v", data)
	}
	return data.Token
}

func decodeView(t *testing.T, env envelope) viewData {
	t.Helper()
	var d viewData
	if err := json.Unmarshal(env.Data, &d); err != nil {
		t.Fatal(err)
	}
	return d
}

func TestScenarioA(t *testing.T) {
	srv := newServer(t)
	token := startSession(t, srv)

	status, env := do(t, srv, http.MethodPost, "/api/v1/plan/period", token, map[string]string{"start_date": "7/15", "exam_date": "7/25"})
	if status != http.StatusOK {
		t.Fatalf("save period: status %d, error %+v", status, env.Error)
	}
	if v := decodeView(t, env).View; v.PeriodDays != 10 || v.Step != planner.StepSubjects {
		t.Fatalf("view = %+v", v)
	}

	status, env = do(t, srv, http.MethodPost, "/api/v1/plan/subjects", token, map[string]string{"name": "Math", "page_range": "10~35"})
	if status != http.StatusCreated {
		t.Fatalf("save subject: status %d, error %+v", status, env.Error)
	}
	var res struct {
		Subject struct {
			TotalPages  int `json:"total_pages"`
			StudyDays   int `json:"study_days"`
			DailyAmount int `json:"daily_amount"`
		} `json:"subject"`
	}
	if err := json.Unmarshal(decodeView(t, env).Result, &res); err != nil {
		t.Fatal(err)
	}
	if res.Subject.TotalPages != 26 || res.Subject.StudyDays != 10 || res.Subject.DailyAmount != 3 {
		t.Fatalf("subject = %+v", res.Subject)
	}

	status, env = do(t, srv, http.MethodPost, "/api/v1/plan/results", token, nil)
	if status != http.StatusOK {
		t.Fatalf("results: status %d", status)
	}
	table := decodeView(t, env).View.Table
	if table == nil || len(table.Rows) != 1 || table.Rows[0].DailyAmount != 3 {
		t.Fatalf("table = %+v", table)
	}
}

func TestScenarioBOrdering(t *testing.T) {
	srv := newServer(t)
	token := startSession(t, srv)

	status, env := do(t, srv, http.MethodPost, "/api/v1/plan/period", token, map[string]string{"start_date": "7/20", "exam_date": "7/15"})
	if status != http.StatusUnprocessableEntity || env.Error == nil || env.Error.Code != "ORDERING_ERROR" {
		t.Fatalf("status %d, error %+v", status, env.Error)
	}

	_, env = do(t, srv, http.MethodGet, "/api/v1/plan", token, nil)
	if v := decodeView(t, env).View; v.Period != nil {
		t.Fatalf("period stored after ordering error: %+v", v.Period)
	}
}

func TestScenarioCRange(t *testing.T) {
	srv := newServer(t)
	token := startSession(t, srv)
	do(t, srv, http.MethodPost, "/api/v1/plan/period", token, map[string]string{"start_date": "7/15", "exam_date": "7/25"})

	status, env := do(t, srv, http.MethodPost, "/api/v1/plan/subjects", token, map[string]string{"name": "Math", "page_range": "35~10"})
	if status != http.StatusUnprocessableEntity || env.Error == nil || env.Error.Code != "RANGE_ERROR" {
		t.Fatalf("status %d, error %+v", status, env.Error)
	}

	_, env = do(t, srv, http.MethodGet, "/api/v1/plan/table", token, nil)
	var data struct {
		Table planner.Table `json:"table"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if len(data.Table.Rows) != 0 || len(data.Table.Columns) != 6 {
		t.Fatalf("table = %+v", data.Table)
	}
}

func TestScenarioDPrecondition(t *testing.T) {
	srv := newServer(t)
	token := startSession(t, srv)

	status, env := do(t, srv, http.MethodPost, "/api/v1/plan/subjects", token, map[string]string{"name": "Math", "page_range": "10~35"})
	if status != http.StatusConflict || env.Error == nil || env.Error.Code != "PRECONDITION_ERROR" {
		t.Fatalf("status %d, error %+v", status, env.Error)
	}
	if v := decodeView(t, env).View; v.Step != planner.StepPeriod || v.SubjectCount != 0 {
		t.Fatalf("view = %+v", v)
	}
}

func TestSubjectInputErrors(t *testing.T) {
	srv := newServer(t)
	token := startSession(t, srv)
	do(t, srv, http.MethodPost, "/api/v1/plan/period", token, map[string]string{"start_date": "7/15", "exam_date": "7/25"})

	tests := []struct {
		name, pageRange, code string
	}{
		{"Math", "10-35", "FORMAT_ERROR"},
		{"Math", "a~b", "PAGE_PARSE_ERROR"},
		{"", "1~2", "REQUIRED_FIELDS"},
	}
	for _, tt := range tests {
		status, env := do(t, srv, http.MethodPost, "/api/v1/plan/subjects", token, map[string]string{"name": tt.name, "page_range": tt.pageRange})
		if status != http.StatusUnprocessableEntity || env.Error == nil || env.Error.Code != tt.code {
			t.Fatalf("%q: status %d, error %+v", tt.pageRange, status, env.Error)
		}
	}

	status, env := do(t, srv, http.MethodPost, "/api/v1/plan/period", token, map[string]string{"start_date": "7/15", "exam_date": "13/40"})
	if status != http.StatusUnprocessableEntity || env.Error.Code != "PARSE_ERROR" {
		t.Fatalf("date parse: status %d, error %+v", status, env.Error)
	}

	status, env = do(t, srv, http.MethodPost, "/api/v1/plan/period", token, map[string]string{"start_date": strings.Repeat("7", 51), "exam_date": "7/25"})
	if status != http.StatusBadRequest || env.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("oversized field: status %d, error %+v", status, env.Error)
	}
}

func TestPeriodDateText(t *testing.T) {
	srv := newServer(t)
	token := startSession(t, srv)

	tests := []struct {
		name   string
		body   map[string]string
		status int
		code   string
	}{
		{"empty start", map[string]string{"start_date": "", "exam_date": "7/25"}, http.StatusUnprocessableEntity, "PARSE_ERROR"},
		{"missing exam", map[string]string{"start_date": "7/15"}, http.StatusUnprocessableEntity, "PARSE_ERROR"},
		{"blank start", map[string]string{"start_date": "   ", "exam_date": "7/25"}, http.StatusUnprocessableEntity, "PARSE_ERROR"},
		{"padded dates", map[string]string{"start_date": "07/15      ", "exam_date": " 7/25 "}, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := do(t, srv, http.MethodPost, "/api/v1/plan/period", token, tt.body)
			if status != tt.status {
				t.Fatalf("status %d, want %d, error %+v", status, tt.status, env.Error)
			}
			if tt.code == "" {
				if v := decodeView(t, env).View; v.PeriodDays != 10 {
					t.Fatalf("view = %+v", v)
				}
				return
			}
			if env.Error == nil || env.Error.Code != tt.code {
				t.Fatalf("error %+v, want %s", env.Error, tt.code)
			}
		})
	}
}

func TestEditFlow(t *testing.T) {
	srv := newServer(t)
	token := startSession(t, srv)
	do(t, srv, http.MethodPost, "/api/v1/plan/period", token, map[string]string{"start_date": "7/15", "exam_date": "7/25"})

	status, env := do(t, srv, http.MethodPost, "/api/v1/plan/edit", token, nil)
	if status != http.StatusConflict || env.Error.Code != "NO_SUBJECTS" {
		t.Fatalf("edit without subjects: status %d, error %+v", status, env.Error)
	}

	do(t, srv, http.MethodPost, "/api/v1/plan/subjects", token, map[string]string{"name": "Math", "page_range": "10~35"})
	do(t, srv, http.MethodPost, "/api/v1/plan/subjects", token, map[string]string{"name": "English", "page_range": "1~10"})

	if status, _ := do(t, srv, http.MethodPost, "/api/v1/plan/edit", token, nil); status != http.StatusOK {
		t.Fatalf("enter edit: status %d", status)
	}

	status, env = do(t, srv, http.MethodPut, "/api/v1/plan/edit/1", token, nil)
	if status != http.StatusOK {
		t.Fatalf("select: status %d", status)
	}
	var sel struct {
		Form planner.FormDefaults `json:"form"`
	}
	if err := json.Unmarshal(env.Data, &sel); err != nil {
		t.Fatal(err)
	}
	if sel.Form.Name != "English" || sel.Form.PageRange != "1~10" {
		t.Fatalf("form = %+v", sel.Form)
	}

	if status, env := do(t, srv, http.MethodPut, "/api/v1/plan/edit/7", token, nil); status != http.StatusNotFound || env.Error.Code != "INDEX_OUT_OF_RANGE" {
		t.Fatalf("out of range: status %d", status)
	}
	if status, _ := do(t, srv, http.MethodPut, "/api/v1/plan/edit/x", token, nil); status != http.StatusBadRequest {
		t.Fatalf("bad index: status %d", status)
	}

	status, env = do(t, srv, http.MethodPost, "/api/v1/plan/subjects", token, map[string]string{"name": "Korean", "page_range": "1~30"})
	if status != http.StatusOK {
		t.Fatalf("edit save: status %d, error %+v", status, env.Error)
	}
	v := decodeView(t, env).View
	if v.EditMode || v.SubjectCount != 2 {
		t.Fatalf("view = %+v", v)
	}

	_, env = do(t, srv, http.MethodDelete, "/api/v1/plan/period", token, nil)
	if v := decodeView(t, env).View; v.Step != planner.StepPeriod || v.SubjectCount != 2 {
		t.Fatalf("after reset = %+v", v)
	}
}

func TestPlanRequiresToken(t *testing.T) {
	srv := newServer(t)
	status, env := do(t, srv, http.MethodGet, "/api/v1/plan", "", nil)
	if status != http.StatusUnauthorized || env.Error.Code != "TOKEN_REQUIRED" {
		t.Fatalf("status %d, error %+v", status, env.Error)
	}
}

func TestPlanStream(t *testing.T) {
	h := newServer(t)
	token := startSession(t, h)
	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/v1/plan/stream?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first ws.ViewEvent
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read initial view: %v", err)
	}
	if first.Event != ws.EventView || first.View.Step != planner.StepPeriod {
		t.Fatalf("initial event = %+v", first)
	}

	if err := conn.WriteJSON(ws.RequestPayload{Action: ws.ActionPing}); err != nil {
		t.Fatal(err)
	}
	var pong ws.PongResponse
	if err := conn.ReadJSON(&pong); err != nil || pong.Event != ws.EventPong {
		t.Fatalf("pong = %+v, err %v", pong, err)
	}

	do(t, h, http.MethodPost, "/api/v1/plan/period", token, map[string]string{"start_date": "7/15", "exam_date": "7/25"})

	var pushed ws.ViewEvent
	if err := conn.ReadJSON(&pushed); err != nil {
		t.Fatalf("read pushed view: %v", err)
	}
	if pushed.View == nil || pushed.View.PeriodDays != 10 {
		t.Fatalf("pushed = %+v", pushed)
	}
}
