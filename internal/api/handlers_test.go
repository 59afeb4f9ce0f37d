package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"goalmentor/internal/auth"
	"goalmentor/internal/config"
	"goalmentor/internal/mentor"

	"github.com/gin-gonic/gin"
)

func testDeps(oracle mentor.Oracle) *Deps {
	cfg := &config.Config{}
	cfg.Server.JWTSecret = "test-secret"
	cfg.Server.Subpath = "/mentor"
	return &Deps{
		Cfg:      cfg,
		Users:    auth.NewUserStore(),
		Sessions: auth.NewSessionStore(),
		Registry: mentor.NewRegistry(false),
		Oracle:   oracle,
	}
}

func testRouter(t *testing.T, oracle mentor.Oracle) (*gin.Engine, *Deps) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	d := testDeps(oracle)
	return SetupRouter(d), d
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// loginFlow runs setup and login and returns a valid token.
func loginFlow(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := doJSON(t, r, "POST", "/mentor/setup", "", gin.H{"username": "alex", "password": "hunter2"})
	if w.Code != http.StatusOK {
		t.Fatalf("setup: %d %s", w.Code, w.Body.String())
	}
	w = doJSON(t, r, "POST", "/mentor/auth/login", "", gin.H{"username": "alex", "password": "hunter2"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
	var resp LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Fatalf("login response: %v %s", err, w.Body.String())
	}
	return resp.Token
}

func TestHealthHandler_ReturnsOk(t *testing.T) {
	r, _ := testRouter(t, nil)
	w := doJSON(t, r, "GET", "/mentor/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("expected response to contain 'ok', got: %s", w.Body.String())
	}
}

func TestSetupAndLoginFlow(t *testing.T) {
	r, _ := testRouter(t, nil)

	// Login before setup signals need_setup.
	w := doJSON(t, r, "POST", "/mentor/auth/login", "", gin.H{"username": "x", "password": "y"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("pre-setup login: %d", w.Code)
	}

	token := loginFlow(t, r)

	// Second setup is refused.
	w = doJSON(t, r, "POST", "/mentor/setup", "", gin.H{"username": "eve", "password": "pw"})
	if w.Code != http.StatusForbidden {
		t.Errorf("second setup: %d", w.Code)
	}

	w = doJSON(t, r, "GET", "/mentor/auth/me", token, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "alex") {
		t.Errorf("me: %d %s", w.Code, w.Body.String())
	}

	// Logout invalidates the session.
	w = doJSON(t, r, "POST", "/mentor/auth/logout", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: %d", w.Code)
	}
	w = doJSON(t, r, "GET", "/mentor/auth/me", token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("me after logout: %d", w.Code)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	r, _ := testRouter(t, nil)
	for _, route := range []struct{ method, path string }{
		{"POST", "/mentor/categorize"},
		{"GET", "/mentor/tasks"},
		{"GET", "/mentor/progress"},
		{"PUT", "/mentor/autonomy"},
	} {
		w := doJSON(t, r, route.method, route.path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token: %d", route.method, route.path, w.Code)
		}
	}
}

func TestCategorizeReviewCommitFlow(t *testing.T) {
	oracle := mentor.OracleFunc(func(ctx context.Context, prompt string, target interface{}) error {
		return json.Unmarshal([]byte(`{
			"Academics": ["Finish Physics Lab"],
			"Personal": ["Call The Dentist"],
			"Hobbies": [],
			"Future/Long-term Goals": [],
			"confidence": 8,
			"rationale": "clear"
		}`), target)
	})
	r, _ := testRouter(t, oracle)
	token := loginFlow(t, r)

	w := doJSON(t, r, "POST", "/mentor/categorize", token, gin.H{"thoughts": "physics lab, dentist"})
	if w.Code != http.StatusOK {
		t.Fatalf("categorize: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, "GET", "/mentor/review", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get review: %d", w.Code)
	}
	var pr mentor.PendingReview
	if err := json.Unmarshal(w.Body.Bytes(), &pr); err != nil {
		t.Fatalf("decode review: %v", err)
	}
	if len(pr.Items) != 2 {
		t.Fatalf("review items = %d", len(pr.Items))
	}

	exclude := false
	w = doJSON(t, r, "POST", "/mentor/review/commit", token, gin.H{
		"decisions": []mentor.Decision{{ItemID: pr.Items[1].Candidate.ID, Include: &exclude}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("commit: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, "GET", "/mentor/tasks", token, nil)
	body := w.Body.String()
	if !strings.Contains(body, "Finish Physics Lab") {
		t.Errorf("accepted task missing from dashboard: %s", body)
	}
	if strings.Contains(body, "Call The Dentist") {
		t.Errorf("excluded task reached the dashboard: %s", body)
	}

	// Review slot is now empty.
	w = doJSON(t, r, "GET", "/mentor/review", token, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("review after commit: %d", w.Code)
	}
}

func TestCategorize_OracleDownIs503(t *testing.T) {
	oracle := mentor.OracleFunc(func(ctx context.Context, prompt string, target interface{}) error {
		return mentor.ErrOracleUnavailable
	})
	r, _ := testRouter(t, oracle)
	token := loginFlow(t, r)

	w := doJSON(t, r, "POST", "/mentor/categorize", token, gin.H{"thoughts": "call mom"})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("oracle down: %d, want 503", w.Code)
	}
}

func TestDecomposeAcceptFlow(t *testing.T) {
	oracle := mentor.OracleFunc(func(ctx context.Context, prompt string, target interface{}) error {
		switch {
		case strings.Contains(prompt, "Parse this goal"):
			return json.Unmarshal([]byte(`{"title": "Learn Spanish", "description": "d", "confidence": 8, "rationale": "r"}`), target)
		case strings.Contains(prompt, "3-5 major subgoals"):
			return json.Unmarshal([]byte(`{"subgoals": [{"title": "Vocabulary"}, {"title": "Speaking"}, {"title": "Grammar"}], "confidence": 8, "rationale": "r"}`), target)
		default:
			return json.Unmarshal([]byte(`{"tasks": [{"task": "Learn 10 words", "estimated_minutes": 10}], "confidence": 7, "rationale": "r"}`), target)
		}
	})
	r, _ := testRouter(t, oracle)
	token := loginFlow(t, r)

	w := doJSON(t, r, "POST", "/mentor/decompose", token, gin.H{"goal": "learn spanish", "category": "Personal"})
	if w.Code != http.StatusOK {
		t.Fatalf("decompose: %d %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Learn Spanish") {
		t.Fatalf("candidate missing: %s", w.Body.String())
	}

	// Nothing persisted before acceptance.
	w = doJSON(t, r, "GET", "/mentor/goals", token, nil)
	if strings.Contains(w.Body.String(), "Learn Spanish") {
		t.Fatal("goal persisted before acceptance")
	}

	w = doJSON(t, r, "POST", "/mentor/goals/accept", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("accept: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, "GET", "/mentor/goals", token, nil)
	if !strings.Contains(w.Body.String(), "Learn Spanish") {
		t.Errorf("accepted goal missing: %s", w.Body.String())
	}

	// Second accept without a fresh candidate is refused.
	w = doJSON(t, r, "POST", "/mentor/goals/accept", token, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("re-accept: %d", w.Code)
	}
}

func TestTaskLifecycleAndProgress(t *testing.T) {
	r, _ := testRouter(t, nil)
	token := loginFlow(t, r)

	w := doJSON(t, r, "POST", "/mentor/tasks", token, gin.H{"category": "Personal", "text": "Water the plants"})
	if w.Code != http.StatusOK {
		t.Fatalf("add task: %d %s", w.Code, w.Body.String())
	}
	var task mentor.Task
	if err := json.Unmarshal(w.Body.Bytes(), &task); err != nil {
		t.Fatalf("decode task: %v", err)
	}

	w = doJSON(t, r, "PUT", "/mentor/tasks/"+task.ID+"/done", token, gin.H{"value": true})
	if w.Code != http.StatusOK {
		t.Fatalf("done: %d %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "badge") {
		t.Errorf("first completion should celebrate a badge: %s", w.Body.String())
	}

	w = doJSON(t, r, "GET", "/mentor/progress", token, nil)
	var prog mentor.Progress
	if err := json.Unmarshal(w.Body.Bytes(), &prog); err != nil {
		t.Fatalf("decode progress: %v", err)
	}
	if prog.Lifetime != 1 || prog.DoneTasks != 1 {
		t.Errorf("progress = %+v", prog)
	}

	w = doJSON(t, r, "POST", "/mentor/tasks/clean", token, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"removed":1`) {
		t.Errorf("clean: %d %s", w.Code, w.Body.String())
	}
}

func TestAutonomyToggleEndpoint(t *testing.T) {
	r, d := testRouter(t, nil)
	token := loginFlow(t, r)

	w := doJSON(t, r, "PUT", "/mentor/autonomy", token, gin.H{"enabled": true})
	if w.Code != http.StatusOK {
		t.Fatalf("enable: %d", w.Code)
	}
	if !d.Registry.Get(token).Autonomy() {
		t.Error("flag not set on session store")
	}

	// Plant an auto subtask, then disable and check the purge count.
	store := d.Registry.Get(token)
	task, _ := store.AddTask(mentor.CategoryPersonal, "Write essay", mentor.ProvenanceManual)
	task.Subtasks = append(task.Subtasks, &mentor.Subtask{ID: "a1", Origin: mentor.OriginAutoGenerated})

	w = doJSON(t, r, "PUT", "/mentor/autonomy", token, gin.H{"enabled": false})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"purged_subtasks":1`) {
		t.Errorf("disable: %d %s", w.Code, w.Body.String())
	}
}

func TestFeedbackEndpoints(t *testing.T) {
	r, _ := testRouter(t, nil)
	token := loginFlow(t, r)

	w := doJSON(t, r, "POST", "/mentor/feedback", token, gin.H{"kind": "categorization", "text": "family calls are Personal"})
	if w.Code != http.StatusOK {
		t.Fatalf("add feedback: %d %s", w.Code, w.Body.String())
	}
	w = doJSON(t, r, "POST", "/mentor/feedback", token, gin.H{"kind": "bogus", "text": "x"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bogus kind: %d", w.Code)
	}

	w = doJSON(t, r, "GET", "/mentor/feedback?kind=categorization", token, nil)
	if !strings.Contains(w.Body.String(), "family calls are Personal") {
		t.Errorf("list feedback: %s", w.Body.String())
	}

	w = doJSON(t, r, "DELETE", "/mentor/feedback?kind=categorization", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("clear: %d", w.Code)
	}
	w = doJSON(t, r, "GET", "/mentor/feedback?kind=categorization", token, nil)
	if strings.Contains(w.Body.String(), "family calls") {
		t.Errorf("feedback survived clear: %s", w.Body.String())
	}
}

func TestReflectionEndpoints(t *testing.T) {
	r, _ := testRouter(t, nil)
	token := loginFlow(t, r)

	w := doJSON(t, r, "POST", "/mentor/reflections", token, gin.H{"task": "Water the plants", "text": "Went fine, 5 minutes"})
	if w.Code != http.StatusOK {
		t.Fatalf("add reflection: %d %s", w.Code, w.Body.String())
	}
	w = doJSON(t, r, "GET", "/mentor/reflections", token, nil)
	if !strings.Contains(w.Body.String(), "Went fine") {
		t.Errorf("list reflections: %s", w.Body.String())
	}
}
