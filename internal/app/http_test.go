package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"skillforge/api/internal/authpw"
	"skillforge/api/internal/catalog"
	"skillforge/api/internal/config"
	"skillforge/api/internal/export"
	"skillforge/api/internal/progress"
	"skillforge/api/internal/search"
)

type memKV struct {
	data map[string]json.RawMessage
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string]json.RawMessage)}
}

func (m *memKV) Load(_ context.Context, key string) json.RawMessage {
	return m.data[key]
}

func (m *memKV) Save(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *memKV) Ping(context.Context) error { return nil }
func (m *memKV) Close() error               { return nil }

func newTestServer(t *testing.T) *HTTPServer {
	t.Helper()
	kv := newMemKV()
	cat := catalog.New()
	prog := progress.NewService(kv, cat)
	cfg := config.Config{
		JWTSecret:  "test-secret",
		AccessTTL:  time.Hour,
		CORSOrigin: "*",
	}
	searcher := search.NewService(nil, search.NewLedgerScan(prog))
	svc := New(cfg, prog, cat, authpw.NewService(kv), searcher, export.NewService(cat))
	return NewHTTPServer(svc, cfg.CORSOrigin)
}

func doJSON(t *testing.T, server *HTTPServer, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	return rr
}

func parseBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v body=%s", err, rr.Body.String())
	}
	return payload
}

func TestHealthAndReady(t *testing.T) {
	server := newTestServer(t)

	rr := doJSON(t, server, http.MethodGet, "/api/health", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("health status = %d", rr.Code)
	}

	rr = doJSON(t, server, http.MethodGet, "/api/ready", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("ready status = %d body=%s", rr.Code, rr.Body.String())
	}
	payload := parseBody(t, rr)
	if payload["status"] != "ready" {
		t.Fatalf("ready payload = %v", payload)
	}
}

func TestSignUpSignInSessionFlow(t *testing.T) {
	server := newTestServer(t)

	rr := doJSON(t, server, http.MethodPost, "/api/auth/signup",
		`{"email":"asha@example.com","password":"hunter2hunter2","fullName":"Asha Learner"}`, "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("signup status = %d body=%s", rr.Code, rr.Body.String())
	}
	payload := parseBody(t, rr)
	if payload["plan"] != "trial" {
		t.Fatalf("new account plan = %v", payload["plan"])
	}

	rr = doJSON(t, server, http.MethodPost, "/api/auth/signin",
		`{"email":"asha@example.com","password":"hunter2hunter2"}`, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("signin status = %d body=%s", rr.Code, rr.Body.String())
	}
	token, _ := parseBody(t, rr)["token"].(string)
	if token == "" {
		t.Fatalf("signin returned no token")
	}

	rr = doJSON(t, server, http.MethodGet, "/api/session", "", token)
	payload = parseBody(t, rr)
	if payload["authenticated"] != true {
		t.Fatalf("session payload = %v", payload)
	}
	if payload["name"] != "Asha Learner" {
		t.Fatalf("session name = %v", payload["name"])
	}
}

func TestSignUpDuplicateEmailConflicts(t *testing.T) {
	server := newTestServer(t)
	body := `{"email":"asha@example.com","password":"hunter2hunter2","fullName":"Asha Learner"}`

	if rr := doJSON(t, server, http.MethodPost, "/api/auth/signup", body, ""); rr.Code != http.StatusCreated {
		t.Fatalf("first signup status = %d", rr.Code)
	}
	rr := doJSON(t, server, http.MethodPost, "/api/auth/signup", body, "")
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate signup status = %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestSignInWrongPasswordUnauthorized(t *testing.T) {
	server := newTestServer(t)
	doJSON(t, server, http.MethodPost, "/api/auth/signup",
		`{"email":"asha@example.com","password":"hunter2hunter2","fullName":"Asha Learner"}`, "")

	rr := doJSON(t, server, http.MethodPost, "/api/auth/signin",
		`{"email":"asha@example.com","password":"wrong-password"}`, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("signin status = %d", rr.Code)
	}
}

func TestAnonymousCompletionFlow(t *testing.T) {
	server := newTestServer(t)

	rr := doJSON(t, server, http.MethodPost, "/api/progress/completions", `{"courseId":"react-fundamentals"}`, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("mark status = %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodGet, "/api/progress/completions", "", "")
	payload := parseBody(t, rr)
	completions, _ := payload["completions"].([]any)
	if len(completions) != 1 {
		t.Fatalf("completions = %v", payload)
	}

	rr = doJSON(t, server, http.MethodPost, "/api/progress/completions/react-fundamentals/toggle", "", "")
	if completed, _ := parseBody(t, rr)["completed"].(bool); completed {
		t.Fatalf("toggle should have removed the completion")
	}

	rr = doJSON(t, server, http.MethodGet, "/api/progress/summary", "", "")
	payload = parseBody(t, rr)
	if count, _ := payload["completions"].(float64); count != 0 {
		t.Fatalf("summary completions = %v", payload["completions"])
	}
}

func TestCompletionsAreScopedToAccount(t *testing.T) {
	server := newTestServer(t)

	rr := doJSON(t, server, http.MethodPost, "/api/auth/signup",
		`{"email":"asha@example.com","password":"hunter2hunter2","fullName":"Asha Learner"}`, "")
	token, _ := parseBody(t, rr)["token"].(string)

	doJSON(t, server, http.MethodPost, "/api/progress/completions", `{"courseId":"react-fundamentals"}`, token)

	rr = doJSON(t, server, http.MethodGet, "/api/progress/completions", "", "")
	if completions, _ := parseBody(t, rr)["completions"].([]any); len(completions) != 0 {
		t.Fatalf("anonymous account sees authenticated completions: %v", completions)
	}

	rr = doJSON(t, server, http.MethodGet, "/api/progress/completions", "", token)
	if completions, _ := parseBody(t, rr)["completions"].([]any); len(completions) != 1 {
		t.Fatalf("authenticated completions = %v", completions)
	}
}

func TestIssueCertificateAndVerify(t *testing.T) {
	server := newTestServer(t)

	doJSON(t, server, http.MethodPost, "/api/progress/completions", `{"courseId":"react-fundamentals"}`, "")
	rr := doJSON(t, server, http.MethodPost, "/api/progress/certificates",
		`{"scope":"course","courseId":"react-fundamentals"}`, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("issue status = %d body=%s", rr.Code, rr.Body.String())
	}
	payload := parseBody(t, rr)
	cert, _ := payload["certificate"].(map[string]any)
	code, _ := cert["verificationCode"].(string)
	if len(code) != 12 {
		t.Fatalf("verification code = %q", code)
	}

	rr = doJSON(t, server, http.MethodGet, "/api/verify/"+code, "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("verify status = %d body=%s", rr.Code, rr.Body.String())
	}
	if parseBody(t, rr)["valid"] != true {
		t.Fatalf("verify payload = %s", rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodGet, "/api/verify/NOPE00000000", "", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown code status = %d", rr.Code)
	}
}

func TestIssueCertificateUnknownCourse(t *testing.T) {
	server := newTestServer(t)
	rr := doJSON(t, server, http.MethodPost, "/api/progress/certificates",
		`{"scope":"course","courseId":"not-a-course"}`, "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestVerifySearchScansLedger(t *testing.T) {
	server := newTestServer(t)

	doJSON(t, server, http.MethodPost, "/api/progress/certificates",
		`{"scope":"course","courseId":"react-fundamentals"}`, "")

	rr := doJSON(t, server, http.MethodGet, "/api/verify/search?q=react", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("search status = %d body=%s", rr.Code, rr.Body.String())
	}
	payload := parseBody(t, rr)
	results, _ := payload["results"].([]any)
	if len(results) != 1 {
		t.Fatalf("search results = %v", payload)
	}

	rr = doJSON(t, server, http.MethodGet, "/api/verify/search?q=react&limit=abc", "", "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad limit status = %d", rr.Code)
	}

	rr = doJSON(t, server, http.MethodGet, "/api/verify/search?q=react&limit=-1&offset=-1", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("negative paging status = %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestExportCertificateHTML(t *testing.T) {
	server := newTestServer(t)

	rr := doJSON(t, server, http.MethodPost, "/api/progress/certificates",
		`{"scope":"course","courseId":"react-fundamentals"}`, "")
	cert, _ := parseBody(t, rr)["certificate"].(map[string]any)
	id, _ := cert["id"].(string)

	rr = doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/certificates/%s/export?format=html", id), "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("export status = %d body=%s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Fatalf("content type = %q", ct)
	}

	rr = doJSON(t, server, http.MethodGet, "/api/certificates/crt_missing/export?format=html", "", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing certificate status = %d", rr.Code)
	}

	rr = doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/certificates/%s/export?format=docx", id), "", "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad format status = %d", rr.Code)
	}
}

func TestMentorSessionRoutes(t *testing.T) {
	server := newTestServer(t)

	rr := doJSON(t, server, http.MethodPost, "/api/progress/mentor-sessions",
		`{"mentorId":"mentor-noor","topic":"scaling interviews"}`, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("start status = %d body=%s", rr.Code, rr.Body.String())
	}
	session, _ := parseBody(t, rr)["session"].(map[string]any)
	id, _ := session["id"].(string)
	if id == "" {
		t.Fatalf("session id missing: %v", session)
	}

	rr = doJSON(t, server, http.MethodPost, "/api/progress/mentor-sessions/"+id+"/messages",
		`{"role":"user","content":"How do I prepare?"}`, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("message status = %d body=%s", rr.Code, rr.Body.String())
	}
	session, _ = parseBody(t, rr)["session"].(map[string]any)
	messages, _ := session["messages"].([]any)
	if len(messages) != 1 {
		t.Fatalf("messages = %v", messages)
	}

	rr = doJSON(t, server, http.MethodPost, "/api/progress/mentor-sessions", `{"topic":"no mentor"}`, "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("missing mentorId status = %d", rr.Code)
	}
}

func TestStudioSessionRoutes(t *testing.T) {
	server := newTestServer(t)

	rr := doJSON(t, server, http.MethodPost, "/api/progress/studio-sessions",
		`{"sceneId":"scene-incident-review","pathId":"backend-engineer","courseId":"react-fundamentals"}`, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("start status = %d body=%s", rr.Code, rr.Body.String())
	}
	session, _ := parseBody(t, rr)["session"].(map[string]any)
	id, _ := session["id"].(string)
	if courseID, _ := session["courseId"].(string); courseID != "react-fundamentals" {
		t.Fatalf("courseId = %q, want react-fundamentals", courseID)
	}
	timeline, _ := session["timeline"].([]any)
	if len(timeline) == 0 {
		t.Fatalf("timeline not seeded from scene: %v", session)
	}
	first, _ := timeline[0].(map[string]any)
	timelineID, _ := first["id"].(string)

	rr = doJSON(t, server, http.MethodPost, "/api/progress/studio-sessions/"+id+"/timeline/"+timelineID,
		`{"status":"in_progress"}`, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("timeline status = %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, "/api/progress/studio-sessions/"+id+"/artifacts",
		`{"type":"brief","title":"Postmortem draft","summary":"Draft of the incident writeup"}`, "")
	session, _ = parseBody(t, rr)["session"].(map[string]any)
	artifacts, _ := session["artifacts"].([]any)
	if len(artifacts) != 1 {
		t.Fatalf("artifacts = %v", artifacts)
	}

	rr = doJSON(t, server, http.MethodPost, "/api/progress/studio-sessions", `{"sceneId":"scene-unknown"}`, "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown scene status = %d", rr.Code)
	}
}

func TestArtifactUploadRequiresObjectStorage(t *testing.T) {
	server := newTestServer(t)

	rr := doJSON(t, server, http.MethodPost, "/api/progress/studio-sessions",
		`{"sceneId":"scene-incident-review"}`, "")
	session, _ := parseBody(t, rr)["session"].(map[string]any)
	id, _ := session["id"].(string)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "whiteboard.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write([]byte("not really a png"))
	form.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/progress/studio-sessions/"+id+"/artifacts/upload", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("upload without object storage status = %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestAnalyticsRoutes(t *testing.T) {
	server := newTestServer(t)

	doJSON(t, server, http.MethodPost, "/api/progress/completions", `{"courseId":"react-fundamentals"}`, "")

	rr := doJSON(t, server, http.MethodGet, "/api/progress/achievements", "", "")
	payload := parseBody(t, rr)
	achievements, _ := payload["achievements"].([]any)
	if len(achievements) == 0 {
		t.Fatalf("achievements empty")
	}

	rr = doJSON(t, server, http.MethodGet, "/api/progress/paths", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("paths status = %d", rr.Code)
	}

	rr = doJSON(t, server, http.MethodGet, "/api/progress/quests", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("quests status = %d", rr.Code)
	}
}

func TestCatalogRoutes(t *testing.T) {
	server := newTestServer(t)

	for _, path := range []string{
		"/api/catalog/courses",
		"/api/catalog/paths",
		"/api/catalog/mentors",
		"/api/catalog/scenes",
	} {
		rr := doJSON(t, server, http.MethodGet, path, "", "")
		if rr.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rr.Code)
		}
	}
}

func TestAuditDisabledReturnsNotFound(t *testing.T) {
	server := newTestServer(t)
	rr := doJSON(t, server, http.MethodGet, "/api/ledger/audit", "", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("audit status = %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestUnknownRouteNotFound(t *testing.T) {
	server := newTestServer(t)
	rr := doJSON(t, server, http.MethodGet, "/api/nope", "", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
}
