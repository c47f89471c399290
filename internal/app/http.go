package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"skillforge/api/internal/export"
	"skillforge/api/internal/progress"
	"skillforge/api/internal/search"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"store": map[string]any{"status": "ok"},
		}

		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["store"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}

		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	// Auth routes (no session required)
	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/signup" {
		s.handleAuthSignUp(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/signin" {
		s.handleAuthSignIn(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/session" {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "name": nil})
			return
		}
		session, err := s.service.SessionFromToken(r.Context(), token)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "name": nil})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated": true,
			"email":         session.Email,
			"name":          session.Name,
			"plan":          session.Plan,
		})
		return
	}

	// Catalog routes (public, read-only)
	if r.Method == http.MethodGet && r.URL.Path == "/api/catalog/courses" {
		writeJSON(w, http.StatusOK, map[string]any{"courses": s.service.Catalog().Courses()})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/catalog/paths" {
		writeJSON(w, http.StatusOK, map[string]any{"paths": s.service.Catalog().Paths()})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/catalog/mentors" {
		writeJSON(w, http.StatusOK, map[string]any{"mentors": s.service.Catalog().Mentors()})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/catalog/scenes" {
		writeJSON(w, http.StatusOK, map[string]any{"scenes": s.service.Catalog().Scenes()})
		return
	}

	// Public certificate verification against the cross-account ledger
	if r.Method == http.MethodGet && r.URL.Path == "/api/verify/search" {
		s.handleVerifySearch(w, r)
		return
	}

	parts := splitPath(r.URL.Path)

	if len(parts) == 3 && parts[0] == "api" && parts[1] == "verify" && r.Method == http.MethodGet {
		entry, err := s.service.VerifyCode(r.Context(), parts[2])
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"valid": true, "certificate": entry})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/ledger/audit" {
		limit := 50
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
				limit = parsed
			}
		}
		commits, err := s.service.AuditHistory(limit)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"commits": commits})
		return
	}

	// Everything below operates on an account. A missing or invalid bearer
	// token falls back to the anonymous account rather than failing.
	session := s.optionalSession(r)
	actor := s.service.Actor(session)

	if len(parts) == 4 && parts[0] == "api" && parts[1] == "certificates" && parts[3] == "export" && r.Method == http.MethodGet {
		s.handleCertificateExport(w, r, actor, parts[2])
		return
	}

	if len(parts) >= 2 && parts[0] == "api" && parts[1] == "progress" {
		s.handleProgress(w, r, actor, parts[2:])
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleProgress(w http.ResponseWriter, r *http.Request, actor progress.Actor, parts []string) {
	prog := s.service.Progress()

	if len(parts) == 1 && parts[0] == "completions" {
		if r.Method == http.MethodGet {
			writeJSON(w, http.StatusOK, map[string]any{"completions": prog.Completions(r.Context(), actor.Key)})
			return
		}
		if r.Method == http.MethodPost {
			var body struct {
				CourseID string `json:"courseId"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			if strings.TrimSpace(body.CourseID) == "" {
				writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "courseId is required", nil)
				return
			}
			record := prog.MarkCompleted(r.Context(), actor, body.CourseID)
			writeJSON(w, http.StatusOK, map[string]any{"completion": record})
			return
		}
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	if len(parts) == 2 && parts[0] == "completions" && r.Method == http.MethodDelete {
		removed := prog.UnmarkCompleted(r.Context(), actor, parts[1])
		writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
		return
	}

	if len(parts) == 3 && parts[0] == "completions" && parts[2] == "toggle" && r.Method == http.MethodPost {
		completed := prog.ToggleCompleted(r.Context(), actor, parts[1])
		writeJSON(w, http.StatusOK, map[string]any{"completed": completed})
		return
	}

	if len(parts) == 1 && parts[0] == "summary" && r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, map[string]any{
			"streaks":     prog.Streaks(r.Context(), actor.Key),
			"completions": len(prog.Completions(r.Context(), actor.Key)),
		})
		return
	}

	if len(parts) == 1 && parts[0] == "certificates" {
		if r.Method == http.MethodGet {
			writeJSON(w, http.StatusOK, map[string]any{"certificates": prog.Certificates(r.Context(), actor.Key)})
			return
		}
		if r.Method == http.MethodPost {
			var body struct {
				Scope    string `json:"scope"`
				CourseID string `json:"courseId"`
				ModuleID string `json:"moduleId"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			record := prog.IssueCertificate(r.Context(), actor, progress.IssueCertificateInput{
				Scope:    body.Scope,
				CourseID: body.CourseID,
				ModuleID: body.ModuleID,
			})
			if record == nil {
				writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "courseId must reference a known course", nil)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"certificate": record})
			return
		}
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	if len(parts) >= 1 && parts[0] == "mentor-sessions" {
		s.handleMentorSessions(w, r, actor, parts[1:])
		return
	}

	if len(parts) >= 1 && parts[0] == "studio-sessions" {
		s.handleStudioSessions(w, r, actor, parts[1:])
		return
	}

	if len(parts) == 1 && parts[0] == "achievements" && r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, map[string]any{"achievements": prog.Achievements(r.Context(), actor.Key)})
		return
	}

	if len(parts) == 1 && parts[0] == "paths" && r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, map[string]any{"paths": prog.PathsProgress(r.Context(), actor.Key)})
		return
	}

	if len(parts) == 1 && parts[0] == "quests" && r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, map[string]any{"quests": prog.Quests(r.Context(), actor.Key)})
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleMentorSessions(w http.ResponseWriter, r *http.Request, actor progress.Actor, parts []string) {
	prog := s.service.Progress()

	if len(parts) == 0 {
		if r.Method == http.MethodGet {
			writeJSON(w, http.StatusOK, map[string]any{"sessions": prog.MentorSessions(r.Context(), actor.Key)})
			return
		}
		if r.Method == http.MethodPost {
			var body struct {
				MentorID   string `json:"mentorId"`
				Topic      string `json:"topic"`
				ScenarioID string `json:"scenarioId"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			record := prog.StartMentorSession(r.Context(), actor.Key, progress.StartMentorSessionInput{
				MentorID:   body.MentorID,
				Topic:      body.Topic,
				ScenarioID: body.ScenarioID,
			})
			if record == nil {
				writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "mentorId is required", nil)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"session": record})
			return
		}
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	sessionID := parts[0]

	if len(parts) == 1 && r.Method == http.MethodGet {
		record := prog.MentorSessionByID(r.Context(), actor.Key, sessionID)
		if record == nil {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Session not found", nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"session": record})
		return
	}

	if len(parts) == 2 && parts[1] == "messages" && r.Method == http.MethodPost {
		var entry map[string]any
		if err := decodeBody(r, &entry); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		record := prog.RecordMentorMessage(r.Context(), actor.Key, sessionID, entry)
		if record == nil {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Session not found or message empty", nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"session": record})
		return
	}

	if len(parts) == 2 && parts[1] == "action-items" && r.Method == http.MethodPut {
		var body struct {
			Items []map[string]any `json:"items"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		record := prog.UpdateActionItems(r.Context(), actor.Key, sessionID, body.Items)
		if record == nil {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Session not found", nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"session": record})
		return
	}

	if len(parts) == 4 && parts[1] == "action-items" && parts[3] == "toggle" && r.Method == http.MethodPost {
		var body struct {
			Completed bool `json:"completed"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		record := prog.ToggleActionItem(r.Context(), actor.Key, sessionID, parts[2], body.Completed)
		if record == nil {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Session not found", nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"session": record})
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleStudioSessions(w http.ResponseWriter, r *http.Request, actor progress.Actor, parts []string) {
	prog := s.service.Progress()

	if len(parts) == 0 {
		if r.Method == http.MethodGet {
			writeJSON(w, http.StatusOK, map[string]any{"sessions": prog.StudioSessions(r.Context(), actor.Key)})
			return
		}
		if r.Method == http.MethodPost {
			var body struct {
				SceneID      string   `json:"sceneId"`
				PathID       string   `json:"pathId"`
				CourseID     string   `json:"courseId"`
				Title        string   `json:"title"`
				Facilitator  string   `json:"facilitator"`
				Participants []string `json:"participants"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			record := prog.StartStudioSession(r.Context(), actor.Key, progress.StartStudioSessionInput{
				SceneID:      body.SceneID,
				PathID:       body.PathID,
				CourseID:     body.CourseID,
				Title:        body.Title,
				Facilitator:  body.Facilitator,
				Participants: body.Participants,
			})
			if record == nil {
				writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "sceneId must reference a known scene", nil)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"session": record})
			return
		}
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	sessionID := parts[0]

	if len(parts) == 1 && r.Method == http.MethodGet {
		record := prog.StudioSessionByID(r.Context(), actor.Key, sessionID)
		if record == nil {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Session not found", nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"session": record})
		return
	}

	if len(parts) == 3 && parts[1] == "timeline" && r.Method == http.MethodPost {
		var body struct {
			Status string `json:"status"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		record := prog.UpdateTimelineStatus(r.Context(), actor.Key, sessionID, parts[2], body.Status)
		if record == nil {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Session not found", nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"session": record})
		return
	}

	if len(parts) == 3 && parts[1] == "artifacts" && parts[2] == "upload" && r.Method == http.MethodPost {
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", "multipart 'file' field is required", nil)
			return
		}
		defer file.Close()
		record, err := s.service.UploadArtifact(r.Context(), actor, sessionID, header.Filename, header.Header.Get("Content-Type"), file, header.Size)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"session": record})
		return
	}

	if len(parts) == 2 && parts[1] == "artifacts" && r.Method == http.MethodPost {
		var body struct {
			Title   string `json:"title"`
			Type    string `json:"type"`
			Summary string `json:"summary"`
			Owner   string `json:"owner"`
			URL     string `json:"url"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		record := prog.AddArtifact(r.Context(), actor.Key, sessionID, progress.AddArtifactInput{
			Title:   body.Title,
			Type:    body.Type,
			Summary: body.Summary,
			Owner:   body.Owner,
			URL:     body.URL,
		})
		if record == nil {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Session not found", nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"session": record})
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleVerifySearch(w http.ResponseWriter, r *http.Request) {
	q := search.Query{
		Text:     strings.TrimSpace(r.URL.Query().Get("q")),
		Tier:     strings.TrimSpace(r.URL.Query().Get("tier")),
		CourseID: strings.TrimSpace(r.URL.Query().Get("courseId")),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit must be an integer", nil)
			return
		}
		q.Limit = parsed
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("offset")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "offset must be an integer", nil)
			return
		}
		q.Offset = parsed
	}
	writeJSON(w, http.StatusOK, s.service.Searcher().Search(r.Context(), q))
}

func (s *HTTPServer) handleCertificateExport(w http.ResponseWriter, r *http.Request, actor progress.Actor, certificateID string) {
	format := export.FormatPDF
	if raw := strings.TrimSpace(r.URL.Query().Get("format")); raw != "" {
		format = export.Format(raw)
		if format != export.FormatPDF && format != export.FormatHTML {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "format must be 'pdf' or 'html'", nil)
			return
		}
	}

	result, err := s.service.ExportCertificate(r.Context(), actor, certificateID, format)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=\""+result.Filename+"\"")
	w.Header().Set("Content-Type", result.MimeType)
	w.Write(result.Data)
}

func (s *HTTPServer) handleAuthSignUp(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"fullName"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	resp, err := s.service.SignUp(r.Context(), body.Email, body.Password, body.FullName)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *HTTPServer) handleAuthSignIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	resp, err := s.service.SignIn(r.Context(), body.Email, body.Password)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// optionalSession resolves the bearer token when present. Invalid or absent
// tokens produce a zero session, which maps to the anonymous account.
func (s *HTTPServer) optionalSession(r *http.Request) Session {
	token := bearerToken(r)
	if token == "" {
		return Session{}
	}
	session, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		return Session{}
	}
	return session
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
