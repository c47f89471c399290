package progress

import (
	"context"
	"strings"

	"skillforge/api/internal/util"
)

const defaultParticipant = "Concierge AI"

type StartStudioSessionInput struct {
	SceneID      string   `json:"sceneId"`
	PathID       string   `json:"pathId"`
	CourseID     string   `json:"courseId"`
	Title        string   `json:"title"`
	Facilitator  string   `json:"facilitator"`
	Participants []string `json:"participants"`
}

type AddArtifactInput struct {
	Title   string `json:"title"`
	Type    string `json:"type"`
	Summary string `json:"summary"`
	Owner   string `json:"owner"`
	URL     string `json:"url"`
}

// StudioSessions returns the account's studio sessions in stored order.
func (s *Service) StudioSessions(ctx context.Context, accountKey string) []StudioSessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureStudio(ctx)
	return append([]StudioSessionRecord(nil), s.studio[accountKey]...)
}

func (s *Service) StudioSessionByID(ctx context.Context, accountKey, id string) *StudioSessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureStudio(ctx)
	if session := s.findStudioSessionLocked(accountKey, id); session != nil {
		out := *session
		return &out
	}
	return nil
}

// StartStudioSession gets or creates the session keyed by (sceneId, pathId).
// The timeline is seeded from the scene template's cues; an unknown scene
// returns nil.
func (s *Service) StartStudioSession(ctx context.Context, accountKey string, input StartStudioSessionInput) *StudioSessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureStudio(ctx)

	sceneID := strings.TrimSpace(input.SceneID)
	pathID := strings.TrimSpace(input.PathID)

	for i := range s.studio[accountKey] {
		session := &s.studio[accountKey][i]
		if session.SceneID == sceneID && session.PathID == pathID {
			out := *session
			return &out
		}
	}

	scene, ok := s.catalog.SceneByID(sceneID)
	if !ok {
		return nil
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = scene.Title
	}

	participants := dedupeParticipants(input.Participants)
	if len(participants) == 0 {
		participants = []string{defaultParticipant}
	}

	timeline := make([]StudioTimelineRecord, 0, len(scene.Cues))
	for _, cue := range scene.Cues {
		timeline = append(timeline, StudioTimelineRecord{
			ID:             cue.ID,
			Label:          cue.Label,
			Stage:          cue.Stage,
			FacilitatorCue: cue.FacilitatorCue,
			SuccessSignal:  cue.SuccessSignal,
			Status:         TimelinePending,
		})
	}

	now := s.now()
	session := StudioSessionRecord{
		ID:           util.NewID("stu"),
		SceneID:      sceneID,
		PathID:       pathID,
		CourseID:     strings.TrimSpace(input.CourseID),
		Title:        title,
		Facilitator:  strings.TrimSpace(input.Facilitator),
		Participants: participants,
		CreatedAt:    now,
		UpdatedAt:    now,
		Timeline:     timeline,
		Artifacts:    make([]StudioArtifactRecord, 0),
	}
	s.studio[accountKey] = append(s.studio[accountKey], session)
	s.persistStudio(ctx)
	out := session
	return &out
}

// UpdateTimelineStatus moves one timeline entry through the 3-state enum.
// Any state is reachable from any other; an unrecognized status leaves the
// entry untouched. scheduledAt is stamped on the first transition away from
// pending and never cleared.
func (s *Service) UpdateTimelineStatus(ctx context.Context, accountKey, sessionID, timelineID, status string) *StudioSessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureStudio(ctx)

	session := s.findStudioSessionLocked(accountKey, sessionID)
	if session == nil {
		return nil
	}
	if _, ok := allowedTimelineStatuses[status]; !ok {
		out := *session
		return &out
	}
	for i := range session.Timeline {
		if session.Timeline[i].ID != timelineID {
			continue
		}
		session.Timeline[i].Status = status
		if status != TimelinePending && session.Timeline[i].ScheduledAt == nil {
			scheduled := s.now()
			session.Timeline[i].ScheduledAt = &scheduled
		}
		session.UpdatedAt = s.now()
		s.persistStudio(ctx)
		break
	}
	out := *session
	return &out
}

// AddArtifact appends an artifact with a generated id and timestamp.
func (s *Service) AddArtifact(ctx context.Context, accountKey, sessionID string, input AddArtifactInput) *StudioSessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureStudio(ctx)

	session := s.findStudioSessionLocked(accountKey, sessionID)
	if session == nil {
		return nil
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil
	}
	artifactType := input.Type
	if _, ok := allowedArtifactTypes[artifactType]; !ok {
		artifactType = ArtifactGeneric
	}
	artifact := StudioArtifactRecord{
		ID:        util.NewID("art"),
		Title:     title,
		Type:      artifactType,
		Summary:   strings.TrimSpace(input.Summary),
		Owner:     strings.TrimSpace(input.Owner),
		URL:       strings.TrimSpace(input.URL),
		CreatedAt: s.now(),
	}
	session.Artifacts = append(session.Artifacts, artifact)
	session.UpdatedAt = artifact.CreatedAt
	s.persistStudio(ctx)
	out := *session
	return &out
}

func (s *Service) findStudioSessionLocked(accountKey, sessionID string) *StudioSessionRecord {
	for i := range s.studio[accountKey] {
		if s.studio[accountKey][i].ID == sessionID {
			return &s.studio[accountKey][i]
		}
	}
	return nil
}

func dedupeParticipants(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
