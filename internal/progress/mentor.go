package progress

import (
	"context"
	"strings"

	"skillforge/api/internal/util"
)

type StartMentorSessionInput struct {
	MentorID   string `json:"mentorId"`
	Topic      string `json:"topic"`
	ScenarioID string `json:"scenarioId"`
}

// MentorSessions returns the account's mentor sessions in stored order.
func (s *Service) MentorSessions(ctx context.Context, accountKey string) []MentorSessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureMentor(ctx)
	return append([]MentorSessionRecord(nil), s.mentor[accountKey]...)
}

func (s *Service) MentorSessionByID(ctx context.Context, accountKey, id string) *MentorSessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureMentor(ctx)
	if session := s.findMentorSessionLocked(accountKey, id); session != nil {
		out := *session
		return &out
	}
	return nil
}

// StartMentorSession gets or creates the session keyed by (mentorId,
// scenarioId), falling back to (mentorId, topic) when no scenario is set.
func (s *Service) StartMentorSession(ctx context.Context, accountKey string, input StartMentorSessionInput) *MentorSessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureMentor(ctx)

	mentorID := strings.TrimSpace(input.MentorID)
	if mentorID == "" {
		return nil
	}
	topic := strings.TrimSpace(input.Topic)
	scenarioID := strings.TrimSpace(input.ScenarioID)

	for i := range s.mentor[accountKey] {
		session := &s.mentor[accountKey][i]
		if session.MentorID != mentorID {
			continue
		}
		if scenarioID != "" {
			if session.ScenarioID == scenarioID {
				out := *session
				return &out
			}
			continue
		}
		if session.ScenarioID == "" && session.Topic == topic {
			out := *session
			return &out
		}
	}

	now := s.now()
	session := MentorSessionRecord{
		ID:          util.NewID("ses"),
		MentorID:    mentorID,
		Topic:       topic,
		ScenarioID:  scenarioID,
		CreatedAt:   now,
		UpdatedAt:   now,
		Messages:    make([]MentorMessageRecord, 0),
		ActionItems: make([]MentorActionItem, 0),
	}
	s.mentor[accountKey] = append(s.mentor[accountKey], session)
	s.persistMentor(ctx)
	out := session
	return &out
}

// RecordMentorMessage appends a normalized message and bumps the session's
// updatedAt to the message timestamp. Returns nil when the session or the
// message content is missing.
func (s *Service) RecordMentorMessage(ctx context.Context, accountKey, sessionID string, entry map[string]any) *MentorSessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureMentor(ctx)

	session := s.findMentorSessionLocked(accountKey, sessionID)
	if session == nil {
		return nil
	}
	message, ok := normalizeMentorMessage(entry, s.now)
	if !ok {
		return nil
	}
	session.Messages = append(session.Messages, message)
	session.UpdatedAt = message.CreatedAt
	s.persistMentor(ctx)
	out := *session
	return &out
}

// UpdateActionItems replaces the session's action-item list wholesale.
func (s *Service) UpdateActionItems(ctx context.Context, accountKey, sessionID string, entries []map[string]any) *MentorSessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureMentor(ctx)

	session := s.findMentorSessionLocked(accountKey, sessionID)
	if session == nil {
		return nil
	}
	items := make([]MentorActionItem, 0, len(entries))
	for _, entry := range entries {
		if item, ok := normalizeActionItem(entry); ok {
			items = append(items, item)
		}
	}
	session.ActionItems = items
	session.UpdatedAt = s.now()
	s.persistMentor(ctx)
	out := *session
	return &out
}

// ToggleActionItem sets one item's completed flag. When the item already
// holds the requested state nothing is written, so repeated toggles to the
// same state cost no persistence round-trip.
func (s *Service) ToggleActionItem(ctx context.Context, accountKey, sessionID, itemID string, completed bool) *MentorSessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureMentor(ctx)

	session := s.findMentorSessionLocked(accountKey, sessionID)
	if session == nil {
		return nil
	}
	for i := range session.ActionItems {
		if session.ActionItems[i].ID != itemID {
			continue
		}
		if session.ActionItems[i].Completed == completed {
			out := *session
			return &out
		}
		session.ActionItems[i].Completed = completed
		session.UpdatedAt = s.now()
		s.persistMentor(ctx)
		out := *session
		return &out
	}
	out := *session
	return &out
}

func (s *Service) findMentorSessionLocked(accountKey, sessionID string) *MentorSessionRecord {
	for i := range s.mentor[accountKey] {
		if s.mentor[accountKey][i].ID == sessionID {
			return &s.mentor[accountKey][i]
		}
	}
	return nil
}
