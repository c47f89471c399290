package progress

import (
	"context"
	"sort"
	"time"
)

// Completions returns the account's completion records, most recent first.
func (s *Service) Completions(ctx context.Context, accountKey string) []CompletionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureCompletions(ctx)
	records := append([]CompletionRecord(nil), s.completions[accountKey]...)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CompletedAt.After(records[j].CompletedAt)
	})
	return records
}

func (s *Service) IsCompleted(ctx context.Context, accountKey, courseID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureCompletions(ctx)
	for _, record := range s.completions[accountKey] {
		if record.CourseID == courseID {
			return true
		}
	}
	return false
}

// MarkCompleted upserts a completion with completedAt = now. A brand-new
// completion (as opposed to a timestamp refresh) triggers course-scope
// certificate issuance through the reconciliation pass.
func (s *Service) MarkCompleted(ctx context.Context, actor Actor, courseID string) CompletionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markCompletedLocked(ctx, actor, courseID)
}

func (s *Service) markCompletedLocked(ctx context.Context, actor Actor, courseID string) CompletionRecord {
	s.ensureCompletions(ctx)
	now := s.now()
	records := s.completions[actor.Key]
	for i, record := range records {
		if record.CourseID == courseID {
			records[i].CompletedAt = now
			s.completions[actor.Key] = records
			s.persistCompletions(ctx)
			s.reconcileCertificatesLocked(ctx, actor)
			return records[i]
		}
	}
	record := CompletionRecord{CourseID: courseID, CompletedAt: now}
	s.completions[actor.Key] = append(records, record)
	s.persistCompletions(ctx)
	s.reconcileCertificatesLocked(ctx, actor)
	return record
}

// UnmarkCompleted removes the completion record. Certificates already issued
// for the course stay valid; there is no revocation.
func (s *Service) UnmarkCompleted(ctx context.Context, actor Actor, courseID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unmarkCompletedLocked(ctx, actor, courseID)
}

func (s *Service) unmarkCompletedLocked(ctx context.Context, actor Actor, courseID string) bool {
	s.ensureCompletions(ctx)
	records := s.completions[actor.Key]
	for i, record := range records {
		if record.CourseID == courseID {
			s.completions[actor.Key] = append(records[:i], records[i+1:]...)
			s.persistCompletions(ctx)
			return true
		}
	}
	return false
}

// ToggleCompleted flips the completion state and reports the new state.
func (s *Service) ToggleCompleted(ctx context.Context, actor Actor, courseID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureCompletions(ctx)
	for _, record := range s.completions[actor.Key] {
		if record.CourseID == courseID {
			s.unmarkCompletedLocked(ctx, actor, courseID)
			return false
		}
	}
	s.markCompletedLocked(ctx, actor, courseID)
	return true
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Streaks derives the streak and weekly-cadence summary from the completion
// set. The current streak tolerates a one-day gap from today so it does not
// reset before the day is over; any gap over one calendar day breaks it.
func (s *Service) Streaks(ctx context.Context, accountKey string) StreakSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureCompletions(ctx)

	now := s.now()
	records := s.completions[accountKey]

	daySet := make(map[time.Time]struct{}, len(records))
	for _, record := range records {
		daySet[dayOf(record.CompletedAt.In(now.Location()))] = struct{}{}
	}

	summary := StreakSummary{}

	today := dayOf(now)
	yesterday := today.AddDate(0, 0, -1)
	start := today
	if _, ok := daySet[today]; !ok {
		if _, ok := daySet[yesterday]; ok {
			start = yesterday
		} else {
			start = time.Time{}
		}
	}
	for day := start; !day.IsZero(); day = day.AddDate(0, 0, -1) {
		if _, ok := daySet[day]; !ok {
			break
		}
		summary.Current++
	}

	days := make([]time.Time, 0, len(daySet))
	for day := range daySet {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	run := 0
	for i, day := range days {
		if i > 0 && days[i-1].AddDate(0, 0, 1).Equal(day) {
			run++
		} else {
			run = 1
		}
		if run > summary.Longest {
			summary.Longest = run
		}
	}

	weekAgo := now.AddDate(0, 0, -7)
	twoWeeksAgo := now.AddDate(0, 0, -14)
	for _, record := range records {
		switch {
		case record.CompletedAt.After(weekAgo):
			summary.ThisWeek++
		case record.CompletedAt.After(twoWeeksAgo):
			summary.LastWeek++
		}
	}
	summary.WeekDelta = summary.ThisWeek - summary.LastWeek
	return summary
}
