package progress

import (
	"context"
	"math"
	"strings"

	"skillforge/api/internal/catalog"
)

type achievementDef struct {
	ID     string
	Title  string
	Detail string
	Target int
}

var achievementDefs = []achievementDef{
	{ID: "ach-first-steps", Title: "First Steps", Detail: "Complete your first course", Target: 1},
	{ID: "ach-course-collector", Title: "Course Collector", Detail: "Complete 5 courses", Target: 5},
	{ID: "ach-well-rounded", Title: "Well Rounded", Detail: "Complete courses in 3 different categories", Target: 3},
	{ID: "ach-pathfinder", Title: "Pathfinder", Detail: "Finish every course in a learning path", Target: 1},
	{ID: "ach-deep-end", Title: "Deep End", Detail: "Complete 2 advanced courses", Target: 2},
	{ID: "ach-elite-momentum", Title: "Elite Momentum", Detail: "Reach 50% of an elite path", Target: 50},
	{ID: "ach-weekly-rhythm", Title: "Weekly Rhythm", Detail: "Complete 3 courses in the last 7 days", Target: 3},
	{ID: "ach-marathon", Title: "Marathon", Detail: "Keep a 7-day completion streak", Target: 7},
}

// Achievements evaluates the fixed achievement set against the account's
// completion history. Everything is derived on the fly; nothing here is
// persisted.
func (s *Service) Achievements(ctx context.Context, accountKey string) []Achievement {
	completions := s.Completions(ctx, accountKey)
	paths := s.PathsProgress(ctx, accountKey)
	streaks := s.Streaks(ctx, accountKey)

	completed := make(map[string]struct{}, len(completions))
	categories := make(map[string]struct{})
	advanced := 0
	for _, record := range completions {
		completed[record.CourseID] = struct{}{}
		course, ok := s.catalog.CourseByID(record.CourseID)
		if !ok {
			continue
		}
		if course.Category != "" {
			categories[course.Category] = struct{}{}
		}
		if course.Level == catalog.LevelAdvanced {
			advanced++
		}
	}

	finishedPaths := 0
	elitePercent := 0
	for _, path := range paths {
		if path.Total > 0 && path.Completed == path.Total {
			finishedPaths++
		}
		if p, ok := s.catalog.PathByID(path.PathID); ok && p.Elite && path.Percentage > elitePercent {
			elitePercent = path.Percentage
		}
	}

	current := map[string]int{
		"ach-first-steps":      len(completions),
		"ach-course-collector": len(completions),
		"ach-well-rounded":     len(categories),
		"ach-pathfinder":       finishedPaths,
		"ach-deep-end":         advanced,
		"ach-elite-momentum":   elitePercent,
		"ach-weekly-rhythm":    streaks.ThisWeek,
		"ach-marathon":         streaks.Current,
	}

	out := make([]Achievement, 0, len(achievementDefs))
	for _, def := range achievementDefs {
		value := current[def.ID]
		out = append(out, Achievement{
			ID:       def.ID,
			Title:    def.Title,
			Detail:   def.Detail,
			Current:  value,
			Target:   def.Target,
			Earned:   value >= def.Target,
			Progress: math.Min(1, float64(value)/float64(def.Target)),
		})
	}
	return out
}

// PathsProgress reports completion across every learning path. nextCourseId
// is the first incomplete course walking the stages in order, empty once the
// path is done.
func (s *Service) PathsProgress(ctx context.Context, accountKey string) []PathProgress {
	completions := s.Completions(ctx, accountKey)
	completed := make(map[string]struct{}, len(completions))
	for _, record := range completions {
		completed[record.CourseID] = struct{}{}
	}

	paths := s.catalog.Paths()
	out := make([]PathProgress, 0, len(paths))
	for _, path := range paths {
		progress := PathProgress{PathID: path.ID, Title: path.Title}
		for _, stage := range path.Stages {
			for _, courseID := range stage.CourseIDs {
				progress.Total++
				if _, ok := completed[courseID]; ok {
					progress.Completed++
				} else if progress.NextCourseID == "" {
					progress.NextCourseID = courseID
				}
			}
		}
		if progress.Total > 0 {
			progress.Percentage = int(math.Round(100 * float64(progress.Completed) / float64(progress.Total)))
		}
		out = append(out, progress)
	}
	return out
}

// Quests maps the community quests to their derived signals: streak length,
// studio session count, and whether any mentor message in the trailing 7
// days reads like an executive recap.
func (s *Service) Quests(ctx context.Context, accountKey string) []QuestProgress {
	streaks := s.Streaks(ctx, accountKey)
	studio := s.StudioSessions(ctx, accountKey)
	mentor := s.MentorSessions(ctx, accountKey)

	recap := 0
	weekAgo := s.now().AddDate(0, 0, -7)
	for _, session := range mentor {
		for _, message := range session.Messages {
			if message.CreatedAt.After(weekAgo) && strings.Contains(strings.ToLower(message.Content), "recap") {
				recap = 1
				break
			}
		}
		if recap == 1 {
			break
		}
	}

	quests := []QuestProgress{
		{QuestID: "quest-streak", Title: "Keep the streak alive", Current: streaks.Current, Target: 5},
		{QuestID: "quest-studio", Title: "Run immersive sessions", Current: len(studio), Target: 2},
		{QuestID: "quest-exec-recap", Title: "Share an executive recap", Current: recap, Target: 1},
	}
	for i := range quests {
		if quests[i].Current >= quests[i].Target {
			quests[i].Done = true
		}
	}
	return quests
}
