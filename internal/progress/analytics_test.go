package progress

import (
	"context"
	"testing"
	"time"
)

func TestAchievementsProgress(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	actor := testActor("asha@example.com")

	svc.MarkCompleted(ctx, actor, "react-fundamentals")

	byID := make(map[string]Achievement)
	for _, achievement := range svc.Achievements(ctx, actor.Key) {
		byID[achievement.ID] = achievement
	}
	if len(byID) != 8 {
		t.Fatalf("achievements = %d, want 8", len(byID))
	}

	first := byID["ach-first-steps"]
	if !first.Earned || first.Current != 1 || first.Progress != 1 {
		t.Fatalf("first-steps = %+v, want earned", first)
	}
	collector := byID["ach-course-collector"]
	if collector.Earned || collector.Current != 1 {
		t.Fatalf("course-collector = %+v, want 1/5 unearned", collector)
	}
	if collector.Progress != 0.2 {
		t.Fatalf("course-collector progress = %v, want 0.2", collector.Progress)
	}
}

func TestAchievementAdvancedCourses(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	actor := testActor("asha@example.com")

	svc.MarkCompleted(ctx, actor, "advanced-react-patterns")
	svc.MarkCompleted(ctx, actor, "distributed-systems-primer")

	for _, achievement := range svc.Achievements(ctx, actor.Key) {
		if achievement.ID == "ach-deep-end" {
			if !achievement.Earned || achievement.Current != 2 {
				t.Fatalf("deep-end = %+v, want 2/2 earned", achievement)
			}
			return
		}
	}
	t.Fatalf("deep-end achievement missing")
}

func TestPathsProgressNextCourse(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	actor := testActor("asha@example.com")

	svc.MarkCompleted(ctx, actor, "react-fundamentals")

	var frontend PathProgress
	for _, path := range svc.PathsProgress(ctx, actor.Key) {
		if path.PathID == "frontend-engineer" {
			frontend = path
		}
	}
	if frontend.PathID == "" {
		t.Fatalf("frontend path missing")
	}
	if frontend.Completed != 1 || frontend.Total != 3 {
		t.Fatalf("frontend = %d/%d, want 1/3", frontend.Completed, frontend.Total)
	}
	if frontend.Percentage != 33 {
		t.Fatalf("percentage = %d, want 33", frontend.Percentage)
	}
	if frontend.NextCourseID != "typescript-essentials" {
		t.Fatalf("nextCourseId = %q, want typescript-essentials", frontend.NextCourseID)
	}
}

func TestPathsProgressComplete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	actor := testActor("asha@example.com")

	for _, courseID := range []string{"react-fundamentals", "typescript-essentials", "advanced-react-patterns"} {
		svc.MarkCompleted(ctx, actor, courseID)
	}

	for _, path := range svc.PathsProgress(ctx, actor.Key) {
		if path.PathID != "frontend-engineer" {
			continue
		}
		if path.Percentage != 100 || path.NextCourseID != "" {
			t.Fatalf("completed path = %+v, want 100%% and no next course", path)
		}
		return
	}
	t.Fatalf("frontend path missing")
}

func TestQuestRecapHeuristic(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	account := "asha@example.com"

	session := svc.StartMentorSession(ctx, account, StartMentorSessionInput{MentorID: "mentor-sefu", Topic: "board prep"})
	svc.RecordMentorMessage(ctx, account, session.ID, map[string]any{
		"role":    RoleUser,
		"content": "Here is my executive RECAP of the quarter.",
	})

	quests := svc.Quests(ctx, account)
	var recap QuestProgress
	for _, quest := range quests {
		if quest.QuestID == "quest-exec-recap" {
			recap = quest
		}
	}
	if !recap.Done || recap.Current != 1 {
		t.Fatalf("recap quest = %+v, want done", recap)
	}
}

func TestQuestRecapIgnoresStaleMessages(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	account := "asha@example.com"

	old := time.Date(2026, time.February, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return old }
	session := svc.StartMentorSession(ctx, account, StartMentorSessionInput{MentorID: "mentor-sefu", Topic: "board prep"})
	svc.RecordMentorMessage(ctx, account, session.ID, map[string]any{
		"role":    RoleUser,
		"content": "recap from a month ago",
	})

	svc.now = func() time.Time { return old.AddDate(0, 0, 30) }
	for _, quest := range svc.Quests(ctx, account) {
		if quest.QuestID == "quest-exec-recap" && quest.Done {
			t.Fatalf("stale recap counted: %+v", quest)
		}
	}
}

func TestQuestStudioCount(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	account := "asha@example.com"

	svc.StartStudioSession(ctx, account, StartStudioSessionInput{SceneID: "scene-incident-review", PathID: "backend-engineer"})
	svc.StartStudioSession(ctx, account, StartStudioSessionInput{SceneID: "scene-design-critique", PathID: "frontend-engineer"})

	for _, quest := range svc.Quests(ctx, account) {
		if quest.QuestID == "quest-studio" {
			if !quest.Done || quest.Current != 2 {
				t.Fatalf("studio quest = %+v, want 2/2 done", quest)
			}
			return
		}
	}
	t.Fatalf("studio quest missing")
}
