// Package progress implements the per-account learning state: course
// completions, certificates, mentor sessions, studio sessions and the
// analytics derived from them. Collections are keyed by account key (the
// signed-in email, or the anonymous sentinel) and persisted as JSON through
// the store adapter with best-effort durability.
package progress

import "time"

// AnonymousKey partitions state for signed-out usage.
const AnonymousKey = "anonymous"

// Actor describes the account a mutation runs under. Subscription feeds
// certificate tier resolution at issuance time.
type Actor struct {
	Key          string
	Name         string
	Email        string
	Subscription string
}

type CompletionRecord struct {
	CourseID    string    `json:"courseId"`
	CompletedAt time.Time `json:"completedAt"`
}

const (
	RoleUser   = "user"
	RoleMentor = "mentor"
	RoleSystem = "system"
)

const (
	SentimentAccelerate = "accelerate"
	SentimentStabilize  = "stabilize"
	SentimentCelebrate  = "celebrate"
	SentimentNeutral    = "neutral"
)

type MentorAttachmentRecord struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

type MentorMessageRecord struct {
	ID          string                   `json:"id"`
	Role        string                   `json:"role"`
	Content     string                   `json:"content"`
	CreatedAt   time.Time                `json:"createdAt"`
	Sentiment   string                   `json:"sentiment,omitempty"`
	Attachments []MentorAttachmentRecord `json:"attachments,omitempty"`
}

type MentorActionItem struct {
	ID        string     `json:"id"`
	Label     string     `json:"label"`
	DueAt     *time.Time `json:"dueAt"`
	Completed bool       `json:"completed"`
}

// MentorSessionRecord is keyed by (mentorId, scenarioId) when a scenario is
// set, otherwise by (mentorId, topic); starting a session with the same key
// returns the existing record.
type MentorSessionRecord struct {
	ID          string                `json:"id"`
	MentorID    string                `json:"mentorId"`
	Topic       string                `json:"topic"`
	ScenarioID  string                `json:"scenarioId,omitempty"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
	Messages    []MentorMessageRecord `json:"messages"`
	ActionItems []MentorActionItem    `json:"actionItems"`
}

const (
	TimelinePending    = "pending"
	TimelineInProgress = "in_progress"
	TimelineComplete   = "complete"
)

const (
	ArtifactWhiteboard = "whiteboard"
	ArtifactPrototype  = "prototype"
	ArtifactGeneric    = "artifact"
	ArtifactBrief      = "brief"
)

type StudioTimelineRecord struct {
	ID             string     `json:"id"`
	Label          string     `json:"label"`
	Stage          string     `json:"stage"`
	FacilitatorCue string     `json:"facilitatorCue"`
	SuccessSignal  string     `json:"successSignal"`
	Status         string     `json:"status"`
	ScheduledAt    *time.Time `json:"scheduledAt"`
}

type StudioArtifactRecord struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Type      string    `json:"type"`
	Summary   string    `json:"summary"`
	Owner     string    `json:"owner"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// StudioSessionRecord is keyed by (sceneId, pathId); creation is idempotent.
type StudioSessionRecord struct {
	ID           string                 `json:"id"`
	SceneID      string                 `json:"sceneId"`
	PathID       string                 `json:"pathId"`
	CourseID     string                 `json:"courseId"`
	Title        string                 `json:"title"`
	Facilitator  string                 `json:"facilitator"`
	Participants []string               `json:"participants"`
	CreatedAt    time.Time              `json:"createdAt"`
	UpdatedAt    time.Time              `json:"updatedAt"`
	Timeline     []StudioTimelineRecord `json:"timeline"`
	Artifacts    []StudioArtifactRecord `json:"artifacts"`
}

const (
	ScopeCourse = "course"
	ScopeModule = "module"
)

const (
	TierFree  = "Free"
	TierPro   = "Pro"
	TierElite = "Elite"
)

type SignatureBlock struct {
	Name      string `json:"name"`
	Title     string `json:"title"`
	PersonaID string `json:"personaId,omitempty"`
}

// CertificateRecord is unique per account per (scope, courseId, moduleId);
// issuance is idempotent and certificates are never revoked.
type CertificateRecord struct {
	ID               string         `json:"id"`
	Scope            string         `json:"scope"`
	CourseID         string         `json:"courseId"`
	ModuleID         string         `json:"moduleId,omitempty"`
	Title            string         `json:"title"`
	IssuedAt         time.Time      `json:"issuedAt"`
	RecipientName    string         `json:"recipientName"`
	RecipientEmail   string         `json:"recipientEmail"`
	Tier             string         `json:"tier"`
	VerificationCode string         `json:"verificationCode"`
	Signature        SignatureBlock `json:"signature"`
	IssuedBy         string         `json:"issuedBy"`
	Highlights       []string       `json:"highlights"`
}

// CertificateLedgerEntry is the cross-account mirror of an issued
// certificate, deduplicated by verification code.
type CertificateLedgerEntry struct {
	CertificateRecord
	AccountKey string `json:"accountKey"`
}

type StreakSummary struct {
	Current   int `json:"current"`
	Longest   int `json:"longest"`
	ThisWeek  int `json:"thisWeek"`
	LastWeek  int `json:"lastWeek"`
	WeekDelta int `json:"weekDelta"`
}

type Achievement struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Detail   string  `json:"detail"`
	Current  int     `json:"current"`
	Target   int     `json:"target"`
	Earned   bool    `json:"earned"`
	Progress float64 `json:"progress"`
}

type PathProgress struct {
	PathID       string `json:"pathId"`
	Title        string `json:"title"`
	Completed    int    `json:"completed"`
	Total        int    `json:"total"`
	Percentage   int    `json:"percentage"`
	NextCourseID string `json:"nextCourseId,omitempty"`
}

type QuestProgress struct {
	QuestID string `json:"questId"`
	Title   string `json:"title"`
	Current int    `json:"current"`
	Target  int    `json:"target"`
	Done    bool   `json:"done"`
}

var allowedMessageRoles = map[string]struct{}{
	RoleUser:   {},
	RoleMentor: {},
	RoleSystem: {},
}

var allowedSentiments = map[string]struct{}{
	SentimentAccelerate: {},
	SentimentStabilize:  {},
	SentimentCelebrate:  {},
	SentimentNeutral:    {},
}

var allowedTimelineStatuses = map[string]struct{}{
	TimelinePending:    {},
	TimelineInProgress: {},
	TimelineComplete:   {},
}

var allowedArtifactTypes = map[string]struct{}{
	ArtifactWhiteboard: {},
	ArtifactPrototype:  {},
	ArtifactGeneric:    {},
	ArtifactBrief:      {},
}

var allowedScopes = map[string]struct{}{
	ScopeCourse: {},
	ScopeModule: {},
}

var allowedTiers = map[string]struct{}{
	TierFree:  {},
	TierPro:   {},
	TierElite: {},
}
