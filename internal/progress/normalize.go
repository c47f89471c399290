package progress

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"skillforge/api/internal/util"
)

// The normalizers repair loosely-typed stored JSON into well-shaped records.
// A malformed entry is dropped on its own; the rest of the collection
// survives. Missing ids are generated, missing timestamps default to now,
// and enum fields fall back to documented defaults.

func decodeEntries(raw json.RawMessage) []map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	entries := make([]map[string]any, 0, len(items))
	for _, item := range items {
		var entry map[string]any
		if err := json.Unmarshal(item, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func stringField(entry map[string]any, key string) string {
	value, _ := entry[key].(string)
	return strings.TrimSpace(value)
}

func boolField(entry map[string]any, key string) bool {
	value, _ := entry[key].(bool)
	return value
}

// timeField accepts RFC3339 strings and numeric epoch milliseconds; anything
// else yields the zero time.
func timeField(entry map[string]any, key string) time.Time {
	switch value := entry[key].(type) {
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, value); err == nil {
			return parsed
		}
		if parsed, err := time.Parse(time.RFC3339, value); err == nil {
			return parsed
		}
	case float64:
		if value > 0 {
			return time.UnixMilli(int64(value)).UTC()
		}
	}
	return time.Time{}
}

func timeFieldOr(entry map[string]any, key string, fallback time.Time) time.Time {
	if parsed := timeField(entry, key); !parsed.IsZero() {
		return parsed
	}
	return fallback
}

func enumField(entry map[string]any, key string, allowed map[string]struct{}, fallback string) string {
	value := stringField(entry, key)
	if _, ok := allowed[value]; ok {
		return value
	}
	return fallback
}

func stringSliceField(entry map[string]any, key string) []string {
	values, _ := entry[key].([]any)
	out := make([]string, 0, len(values))
	for _, value := range values {
		if text, ok := value.(string); ok && strings.TrimSpace(text) != "" {
			out = append(out, strings.TrimSpace(text))
		}
	}
	return out
}

func entrySliceField(entry map[string]any, key string) []map[string]any {
	values, _ := entry[key].([]any)
	out := make([]map[string]any, 0, len(values))
	for _, value := range values {
		if nested, ok := value.(map[string]any); ok {
			out = append(out, nested)
		}
	}
	return out
}

func normalizeCompletions(raw json.RawMessage, now func() time.Time) []CompletionRecord {
	byCourse := make(map[string]CompletionRecord)
	order := make([]string, 0)
	for _, entry := range decodeEntries(raw) {
		courseID := stringField(entry, "courseId")
		if courseID == "" {
			continue
		}
		record := CompletionRecord{
			CourseID:    courseID,
			CompletedAt: timeFieldOr(entry, "completedAt", now()),
		}
		existing, seen := byCourse[courseID]
		if !seen {
			order = append(order, courseID)
			byCourse[courseID] = record
			continue
		}
		// Dedup keeps the most recent completion.
		if record.CompletedAt.After(existing.CompletedAt) {
			byCourse[courseID] = record
		}
	}
	records := make([]CompletionRecord, 0, len(order))
	for _, courseID := range order {
		records = append(records, byCourse[courseID])
	}
	return records
}

func normalizeMentorMessage(entry map[string]any, now func() time.Time) (MentorMessageRecord, bool) {
	content := stringField(entry, "content")
	if content == "" {
		return MentorMessageRecord{}, false
	}
	message := MentorMessageRecord{
		ID:        stringField(entry, "id"),
		Role:      enumField(entry, "role", allowedMessageRoles, RoleUser),
		Content:   content,
		CreatedAt: timeFieldOr(entry, "createdAt", now()),
	}
	if message.ID == "" {
		message.ID = util.NewID("msg")
	}
	if sentiment := stringField(entry, "sentiment"); sentiment != "" {
		if _, ok := allowedSentiments[sentiment]; ok {
			message.Sentiment = sentiment
		} else {
			message.Sentiment = SentimentNeutral
		}
	}
	for _, attachment := range entrySliceField(entry, "attachments") {
		title := stringField(attachment, "title")
		url := stringField(attachment, "url")
		if title == "" && url == "" {
			continue
		}
		id := stringField(attachment, "id")
		if id == "" {
			id = util.NewID("att")
		}
		message.Attachments = append(message.Attachments, MentorAttachmentRecord{ID: id, Title: title, URL: url})
	}
	return message, true
}

func normalizeActionItem(entry map[string]any) (MentorActionItem, bool) {
	label := stringField(entry, "label")
	if label == "" {
		return MentorActionItem{}, false
	}
	item := MentorActionItem{
		ID:        stringField(entry, "id"),
		Label:     label,
		Completed: boolField(entry, "completed"),
	}
	if item.ID == "" {
		item.ID = util.NewID("act")
	}
	if due := timeField(entry, "dueAt"); !due.IsZero() {
		item.DueAt = &due
	}
	return item, true
}

func normalizeMentorSessions(raw json.RawMessage, now func() time.Time) []MentorSessionRecord {
	sessions := make([]MentorSessionRecord, 0)
	for _, entry := range decodeEntries(raw) {
		mentorID := stringField(entry, "mentorId")
		if mentorID == "" {
			continue
		}
		session := MentorSessionRecord{
			ID:          stringField(entry, "id"),
			MentorID:    mentorID,
			Topic:       stringField(entry, "topic"),
			ScenarioID:  stringField(entry, "scenarioId"),
			CreatedAt:   timeFieldOr(entry, "createdAt", now()),
			Messages:    make([]MentorMessageRecord, 0),
			ActionItems: make([]MentorActionItem, 0),
		}
		if session.ID == "" {
			session.ID = util.NewID("ses")
		}
		session.UpdatedAt = timeFieldOr(entry, "updatedAt", session.CreatedAt)
		for _, raw := range entrySliceField(entry, "messages") {
			if message, ok := normalizeMentorMessage(raw, now); ok {
				session.Messages = append(session.Messages, message)
			}
		}
		for _, raw := range entrySliceField(entry, "actionItems") {
			if item, ok := normalizeActionItem(raw); ok {
				session.ActionItems = append(session.ActionItems, item)
			}
		}
		sessions = append(sessions, session)
	}
	return sessions
}

func normalizeTimelineRecord(entry map[string]any) (StudioTimelineRecord, bool) {
	label := stringField(entry, "label")
	if label == "" {
		return StudioTimelineRecord{}, false
	}
	record := StudioTimelineRecord{
		ID:             stringField(entry, "id"),
		Label:          label,
		Stage:          stringField(entry, "stage"),
		FacilitatorCue: stringField(entry, "facilitatorCue"),
		SuccessSignal:  stringField(entry, "successSignal"),
		Status:         enumField(entry, "status", allowedTimelineStatuses, TimelinePending),
	}
	if record.ID == "" {
		record.ID = util.NewID("cue")
	}
	if scheduled := timeField(entry, "scheduledAt"); !scheduled.IsZero() {
		record.ScheduledAt = &scheduled
	}
	return record, true
}

func normalizeArtifact(entry map[string]any, now func() time.Time) (StudioArtifactRecord, bool) {
	title := stringField(entry, "title")
	if title == "" {
		return StudioArtifactRecord{}, false
	}
	record := StudioArtifactRecord{
		ID:        stringField(entry, "id"),
		Title:     title,
		Type:      enumField(entry, "type", allowedArtifactTypes, ArtifactGeneric),
		Summary:   stringField(entry, "summary"),
		Owner:     stringField(entry, "owner"),
		URL:       stringField(entry, "url"),
		CreatedAt: timeFieldOr(entry, "createdAt", now()),
	}
	if record.ID == "" {
		record.ID = util.NewID("art")
	}
	return record, true
}

func normalizeStudioSessions(raw json.RawMessage, now func() time.Time) []StudioSessionRecord {
	sessions := make([]StudioSessionRecord, 0)
	for _, entry := range decodeEntries(raw) {
		sceneID := stringField(entry, "sceneId")
		title := stringField(entry, "title")
		if sceneID == "" || title == "" {
			continue
		}
		session := StudioSessionRecord{
			ID:           stringField(entry, "id"),
			SceneID:      sceneID,
			PathID:       stringField(entry, "pathId"),
			CourseID:     stringField(entry, "courseId"),
			Title:        title,
			Facilitator:  stringField(entry, "facilitator"),
			Participants: stringSliceField(entry, "participants"),
			CreatedAt:    timeFieldOr(entry, "createdAt", now()),
			Timeline:     make([]StudioTimelineRecord, 0),
			Artifacts:    make([]StudioArtifactRecord, 0),
		}
		if session.ID == "" {
			session.ID = util.NewID("stu")
		}
		session.UpdatedAt = timeFieldOr(entry, "updatedAt", session.CreatedAt)
		for _, raw := range entrySliceField(entry, "timeline") {
			if record, ok := normalizeTimelineRecord(raw); ok {
				session.Timeline = append(session.Timeline, record)
			}
		}
		for _, raw := range entrySliceField(entry, "artifacts") {
			if record, ok := normalizeArtifact(raw, now); ok {
				session.Artifacts = append(session.Artifacts, record)
			}
		}
		sessions = append(sessions, session)
	}
	return sessions
}

func normalizeCertificate(entry map[string]any, now func() time.Time) (CertificateRecord, bool) {
	courseID := stringField(entry, "courseId")
	title := stringField(entry, "title")
	if courseID == "" || title == "" {
		return CertificateRecord{}, false
	}
	record := CertificateRecord{
		ID:               stringField(entry, "id"),
		Scope:            enumField(entry, "scope", allowedScopes, ScopeCourse),
		CourseID:         courseID,
		ModuleID:         stringField(entry, "moduleId"),
		Title:            title,
		IssuedAt:         timeFieldOr(entry, "issuedAt", now()),
		RecipientName:    stringField(entry, "recipientName"),
		RecipientEmail:   stringField(entry, "recipientEmail"),
		Tier:             enumField(entry, "tier", allowedTiers, TierFree),
		VerificationCode: stringField(entry, "verificationCode"),
		IssuedBy:         stringField(entry, "issuedBy"),
		Highlights:       stringSliceField(entry, "highlights"),
	}
	if record.Scope == ScopeCourse {
		record.ModuleID = ""
	}
	if record.ID == "" {
		record.ID = util.NewID("crt")
	}
	if record.VerificationCode == "" {
		record.VerificationCode = util.NewVerificationCode()
	}
	if signature, ok := entry["signature"].(map[string]any); ok {
		record.Signature = SignatureBlock{
			Name:      stringField(signature, "name"),
			Title:     stringField(signature, "title"),
			PersonaID: stringField(signature, "personaId"),
		}
	}
	if record.Signature.Name == "" {
		record.Signature = signatureFor(record.Tier)
	}
	return record, true
}

func normalizeCertificates(raw json.RawMessage, now func() time.Time) []CertificateRecord {
	records := make([]CertificateRecord, 0)
	for _, entry := range decodeEntries(raw) {
		if record, ok := normalizeCertificate(entry, now); ok {
			records = append(records, record)
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].IssuedAt.After(records[j].IssuedAt)
	})
	return records
}

func normalizeLedger(raw json.RawMessage, now func() time.Time) []CertificateLedgerEntry {
	entries := make([]CertificateLedgerEntry, 0)
	seen := make(map[string]struct{})
	for _, entry := range decodeEntries(raw) {
		record, ok := normalizeCertificate(entry, now)
		if !ok {
			continue
		}
		if _, dup := seen[record.VerificationCode]; dup {
			continue
		}
		seen[record.VerificationCode] = struct{}{}
		accountKey := stringField(entry, "accountKey")
		if accountKey == "" {
			accountKey = AnonymousKey
		}
		entries = append(entries, CertificateLedgerEntry{CertificateRecord: record, AccountKey: accountKey})
	}
	return entries
}
