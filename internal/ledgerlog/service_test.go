package ledgerlog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"skillforge/api/internal/progress"
)

func sampleEntry(code string) progress.CertificateLedgerEntry {
	return progress.CertificateLedgerEntry{
		CertificateRecord: progress.CertificateRecord{
			ID:               "crt_1",
			Scope:            progress.ScopeCourse,
			CourseID:         "react-fundamentals",
			Title:            "Certificate of Completion: React Fundamentals",
			IssuedAt:         time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC),
			RecipientName:    "Asha Learner",
			Tier:             progress.TierFree,
			VerificationCode: code,
		},
		AccountKey: "asha@example.com",
	}
}

func TestRecordAndReadEntry(t *testing.T) {
	ctx := context.Background()
	svc := New(t.TempDir())

	if err := svc.Record(ctx, sampleEntry("AAAA1111BBBB")); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(svc.dir, entriesDir, "AAAA1111BBBB.json")); err != nil {
		t.Fatalf("entry file missing: %v", err)
	}

	entry, err := svc.ReadEntry("AAAA1111BBBB")
	if err != nil {
		t.Fatalf("ReadEntry() error = %v", err)
	}
	if entry.CourseID != "react-fundamentals" || entry.AccountKey != "asha@example.com" {
		t.Fatalf("read entry = %+v", entry)
	}
}

func TestRecordIdenticalEntryIsNoOp(t *testing.T) {
	ctx := context.Background()
	svc := New(t.TempDir())

	entry := sampleEntry("AAAA1111BBBB")
	if err := svc.Record(ctx, entry); err != nil {
		t.Fatalf("first Record() error = %v", err)
	}
	if err := svc.Record(ctx, entry); err != nil {
		t.Fatalf("second Record() error = %v", err)
	}

	history, err := svc.History(0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history = %d commits, want 1", len(history))
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc := New(t.TempDir())

	if err := svc.Record(ctx, sampleEntry("AAAA1111BBBB")); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := svc.Record(ctx, sampleEntry("CCCC2222DDDD")); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	history, err := svc.History(10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history = %d commits, want 2", len(history))
	}
	if !strings.Contains(history[0].Message, "CCCC2222DDDD") {
		t.Fatalf("newest commit = %q, want the second certificate", history[0].Message)
	}
	if history[0].Author != authorName {
		t.Fatalf("author = %q, want %q", history[0].Author, authorName)
	}
}

func TestHistoryEmptyRepo(t *testing.T) {
	svc := New(t.TempDir())
	history, err := svc.History(5)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("history = %d commits, want 0", len(history))
	}
}
