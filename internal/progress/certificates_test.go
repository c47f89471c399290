package progress

import (
	"context"
	"strings"
	"testing"

	"skillforge/api/internal/catalog"
)

func TestIssueCertificateIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	actor := testActor("asha@example.com")

	input := IssueCertificateInput{Scope: ScopeCourse, CourseID: "react-fundamentals"}
	first := svc.IssueCertificate(ctx, actor, input)
	if first == nil {
		t.Fatalf("first issuance returned nil")
	}
	second := svc.IssueCertificate(ctx, actor, input)
	if second == nil {
		t.Fatalf("second issuance returned nil")
	}
	if first.ID != second.ID || first.VerificationCode != second.VerificationCode {
		t.Fatalf("repeat issuance minted a new certificate: %q/%q vs %q/%q",
			first.ID, first.VerificationCode, second.ID, second.VerificationCode)
	}
	if got := len(svc.Certificates(ctx, actor.Key)); got != 1 {
		t.Fatalf("certificates = %d, want 1", got)
	}
	if got := len(svc.LedgerEntries(ctx)); got != 1 {
		t.Fatalf("ledger entries = %d, want 1", got)
	}
}

func TestIssueCertificateUnknownCourse(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	actor := testActor("asha@example.com")

	if got := svc.IssueCertificate(ctx, actor, IssueCertificateInput{CourseID: "no-such-course"}); got != nil {
		t.Fatalf("unknown course issued %+v, want nil", got)
	}
}

func TestCourseScopeClearsModule(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	actor := testActor("asha@example.com")

	record := svc.IssueCertificate(ctx, actor, IssueCertificateInput{
		Scope:    ScopeCourse,
		CourseID: "react-fundamentals",
		ModuleID: "rf-mod-1",
	})
	if record == nil {
		t.Fatalf("issuance returned nil")
	}
	if record.ModuleID != "" {
		t.Fatalf("course-scope certificate kept moduleId %q", record.ModuleID)
	}
}

func TestFirstCompletionIssuesCertificate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	actor := testActor("asha@example.com")

	svc.MarkCompleted(ctx, actor, "react-fundamentals")

	completions := svc.Completions(ctx, actor.Key)
	if len(completions) != 1 || completions[0].CourseID != "react-fundamentals" {
		t.Fatalf("completions = %+v, want one react-fundamentals record", completions)
	}

	certificates := svc.Certificates(ctx, actor.Key)
	if len(certificates) != 1 {
		t.Fatalf("certificates = %d, want 1", len(certificates))
	}
	cert := certificates[0]
	if cert.Scope != ScopeCourse || cert.CourseID != "react-fundamentals" || cert.ModuleID != "" {
		t.Fatalf("unexpected certificate %+v", cert)
	}

	ledger := svc.LedgerEntries(ctx)
	if len(ledger) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(ledger))
	}
	if ledger[0].VerificationCode != cert.VerificationCode || ledger[0].AccountKey != actor.Key {
		t.Fatalf("ledger entry %+v does not match certificate", ledger[0])
	}
}

func TestLedgerIsolationAcrossAccounts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	asha := testActor("asha@example.com")
	bode := testActor("bode@example.com")

	input := IssueCertificateInput{Scope: ScopeCourse, CourseID: "react-fundamentals"}
	first := svc.IssueCertificate(ctx, asha, input)
	second := svc.IssueCertificate(ctx, bode, input)
	if first == nil || second == nil {
		t.Fatalf("issuance returned nil")
	}
	if first.VerificationCode == second.VerificationCode {
		t.Fatalf("accounts share verification code %q", first.VerificationCode)
	}

	if got := len(svc.Certificates(ctx, asha.Key)); got != 1 {
		t.Fatalf("asha certificates = %d, want 1", got)
	}
	if got := len(svc.Certificates(ctx, bode.Key)); got != 1 {
		t.Fatalf("bode certificates = %d, want 1", got)
	}

	ledger := svc.LedgerEntries(ctx)
	if len(ledger) != 2 {
		t.Fatalf("ledger entries = %d, want 2", len(ledger))
	}
	keys := map[string]bool{}
	for _, entry := range ledger {
		keys[entry.AccountKey] = true
	}
	if !keys[asha.Key] || !keys[bode.Key] {
		t.Fatalf("ledger account keys = %v, want both accounts", keys)
	}
}

func TestTierFixedAtIssuance(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	actor := testActor("asha@example.com")
	actor.Subscription = "premium"

	record := svc.IssueCertificate(ctx, actor, IssueCertificateInput{CourseID: "react-fundamentals"})
	if record == nil {
		t.Fatalf("issuance returned nil")
	}
	if record.Tier != TierElite {
		t.Fatalf("tier = %q, want %q", record.Tier, TierElite)
	}
	if record.Signature.Name != signatureRegistry[TierElite].Name {
		t.Fatalf("signature = %+v, want the elite signer", record.Signature)
	}

	// A later downgrade must not retier the held certificate.
	actor.Subscription = "free"
	again := svc.IssueCertificate(ctx, actor, IssueCertificateInput{CourseID: "react-fundamentals"})
	if again.Tier != TierElite {
		t.Fatalf("tier after downgrade = %q, want %q", again.Tier, TierElite)
	}
}

func TestSynthesizedTitleAndHighlights(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	actor := testActor("asha@example.com")

	record := svc.IssueCertificate(ctx, actor, IssueCertificateInput{CourseID: "react-fundamentals"})
	if record == nil {
		t.Fatalf("issuance returned nil")
	}
	if !strings.Contains(record.Title, "Certificate of Completion") {
		t.Fatalf("title = %q, want synthesized completion title", record.Title)
	}
	if len(record.Highlights) == 0 {
		t.Fatalf("expected synthesized highlights")
	}
}

func TestVerifyByCode(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	actor := testActor("asha@example.com")

	record := svc.IssueCertificate(ctx, actor, IssueCertificateInput{CourseID: "react-fundamentals"})
	if record == nil {
		t.Fatalf("issuance returned nil")
	}

	entry := svc.VerifyByCode(ctx, "  "+strings.ToLower(record.VerificationCode)+" ")
	if entry == nil {
		t.Fatalf("verification failed for issued code")
	}
	if entry.ID != record.ID || entry.AccountKey != actor.Key {
		t.Fatalf("verification returned %+v, want certificate %q", entry, record.ID)
	}
	if svc.VerifyByCode(ctx, "NOPE12345678") != nil {
		t.Fatalf("verification matched an unknown code")
	}
}

func TestVerificationCodeShape(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	actor := testActor("asha@example.com")

	record := svc.IssueCertificate(ctx, actor, IssueCertificateInput{CourseID: "react-fundamentals"})
	if record == nil {
		t.Fatalf("issuance returned nil")
	}
	code := record.VerificationCode
	if len(code) != 12 {
		t.Fatalf("code length = %d, want 12", len(code))
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			t.Fatalf("code %q contains %q", code, r)
		}
	}
}

type recordingMirror struct {
	entries []CertificateLedgerEntry
}

func (m *recordingMirror) Record(_ context.Context, entry CertificateLedgerEntry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func TestMirrorsReceiveLedgerAppends(t *testing.T) {
	ctx := context.Background()
	mirror := &recordingMirror{}
	svc := NewService(newMemKV(), catalog.New(), mirror)
	actor := testActor("asha@example.com")

	input := IssueCertificateInput{CourseID: "react-fundamentals"}
	svc.IssueCertificate(ctx, actor, input)
	svc.IssueCertificate(ctx, actor, input)

	if len(mirror.entries) != 1 {
		t.Fatalf("mirror received %d entries, want 1", len(mirror.entries))
	}
	if mirror.entries[0].AccountKey != actor.Key {
		t.Fatalf("mirror entry account = %q, want %q", mirror.entries[0].AccountKey, actor.Key)
	}
}
