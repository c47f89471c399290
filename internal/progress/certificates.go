package progress

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"skillforge/api/internal/util"
)

const issuedBy = "SkillForge Academy"

var signatureRegistry = map[string]SignatureBlock{
	TierFree:  {Name: "Lerato Mokoena", Title: "Director of Learning", PersonaID: "persona-lerato"},
	TierPro:   {Name: "Imani Njeri", Title: "VP of Curriculum", PersonaID: "persona-imani"},
	TierElite: {Name: "Kwame Mensah", Title: "Chief Learning Officer", PersonaID: "persona-kwame"},
}

func signatureFor(tier string) SignatureBlock {
	if signature, ok := signatureRegistry[tier]; ok {
		return signature
	}
	return signatureRegistry[TierFree]
}

// tierForSubscription fixes the certificate tier at issuance time; later
// subscription changes never retier an issued certificate.
func tierForSubscription(status string) string {
	switch status {
	case "premium":
		return TierElite
	case "trial":
		return TierPro
	default:
		return TierFree
	}
}

type IssueCertificateInput struct {
	Scope      string   `json:"scope"`
	CourseID   string   `json:"courseId"`
	ModuleID   string   `json:"moduleId"`
	Title      string   `json:"title"`
	Highlights []string `json:"highlights"`
}

// Certificates returns the account's certificates, most recent first.
func (s *Service) Certificates(ctx context.Context, accountKey string) []CertificateRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureCertificates(ctx)
	return append([]CertificateRecord(nil), s.certificates[accountKey]...)
}

func (s *Service) CertificateByID(ctx context.Context, accountKey, id string) *CertificateRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureCertificates(ctx)
	for _, record := range s.certificates[accountKey] {
		if record.ID == id {
			out := record
			return &out
		}
	}
	return nil
}

// IssueCertificate mints a certificate for (scope, courseId, moduleId),
// returning the existing record unchanged when one is already held. Returns
// nil when the course is not in the catalog.
func (s *Service) IssueCertificate(ctx context.Context, actor Actor, input IssueCertificateInput) *CertificateRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueCertificateLocked(ctx, actor, input)
}

func (s *Service) issueCertificateLocked(ctx context.Context, actor Actor, input IssueCertificateInput) *CertificateRecord {
	s.ensureCertificates(ctx)
	s.ensureLedger(ctx)

	scope := input.Scope
	if _, ok := allowedScopes[scope]; !ok {
		scope = ScopeCourse
	}
	moduleID := strings.TrimSpace(input.ModuleID)
	if scope == ScopeCourse {
		moduleID = ""
	}
	courseID := strings.TrimSpace(input.CourseID)

	for _, record := range s.certificates[actor.Key] {
		if record.Scope == scope && record.CourseID == courseID && record.ModuleID == moduleID {
			out := record
			return &out
		}
	}

	course, ok := s.catalog.CourseByID(courseID)
	if !ok {
		return nil
	}

	tier := tierForSubscription(actor.Subscription)

	moduleTitle := moduleID
	if moduleID != "" {
		if module, found := s.catalog.ModuleByID(courseID, moduleID); found {
			moduleTitle = module.Title
		}
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		if scope == ScopeModule {
			title = fmt.Sprintf("%s: %s", course.Title, moduleTitle)
		} else {
			title = fmt.Sprintf("Certificate of Completion: %s", course.Title)
		}
	}

	highlights := input.Highlights
	if len(highlights) == 0 {
		mastery := fmt.Sprintf("Mastered all %d modules", len(course.Modules))
		if scope == ScopeModule {
			mastery = fmt.Sprintf("Mastered %s", moduleTitle)
		}
		highlights = []string{
			mastery,
			fmt.Sprintf("%s of guided learning", course.DurationLabel),
			fmt.Sprintf("Issued on the %s tier", tier),
		}
	}

	recipient := strings.TrimSpace(actor.Name)
	if recipient == "" {
		recipient = "SkillForge Learner"
	}

	record := CertificateRecord{
		ID:               util.NewID("crt"),
		Scope:            scope,
		CourseID:         courseID,
		ModuleID:         moduleID,
		Title:            title,
		IssuedAt:         s.now(),
		RecipientName:    recipient,
		RecipientEmail:   actor.Email,
		Tier:             tier,
		VerificationCode: s.uniqueVerificationCodeLocked(),
		Signature:        signatureFor(tier),
		IssuedBy:         issuedBy,
		Highlights:       highlights,
	}

	s.certificates[actor.Key] = append([]CertificateRecord{record}, s.certificates[actor.Key]...)
	sort.SliceStable(s.certificates[actor.Key], func(i, j int) bool {
		return s.certificates[actor.Key][i].IssuedAt.After(s.certificates[actor.Key][j].IssuedAt)
	})
	s.persistCertificates(ctx)

	s.appendLedgerLocked(ctx, CertificateLedgerEntry{CertificateRecord: record, AccountKey: actor.Key})

	out := record
	return &out
}

// uniqueVerificationCodeLocked retries generation against the ledger a few
// times. The code space makes collisions negligible; the check is explicit
// anyway since the ledger is right there.
func (s *Service) uniqueVerificationCodeLocked() string {
	for attempt := 0; attempt < 5; attempt++ {
		code := util.NewVerificationCode()
		if !s.ledgerHasCodeLocked(code) {
			return code
		}
	}
	return util.NewVerificationCode()
}

func (s *Service) ledgerHasCodeLocked(code string) bool {
	for _, entry := range s.ledger {
		if entry.VerificationCode == code {
			return true
		}
	}
	return false
}

func (s *Service) appendLedgerLocked(ctx context.Context, entry CertificateLedgerEntry) {
	if s.ledgerHasCodeLocked(entry.VerificationCode) {
		return
	}
	s.ledger = append(s.ledger, entry)
	s.persistLedger(ctx)
	for _, mirror := range s.mirrors {
		if err := mirror.Record(ctx, entry); err != nil {
			log.Printf("ledger: mirror %T: %v", mirror, err)
		}
	}
}

// reconcileCertificatesLocked issues a course-scope certificate for every
// completed course that lacks one, so certificates appear even without an
// explicit IssueCertificate call.
func (s *Service) reconcileCertificatesLocked(ctx context.Context, actor Actor) {
	s.ensureCertificates(ctx)
	held := make(map[string]struct{})
	for _, record := range s.certificates[actor.Key] {
		if record.Scope == ScopeCourse {
			held[record.CourseID] = struct{}{}
		}
	}
	for _, completion := range s.completions[actor.Key] {
		if _, ok := held[completion.CourseID]; ok {
			continue
		}
		s.issueCertificateLocked(ctx, actor, IssueCertificateInput{Scope: ScopeCourse, CourseID: completion.CourseID})
	}
}

// VerifyByCode looks a certificate up in the global cross-account ledger.
func (s *Service) VerifyByCode(ctx context.Context, code string) *CertificateLedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLedger(ctx)
	normalized := strings.ToUpper(strings.TrimSpace(code))
	for _, entry := range s.ledger {
		if entry.VerificationCode == normalized {
			out := entry
			return &out
		}
	}
	return nil
}

// LedgerEntries returns the full cross-account ledger, oldest first.
func (s *Service) LedgerEntries(ctx context.Context) []CertificateLedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLedger(ctx)
	return append([]CertificateLedgerEntry(nil), s.ledger...)
}
