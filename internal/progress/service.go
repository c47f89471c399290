package progress

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"skillforge/api/internal/catalog"
	"skillforge/api/internal/store"
)

const (
	keyCompletions  = "progress:completions"
	keyMentor       = "progress:mentor"
	keyStudio       = "progress:studio"
	keyCertificates = "progress:certificates"
	keyLedger       = "progress:ledger"
)

// LedgerMirror receives every new ledger entry after it is persisted.
// Mirrors are best-effort; failures are logged and never block issuance.
type LedgerMirror interface {
	Record(ctx context.Context, entry CertificateLedgerEntry) error
}

// Service owns the in-memory state of all progress collections and writes
// them through to the KV store after each mutation. The in-memory state is
// authoritative for the session: persistence failures are logged, not
// surfaced.
type Service struct {
	kv      store.KV
	catalog *catalog.Catalog
	mirrors []LedgerMirror
	now     func() time.Time

	mu           sync.Mutex
	completions  map[string][]CompletionRecord
	mentor       map[string][]MentorSessionRecord
	studio       map[string][]StudioSessionRecord
	certificates map[string][]CertificateRecord
	ledger       []CertificateLedgerEntry
	loaded       map[string]bool
}

func NewService(kv store.KV, cat *catalog.Catalog, mirrors ...LedgerMirror) *Service {
	return &Service{
		kv:           kv,
		catalog:      cat,
		mirrors:      mirrors,
		now:          time.Now,
		completions:  make(map[string][]CompletionRecord),
		mentor:       make(map[string][]MentorSessionRecord),
		studio:       make(map[string][]StudioSessionRecord),
		certificates: make(map[string][]CertificateRecord),
		loaded:       make(map[string]bool),
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.kv.Ping(ctx)
}

// AddMirror registers a ledger mirror after construction, for mirrors that
// themselves read from this service. Call before serving requests.
func (s *Service) AddMirror(mirror LedgerMirror) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mirrors = append(s.mirrors, mirror)
}

// decodeAccountMap splits a stored top-level value into per-account raw
// collections. A top-level array is the legacy single-account format and is
// attributed to the anonymous account; a top-level object is the
// multi-account map. Anything else degrades to empty.
func decodeAccountMap(key string, raw json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage)
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return out
	}
	switch trimmed[0] {
	case '[':
		out[AnonymousKey] = trimmed
	case '{':
		if err := json.Unmarshal(trimmed, &out); err != nil {
			log.Printf("progress: decode %s: %v", key, err)
			return make(map[string]json.RawMessage)
		}
	default:
		log.Printf("progress: decode %s: unexpected top-level value, treating as empty", key)
	}
	return out
}

func (s *Service) ensureCompletions(ctx context.Context) {
	if s.loaded[keyCompletions] {
		return
	}
	for account, raw := range decodeAccountMap(keyCompletions, s.kv.Load(ctx, keyCompletions)) {
		s.completions[account] = normalizeCompletions(raw, s.now)
	}
	s.loaded[keyCompletions] = true
}

func (s *Service) ensureMentor(ctx context.Context) {
	if s.loaded[keyMentor] {
		return
	}
	for account, raw := range decodeAccountMap(keyMentor, s.kv.Load(ctx, keyMentor)) {
		s.mentor[account] = normalizeMentorSessions(raw, s.now)
	}
	s.loaded[keyMentor] = true
}

func (s *Service) ensureStudio(ctx context.Context) {
	if s.loaded[keyStudio] {
		return
	}
	for account, raw := range decodeAccountMap(keyStudio, s.kv.Load(ctx, keyStudio)) {
		s.studio[account] = normalizeStudioSessions(raw, s.now)
	}
	s.loaded[keyStudio] = true
}

func (s *Service) ensureCertificates(ctx context.Context) {
	if s.loaded[keyCertificates] {
		return
	}
	for account, raw := range decodeAccountMap(keyCertificates, s.kv.Load(ctx, keyCertificates)) {
		s.certificates[account] = normalizeCertificates(raw, s.now)
	}
	s.loaded[keyCertificates] = true
}

func (s *Service) ensureLedger(ctx context.Context) {
	if s.loaded[keyLedger] {
		return
	}
	s.ledger = normalizeLedger(s.kv.Load(ctx, keyLedger), s.now)
	s.loaded[keyLedger] = true
}

func (s *Service) persist(ctx context.Context, key string, value any) {
	if err := s.kv.Save(ctx, key, value); err != nil {
		log.Printf("progress: persist %s: %v", key, err)
	}
}

func (s *Service) persistCompletions(ctx context.Context)  { s.persist(ctx, keyCompletions, s.completions) }
func (s *Service) persistMentor(ctx context.Context)       { s.persist(ctx, keyMentor, s.mentor) }
func (s *Service) persistStudio(ctx context.Context)       { s.persist(ctx, keyStudio, s.studio) }
func (s *Service) persistCertificates(ctx context.Context) { s.persist(ctx, keyCertificates, s.certificates) }
func (s *Service) persistLedger(ctx context.Context)       { s.persist(ctx, keyLedger, s.ledger) }
