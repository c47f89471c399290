package search

import (
	"context"
	"log"

	"skillforge/api/internal/progress"
)

// Service is the facade that tries Meilisearch first and falls back to a
// ledger scan. It also acts as a ledger mirror so new certificates reach the
// index as they are issued.
type Service struct {
	meili    *Meili
	fallback *LedgerScan
}

// NewService creates a search service. meili may be nil when Meilisearch is
// not configured.
func NewService(meili *Meili, fallback *LedgerScan) *Service {
	return &Service{meili: meili, fallback: fallback}
}

// Search tries Meilisearch if healthy, otherwise scans the ledger.
func (s *Service) Search(ctx context.Context, q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to ledger scan: %v", err)
	}
	results, total := s.fallback.Search(ctx, q)
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// Record indexes a new ledger entry (fire-and-forget to Meilisearch).
func (s *Service) Record(_ context.Context, entry progress.CertificateLedgerEntry) error {
	if s.meili == nil || !s.meili.Healthy() {
		return nil
	}
	doc := DocFromEntry(entry)
	go func() {
		if err := s.meili.IndexCertificate(doc); err != nil {
			log.Printf("search: index certificate %s: %v", doc.VerificationCode, err)
		}
	}()
	return nil
}

// ReindexAll pushes the whole ledger into Meilisearch, for bootstrap after
// the index was wiped.
func (s *Service) ReindexAll(ctx context.Context) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	entries := s.fallback.source.LedgerEntries(ctx)
	docs := make([]CertificateDoc, 0, len(entries))
	for _, entry := range entries {
		docs = append(docs, DocFromEntry(entry))
	}
	if err := s.meili.IndexCertificates(docs); err != nil {
		log.Printf("search: reindex certificates: %v", err)
	}
}

func nonNil(docs []CertificateDoc) []CertificateDoc {
	if docs == nil {
		return []CertificateDoc{}
	}
	return docs
}

var _ progress.LedgerMirror = (*Service)(nil)
