package search

import (
	"context"
	"sort"
	"strings"
)

// LedgerScan is the fallback searcher: a linear scan over the ledger held in
// the progress store. Fine at the scale of one deployment's certificates.
type LedgerScan struct {
	source LedgerSource
}

func NewLedgerScan(source LedgerSource) *LedgerScan {
	return &LedgerScan{source: source}
}

func (l *LedgerScan) Search(ctx context.Context, q Query) ([]CertificateDoc, int) {
	text := strings.ToLower(strings.TrimSpace(q.Text))

	matched := make([]CertificateDoc, 0)
	for _, entry := range l.source.LedgerEntries(ctx) {
		doc := DocFromEntry(entry)
		if q.Tier != "" && doc.Tier != q.Tier {
			continue
		}
		if q.CourseID != "" && doc.CourseID != q.CourseID {
			continue
		}
		if text != "" && !matchesText(doc, text) {
			continue
		}
		matched = append(matched, doc)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].IssuedAt.After(matched[j].IssuedAt)
	})

	total := len(matched)
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []CertificateDoc{}, total
	}
	matched = matched[offset:]
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total
}

func matchesText(doc CertificateDoc, text string) bool {
	return strings.Contains(strings.ToLower(doc.RecipientName), text) ||
		strings.Contains(strings.ToLower(doc.Title), text) ||
		strings.Contains(strings.ToLower(doc.VerificationCode), text)
}
