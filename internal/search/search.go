package search

import (
	"context"
	"time"

	"skillforge/api/internal/progress"
)

// CertificateDoc is the shape indexed for every ledger entry.
type CertificateDoc struct {
	ID               string    `json:"id"`
	VerificationCode string    `json:"verificationCode"`
	Title            string    `json:"title"`
	RecipientName    string    `json:"recipientName"`
	CourseID         string    `json:"courseId"`
	Tier             string    `json:"tier"`
	AccountKey       string    `json:"accountKey"`
	IssuedAt         time.Time `json:"issuedAt"`
}

func DocFromEntry(entry progress.CertificateLedgerEntry) CertificateDoc {
	return CertificateDoc{
		ID:               entry.ID,
		VerificationCode: entry.VerificationCode,
		Title:            entry.Title,
		RecipientName:    entry.RecipientName,
		CourseID:         entry.CourseID,
		Tier:             entry.Tier,
		AccountKey:       entry.AccountKey,
		IssuedAt:         entry.IssuedAt,
	}
}

// Query describes a certificate search request.
type Query struct {
	Text     string
	Tier     string
	CourseID string
	Limit    int
	Offset   int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []CertificateDoc `json:"results"`
	Total   int              `json:"total"`
	Query   string           `json:"query"`
}

// LedgerSource supplies the full ledger for fallback scans and reindexing.
type LedgerSource interface {
	LedgerEntries(ctx context.Context) []progress.CertificateLedgerEntry
}
