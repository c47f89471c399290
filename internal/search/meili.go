package search

import (
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
)

const idxCertificates = "skillforge_certificates"

// Meili indexes and searches the certificate ledger via Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures the certificate
// index. An unreachable server is tolerated; the health loop picks it up
// when it comes back.
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        idxCertificates,
		PrimaryKey: "id",
	}); err != nil {
		log.Printf("search: create index %s (may already exist): %v", idxCertificates, err)
	}

	index := m.client.Index(idxCertificates)
	filterable := []interface{}{"tier", "courseId", "accountKey"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		log.Printf("search: update filterable attrs for %s: %v", idxCertificates, err)
	}
	searchable := []string{"recipientName", "title", "verificationCode"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("search: update searchable attrs for %s: %v", idxCertificates, err)
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Search queries the certificate index.
func (m *Meili) Search(q Query) ([]CertificateDoc, int, error) {
	if !m.healthy.Load() {
		return nil, 0, fmt.Errorf("meilisearch unhealthy")
	}

	limit := int64(q.Limit)
	if limit == 0 {
		limit = 20
	}

	sr := &meili.SearchRequest{
		Limit:  limit,
		Offset: int64(q.Offset),
	}
	var filters []string
	if q.Tier != "" {
		filters = append(filters, fmt.Sprintf("tier = %q", q.Tier))
	}
	if q.CourseID != "" {
		filters = append(filters, fmt.Sprintf("courseId = %q", q.CourseID))
	}
	if len(filters) > 0 {
		sr.Filter = filters
	}

	resp, err := m.client.Index(idxCertificates).Search(q.Text, sr)
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch search: %w", err)
	}

	results := make([]CertificateDoc, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		results = append(results, hitToDoc(hit))
	}
	return results, int(resp.EstimatedTotalHits), nil
}

func hitToDoc(hit meili.Hit) CertificateDoc {
	doc := CertificateDoc{
		ID:               decodeString(hit, "id"),
		VerificationCode: decodeString(hit, "verificationCode"),
		Title:            decodeString(hit, "title"),
		RecipientName:    decodeString(hit, "recipientName"),
		CourseID:         decodeString(hit, "courseId"),
		Tier:             decodeString(hit, "tier"),
		AccountKey:       decodeString(hit, "accountKey"),
	}
	if raw, ok := hit["issuedAt"]; ok {
		var issued time.Time
		if err := json.Unmarshal(raw, &issued); err == nil {
			doc.IssuedAt = issued
		}
	}
	return doc
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

// IndexCertificate adds or updates one certificate in the index.
func (m *Meili) IndexCertificate(doc CertificateDoc) error {
	_, err := m.client.Index(idxCertificates).AddDocuments([]CertificateDoc{doc}, nil)
	return err
}

// IndexCertificates bulk-indexes certificates.
func (m *Meili) IndexCertificates(docs []CertificateDoc) error {
	if len(docs) == 0 {
		return nil
	}
	_, err := m.client.Index(idxCertificates).AddDocuments(docs, nil)
	return err
}
