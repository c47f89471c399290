package export

import (
	"context"
	"fmt"

	"skillforge/api/internal/catalog"
	"skillforge/api/internal/progress"
)

// Service renders certificates for download
type Service struct {
	catalog *catalog.Catalog
}

func NewService(cat *catalog.Catalog) *Service {
	return &Service{catalog: cat}
}

// Export renders the certificate in the requested format
func (s *Service) Export(ctx context.Context, record progress.CertificateRecord, format Format) (*Result, error) {
	html, err := RenderCertificateHTML(s.templateData(record))
	if err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}

	switch format {
	case FormatHTML:
		return &Result{
			Data:     []byte(html),
			Filename: sanitizeFilename(record.Title) + ".html",
			MimeType: "text/html; charset=utf-8",
		}, nil
	case FormatPDF:
		return exportPDF(html, record.Title)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func (s *Service) templateData(record progress.CertificateRecord) TemplateData {
	courseTitle := record.CourseID
	moduleTitle := ""
	if course, ok := s.catalog.CourseByID(record.CourseID); ok {
		courseTitle = course.Title
	}
	if record.ModuleID != "" {
		moduleTitle = record.ModuleID
		if module, ok := s.catalog.ModuleByID(record.CourseID, record.ModuleID); ok {
			moduleTitle = module.Title
		}
	}
	return TemplateData{
		Title:            record.Title,
		RecipientName:    record.RecipientName,
		CourseTitle:      courseTitle,
		ModuleTitle:      moduleTitle,
		IssuedAt:         record.IssuedAt,
		Tier:             record.Tier,
		VerificationCode: record.VerificationCode,
		SignatureName:    record.Signature.Name,
		SignatureTitle:   record.Signature.Title,
		IssuedBy:         record.IssuedBy,
		Highlights:       record.Highlights,
	}
}
