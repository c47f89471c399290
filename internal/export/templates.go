package export

import (
	"bytes"
	"html/template"
	"strings"
	"time"
)

var certificateTemplate *template.Template

func init() {
	funcMap := template.FuncMap{
		"lower": strings.ToLower,
		"formatDate": func(t time.Time, layout string) string {
			return t.Format(layout)
		},
	}
	certificateTemplate = template.Must(template.New("certificate").Funcs(funcMap).Parse(certificateHTML))
}

// TemplateData holds data for certificate template rendering
type TemplateData struct {
	Title            string
	RecipientName    string
	CourseTitle      string
	ModuleTitle      string
	IssuedAt         time.Time
	Tier             string
	VerificationCode string
	SignatureName    string
	SignatureTitle   string
	IssuedBy         string
	Highlights       []string
}

// RenderCertificateHTML renders the certificate template with provided data
func RenderCertificateHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := certificateTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const certificateHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    @page { size: landscape; }
    body { font-family: Georgia, serif; color: #1f2430; margin: 0; }
    .certificate { max-width: 920px; margin: 2rem auto; padding: 3rem 4rem; border: 6px double #2b3a67; text-align: center; }
    .issuer { text-transform: uppercase; letter-spacing: 0.3em; font-size: 0.8rem; color: #2b3a67; }
    h1 { font-size: 2rem; margin: 1.5rem 0 0.5rem; }
    .recipient { font-size: 1.6rem; margin: 1.5rem 0; border-bottom: 1px solid #2b3a67; display: inline-block; padding: 0 2rem 0.25rem; }
    .tier { display: inline-block; margin-top: 0.5rem; padding: 0.2rem 1rem; border-radius: 1rem; font-size: 0.85rem; }
    .tier-free { background: #e8ecf5; color: #2b3a67; }
    .tier-pro { background: #fbe8d3; color: #8a5a17; }
    .tier-elite { background: #e9defa; color: #5a2b8a; }
    .highlights { list-style: none; padding: 0; margin: 1.5rem 0; color: #4a5168; }
    .highlights li { margin: 0.25rem 0; }
    .footer { display: flex; justify-content: space-between; margin-top: 3rem; font-size: 0.9rem; }
    .signature { text-align: left; }
    .signature .name { font-weight: bold; }
    .verification { text-align: right; color: #4a5168; }
    .verification .code { font-family: "Courier New", monospace; letter-spacing: 0.15em; }
  </style>
</head>
<body>
  <div class="certificate">
    <div class="issuer">{{.IssuedBy}}</div>
    <h1>{{.Title}}</h1>
    <p>This certifies that</p>
    <div class="recipient">{{.RecipientName}}</div>
    <p>has successfully completed
      {{if .ModuleTitle}}<strong>{{.ModuleTitle}}</strong> of {{end}}<strong>{{.CourseTitle}}</strong>
    </p>
    <span class="tier tier-{{lower .Tier}}">{{.Tier}} tier</span>
    {{if .Highlights}}
    <ul class="highlights">
      {{range .Highlights}}<li>{{.}}</li>{{end}}
    </ul>
    {{end}}
    <div class="footer">
      <div class="signature">
        <div class="name">{{.SignatureName}}</div>
        <div>{{.SignatureTitle}}</div>
      </div>
      <div class="verification">
        <div>Issued {{formatDate .IssuedAt "January 2, 2006"}}</div>
        <div class="code">{{.VerificationCode}}</div>
      </div>
    </div>
  </div>
</body>
</html>`
