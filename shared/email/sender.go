package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"content-strategy/internal/models"
	"content-strategy/shared/config"
)

type Sender struct {
	config *config.EmailConfig
}

func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{
		config: cfg,
	}
}

// SendTrackingReport emails a summary of a scheduled tracking run, one
// section per channel.
func (s *Sender) SendTrackingReport(results []*models.AnalysisResult) error {
	if len(results) == 0 {
		return nil // Nothing to report
	}

	subject := fmt.Sprintf("Competitor Tracking - %d Channels Analyzed (%s)",
		len(results), time.Now().Format("Jan 2, 2006"))

	body, err := renderReport(results)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}

	return s.sendViaSMTP(subject, body)
}

func (s *Sender) sendViaSMTP(subject, body string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)

	to := []string{s.config.ToEmail}
	msg := []byte(fmt.Sprintf(`To: %s
From: %s
Subject: %s
MIME-Version: 1.0
Content-Type: text/html; charset=UTF-8

%s`, s.config.ToEmail, s.config.FromEmail, subject, body))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.FromEmail, to, msg)
}

var reportTemplate = template.Must(template.New("report").Parse(`<html>
<body style="font-family: sans-serif; color: #222;">
<h2>Competitor Tracking Report</h2>
{{range .}}
<h3>{{.ChannelRef}}</h3>
<p>{{.VideosAnalyzed}} of {{.VideosDiscovered}} videos analyzed ({{.VideosSkipped}} skipped)</p>
{{if .ContentGaps}}<p><strong>Content gaps:</strong> {{range $i, $t := .ContentGaps}}{{if $i}}, {{end}}{{$t}}{{end}}</p>{{end}}
{{if .TopPerformingTopics}}<p><strong>Top performing topics:</strong> {{range $i, $t := .TopPerformingTopics}}{{if $i}}, {{end}}{{$t}}{{end}}</p>{{end}}
{{end}}
</body>
</html>`))

func renderReport(results []*models.AnalysisResult) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, results); err != nil {
		return "", err
	}
	return buf.String(), nil
}
