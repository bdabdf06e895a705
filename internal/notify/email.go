// internal/notify/email.go
package notify

import (
	"context"
	"fmt"
	"strings"

	"finregx-backend/internal/common/config"
	"finregx-backend/internal/common/logger"
	"finregx-backend/internal/models"
)

// Sender sends a plain-text email. Satisfied by the SES client.
type Sender interface {
	SendPlainText(ctx context.Context, from, to, subject, body string) error
}

// Notifier emails startups when their assessment completes. Delivery is
// best effort: a send failure is logged and never affects the assessment.
type Notifier struct {
	sender Sender
	from   string
	log    logger.Logger
}

// New returns nil when email notifications are disabled or no sender is
// available; callers treat a nil Notifier as a no-op.
func New(sender Sender, cfg config.NotificationConfig, log logger.Logger) *Notifier {
	if !cfg.Email.Enabled || sender == nil {
		return nil
	}
	return &Notifier{sender: sender, from: cfg.Email.FromEmail, log: log}
}

// AssessmentCompleted emails the readiness summary to the startup contact.
func (n *Notifier) AssessmentCompleted(ctx context.Context, a *models.Assessment) {
	if n == nil || a.ContactEmail == "" || a.Score == nil {
		return
	}

	subject := fmt.Sprintf("Regulatory readiness assessment for %s", a.StartupName)
	if err := n.sender.SendPlainText(ctx, n.from, a.ContactEmail, subject, completionBody(a)); err != nil {
		n.log.Warn("completion email failed", map[string]interface{}{
			"assessment_id": a.ID,
			"to":            a.ContactEmail,
			"error":         err.Error(),
		})
		return
	}
	n.log.Info("completion email sent", map[string]interface{}{
		"assessment_id": a.ID,
		"to":            a.ContactEmail,
	})
}

func completionBody(a *models.Assessment) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Dear %s team,\n\n", a.StartupName)
	fmt.Fprintf(&sb, "Your regulatory readiness assessment is complete.\n\n")
	fmt.Fprintf(&sb, "Overall score: %.1f / 100 (%s)\n", a.Score.OverallScore, a.Score.ReadinessLevel)
	fmt.Fprintf(&sb, "Identified gaps: %d (high: %d, medium: %d, low: %d)\n\n",
		a.Score.TotalGaps, a.Score.HighSeverityGaps, a.Score.MediumSeverityGaps, a.Score.LowSeverityGaps)

	if len(a.Gaps) > 0 {
		sb.WriteString("Top findings:\n")
		for i, g := range a.Gaps {
			if i == 5 {
				break
			}
			fmt.Fprintf(&sb, "  - [%s] %s: %s\n", g.Severity, g.ArticleName, g.Recommendation)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("The full report is available through your assessment record.\n")
	return sb.String()
}
