package student

import (
	"context"
	"net/mail"

	"github.com/trezcool/classdrive/core"
)

const (
	authorizationTemplate = "student_authorization"
	reminderTemplate      = "student_reminder"
)

// NotificationResult reports whether an email was handed over for delivery.
type NotificationResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type emailData struct {
	StudentName string
	TeacherName string
	SubjectName string
	AuthURL     string
	Domain      string
}

// Notifier sends the consent emails. Failures are reported, never raised.
type Notifier struct {
	mailSvc core.EmailService
	logger  core.Logger
	domain  string
}

func NewNotifier(conf *core.Config, mailSvc core.EmailService, logger core.Logger) *Notifier {
	return &Notifier{
		mailSvc: mailSvc,
		logger:  logger,
		domain:  conf.InstitutionalDomain,
	}
}

func (n *Notifier) SendAuthorizationEmail(ctx context.Context, to, name, authURL, teacherName, subject string) NotificationResult {
	return n.send(ctx, to, "Action Required: Authorize Google Drive access", authorizationTemplate,
		emailData{StudentName: name, TeacherName: teacherName, SubjectName: subject, AuthURL: authURL, Domain: n.domain})
}

func (n *Notifier) SendReminderEmail(ctx context.Context, to, name, authURL, teacherName, subject string) NotificationResult {
	return n.send(ctx, to, "Reminder: Authorize Google Drive access", reminderTemplate,
		emailData{StudentName: name, TeacherName: teacherName, SubjectName: subject, AuthURL: authURL, Domain: n.domain})
}

func (n *Notifier) send(ctx context.Context, to, subject, tmpl string, data emailData) NotificationResult {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: data.StudentName, Address: to}},
		Subject:      subject,
		TemplateName: tmpl,
		TemplateData: data,
	}
	if err := n.mailSvc.Send(ctx, msg); err != nil {
		n.logger.Warn("sending "+tmpl+" email to "+to, err)
		return NotificationResult{Error: err.Error()}
	}
	return NotificationResult{Success: true}
}
