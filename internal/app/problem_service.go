package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"healthmate/internal/domain"

	"go.uber.org/zap"
)

// MaxScreenshotBytes is the largest screenshot accepted with a problem report.
const MaxScreenshotBytes = 10 << 20

// ErrReportFailed is returned when a problem report could not be delivered.
var ErrReportFailed = errors.New("failed to report the problem")

// ProblemReport is a user submitted issue.
type ProblemReport struct {
	Email       string
	Description string
	Screenshot  *domain.Attachment
}

// ProblemService relays problem reports to the support mailbox.
type ProblemService struct {
	mailer  domain.Mailer
	support string
	log     *zap.Logger
}

// NewProblemService creates a ProblemService mailing reports to support.
func NewProblemService(mailer domain.Mailer, support string, log *zap.Logger) *ProblemService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProblemService{mailer: mailer, support: support, log: log}
}

// Report validates and mails a problem report with Reply-To set to the reporter.
func (s *ProblemService) Report(ctx context.Context, r ProblemReport) error {
	email := normalizeEmail(r.Email)
	desc := strings.TrimSpace(r.Description)
	if email == "" || desc == "" {
		return invalid("email and description are required")
	}
	if err := validateEmail(email); err != nil {
		return err
	}
	if r.Screenshot != nil && len(r.Screenshot.Data) > MaxScreenshotBytes {
		return invalid("screenshot exceeds %d bytes", MaxScreenshotBytes)
	}

	msg := domain.MailMessage{
		To:      []string{s.support},
		ReplyTo: email,
		Subject: "User Reported Problem",
		Text:    fmt.Sprintf("Email: %s\n\nDescription: %s", email, desc),
	}
	if r.Screenshot != nil {
		msg.Attachments = []domain.Attachment{*r.Screenshot}
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.Error("problem report not delivered", zap.String("reporter", email), zap.Error(err))
		return ErrReportFailed
	}
	s.log.Info("problem reported", zap.String("reporter", email), zap.Bool("screenshot", r.Screenshot != nil))
	return nil
}
