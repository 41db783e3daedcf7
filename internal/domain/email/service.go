package email

import (
	"context"
	"fmt"
	"html"
	"strings"

	"streamapi/internal/pkg/validator"
)

const attachmentsSeparator = "<br><br>"

// Service composes and dispatches send-email requests.
type Service struct {
	mailer Mailer
}

func NewService(mailer Mailer) *Service {
	return &Service{mailer: mailer}
}

// Send decodes HTML entities in the body, appends attachment links and hands
// the message to the mailer as HTML.
func (s *Service) Send(ctx context.Context, req Request) error {
	if errs := validator.Validate(req); errs != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, errs)
	}

	msg := Message{
		To:          req.To,
		Subject:     req.Subject,
		Body:        ComposeBody(req.Body, req.Attachments),
		ContentType: ContentTypeHTML,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrNotSent, err)
	}
	return nil
}

// ComposeBody returns the HTML body with attachment URLs listed after it.
func ComposeBody(body string, attachments []string) string {
	body = html.UnescapeString(body)
	if len(attachments) == 0 {
		return body
	}
	return body + attachmentsSeparator + "Attachments:" + attachmentsSeparator + strings.Join(attachments, attachmentsSeparator)
}
