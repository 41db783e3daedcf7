package email

// Request is a validated and sanitized send-email payload.
type Request struct {
	To          []string `json:"to" validate:"required,min=1,dive,email"`
	Subject     string   `json:"subject" validate:"required"`
	Body        string   `json:"body" validate:"required"`
	Attachments []string `json:"attachments,omitempty" validate:"omitempty,min=1,dive,http_url"`
}

// Message is what a Mailer delivers.
type Message struct {
	To          []string
	Subject     string
	Body        string
	ContentType string
}

const ContentTypeHTML = "text/html; charset=UTF-8"

const (
	MsgSent    = "Email was sent successfully."
	MsgNotSent = "Email was not sent. Something went wrong."
)
