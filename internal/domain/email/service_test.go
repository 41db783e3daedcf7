package email

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, msg Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func TestComposeBody(t *testing.T) {
	assert.Equal(t, "<p>Hi & bye</p>", ComposeBody("&lt;p&gt;Hi &amp; bye&lt;/p&gt;", nil))
	assert.Equal(t,
		"Hi<br><br>Attachments:<br><br>https://example.com/a<br><br>https://example.com/b",
		ComposeBody("Hi", []string{"https://example.com/a", "https://example.com/b"}),
	)
}

func TestService_Send(t *testing.T) {
	mailer := new(mockMailer)
	svc := NewService(mailer)

	mailer.On("Send", mock.Anything, Message{
		To:          []string{"a@example.com"},
		Subject:     "Report",
		Body:        "See below<br><br>Attachments:<br><br>https://example.com/uploads/stream-api/2026/10/a.pdf",
		ContentType: ContentTypeHTML,
	}).Return(nil)

	err := svc.Send(context.Background(), Request{
		To:          []string{"a@example.com"},
		Subject:     "Report",
		Body:        "See below",
		Attachments: []string{"https://example.com/uploads/stream-api/2026/10/a.pdf"},
	})

	assert.NoError(t, err)
	mailer.AssertExpectations(t)
}

func TestService_SendFailure(t *testing.T) {
	mailer := new(mockMailer)
	svc := NewService(mailer)
	mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	err := svc.Send(context.Background(), Request{To: []string{"a@example.com"}, Subject: "s", Body: "b"})
	assert.ErrorIs(t, err, ErrNotSent)
}

func TestService_RejectsInvalidRequest(t *testing.T) {
	mailer := new(mockMailer)
	svc := NewService(mailer)

	err := svc.Send(context.Background(), Request{To: []string{"nope"}, Subject: "s", Body: "b"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}
