package mailer

import (
	"context"
	"time"

	"github.com/eleven-am/coach/internal/logger"
)

// Message is an outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers messages. Concrete transports (SMTP, an API provider) are
// wired by the host application; the core only depends on this interface.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Dispatch sends a message fire-and-forget. Delivery failures are logged and
// never surfaced: the surrounding mutation has already succeeded.
func Dispatch(m Mailer, msg Message) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := m.Send(ctx, msg); err != nil {
			logger.Mail().WithField("to", msg.To).Error("failed to send email: %v", err)
		}
	}()
}

// LogMailer logs messages instead of delivering them. Default in development.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Message) error {
	logger.Mail().WithField("to", msg.To).Info("email (not delivered): %s", msg.Subject)
	return nil
}
