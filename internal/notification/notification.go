// Package notification turns registration and review events into emails to
// the event owner and delivers them through a Dispatcher.
package notification

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/sefazor/events-backend/internal/metrics"
	"github.com/sefazor/events-backend/pkg/email"
)

type Kind string

const (
	KindRegistration Kind = "registration"
	KindReview       Kind = "review"
)

const (
	registrationMessage = "A new registration for your event has arrived!"
	registrationSubject = "New registration for the event"
	reviewMessage       = "A new review of your event has arrived!"
	reviewSubject       = "New review of the event"
)

// Notification is the intent produced by a handler. Recipient is always the
// event owner, Submitter the user who registered or reviewed.
type Notification struct {
	Kind         Kind      `json:"kind"`
	EventID      uint      `json:"event_id"`
	EventTitle   string    `json:"event_title"`
	EventStartAt time.Time `json:"event_start_at"`
	Recipient    string    `json:"recipient"`
	Submitter    string    `json:"submitter"`
}

func (n Notification) Message() string {
	if n.Kind == KindReview {
		return reviewMessage
	}
	return registrationMessage
}

func (n Notification) Subject() string {
	if n.Kind == KindReview {
		return reviewSubject
	}
	return registrationSubject
}

// Dispatcher accepts notifications for delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

//go:embed templates/*.html
var templateFS embed.FS

var emailTemplate = template.Must(template.ParseFS(templateFS, "templates/notification.html"))

// Renderer formats notifications as HTML email messages.
type Renderer struct {
	subjectPrefix string
}

func NewRenderer(subjectPrefix string) *Renderer {
	return &Renderer{subjectPrefix: subjectPrefix}
}

func (r *Renderer) Render(n Notification) (email.Message, error) {
	data := map[string]interface{}{
		"Event":     n.EventTitle,
		"Date":      n.EventStartAt.Format("02.01.2006 15:04 MST"),
		"Email":     n.Submitter,
		"Message":   n.Message(),
		"Year":      time.Now().Year(),
		"EventID":   n.EventID,
		"IsReview":  n.Kind == KindReview,
		"Recipient": n.Recipient,
	}

	var body bytes.Buffer
	if err := emailTemplate.Execute(&body, data); err != nil {
		return email.Message{}, fmt.Errorf("failed to render notification template: %w", err)
	}

	subject := n.Subject()
	if r.subjectPrefix != "" {
		subject = r.subjectPrefix + " " + subject
	}
	return email.Message{
		To:      n.Recipient,
		Subject: subject,
		HTML:    body.String(),
	}, nil
}

// deliver renders and sends one notification, recording the result.
func deliver(ctx context.Context, renderer *Renderer, sender email.Sender, n Notification) error {
	msg, err := renderer.Render(n)
	if err == nil {
		err = sender.Send(ctx, msg)
	}
	if err != nil {
		metrics.Notifications.WithLabelValues(string(n.Kind), "failed").Inc()
		return err
	}
	metrics.Notifications.WithLabelValues(string(n.Kind), "sent").Inc()
	return nil
}
