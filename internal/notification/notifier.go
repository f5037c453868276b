package notification

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/inkwell/pkg/mailer"
)

// Message is one rendered-ready notification for a single recipient.
type Message struct {
	Kind     Kind
	To       string
	Name     string
	Subject  string
	Template string
	Data     map[string]any
}

type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// LogNotifier writes notifications to the log. Used when mail is disabled.
type LogNotifier struct {
	Logger *logrus.Logger
}

func (n LogNotifier) Notify(_ context.Context, msg Message) error {
	if n.Logger == nil {
		return nil
	}
	n.Logger.WithFields(logrus.Fields{
		"kind":     msg.Kind,
		"to":       msg.To,
		"template": msg.Template,
	}).Info(msg.Subject)
	return nil
}

// Publisher is satisfied by helpers.RabbitPublisher.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// MailNotifier hands notifications to the email worker as mailer.EmailJob messages.
type MailNotifier struct {
	Pub Publisher
}

func (n MailNotifier) Notify(ctx context.Context, msg Message) error {
	if n.Pub == nil {
		return errors.New("mail publisher not configured")
	}
	if msg.To == "" {
		return errors.New("notification without recipient")
	}
	job := mailer.EmailJob{To: msg.To, Subject: msg.Subject, Template: msg.Template, Data: msg.Data}
	return n.Pub.PublishJSON(ctx, job)
}

// Fanout delivers to every notifier and joins their errors.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range f {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
