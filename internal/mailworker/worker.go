// Package mailworker turns queued EmailJob messages into sent emails.
package mailworker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/inkwell/pkg/helpers"
	"github.com/oksasatya/inkwell/pkg/mailer"
	mailtpl "github.com/oksasatya/inkwell/pkg/mailer/templates"
)

// DefaultSendTimeout bounds one Sender.Send call when Worker.SendTimeout is zero.
const DefaultSendTimeout = 15 * time.Second

// ErrBadJob marks messages that can never be delivered and must not be requeued.
var ErrBadJob = errors.New("bad email job")

// Sender is satisfied by mailer.Mailgun.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string, tags ...string) error
}

type Worker struct {
	Sender      Sender
	Logger      *logrus.Logger
	SendTimeout time.Duration
}

// Prepare renders the job. A template wins over a literal body; a missing
// subject falls back to the per-template default.
func Prepare(job *mailer.EmailJob) (subject, text, html string, err error) {
	helpers.EnsureRecipient(job)
	if job.To == "" {
		return "", "", "", fmt.Errorf("%w: no recipient", ErrBadJob)
	}
	subject, text, html = job.Subject, job.Text, job.HTML
	if job.Template != "" {
		s, t, h, rerr := mailtpl.Render(job.Template, job.Data)
		if rerr != nil {
			return "", "", "", fmt.Errorf("%w: render %s: %v", ErrBadJob, job.Template, rerr)
		}
		text, html = t, h
		if s != "" {
			subject = s
		}
	}
	if text == "" && html == "" {
		return "", "", "", fmt.Errorf("%w: empty body", ErrBadJob)
	}
	if subject == "" {
		subject = helpers.SubjectFor(job.Template)
	}
	return subject, text, html, nil
}

// Handle decodes and delivers one message body.
func (w *Worker) Handle(ctx context.Context, body []byte) error {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("%w: %v", ErrBadJob, err)
	}
	subject, text, html, err := Prepare(&job)
	if err != nil {
		return err
	}
	var tags []string
	if job.Template != "" {
		tags = append(tags, job.Template)
	}
	timeout := w.SendTimeout
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	c, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return w.Sender.Send(c, job.To, subject, text, html, tags...)
}

// Run acks delivered messages, drops bad ones and requeues transient send
// failures. It returns when deliveries closes or ctx is done.
func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-deliveries:
			if !ok {
				return
			}
			err := w.Handle(ctx, msg.Body)
			switch {
			case err == nil:
				_ = msg.Ack(false)
			case errors.Is(err, ErrBadJob):
				w.Logger.WithError(err).Warn("dropping email job")
				_ = msg.Nack(false, false)
			default:
				w.Logger.WithError(err).Error("send failed, requeueing")
				_ = msg.Nack(false, true)
			}
		}
	}
}
