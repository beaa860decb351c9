package consumerWorker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"eventhub/internal/dto"
	"eventhub/internal/lifecycle"
	"eventhub/internal/mailer"
	"eventhub/internal/model"
	"eventhub/internal/repo"
)

type Consumer interface {
	Consume(ctx context.Context, handler func([]byte) error) error
}

// Reader turns broker notifications into mail. Records are re-read on
// delivery and stale notifications are dropped.
type Reader struct {
	consumer Consumer
	repo     repo.Repository
	mail     mailer.Sender
	log      *zerolog.Logger
	now      func() time.Time

	done   chan struct{}
	cancel context.CancelFunc
}

func NewReader(consumer Consumer, repo repo.Repository, mail mailer.Sender, log *zerolog.Logger) *Reader {
	return &Reader{
		consumer: consumer,
		repo:     repo,
		mail:     mail,
		log:      log,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.log.Info().Msg("notification reader started")
	go func() {
		defer close(r.done)
		err := r.consumer.Consume(cctx, func(body []byte) error {
			return r.Handle(cctx, body)
		})
		if err != nil {
			r.log.Error().Err(err).Msg("failed to consume notifications")
			return
		}
		r.log.Info().Msg("notification reader stopped")
	}()
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}

// Handle processes one message. Returning an error asks for redelivery.
func (r *Reader) Handle(ctx context.Context, body []byte) error {
	var msg dto.NotificationMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		r.log.Error().Err(err).Str("body", string(body)).Msg("dropping malformed message")
		return nil
	}

	r.log.Info().
		Str("kind", string(msg.Kind)).
		Str("registration_id", msg.RegistrationID).
		Str("event_id", msg.EventID).
		Msg("received notification")

	switch msg.Kind {
	case dto.NotifyRegistered, dto.NotifyReminder:
		return r.notifyRegistrant(ctx, msg)
	case dto.NotifyEventCancelled:
		return r.notifyCancelled(ctx, msg.EventID)
	}
	r.log.Warn().Str("kind", string(msg.Kind)).Msg("dropping unknown notification kind")
	return nil
}

func (r *Reader) notifyRegistrant(ctx context.Context, msg dto.NotificationMessage) error {
	reg, err := r.repo.GetRegistrationByID(ctx, msg.RegistrationID)
	if errors.Is(err, repo.ErrRegistrationNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load registration: %w", err)
	}
	if reg.Status == model.RegCancelled {
		r.log.Info().Str("registration_id", reg.ID).Msg("registration cancelled, skipping")
		return nil
	}

	event, err := r.repo.GetEventByID(ctx, reg.EventID)
	if errors.Is(err, repo.ErrEventNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load event: %w", err)
	}

	var subject, body string
	if msg.Kind == dto.NotifyReminder {
		now := r.now()
		if lifecycle.EffectiveStatus(event.Status, event.StartDate, event.EndDate, now) != model.EventUpcoming {
			r.log.Info().Str("event_id", event.ID).Msg("event no longer upcoming, skipping reminder")
			return nil
		}
		subject, body = mailer.ReminderEmail(reg.Student.Name, event.Title, event.Venue, event.StartDate)
	} else {
		subject, body = mailer.RegistrationEmail(reg.Student.Name, event.Title, event.StartDate)
	}
	if reg.Student.Email == "" {
		return nil
	}
	return r.mail.Send(reg.Student.Email, subject, body)
}

// notifyCancelled mails every live registrant. Individual send failures are
// logged and not retried so nobody gets the message twice.
func (r *Reader) notifyCancelled(ctx context.Context, eventID string) error {
	event, err := r.repo.GetEventByID(ctx, eventID)
	if errors.Is(err, repo.ErrEventNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load event: %w", err)
	}
	if event.Status != model.EventCancelled {
		return nil
	}

	regs, err := r.repo.GetRegistrationsByEventID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("load registrations: %w", err)
	}
	sent := 0
	for _, reg := range regs {
		if reg.Student.Email == "" {
			continue
		}
		subject, body := mailer.CancellationEmail(reg.Student.Name, event.Title)
		if err := r.mail.Send(reg.Student.Email, subject, body); err != nil {
			r.log.Warn().Err(err).Str("registration_id", reg.ID).Msg("failed to send cancellation email")
			continue
		}
		sent++
	}
	r.log.Info().Str("event_id", eventID).Int("sent", sent).Msg("cancellation emails sent")
	return nil
}
