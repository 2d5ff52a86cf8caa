package bus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/anchor/internal/models"
	"github.com/nats-io/nats.go"
)

const defaultBuffer = 64

// Subscriber delivers inbound messages from all subjects through a single channel so
// that events reach the session in arrival order.
type Subscriber struct {
	subjects Subjects
	log      *slog.Logger
	msgs     chan *nats.Msg
	subs     []*nats.Subscription
}

// NewSubscriber subscribes to the authorization, fixes and heading subjects.
func NewSubscriber(conn *nats.Conn, subjects Subjects, log *slog.Logger) (*Subscriber, error) {
	s := &Subscriber{
		subjects: subjects,
		log:      log,
		msgs:     make(chan *nats.Msg, defaultBuffer),
	}

	for _, subject := range []string{subjects.Authorization, subjects.Fixes, subjects.Heading} {
		sub, err := conn.ChanSubscribe(subject, s.msgs)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
		s.subs = append(s.subs, sub)
	}

	return s, nil
}

// Events decodes messages until ctx is cancelled, then closes the returned channel.
func (s *Subscriber) Events(ctx context.Context) <-chan models.Event {
	out := make(chan models.Event)
	go s.forward(ctx, s.msgs, out)

	return out
}

// Close removes every subscription.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		if err := sub.Unsubscribe(); err != nil {
			s.log.Warn("Failed to unsubscribe", "subject", sub.Subject, "error", err)
		}
	}
	s.subs = nil
}

func (s *Subscriber) forward(ctx context.Context, in <-chan *nats.Msg, out chan<- models.Event) {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-in:
			if !ok {
				return
			}

			event, err := s.subjects.Decode(msg.Subject, msg.Data, time.Now())
			if err != nil {
				s.log.WarnContext(ctx, "Dropping undecodable message", "subject", msg.Subject, "error", err)
				continue
			}

			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}
