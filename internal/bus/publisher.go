package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/anchor/internal/placement"
)

// Conn is the publishing side of *nats.Conn.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher sends render commands and location requests. It implements
// placement.Renderer and tracker.LocationRequester.
type Publisher struct {
	conn     Conn
	subjects Subjects
	log      *slog.Logger
	now      func() time.Time
}

// NewPublisher creates a publisher on conn.
func NewPublisher(conn Conn, subjects Subjects, log *slog.Logger) *Publisher {
	return &Publisher{conn: conn, subjects: subjects, log: log, now: time.Now}
}

// AddNode publishes the first placement of a node.
func (p *Publisher) AddNode(ctx context.Context, update placement.Update) error {
	return p.render(ctx, p.subjects.RenderAdd, update)
}

// UpdateNode publishes an update of an already placed node.
func (p *Publisher) UpdateNode(ctx context.Context, update placement.Update) error {
	return p.render(ctx, p.subjects.RenderUpdate, update)
}

// RequestLocation asks the location service for one fix.
func (p *Publisher) RequestLocation(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(locationRequestMessage{RequestedAt: p.now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode location request: %w", err)
	}

	return p.publish(ctx, p.subjects.LocationRequest, data)
}

func (p *Publisher) render(ctx context.Context, subject string, update placement.Update) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeRender(update)
	if err != nil {
		return fmt.Errorf("failed to encode render command: %w", err)
	}

	return p.publish(ctx, subject, data)
}

func (p *Publisher) publish(ctx context.Context, subject string, data []byte) error {
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	p.log.DebugContext(ctx, "Message published", "subject", subject, "bytes", len(data))
	return nil
}
