// Package bus connects the session to the outside world over NATS: location and motion
// events come in on one ordered channel, render commands and location requests go out.
package bus

import (
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultPrefix is the subject prefix used when none is configured.
const DefaultPrefix = "anchor"

// Subjects lists every subject the application uses.
type Subjects struct {
	Authorization   string // Inbound authorization changes.
	Fixes           string // Inbound batches of location fixes.
	Heading         string // Inbound observer headings.
	RenderAdd       string // Outbound first placement of a node.
	RenderUpdate    string // Outbound animated update of a placed node.
	LocationRequest string // Outbound one-shot location request.
}

// NewSubjects derives the subjects from prefix.
func NewSubjects(prefix string) Subjects {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	return Subjects{
		Authorization:   prefix + ".location.authorization",
		Fixes:           prefix + ".location.fixes",
		Heading:         prefix + ".motion.heading",
		RenderAdd:       prefix + ".render.add",
		RenderUpdate:    prefix + ".render.update",
		LocationRequest: prefix + ".location.request",
	}
}

// Connect opens a connection that keeps reconnecting for the lifetime of the process.
func Connect(url string, log *slog.Logger) (*nats.Conn, error) {
	const reconnectWait = 2 * time.Second

	return nats.Connect(url,
		nats.Name("anchor"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(reconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("NATS connection lost", "error", err)
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			log.Info("NATS connection restored", "url", conn.ConnectedUrl())
		}),
	)
}
