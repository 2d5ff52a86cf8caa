package bus_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/UnknownOlympus/anchor/internal/bus"
	"github.com/UnknownOlympus/anchor/internal/placement"
	"github.com/UnknownOlympus/anchor/internal/tracker"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ placement.Renderer        = (*bus.Publisher)(nil)
	_ tracker.LocationRequester = (*bus.Publisher)(nil)
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	messages []published
	err      error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, published{subject: subject, data: data})
	return nil
}

func TestPublisher(t *testing.T) {
	subjects := bus.NewSubjects("anchor")
	update := placement.Update{
		Node:      "shipMesh",
		Rotation:  mgl64.HomogRotate3DY(0.5),
		Pivot:     mgl64.Translate3D(0, 1, 0),
		Position:  mgl64.Vec3{42.86, 0, -11.58},
		Scale:     3,
		Animation: time.Second,
	}

	t.Run("add node", func(t *testing.T) {
		conn := &fakeConn{}
		publisher := bus.NewPublisher(conn, subjects, slog.Default())

		require.NoError(t, publisher.AddNode(t.Context(), update))

		require.Len(t, conn.messages, 1)
		assert.Equal(t, "anchor.render.add", conn.messages[0].subject)

		var body struct {
			Node             string      `json:"node"`
			Rotation         [16]float64 `json:"rotation"`
			Pivot            [16]float64 `json:"pivot"`
			Position         [3]float64  `json:"position"`
			Scale            float64     `json:"scale"`
			AnimationSeconds float64     `json:"animation_seconds"`
		}
		require.NoError(t, json.Unmarshal(conn.messages[0].data, &body))
		assert.Equal(t, "shipMesh", body.Node)
		assert.Equal(t, [16]float64(update.Rotation), body.Rotation)
		assert.Equal(t, [16]float64(update.Pivot), body.Pivot)
		assert.Equal(t, [3]float64{42.86, 0, -11.58}, body.Position)
		assert.InDelta(t, 3, body.Scale, 0)
		assert.InDelta(t, 1, body.AnimationSeconds, 0)
	})

	t.Run("update node", func(t *testing.T) {
		conn := &fakeConn{}
		publisher := bus.NewPublisher(conn, subjects, slog.Default())

		require.NoError(t, publisher.UpdateNode(t.Context(), update))

		require.Len(t, conn.messages, 1)
		assert.Equal(t, "anchor.render.update", conn.messages[0].subject)
	})

	t.Run("request location", func(t *testing.T) {
		conn := &fakeConn{}
		publisher := bus.NewPublisher(conn, subjects, slog.Default())

		require.NoError(t, publisher.RequestLocation(t.Context()))

		require.Len(t, conn.messages, 1)
		assert.Equal(t, "anchor.location.request", conn.messages[0].subject)
		assert.Contains(t, string(conn.messages[0].data), "requested_at")
	})

	t.Run("publish error", func(t *testing.T) {
		conn := &fakeConn{err: assert.AnError}
		publisher := bus.NewPublisher(conn, subjects, slog.Default())

		err := publisher.AddNode(t.Context(), update)

		require.ErrorIs(t, err, assert.AnError)
		require.ErrorContains(t, err, "failed to publish to anchor.render.add")
	})

	t.Run("cancelled context publishes nothing", func(t *testing.T) {
		conn := &fakeConn{}
		publisher := bus.NewPublisher(conn, subjects, slog.Default())
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		require.ErrorIs(t, publisher.UpdateNode(ctx, update), context.Canceled)
		require.ErrorIs(t, publisher.RequestLocation(ctx), context.Canceled)
		assert.Empty(t, conn.messages)
	})
}
