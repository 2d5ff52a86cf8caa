// Package placement owns the transform state of the anchored model.
package placement

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/anchor/internal/scene"
	"github.com/go-gl/mathgl/mgl64"
)

// State is the lifecycle state of the controller.
type State int

const (
	// StateUnplaced means no placement exists yet.
	StateUnplaced State = iota
	// StatePlaced means a placement with a stored reference transform exists.
	StatePlaced
)

func (s State) String() string {
	if s == StatePlaced {
		return "placed"
	}
	return "unplaced"
}

// Target is what the location-update handler asks the controller to show.
type Target struct {
	Bearing  float64 // Bearing from observer to anchor, radians.
	Distance float64 // Distance from observer to anchor, meters.
	Heading  float64 // Observer heading, degrees.
}

// Controller places one model and keeps it consistent across updates.
// It is not safe for concurrent use; events are delivered one at a time.
type Controller struct {
	log         *slog.Logger
	renderer    Renderer
	model       Model
	calibration Calibration
	frame       mgl64.Mat4

	state     State
	placement Placement
}

// NewController creates a controller in the Unplaced state.
func NewController(log *slog.Logger, renderer Renderer, model Model, calibration Calibration) (*Controller, error) {
	if err := calibration.Validate(); err != nil {
		return nil, err
	}

	return &Controller{
		log:         log,
		renderer:    renderer,
		model:       model,
		calibration: calibration,
		frame:       mgl64.Ident4(),
		state:       StateUnplaced,
	}, nil
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return c.state
}

// Placement returns the current placement and whether one exists.
func (c *Controller) Placement() (Placement, bool) {
	return c.placement, c.state == StatePlaced
}

// Apply places the model on the first call and updates it afterwards. The
// placement is committed only when the renderer accepts the update.
func (c *Controller) Apply(ctx context.Context, target Target) (Update, error) {
	scale, err := c.calibration.Scale(target.Distance)
	if err != nil {
		return Update{}, err
	}

	reference := c.placement.Reference
	if c.state == StateUnplaced {
		reference = c.model.Orientation()
	}

	next := Placement{
		Reference: reference,
		Rotation:  mgl64.HomogRotate3DY(c.calibration.HeadingAngle(target.Heading)).Mul4(reference),
		Pivot:     c.model.Pivot(),
		Position:  scene.PositionFromTransform(scene.PlacementTransform(c.frame, target.Bearing, target.Distance)),
		Scale:     scale,
	}

	update := Update{
		Node:     c.model.Name,
		Rotation: next.Rotation,
		Pivot:    next.Pivot,
		Position: next.Position,
		Scale:    next.Scale,
	}
	if !update.finite() {
		return Update{}, fmt.Errorf("%w: bearing=%v distance=%v heading=%v",
			ErrNonFinite, target.Bearing, target.Distance, target.Heading)
	}

	if c.state == StateUnplaced {
		if err = c.renderer.AddNode(ctx, update); err != nil {
			return Update{}, fmt.Errorf("failed to add node %q: %w", c.model.Name, err)
		}
		c.log.InfoContext(ctx, "Model placed",
			"node", c.model.Name, "distance", target.Distance, "scale", scale)
	} else {
		update.Animation = c.calibration.Animation
		if err = c.renderer.UpdateNode(ctx, update); err != nil {
			return Update{}, fmt.Errorf("failed to update node %q: %w", c.model.Name, err)
		}
		c.log.DebugContext(ctx, "Model placement updated",
			"node", c.model.Name, "distance", target.Distance, "scale", scale)
	}

	c.placement = next
	c.state = StatePlaced

	return update, nil
}
