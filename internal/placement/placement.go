package placement

import (
	"context"
	"time"

	"github.com/UnknownOlympus/anchor/internal/scene"
	"github.com/go-gl/mathgl/mgl64"
)

// Model is the loaded asset the controller places.
type Model struct {
	Name      string     // Name identifies the node in the render graph.
	Transform mgl64.Mat4 // Transform is the base transform the asset was loaded with.
	BoundsMin mgl64.Vec3 // BoundsMin is the lower corner of the bounding box.
	BoundsMax mgl64.Vec3 // BoundsMax is the upper corner of the bounding box.
}

// Pivot returns the offset that moves the rotation axis to the vertical
// centerline of the model.
func (m Model) Pivot() mgl64.Mat4 {
	return mgl64.Translate3D(0, (m.BoundsMax.Y()-m.BoundsMin.Y())/2, 0)
}

// Orientation returns the base transform with its translation cleared. The
// placement position takes the place of the translation.
func (m Model) Orientation() mgl64.Mat4 {
	orientation := m.Transform
	orientation.SetCol(3, mgl64.Vec4{0, 0, 0, 1})
	return orientation
}

// Placement is the current affine state of the placed model.
type Placement struct {
	// Reference is captured once at first placement, before any heading
	// rotation, and is the base of every later rotation.
	Reference mgl64.Mat4
	Rotation  mgl64.Mat4
	Pivot     mgl64.Mat4
	Position  mgl64.Vec3
	Scale     float64
}

// Transform composes the placement the way a scene-graph node does:
// translation, scale, rotation, then the inverse pivot. A zero pivot counts
// as no pivot.
func (p Placement) Transform() mgl64.Mat4 {
	pivot := p.Pivot
	if pivot == (mgl64.Mat4{}) {
		pivot = mgl64.Ident4()
	}
	translation := mgl64.Translate3D(p.Position.X(), p.Position.Y(), p.Position.Z())
	return translation.
		Mul4(mgl64.Scale3D(p.Scale, p.Scale, p.Scale)).
		Mul4(p.Rotation).
		Mul4(pivot.Inv())
}

// Update is the request handed to the renderer.
type Update struct {
	Node      string
	// Rotation is the orientation of the node. It never carries a
	// translation; Position is the only source of one.
	Rotation  mgl64.Mat4
	// Pivot moves the rotation axis within the model and is applied by
	// the renderer underneath Rotation.
	Pivot     mgl64.Mat4
	Position  mgl64.Vec3
	Scale     float64
	Animation time.Duration // Zero means apply immediately.
}

// Animated reports whether the renderer should interpolate towards the update.
func (u Update) Animated() bool {
	return u.Animation > 0
}

func (u Update) finite() bool {
	return scene.IsFinite(u.Rotation) &&
		scene.IsFinite(u.Pivot) &&
		scene.IsFinite(mgl64.Translate3D(u.Position.X(), u.Position.Y(), u.Position.Z())) &&
		scene.IsFinite(mgl64.Scale3D(u.Scale, u.Scale, u.Scale))
}

// Renderer is the scene-graph collaborator that draws the model.
type Renderer interface {
	// AddNode inserts the node into the render graph with its first placement.
	AddNode(ctx context.Context, update Update) error
	// UpdateNode moves an existing node, interpolating over update.Animation.
	UpdateNode(ctx context.Context, update Update) error
}
