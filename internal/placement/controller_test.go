package placement_test

import (
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/UnknownOlympus/anchor/internal/placement"
	"github.com/UnknownOlympus/anchor/test/mocks"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const epsilon = 1e-9

func assertMat(t *testing.T, want, got mgl64.Mat4) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], epsilon, "element %d", i)
	}
}

func shipModel() placement.Model {
	return placement.Model{
		Name:      "shipMesh",
		Transform: mgl64.Ident4(),
		BoundsMin: mgl64.Vec3{-1, 0, -2},
		BoundsMax: mgl64.Vec3{1, 2, 2},
	}
}

func newController(t *testing.T, renderer placement.Renderer) *placement.Controller {
	t.Helper()
	controller, err := placement.NewController(slog.Default(), renderer, shipModel(), placement.DefaultCalibration())
	require.NoError(t, err)
	return controller
}

func TestNewController_InvalidCalibration(t *testing.T) {
	t.Parallel()

	calibration := placement.DefaultCalibration()
	calibration.AxisSign = 2

	controller, err := placement.NewController(slog.Default(), mocks.NewRenderer(t), shipModel(), calibration)

	require.Error(t, err)
	assert.Nil(t, controller)
}

func TestModel_Pivot(t *testing.T) {
	t.Parallel()

	pivot := shipModel().Pivot()
	assertMat(t, mgl64.Translate3D(0, 1, 0), pivot)
}

func TestModel_Orientation(t *testing.T) {
	t.Parallel()

	model := shipModel()
	model.Transform = mgl64.Translate3D(5, 2, -7).Mul4(mgl64.HomogRotate3DY(0.3))

	assertMat(t, mgl64.HomogRotate3DY(0.3), model.Orientation())
}

func TestController_Apply(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("first placement is immediate", func(t *testing.T) {
		t.Parallel()
		renderer := mocks.NewRenderer(t)
		controller := newController(t, renderer)
		var added placement.Update

		renderer.On("AddNode", ctx, mock.Anything).
			Run(func(args mock.Arguments) { added = args.Get(1).(placement.Update) }).
			Return(nil).Once()

		assert.Equal(t, placement.StateUnplaced, controller.State())

		update, err := controller.Apply(ctx, placement.Target{Bearing: math.Pi / 2, Distance: 500, Heading: 180})

		require.NoError(t, err)
		assert.Equal(t, placement.StatePlaced, controller.State())
		assert.Equal(t, "shipMesh", update.Node)
		assert.False(t, update.Animated())
		assert.Equal(t, update, added)
		assert.InDelta(t, 2.0, update.Scale, epsilon)
		assert.InDelta(t, 500.0, update.Position.X(), epsilon)
		assert.InDelta(t, 0.0, update.Position.Z(), 1e-6)

		current, ok := controller.Placement()
		require.True(t, ok)
		assertMat(t, mgl64.Ident4(), current.Reference)
		// Heading equal to the offset leaves the reference unrotated.
		assertMat(t, mgl64.Ident4(), current.Rotation)
		assertMat(t, mgl64.Translate3D(0, 1, 0), update.Pivot)
	})

	t.Run("later updates are animated", func(t *testing.T) {
		t.Parallel()
		renderer := mocks.NewRenderer(t)
		controller := newController(t, renderer)

		renderer.On("AddNode", ctx, mock.Anything).Return(nil).Once()
		renderer.On("UpdateNode", ctx, mock.MatchedBy(func(u placement.Update) bool {
			return u.Animation == time.Second
		})).Return(nil).Once()

		_, err := controller.Apply(ctx, placement.Target{Bearing: 0, Distance: 100})
		require.NoError(t, err)
		update, err := controller.Apply(ctx, placement.Target{Bearing: 0, Distance: 2000})
		require.NoError(t, err)

		assert.True(t, update.Animated())
		assert.InDelta(t, 1.5, update.Scale, epsilon)
		assert.InDelta(t, -2000.0, update.Position.Z(), epsilon)
	})

	t.Run("rotation does not accumulate", func(t *testing.T) {
		t.Parallel()
		stepwise := mocks.NewRenderer(t)
		stepwise.On("AddNode", ctx, mock.Anything).Return(nil).Once()
		stepwise.On("UpdateNode", ctx, mock.Anything).Return(nil).Twice()
		direct := mocks.NewRenderer(t)
		direct.On("AddNode", ctx, mock.Anything).Return(nil).Once()
		direct.On("UpdateNode", ctx, mock.Anything).Return(nil).Once()

		first := newController(t, stepwise)
		second := newController(t, direct)

		for _, heading := range []float64{0, 10, 20} {
			_, err := first.Apply(ctx, placement.Target{Bearing: 0.4, Distance: 300, Heading: heading})
			require.NoError(t, err)
		}
		for _, heading := range []float64{0, 20} {
			_, err := second.Apply(ctx, placement.Target{Bearing: 0.4, Distance: 300, Heading: heading})
			require.NoError(t, err)
		}

		got, _ := first.Placement()
		want, _ := second.Placement()
		assertMat(t, want.Rotation, got.Rotation)
		assertMat(t, want.Reference, got.Reference)

		expected := mgl64.HomogRotate3DY(placement.DefaultCalibration().HeadingAngle(20)).Mul4(want.Reference)
		assertMat(t, expected, got.Rotation)
	})

	t.Run("base translation does not move the node", func(t *testing.T) {
		t.Parallel()
		renderer := mocks.NewRenderer(t)
		renderer.On("AddNode", ctx, mock.Anything).Return(nil).Once()

		model := shipModel()
		model.Transform = mgl64.Translate3D(5, 0, 7).Mul4(mgl64.HomogRotate3DY(0.2))
		controller, err := placement.NewController(slog.Default(), renderer, model, placement.DefaultCalibration())
		require.NoError(t, err)

		update, err := controller.Apply(ctx, placement.Target{Bearing: 0, Distance: 100, Heading: 90})
		require.NoError(t, err)

		translation := update.Rotation.Col(3)
		assert.InDelta(t, 0.0, translation.X(), epsilon)
		assert.InDelta(t, 0.0, translation.Y(), epsilon)
		assert.InDelta(t, 0.0, translation.Z(), epsilon)

		current, _ := controller.Placement()
		// The pivot point of the model lands exactly on the placement position.
		center := current.Transform().Mul4x1(mgl64.Vec4{0, 1, 0, 1})
		assert.InDelta(t, update.Position.X(), center.X(), epsilon)
		assert.InDelta(t, update.Position.Y(), center.Y(), epsilon)
		assert.InDelta(t, update.Position.Z(), center.Z(), epsilon)
	})

	t.Run("renderer failure keeps the controller unplaced", func(t *testing.T) {
		t.Parallel()
		renderer := mocks.NewRenderer(t)
		controller := newController(t, renderer)

		renderer.On("AddNode", ctx, mock.Anything).Return(assert.AnError).Once()

		_, err := controller.Apply(ctx, placement.Target{Bearing: 0, Distance: 100})

		require.ErrorIs(t, err, assert.AnError)
		assert.Equal(t, placement.StateUnplaced, controller.State())
		_, ok := controller.Placement()
		assert.False(t, ok)
	})

	t.Run("invalid distance never reaches the renderer", func(t *testing.T) {
		t.Parallel()
		controller := newController(t, mocks.NewRenderer(t))

		_, err := controller.Apply(ctx, placement.Target{Bearing: 0, Distance: -5})

		require.ErrorIs(t, err, placement.ErrInvalidDistance)
		assert.Equal(t, placement.StateUnplaced, controller.State())
	})

	t.Run("non finite heading is rejected", func(t *testing.T) {
		t.Parallel()
		controller := newController(t, mocks.NewRenderer(t))

		_, err := controller.Apply(ctx, placement.Target{Bearing: 0, Distance: 50, Heading: math.NaN()})

		require.ErrorIs(t, err, placement.ErrNonFinite)
	})
}

func TestPlacement_Transform(t *testing.T) {
	t.Parallel()

	current := placement.Placement{
		Reference: mgl64.Ident4(),
		Rotation:  mgl64.HomogRotate3DY(math.Pi / 2),
		Position:  mgl64.Vec3{3, 0, -4},
		Scale:     2,
	}

	got := current.Transform().Mul4x1(mgl64.Vec4{0, 0, -1, 1})

	// The local forward axis turns to -X, is doubled, then moved to the position.
	assert.InDelta(t, 1.0, got.X(), epsilon)
	assert.InDelta(t, 0.0, got.Y(), epsilon)
	assert.InDelta(t, -4.0, got.Z(), epsilon)

	// With a pivot the rotation turns around the pivot point instead of the origin.
	current.Pivot = mgl64.Translate3D(0, 1, 0)
	center := current.Transform().Mul4x1(mgl64.Vec4{0, 1, 0, 1})
	assert.InDelta(t, 3.0, center.X(), epsilon)
	assert.InDelta(t, 0.0, center.Y(), epsilon)
	assert.InDelta(t, -4.0, center.Z(), epsilon)
}
