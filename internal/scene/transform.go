// Package scene builds affine transforms in the AR world-tracking frame.
//
// The frame is gravity and heading aligned: +Y points up, -Z points to true
// north and +X points east. Matrices are column-major (mgl64), so a translation
// lives in the last column.
package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// RotationAroundVertical returns the rotation used to orient a placement along
// a bearing. The matrix is built as a right-handed rotation about +Y and then
// inverted. The inversion is the heading convention of the frame: without it
// a target to the east would be placed to the west.
func RotationAroundVertical(angle float64) mgl64.Mat4 {
	return mgl64.HomogRotate3DY(angle).Inv()
}

// TranslationAlongForward returns a translation of distance meters along the
// local forward axis, which is -Z.
func TranslationAlongForward(distance float64) mgl64.Mat4 {
	return mgl64.Translate3D(0, 0, -distance)
}

// Compose applies rotation then translation in the rotated frame, and places
// the result in frame.
func Compose(frame, rotation, translation mgl64.Mat4) mgl64.Mat4 {
	return frame.Mul4(rotation.Mul4(translation))
}

// PlacementTransform is the transform that puts a target distance meters away
// from the frame origin along the given bearing (radians, clockwise from north).
func PlacementTransform(frame mgl64.Mat4, bearing, distance float64) mgl64.Mat4 {
	return Compose(frame, RotationAroundVertical(bearing), TranslationAlongForward(distance))
}

// PositionFromTransform reads the translation column.
func PositionFromTransform(m mgl64.Mat4) mgl64.Vec3 {
	return mgl64.Vec3{m[12], m[13], m[14]}
}

// HorizontalBearing returns the compass bearing in radians of a position
// projected onto the horizontal plane, within [-π, π].
func HorizontalBearing(position mgl64.Vec3) float64 {
	return math.Atan2(position.X(), -position.Z())
}

// IsFinite reports whether every element of m is a finite number.
func IsFinite(m mgl64.Mat4) bool {
	for _, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
