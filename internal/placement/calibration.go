package placement

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var (
	// ErrInvalidDistance is returned for negative or non-finite distances.
	ErrInvalidDistance = errors.New("distance must be a finite non-negative number of meters")
	// ErrNonFinite is returned when a computed update contains NaN or Inf values.
	ErrNonFinite = errors.New("computed placement is not finite")
)

// Calibration holds the asset-specific constants of a placement.
type Calibration struct {
	// HeadingOffset is subtracted from the observer heading, in degrees. It
	// compensates for the forward direction the model was authored with.
	HeadingOffset float64
	// AxisSign multiplies the heading angle before the vertical rotation.
	AxisSign float64
	// ScaleNumerator is divided by the distance in meters to obtain the scale.
	ScaleNumerator float64
	MinScale       float64
	MaxScale       float64
	// Animation is the duration over which updates after the first are applied.
	Animation time.Duration
}

// DefaultCalibration returns the calibration of the sample ship model.
func DefaultCalibration() Calibration {
	return Calibration{
		HeadingOffset:  180,
		AxisSign:       -1,
		ScaleNumerator: 1000,
		MinScale:       1.5,
		MaxScale:       3.0,
		Animation:      time.Second,
	}
}

// Validate checks that the calibration can produce finite placements.
func (c Calibration) Validate() error {
	var errs []string

	if c.AxisSign != 1 && c.AxisSign != -1 {
		errs = append(errs, fmt.Sprintf("axis sign must be 1 or -1, got %v", c.AxisSign))
	}
	if c.ScaleNumerator <= 0 || math.IsInf(c.ScaleNumerator, 0) {
		errs = append(errs, fmt.Sprintf("scale numerator must be positive, got %v", c.ScaleNumerator))
	}
	if c.MinScale <= 0 || c.MaxScale < c.MinScale {
		errs = append(errs, fmt.Sprintf("scale range must satisfy 0 < min <= max, got [%v, %v]", c.MinScale, c.MaxScale))
	}
	if c.Animation < 0 {
		errs = append(errs, "animation duration must not be negative")
	}
	if math.IsNaN(c.HeadingOffset) || math.IsInf(c.HeadingOffset, 0) {
		errs = append(errs, "heading offset must be finite")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid calibration: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Scale returns the uniform scale for a target distance meters away:
// ScaleNumerator / distance clamped to [MinScale, MaxScale]. A zero distance
// means the observer stands on the anchor and yields MaxScale.
func (c Calibration) Scale(distance float64) (float64, error) {
	if math.IsNaN(distance) || math.IsInf(distance, 0) || distance < 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidDistance, distance)
	}
	if distance == 0 {
		return c.MaxScale, nil
	}

	return math.Min(math.Max(c.ScaleNumerator/distance, c.MinScale), c.MaxScale), nil
}

// HeadingAngle converts an observer heading in degrees into the rotation
// angle, in radians, applied around the vertical axis.
func (c Calibration) HeadingAngle(heading float64) float64 {
	return c.AxisSign * (heading - c.HeadingOffset) * math.Pi / 180.0
}
