package dynamics

import (
	"errors"
	"math"

	"github.com/golang/geo/r2"
)

var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInvalidInput         = errors.New("invalid input")
)

// Pose is a planar position with a heading in [0, 2π).
type Pose struct {
	X       float64
	Y       float64
	Heading float64
}

func (p Pose) Point() r2.Point {
	return r2.Point{X: p.X, Y: p.Y}
}

// WrapAngle maps any angle into [0, 2π).
func WrapAngle(angle float64) float64 {
	wrapped := math.Mod(angle, 2*math.Pi)
	if wrapped < 0 {
		wrapped += 2 * math.Pi
	}
	if wrapped >= 2*math.Pi { // -tiny + 2π rounds up to 2π
		wrapped = 0
	}
	return wrapped
}

// Points projects poses onto the plane.
func Points(poses []Pose) []r2.Point {
	points := make([]r2.Point, len(poses))
	for i, pose := range poses {
		points[i] = pose.Point()
	}
	return points
}
