package dynamics

import (
	"fmt"
	"math"
)

// Dubins is a car moving forward at a fixed velocity. Each step moves the car
// along its current heading and then turns it by the steering angle.
type Dubins struct {
	velocity float64
}

func NewDubins(velocity float64) (*Dubins, error) {
	if !(velocity > 0) { // Also rejects NaN
		return nil, fmt.Errorf("%w: velocity must be positive, got %v", ErrInvalidConfiguration, velocity)
	}
	return &Dubins{velocity: velocity}, nil
}

func (d *Dubins) Velocity() float64 {
	return d.velocity
}

func (d *Dubins) Steer(pose Pose, angle float64) (Pose, error) {
	if !(angle >= -math.Pi && angle <= math.Pi) {
		return Pose{}, fmt.Errorf("%w: steering angle %v outside [-π, π]", ErrInvalidInput, angle)
	}

	return Pose{
		X:       pose.X + d.velocity*math.Cos(pose.Heading),
		Y:       pose.Y + d.velocity*math.Sin(pose.Heading),
		Heading: WrapAngle(pose.Heading + angle),
	}, nil
}
