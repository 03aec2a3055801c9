package actions

import (
	"fmt"
	"math"

	"pmcts/dynamics"

	"github.com/golang/geo/r2"
)

// Library holds one precomputed primitive per discrete steering command. A
// primitive is the pose sequence obtained by steering duration times from the
// origin with heading 0, origin included.
type Library struct {
	controls   []float64
	primitives [][]dynamics.Pose
}

func NewLibrary(angleRange [2]float64, numActions, duration int, velocity float64) (*Library, error) {
	if numActions < 1 || numActions%2 == 0 {
		return nil, fmt.Errorf("%w: number of actions must be a positive odd number, got %d",
			dynamics.ErrInvalidConfiguration, numActions)
	}
	if duration < 1 {
		return nil, fmt.Errorf("%w: action duration must be positive, got %d", dynamics.ErrInvalidConfiguration, duration)
	}
	lo, hi := angleRange[0], angleRange[1]
	if !(lo <= hi) || lo < -math.Pi || hi > math.Pi {
		return nil, fmt.Errorf("%w: angle range [%v, %v] must be ordered within [-π, π]",
			dynamics.ErrInvalidConfiguration, lo, hi)
	}
	car, err := dynamics.NewDubins(velocity)
	if err != nil {
		return nil, err
	}

	l := &Library{
		controls:   linspace(lo, hi, numActions),
		primitives: make([][]dynamics.Pose, numActions),
	}
	for a, angle := range l.controls {
		pose := dynamics.Pose{}
		primitive := make([]dynamics.Pose, 0, duration+1)
		primitive = append(primitive, pose)
		for step := 0; step < duration; step++ {
			pose, err = car.Steer(pose, angle)
			if err != nil {
				return nil, fmt.Errorf("failed to build primitive %d: %w", a, err)
			}
			primitive = append(primitive, pose)
		}
		l.primitives[a] = primitive
	}
	return l, nil
}

func linspace(lo, hi float64, n int) []float64 {
	values := make([]float64, n)
	if n == 1 {
		values[0] = lo
		return values
	}
	step := (hi - lo) / float64(n-1)
	for k := range values {
		values[k] = lo + float64(k)*step
	}
	values[n-1] = hi
	return values
}

func (l *Library) Len() int {
	return len(l.primitives)
}

// Duration is the number of steps per primitive, the start pose excluded.
func (l *Library) Duration() int {
	return len(l.primitives[0]) - 1
}

// Straight is the middle action, which steers with angle 0 for symmetric ranges.
func (l *Library) Straight() int {
	return len(l.primitives) / 2
}

func (l *Library) Control(idx int) float64 {
	return l.controls[idx]
}

func (l *Library) Primitive(idx int) []dynamics.Pose {
	return append([]dynamics.Pose(nil), l.primitives[idx]...)
}

// Instantiate places primitive idx at base: positions are rotated by the base
// heading and translated by the base position, headings are offset by the base
// heading. The stored primitive is never modified.
func (l *Library) Instantiate(base dynamics.Pose, idx int) ([]dynamics.Pose, error) {
	if idx < 0 || idx >= len(l.primitives) {
		return nil, fmt.Errorf("%w: action index %d out of range [0, %d)", dynamics.ErrInvalidInput, idx, len(l.primitives))
	}

	origin := base.Point()
	relative := l.primitives[idx]
	trajectory := make([]dynamics.Pose, len(relative))
	for k, pose := range relative {
		world := Rotate(pose.Point(), base.Heading).Add(origin)
		trajectory[k] = dynamics.Pose{
			X:       world.X,
			Y:       world.Y,
			Heading: dynamics.WrapAngle(pose.Heading + base.Heading),
		}
	}
	return trajectory, nil
}

// Rotate is the standard counter-clockwise rotation of p by angle.
func Rotate(p r2.Point, angle float64) r2.Point {
	sin, cos := math.Sincos(angle)
	return p.Mul(cos).Add(p.Ortho().Mul(sin))
}
