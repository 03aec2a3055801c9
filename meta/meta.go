package meta

import (
	"math"

	"pmcts/grid"
)

// Extent defines the workspace bounds as xmin, xmax, ymin, ymax.
var Extent = [4]float64{0, 100, 0, 100}

// AngleRange defines the steering angles spanned by the action library.
var AngleRange = [2]float64{-0.1, 0.1}

// Velocity defines the distance covered per kinematic step.
const Velocity = 1.0

// NumActions defines the number of motion primitives.
const NumActions = 5

// Duration defines the number of steps per primitive.
const Duration = 10

// Weight defines the exploration weight. Larger weights lead to wider trees.
const Weight = 0.3

// MaxIterations defines the number of search iterations per plan.
const MaxIterations = 1000

// MaxRolloutSteps defines the number of straight primitives per rollout.
const MaxRolloutSteps = 5

// Rows and Cols define the size of the generated reward map.
const (
	Rows = 100
	Cols = 100
)

// Threshold defines the normalized PGM intensity below which a cell is occupied.
const Threshold = 0.9

// Start defines the default robot pose as x, y, heading.
var Start = [3]float64{90, 20, -math.Pi / 2}

// Hotspots define the default reward map: three overlapping Gaussians across
// the middle of the workspace.
var Hotspots = []grid.Hotspot{
	{Mean: [2]float64{80, 50}, Covariance: [2][2]float64{{100, 70}, {70, 100}}},
	{Mean: [2]float64{50, 50}, Covariance: [2][2]float64{{100, -70}, {-70, 100}}},
	{Mean: [2]float64{20, 50}, Covariance: [2][2]float64{{100, 70}, {70, 100}}},
}
