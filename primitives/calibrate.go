package primitives

import (
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"go.viam.com/dbcbs/utils"
)

const (
	// default cap on calibration samples.
	defaultCalibrationSamples = 1000

	// attempts allowed per requested sample before rejection sampling gives up.
	attemptsPerSample = 100
)

// CalibrateDelta picks a discontinuity bound from the library's coverage of the state space.
// It draws random states accepted by valid, measures the distance to the farthest of the k
// nearest motion starts for each, and returns the mean divided by alpha. samples <= 0 means
// min(1000, number of motions). A nil valid accepts every state.
func (lib *Library) CalibrateDelta(alpha float64, k, samples int, rng *rand.Rand, valid func(state []float64) bool) (float64, error) {
	if err := checkAlpha(alpha); err != nil {
		return 0, err
	}
	if k <= 0 {
		return 0, utils.NewConfigurationError("calibration needs a positive neighbor count, got %d", k)
	}
	if samples <= 0 {
		samples = min(defaultCalibrationSamples, len(lib.motions))
	}

	dists := make([]float64, 0, samples)
	for attempts := 0; len(dists) < samples && attempts < samples*attemptsPerSample; attempts++ {
		state := lib.model.SampleUniform(rng)
		if valid != nil && !valid(state) {
			continue
		}
		neighbors := lib.index.NearestK(lib.normalize(state), k)
		if len(neighbors) == 0 {
			break
		}
		dists = append(dists, neighbors[len(neighbors)-1].Dist)
	}
	if len(dists) == 0 {
		return 0, utils.NewConfigurationError("no valid state found to calibrate delta")
	}

	delta := stat.Mean(dists, nil) / alpha
	lib.logger.Infow("calibrated delta", "delta", delta, "alpha", alpha, "k", k, "samples", len(dists))
	return delta, nil
}
