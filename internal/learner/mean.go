package learner

import "fmt"

// MeanRegressor predicts the mean of the training targets for every case.
// Useful as a baseline and as a cheap stand-in learner in tests.
type MeanRegressor struct{}

type fittedMean struct {
	mean float64
}

// Fit records the target mean.
func (MeanRegressor) Fit(X [][]float64, y []float64) (Fitted, error) {
	if len(y) == 0 {
		return nil, fmt.Errorf("mean fit: empty training set")
	}
	var s float64
	for _, v := range y {
		s += v
	}
	return &fittedMean{mean: s / float64(len(y))}, nil
}

func (f *fittedMean) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i := range out {
		out[i] = f.mean
	}
	return out
}
