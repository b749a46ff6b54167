// Package ensemble provides composition wrappers over time-series
// regressors: a weighted averaging ensemble and a transformer-to-regressor
// pipeline. Both treat the wrapped estimators as opaque fit/predict
// capabilities.
package ensemble

import (
	"context"
	"fmt"

	"intervalforest/internal/series"
)

// Regressor is the capability shared by every estimator in this library.
type Regressor interface {
	Fit(ctx context.Context, batch series.Batch, targets []float64) error
	Predict(batch series.Batch) ([]float64, error)
}

// Weighted averages several regressors' predictions under fixed weights.
// Weights are normalized at predict time; nil weights mean a uniform average.
type Weighted struct {
	regressors []Regressor
	weights    []float64
	fitted     bool
}

// NewWeighted builds a weighted ensemble. Weights must be nil or one
// positive value per regressor.
func NewWeighted(regressors []Regressor, weights []float64) (*Weighted, error) {
	if len(regressors) == 0 {
		return nil, fmt.Errorf("ensemble: no regressors")
	}
	if weights != nil {
		if len(weights) != len(regressors) {
			return nil, fmt.Errorf("ensemble: %d weights for %d regressors", len(weights), len(regressors))
		}
		for i, w := range weights {
			if w <= 0 {
				return nil, fmt.Errorf("ensemble: weight %d must be positive, got %v", i, w)
			}
		}
	}
	return &Weighted{regressors: regressors, weights: weights}, nil
}

// Fit fits every wrapped regressor on the same data.
func (e *Weighted) Fit(ctx context.Context, batch series.Batch, targets []float64) error {
	for i, r := range e.regressors {
		if err := r.Fit(ctx, batch, targets); err != nil {
			return fmt.Errorf("ensemble: regressor %d fit: %w", i, err)
		}
	}
	e.fitted = true
	return nil
}

// Predict returns the weight-normalized average of the wrapped regressors.
func (e *Weighted) Predict(batch series.Batch) ([]float64, error) {
	if !e.fitted {
		return nil, fmt.Errorf("ensemble: not fitted")
	}
	var out []float64
	var total float64
	for i, r := range e.regressors {
		preds, err := r.Predict(batch)
		if err != nil {
			return nil, fmt.Errorf("ensemble: regressor %d predict: %w", i, err)
		}
		w := 1.0
		if e.weights != nil {
			w = e.weights[i]
		}
		if out == nil {
			out = make([]float64, len(preds))
		}
		for c, v := range preds {
			out[c] += v * w
		}
		total += w
	}
	for c := range out {
		out[c] /= total
	}
	return out, nil
}
