package ensemble

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intervalforest/internal/series"
)

// constRegressor predicts a fixed value for every case and records the batch
// it was fitted on.
type constRegressor struct {
	value    float64
	fitBatch series.Batch
	fitErr   error
}

func (r *constRegressor) Fit(_ context.Context, batch series.Batch, _ []float64) error {
	r.fitBatch = batch
	return r.fitErr
}

func (r *constRegressor) Predict(batch series.Batch) ([]float64, error) {
	out := make([]float64, batch.NCases())
	for i := range out {
		out[i] = r.value
	}
	return out, nil
}

func TestWeightedAverage(t *testing.T) {
	a := &constRegressor{value: 1}
	b := &constRegressor{value: 3}
	e, err := NewWeighted([]Regressor{a, b}, []float64{1, 3})
	require.NoError(t, err)

	batch := series.Batch{{{1, 2}}, {{3, 4}}}
	require.NoError(t, e.Fit(context.Background(), batch, []float64{0, 0}))

	preds, err := e.Predict(batch)
	require.NoError(t, err)
	require.Len(t, preds, 2)
	// (1*1 + 3*3) / 4
	for _, p := range preds {
		assert.InDelta(t, 2.5, p, 1e-9)
	}
}

func TestWeightedUniformWhenNilWeights(t *testing.T) {
	e, err := NewWeighted([]Regressor{&constRegressor{value: 2}, &constRegressor{value: 4}}, nil)
	require.NoError(t, err)

	batch := series.Batch{{{1, 2}}}
	require.NoError(t, e.Fit(context.Background(), batch, []float64{0}))
	preds, err := e.Predict(batch)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, preds[0], 1e-9)
}

func TestNewWeightedValidation(t *testing.T) {
	_, err := NewWeighted(nil, nil)
	assert.Error(t, err)

	_, err = NewWeighted([]Regressor{&constRegressor{}}, []float64{1, 2})
	assert.Error(t, err)

	_, err = NewWeighted([]Regressor{&constRegressor{}}, []float64{-1})
	assert.Error(t, err)

	_, err = NewWeighted([]Regressor{&constRegressor{}}, []float64{0})
	assert.Error(t, err)
}

func TestWeightedPredictBeforeFit(t *testing.T) {
	e, err := NewWeighted([]Regressor{&constRegressor{}}, nil)
	require.NoError(t, err)
	_, err = e.Predict(series.Batch{{{1}}})
	assert.Error(t, err)
}

func TestWeightedFitPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	e, err := NewWeighted([]Regressor{&constRegressor{fitErr: boom}}, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, e.Fit(context.Background(), series.Batch{{{1}}}, []float64{0}), boom)
}

func TestPipelineAppliesTransformChain(t *testing.T) {
	inner := &constRegressor{value: 1}
	p, err := NewPipeline([]series.Transform{series.Difference()}, inner)
	require.NoError(t, err)

	batch := series.Batch{{{1, 2, 4, 8}}}
	require.NoError(t, p.Fit(context.Background(), batch, []float64{0}))

	// The regressor must see the transformed view, one timepoint shorter.
	require.NotNil(t, inner.fitBatch)
	assert.Len(t, inner.fitBatch[0][0], 3)

	preds, err := p.Predict(batch)
	require.NoError(t, err)
	assert.Len(t, preds, 1)
}

func TestNewPipelineNilRegressor(t *testing.T) {
	_, err := NewPipeline(nil, nil)
	assert.Error(t, err)
}
