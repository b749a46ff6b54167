package ensemble

import (
	"context"
	"fmt"

	"intervalforest/internal/series"
)

// Pipeline chains series transforms ahead of a single regressor. Fit applies
// the transforms in order and fits the regressor on the final view; Predict
// replays the same chain.
type Pipeline struct {
	transforms []series.Transform
	regressor  Regressor
}

// NewPipeline builds a transformer-to-regressor pipeline.
func NewPipeline(transforms []series.Transform, regressor Regressor) (*Pipeline, error) {
	if regressor == nil {
		return nil, fmt.Errorf("pipeline: nil regressor")
	}
	return &Pipeline{transforms: transforms, regressor: regressor}, nil
}

func (p *Pipeline) apply(batch series.Batch) series.Batch {
	for _, t := range p.transforms {
		batch = t.Apply(batch)
	}
	return batch
}

// Fit runs the transform chain and fits the wrapped regressor.
func (p *Pipeline) Fit(ctx context.Context, batch series.Batch, targets []float64) error {
	return p.regressor.Fit(ctx, p.apply(batch), targets)
}

// Predict runs the transform chain and queries the wrapped regressor.
func (p *Pipeline) Predict(batch series.Batch) ([]float64, error) {
	return p.regressor.Predict(p.apply(batch))
}
