// Package learner defines the base-learner capability consumed by the
// interval forest and provides two concrete regressors: a CART-style
// regression tree (the default ensemble member learner) and a mean predictor
// used as a baseline and in tests.
package learner

// Learner is an unfitted base-learner configuration. Implementations hold
// only configuration, so one Learner value can fit many independent Fitted
// models without cross-member state leaking.
type Learner interface {
	Fit(X [][]float64, y []float64) (Fitted, error)
}

// Fitted is a trained model queried at predict time. Implementations must be
// safe for concurrent Predict calls.
type Fitted interface {
	Predict(X [][]float64) []float64
}
