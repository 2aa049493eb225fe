package models

// Weights holds the relative importance of each sub-score. The three values
// always sum to 1; Normalize restores that invariant after any mutation.
type Weights struct {
	Accuracy     float64 `json:"accuracy" yaml:"accuracy"`
	Completeness float64 `json:"completeness" yaml:"completeness"`
	Efficiency   float64 `json:"efficiency" yaml:"efficiency"`
}

// DefaultWeights mirrors the standard accuracy-dominant configuration.
func DefaultWeights() Weights {
	return Weights{Accuracy: 0.5, Completeness: 0.3, Efficiency: 0.2}
}

// Normalize scales the weights so they sum to 1. A degenerate all-zero or
// negative-sum configuration falls back to the defaults.
func (w Weights) Normalize() Weights {
	total := w.Accuracy + w.Completeness + w.Efficiency
	if total <= 0 {
		return DefaultWeights()
	}
	return Weights{
		Accuracy:     w.Accuracy / total,
		Completeness: w.Completeness / total,
		Efficiency:   w.Efficiency / total,
	}
}

// WeightsUpdate is a partial weights mutation; nil fields are left unchanged.
type WeightsUpdate struct {
	Accuracy     *float64 `json:"accuracy,omitempty"`
	Completeness *float64 `json:"completeness,omitempty"`
	Efficiency   *float64 `json:"efficiency,omitempty"`
}

// Apply merges the update into w and renormalizes.
func (w Weights) Apply(u WeightsUpdate) Weights {
	if u.Accuracy != nil {
		w.Accuracy = *u.Accuracy
	}
	if u.Completeness != nil {
		w.Completeness = *u.Completeness
	}
	if u.Efficiency != nil {
		w.Efficiency = *u.Efficiency
	}
	return w.Normalize()
}

// Overall computes the weighted combination of a score set's components.
func (w Weights) Overall(s ScoreSet) float64 {
	return s.Accuracy*w.Accuracy + s.Completeness*w.Completeness + s.Efficiency*w.Efficiency
}
