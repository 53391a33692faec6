package classifier

import "github.com/rbelous/phishscope/internal/model"

// Adapter is the scoring boundary the fusion engine talks to. It holds the
// already-loaded model handle; scoring itself is local, fast, and infallible
// once the model is present.
type Adapter struct {
	model Model
}

// NewAdapter wraps a loaded model handle. A nil handle is allowed and makes
// every Score call report ErrModelUnavailable, so a startup load failure
// surfaces identically on each request without retry storms.
func NewAdapter(m Model) *Adapter {
	return &Adapter{model: m}
}

// Ready reports whether a model handle is present.
func (a *Adapter) Ready() bool {
	return a.model != nil
}

// Score computes the phishing probability for a feature vector.
func (a *Adapter) Score(v model.FeatureVector) (model.ClassifierScore, error) {
	if a.model == nil {
		return model.ClassifierScore{}, model.ErrModelUnavailable
	}
	return a.model.Score(v), nil
}
