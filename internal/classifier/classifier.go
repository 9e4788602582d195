package classifier

import (
	"context"
	"fmt"

	"github.com/ppiankov/newsguard/internal/model"
)

// Classifier predicts whether a text is fake (class 0) or real (class 1) news.
// Implementations are read-only after construction and safe for concurrent use.
type Classifier interface {
	// Name identifies the backend, also used to namespace cache keys
	Name() string

	// Classify returns the predicted class and the two-class distribution
	Classify(ctx context.Context, text string) (Prediction, error)
}

// Prediction is a two-class classifier output
type Prediction struct {
	Class         int        `json:"class_index"`
	Probabilities [2]float64 `json:"probabilities"`
}

// Verdict maps the prediction to its label and the probability of that label
func (p Prediction) Verdict() (model.Label, float64, error) {
	label, err := model.LabelForClass(p.Class)
	if err != nil {
		return "", 0, err
	}
	return label, p.Probabilities[p.Class], nil
}

func (p Prediction) validate() error {
	if p.Class != 0 && p.Class != 1 {
		return fmt.Errorf("class index %d out of range", p.Class)
	}
	for _, prob := range p.Probabilities {
		if prob < 0 || prob > 1 {
			return fmt.Errorf("probability %v out of range", prob)
		}
	}
	return nil
}
