package classifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/newsguard/internal/cache"
	"github.com/ppiankov/newsguard/internal/model"
)

// NewClassifier creates the backend selected by config, wrapped in the
// prediction cache when one is given.
func NewClassifier(config model.ClassifierConfig, c cache.Cache, ttl time.Duration) (Classifier, error) {
	var (
		inner Classifier
		err   error
	)

	switch strings.ToLower(config.Provider) {
	case "linear", "":
		inner, err = LoadLinearClassifier(config.ModelPath)
	case "remote":
		inner, err = NewRemoteClassifier(config.Endpoint, config.APIKey, config.Timeout)
	case "openai":
		inner, err = NewOpenAIClassifier(config)
	case "ollama":
		inner, err = NewOllamaClassifier(config)
	default:
		return nil, fmt.Errorf("unknown classifier provider: %s (supported: linear, remote, openai, ollama)", config.Provider)
	}
	if err != nil {
		return nil, err
	}

	if c == nil {
		return inner, nil
	}
	return NewCached(inner, c, ttl), nil
}
