package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// artifactSchema describes the exported TF-IDF + logistic regression model
const artifactSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["vocabulary", "idf", "coef", "intercept"],
  "properties": {
    "vocabulary": {
      "type": "object",
      "minProperties": 1,
      "additionalProperties": {"type": "integer", "minimum": 0}
    },
    "idf": {"type": "array", "minItems": 1, "items": {"type": "number"}},
    "coef": {"type": "array", "minItems": 1, "items": {"type": "number"}},
    "intercept": {"type": "number"},
    "ngram_range": {
      "type": "array",
      "items": {"type": "integer", "minimum": 1},
      "minItems": 2,
      "maxItems": 2
    },
    "stop_words": {"type": "array", "items": {"type": "string"}},
    "sublinear_tf": {"type": "boolean"},
    "norm": {"enum": ["l2", "l1", "none", ""]}
  }
}`

var compiledArtifactSchema = jsonschema.MustCompileString("artifact.json", artifactSchema)

// tokens of two or more word characters, as the trained vectorizer saw them
var tokenPattern = regexp.MustCompile(`\b\w\w+\b`)

// Artifact is the serialized linear model
type Artifact struct {
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
	Coef        []float64      `json:"coef"`
	Intercept   float64        `json:"intercept"`
	NgramRange  [2]int         `json:"ngram_range"`
	StopWords   []string       `json:"stop_words"`
	SublinearTF bool           `json:"sublinear_tf"`
	Norm        string         `json:"norm"`
}

// LinearClassifier scores TF-IDF features with logistic regression weights
type LinearClassifier struct {
	artifact  Artifact
	stopWords map[string]bool
}

// LoadLinearClassifier reads and validates a model artifact from disk
func LoadLinearClassifier(path string) (*LinearClassifier, error) {
	if path == "" {
		return nil, fmt.Errorf("linear classifier requires a model path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	return NewLinearClassifier(data)
}

// NewLinearClassifier parses and validates a model artifact
func NewLinearClassifier(data []byte) (*LinearClassifier, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	if err := compiledArtifactSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("model does not match schema: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}

	if len(a.IDF) != len(a.Coef) {
		return nil, fmt.Errorf("model has %d idf weights but %d coefficients", len(a.IDF), len(a.Coef))
	}
	for term, idx := range a.Vocabulary {
		if idx >= len(a.Coef) {
			return nil, fmt.Errorf("vocabulary term %q has index %d beyond %d features", term, idx, len(a.Coef))
		}
	}
	if a.NgramRange == [2]int{} {
		a.NgramRange = [2]int{1, 1}
	}
	if a.NgramRange[0] > a.NgramRange[1] {
		return nil, fmt.Errorf("invalid ngram range %v", a.NgramRange)
	}
	if a.Norm == "" {
		a.Norm = "l2"
	}

	c := &LinearClassifier{
		artifact:  a,
		stopWords: make(map[string]bool, len(a.StopWords)),
	}
	for _, w := range a.StopWords {
		c.stopWords[w] = true
	}
	return c, nil
}

func (c *LinearClassifier) Name() string {
	return "linear"
}

// Classify computes P(REAL) = sigmoid(w·x + b) over the normalized TF-IDF vector
func (c *LinearClassifier) Classify(ctx context.Context, text string) (Prediction, error) {
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}

	decision := c.decision(text)
	pReal := sigmoid(decision)

	p := Prediction{Probabilities: [2]float64{1 - pReal, pReal}}
	if decision > 0 {
		p.Class = 1
	}
	return p, nil
}

func (c *LinearClassifier) decision(text string) float64 {
	features := c.vectorize(text)

	score := c.artifact.Intercept
	for idx, v := range features {
		score += c.artifact.Coef[idx] * v
	}
	return score
}

// vectorize returns the sparse TF-IDF vector for text
func (c *LinearClassifier) vectorize(text string) map[int]float64 {
	counts := make(map[int]float64)
	for _, term := range c.terms(text) {
		if idx, ok := c.artifact.Vocabulary[term]; ok {
			counts[idx]++
		}
	}

	var norm float64
	for idx, tf := range counts {
		if c.artifact.SublinearTF {
			tf = 1 + math.Log(tf)
		}
		v := tf * c.artifact.IDF[idx]
		counts[idx] = v
		switch c.artifact.Norm {
		case "l2":
			norm += v * v
		case "l1":
			norm += math.Abs(v)
		}
	}

	if c.artifact.Norm == "l2" {
		norm = math.Sqrt(norm)
	}
	if norm > 0 {
		for idx := range counts {
			counts[idx] /= norm
		}
	}
	return counts
}

// terms lowercases, tokenizes, drops stop words and emits the configured n-grams
func (c *LinearClassifier) terms(text string) []string {
	var tokens []string
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if !c.stopWords[tok] {
			tokens = append(tokens, tok)
		}
	}

	minN, maxN := c.artifact.NgramRange[0], c.artifact.NgramRange[1]
	if minN == 1 && maxN == 1 {
		return tokens
	}

	var terms []string
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
