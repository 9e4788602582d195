package classifier

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const testArtifact = `{
  "vocabulary": {"fake": 0, "hoax": 1, "report": 2, "official": 3},
  "idf": [1.0, 1.0, 1.0, 1.0],
  "coef": [-2.0, -2.0, 1.0, 1.0],
  "intercept": 0.0,
  "stop_words": ["the", "a"],
  "norm": "l2"
}`

func TestLinearClassifier_Classify(t *testing.T) {
	c, err := NewLinearClassifier([]byte(testArtifact))
	if err != nil {
		t.Fatalf("NewLinearClassifier() error = %v", err)
	}

	tests := []struct {
		name      string
		text      string
		wantClass int
		wantReal  float64
	}{
		{"fake words", "The hoax", 0, sigmoid(-2)},
		{"real words", "official report", 1, sigmoid(math.Sqrt2)},
		{"no known terms", "x y z", 0, 0.5},
		{"mixed case", "OFFICIAL Report", 1, sigmoid(math.Sqrt2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := c.Classify(context.Background(), tt.text)
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if p.Class != tt.wantClass {
				t.Errorf("Class = %d, want %d", p.Class, tt.wantClass)
			}
			if math.Abs(p.Probabilities[1]-tt.wantReal) > 1e-9 {
				t.Errorf("P(REAL) = %v, want %v", p.Probabilities[1], tt.wantReal)
			}
			if math.Abs(p.Probabilities[0]+p.Probabilities[1]-1) > 1e-9 {
				t.Errorf("probabilities do not sum to 1: %v", p.Probabilities)
			}
		})
	}
}

func TestLinearClassifier_Verdict(t *testing.T) {
	c, err := NewLinearClassifier([]byte(testArtifact))
	if err != nil {
		t.Fatalf("NewLinearClassifier() error = %v", err)
	}

	p, _ := c.Classify(context.Background(), "fake hoax")
	label, confidence, err := p.Verdict()
	if err != nil {
		t.Fatalf("Verdict() error = %v", err)
	}
	if label != "FAKE" {
		t.Errorf("label = %s, want FAKE", label)
	}
	if confidence != p.Probabilities[0] {
		t.Errorf("confidence = %v, want FAKE probability %v", confidence, p.Probabilities[0])
	}
}

func TestLinearClassifier_SublinearTF(t *testing.T) {
	plain, _ := NewLinearClassifier([]byte(testArtifact))
	sublinear, err := NewLinearClassifier([]byte(strings.Replace(testArtifact, `"norm": "l2"`, `"norm": "l2", "sublinear_tf": true`, 1)))
	if err != nil {
		t.Fatalf("NewLinearClassifier() error = %v", err)
	}

	text := "hoax hoax hoax official"
	want := (-2*3.0 + 1) / math.Sqrt(10)
	if got := plain.decision(text); math.Abs(got-want) > 1e-9 {
		t.Errorf("plain decision = %v, want %v", got, want)
	}

	tf := 1 + math.Log(3)
	want = (-2*tf + 1) / math.Sqrt(tf*tf+1)
	if got := sublinear.decision(text); math.Abs(got-want) > 1e-9 {
		t.Errorf("sublinear decision = %v, want %v", got, want)
	}
}

func TestLinearClassifier_Ngrams(t *testing.T) {
	c, err := NewLinearClassifier([]byte(strings.Replace(testArtifact, `"norm": "l2"`, `"norm": "l2", "ngram_range": [1, 2]`, 1)))
	if err != nil {
		t.Fatalf("NewLinearClassifier() error = %v", err)
	}

	got := c.terms("The official report a b")
	want := []string{"official", "report", "official report"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("terms() = %v, want %v", got, want)
	}
}

func TestNewLinearClassifier_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		artifact string
	}{
		{"not json", `{`},
		{"missing idf", `{"vocabulary": {"a": 0}, "coef": [1], "intercept": 0}`},
		{"empty vocabulary", `{"vocabulary": {}, "idf": [1], "coef": [1], "intercept": 0}`},
		{"length mismatch", `{"vocabulary": {"ab": 0}, "idf": [1, 2], "coef": [1], "intercept": 0}`},
		{"index out of range", `{"vocabulary": {"ab": 3}, "idf": [1], "coef": [1], "intercept": 0}`},
		{"bad norm", `{"vocabulary": {"ab": 0}, "idf": [1], "coef": [1], "intercept": 0, "norm": "max"}`},
		{"inverted ngram range", `{"vocabulary": {"ab": 0}, "idf": [1], "coef": [1], "intercept": 0, "ngram_range": [2, 1]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewLinearClassifier([]byte(tt.artifact)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadLinearClassifier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte(testArtifact), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadLinearClassifier(path)
	if err != nil {
		t.Fatalf("LoadLinearClassifier() error = %v", err)
	}
	if c.Name() != "linear" {
		t.Errorf("Name() = %s", c.Name())
	}

	if _, err := LoadLinearClassifier(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadLinearClassifier(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestLinearClassifier_CanceledContext(t *testing.T) {
	c, _ := NewLinearClassifier([]byte(testArtifact))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Classify(ctx, "official report"); err == nil {
		t.Error("expected error for canceled context")
	}
}
