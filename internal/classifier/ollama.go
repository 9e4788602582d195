package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/newsguard/internal/model"
)

// OllamaClassifier asks a local Ollama model for a verdict
type OllamaClassifier struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

var _ Classifier = (*OllamaClassifier)(nil)

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	System  string        `json:"system,omitempty"`
	Format  string        `json:"format,omitempty"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type ollamaError struct {
	Error string `json:"error"`
}

// NewOllamaClassifier creates an Ollama-backed classifier. Endpoint defaults
// to the local daemon.
func NewOllamaClassifier(config model.ClassifierConfig) (*OllamaClassifier, error) {
	if config.Model == "" {
		return nil, fmt.Errorf("ollama model must be specified (e.g., llama3.1:8b, mistral)")
	}

	baseURL := config.Endpoint
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second // local models can be slow
	}

	return &OllamaClassifier{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      config.Model,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *OllamaClassifier) Name() string {
	return "ollama:" + c.model
}

func (c *OllamaClassifier) Classify(ctx context.Context, text string) (Prediction, error) {
	body, err := json.Marshal(ollamaRequest{
		Model:   c.model,
		Prompt:  text,
		System:  systemPrompt,
		Format:  "json",
		Options: ollamaOptions{NumPredict: 50},
	})
	if err != nil {
		return Prediction{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return Prediction{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Prediction{}, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Prediction{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr ollamaError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			return Prediction{}, fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return Prediction{}, fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var out ollamaResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return Prediction{}, fmt.Errorf("unmarshal response: %w", err)
	}

	return parseVerdict(out.Response)
}
