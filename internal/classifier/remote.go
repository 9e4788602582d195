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
)

// RemoteClassifier delegates to a model server exposing POST /classify
type RemoteClassifier struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ Classifier = (*RemoteClassifier)(nil)

type remoteRequest struct {
	Text string `json:"text"`
}

// NewRemoteClassifier creates a client for the model server at endpoint
func NewRemoteClassifier(endpoint, apiKey string, timeout time.Duration) (*RemoteClassifier, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("remote classifier requires an endpoint")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RemoteClassifier{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}, nil
}

func (c *RemoteClassifier) Name() string {
	return "remote"
}

func (c *RemoteClassifier) Classify(ctx context.Context, text string) (Prediction, error) {
	body, err := json.Marshal(remoteRequest{Text: text})
	if err != nil {
		return Prediction{}, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/classify", bytes.NewReader(body))
	if err != nil {
		return Prediction{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Prediction{}, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Prediction{}, fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var p Prediction
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return Prediction{}, fmt.Errorf("decode response: %w", err)
	}
	if err := p.validate(); err != nil {
		return Prediction{}, fmt.Errorf("invalid response: %w", err)
	}
	return p, nil
}
