package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ppiankov/newsguard/internal/model"
)

const verdictSchema = `{
  "type": "object",
  "required": ["label", "confidence"],
  "properties": {
    "label": {"enum": ["FAKE", "REAL", "fake", "real"]},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1}
  }
}`

var compiledVerdictSchema = jsonschema.MustCompileString("verdict.json", verdictSchema)

const systemPrompt = `You are a news credibility classifier. Decide whether the news text you are given is FAKE or REAL.
Respond with a single JSON object and nothing else: {"label": "FAKE" or "REAL", "confidence": number between 0 and 1}.
The confidence is the probability of the label you chose.`

// OpenAIClassifier asks a chat model for a verdict
type OpenAIClassifier struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

var _ Classifier = (*OpenAIClassifier)(nil)

// NewOpenAIClassifier creates an OpenAI-backed classifier. Endpoint overrides
// the API base URL for compatible servers.
func NewOpenAIClassifier(config model.ClassifierConfig) (*OpenAIClassifier, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.Endpoint != "" {
		clientConfig.BaseURL = config.Endpoint
	}

	m := config.Model
	if m == "" {
		m = openai.GPT4oMini
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIClassifier{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   m,
		timeout: timeout,
	}, nil
}

func (c *OpenAIClassifier) Name() string {
	return "openai:" + c.model
}

func (c *OpenAIClassifier) Classify(ctx context.Context, text string) (Prediction, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature:    0,
		MaxTokens:      50,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return Prediction{}, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Prediction{}, fmt.Errorf("no response from OpenAI")
	}

	return parseVerdict(resp.Choices[0].Message.Content)
}

// parseVerdict turns {"label","confidence"} into a two-class prediction
func parseVerdict(content string) (Prediction, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var raw any
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return Prediction{}, fmt.Errorf("parse verdict %q: %w", content, err)
	}
	if err := compiledVerdictSchema.Validate(raw); err != nil {
		return Prediction{}, fmt.Errorf("verdict does not match schema: %w", err)
	}

	var v struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return Prediction{}, fmt.Errorf("decode verdict: %w", err)
	}

	label, err := model.ParseLabel(v.Label)
	if err != nil {
		return Prediction{}, err
	}

	p := Prediction{Class: label.Class()}
	p.Probabilities[p.Class] = v.Confidence
	p.Probabilities[1-p.Class] = 1 - v.Confidence
	return p, nil
}
