package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/xaenox/time-bot/internal/models"
	"go.uber.org/zap"
)

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// Timezone is passed to the model as context for time entries.
	Timezone string
}

type GPTClassifier struct {
	client   *openai.Client
	model    string
	timeout  time.Duration
	timezone string
	logger   *zap.Logger
}

func NewGPTClassifier(cfg Config, logger *zap.Logger) *GPTClassifier {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &GPTClassifier{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    cfg.Model,
		timeout:  cfg.Timeout,
		timezone: cfg.Timezone,
		logger:   logger,
	}
}

type promptContext struct {
	RawText  string `json:"raw_text"`
	Date     string `json:"date"`
	Timezone string `json:"timezone,omitempty"`
}

func (c *GPTClassifier) Classify(ctx context.Context, text string) (models.MessageClassification, error) {
	var out models.MessageClassification
	err := c.structured(ctx, "classify message", SchemaMessageClassification, MessageClassificationSchema(),
		[]openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifierSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(classifierUserPrompt, text)},
		},
		map[string]any{"raw_text": text},
		&out,
	)
	return out, err
}

func (c *GPTClassifier) ExtractTimeEntry(ctx context.Context, text string, today civil.Date) (models.TimeEntry, error) {
	var out models.TimeEntry
	err := c.structured(ctx, "extract time entry", SchemaTimeEntry, TimeEntrySchema(),
		[]openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: timeEntrySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(timeEntryUserPrompt, contextJSON(text, today, c.timezone), text)},
		},
		map[string]any{"raw_text": text, "date": today.String()},
		&out,
	)
	return out, err
}

func (c *GPTClassifier) ExtractTaskEntry(ctx context.Context, text string, today civil.Date, timezone string) (models.TaskEntry, error) {
	var out models.TaskEntry
	err := c.structured(ctx, "extract task entry", SchemaTaskEntry, TaskEntrySchema(),
		[]openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: taskSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(taskUserPrompt, contextJSON(text, today, timezone), text)},
		},
		map[string]any{"raw_text": text, "project": []string{string(models.ProjectRoutine)}},
		&out,
	)
	return out, err
}

type validatable interface {
	Validate() error
}

// structured runs one schema-constrained completion and decodes it into out.
// Keys missing from the model's object are filled from defaults before decoding.
func (c *GPTClassifier) structured(
	ctx context.Context,
	op, schemaName string,
	schema jsonschema.Definition,
	messages []openai.ChatCompletionMessage,
	defaults map[string]any,
	out validatable,
) error {
	content, err := c.complete(ctx, op, schemaName, schema, messages)
	if err != nil {
		return err
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(ExtractJSON(content)), &payload); err != nil {
		c.logger.Warn("Model returned invalid JSON",
			zap.String("op", op),
			zap.String("response", content))
		return parseErr(op, "invalid JSON: %w", err)
	}
	if payload == nil {
		c.logger.Warn("Model returned a non-object JSON value",
			zap.String("op", op),
			zap.String("response", content))
		return parseErr(op, "response is not a JSON object")
	}
	for key, value := range defaults {
		if _, ok := payload[key]; !ok {
			payload[key] = value
		}
	}

	normalized, err := json.Marshal(payload)
	if err != nil {
		return parseErr(op, "re-encode payload: %w", err)
	}
	if err := json.Unmarshal(normalized, out); err != nil {
		return parseErr(op, "response does not match schema: %w (payload: %s)", err, normalized)
	}
	if err := out.Validate(); err != nil {
		return parseErr(op, "response does not match schema: %w (payload: %s)", err, normalized)
	}
	return nil
}

func (c *GPTClassifier) complete(
	ctx context.Context,
	op, schemaName string,
	schema jsonschema.Definition,
	messages []openai.ChatCompletionMessage,
) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
		// Deterministic decoding, i.e. temperature 0. The field is omitempty, so a
		// literal 0 would be dropped and the provider default used; keep it nonzero.
		Temperature: math.SmallestNonzeroFloat32,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: &schema,
			},
		},
	})
	if err != nil {
		c.logger.Error("Failed to get completion", zap.String("op", op), zap.Error(err))
		return "", parseErr(op, "call completion endpoint: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", parseErr(op, "model returned no choices")
	}

	content := messageText(resp.Choices[0].Message)
	if strings.TrimSpace(content) == "" {
		return "", parseErr(op, "model returned empty content")
	}
	return content, nil
}

// messageText joins text parts when a provider answers with content parts.
func messageText(msg openai.ChatCompletionMessage) string {
	if msg.Content != "" {
		return msg.Content
	}
	var b strings.Builder
	for _, part := range msg.MultiContent {
		if part.Type == openai.ChatMessagePartTypeText {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

func contextJSON(text string, today civil.Date, timezone string) string {
	data, err := json.Marshal(promptContext{RawText: text, Date: today.String(), Timezone: timezone})
	if err != nil {
		return "{}"
	}
	return string(data)
}
