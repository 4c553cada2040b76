package food

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	compositionSystemPrompt = "Ты помогаешь определять состав блюд и продуктов. " +
		"Отвечай только списком ингредиентов, по одному пункту на строку."
	recognizeLabelPrompt = "На изображении текст состава продукта. Верни ингредиенты построчно, " +
		"как они перечислены, без нумерации и лишних символов."
	guessFromTextPrompt = "По названию блюда предположи его состав (список основных ингредиентов). " +
		"Верни только список, по одному ингредиенту в строке без лишнего текста."
	guessFromImagePrompt = "На фото блюдо. Предположи его состав и верни ингредиенты построчно без комментариев."
)

var ErrEmptyDishName = errors.New("dish name is empty")

// CompositionExtractor turns ingredient-label photos and dish names into
// ingredient lists. A nil extractor means the feature is not configured.
type CompositionExtractor interface {
	RecognizeFromImage(ctx context.Context, image []byte) (string, error)
	GuessFromText(ctx context.Context, dish string) (string, error)
	GuessFromImage(ctx context.Context, image []byte) (string, error)
}

type CompositionConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// LLMComposition asks an OpenAI-compatible chat endpoint with vision support.
type LLMComposition struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewLLMComposition returns nil when no API key is configured.
func NewLLMComposition(cfg CompositionConfig, logger *zap.Logger) *LLMComposition {
	if cfg.APIKey == "" {
		return nil
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &LLMComposition{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

func (c *LLMComposition) RecognizeFromImage(ctx context.Context, image []byte) (string, error) {
	return c.ask(ctx, "recognize label", textPart(recognizeLabelPrompt), imagePart(image))
}

func (c *LLMComposition) GuessFromText(ctx context.Context, dish string) (string, error) {
	dish = strings.TrimSpace(dish)
	if dish == "" {
		return "", ErrEmptyDishName
	}
	return c.ask(ctx, "guess from text", textPart(guessFromTextPrompt+"\n\nБлюдо: "+dish))
}

func (c *LLMComposition) GuessFromImage(ctx context.Context, image []byte) (string, error) {
	return c.ask(ctx, "guess from image", textPart(guessFromImagePrompt), imagePart(image))
}

func (c *LLMComposition) ask(ctx context.Context, op string, parts ...openai.ChatMessagePart) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: compositionSystemPrompt},
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
	})
	if err != nil {
		c.logger.Error("Composition request failed", zap.String("op", op), zap.Error(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: model returned no choices", op)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func textPart(text string) openai.ChatMessagePart {
	return openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: text}
}

func imagePart(image []byte) openai.ChatMessagePart {
	return openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeImageURL,
		ImageURL: &openai.ChatMessageImageURL{
			URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image),
		},
	}
}
