// Package anthropic extracts prescription payloads with Claude.
package anthropic

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"mediscript/internal/domain"
	"mediscript/internal/domain/models/record"
	"mediscript/internal/service/recognition/prompts"
)

const (
	defaultMaxTokens = 4096
	temperature      = 0.1
)

// Recognizer sends one document per request to the Messages API and returns
// the JSON text of the reply.
type Recognizer struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
	prompt    *prompts.Prompt
	logger    *slog.Logger
}

// NewRecognizer creates an Anthropic recognizer. Extra request options are
// passed to the SDK client.
func NewRecognizer(apiKey, model string, maxTokens int, logger *slog.Logger, opts ...option.RequestOption) (*Recognizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("anthropic model is required")
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	prompt, err := prompts.Extraction()
	if err != nil {
		return nil, fmt.Errorf("failed to load extraction prompt: %w", err)
	}

	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)

	return &Recognizer{
		client:    &client,
		model:     model,
		maxTokens: int64(maxTokens),
		prompt:    prompt,
		logger:    logger,
	}, nil
}

// Name returns the provider name.
func (r *Recognizer) Name() string {
	return "anthropic"
}

// Recognize extracts a prescription payload from doc.
func (r *Recognizer) Recognize(ctx context.Context, doc record.SourceDocument) ([]byte, error) {
	block, err := documentBlock(doc)
	if err != nil {
		return nil, err
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(r.model),
		MaxTokens:   r.maxTokens,
		Temperature: anthropic.Float(temperature),
		System: []anthropic.TextBlockParam{
			{Text: r.prompt.SystemText()},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(block, anthropic.NewTextBlock(r.prompt.Instruction)),
		},
	}

	message, err := r.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic API call failed: %w", err)
	}

	var text strings.Builder
	for _, content := range message.Content {
		if content.Type == "text" {
			text.WriteString(content.Text)
		}
	}

	r.logger.Debug("recognition completed",
		"document", doc.Name,
		"model", r.model,
		"input_tokens", message.Usage.InputTokens,
		"output_tokens", message.Usage.OutputTokens,
		"stop_reason", message.StopReason,
	)

	payload := StripFences(text.String())
	if payload == "" {
		return nil, &domain.ExtractionError{Kind: domain.ExtractionEmptyResponse, Document: doc.Name, Index: -1}
	}
	return []byte(payload), nil
}

func documentBlock(doc record.SourceDocument) (anthropic.ContentBlockParamUnion, error) {
	data := base64.StdEncoding.EncodeToString(doc.Data)

	switch doc.ContentType {
	case "application/pdf":
		return anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{Data: data}), nil
	case "image/png", "image/jpeg", "image/gif", "image/webp":
		return anthropic.NewImageBlockBase64(doc.ContentType, data), nil
	default:
		return anthropic.ContentBlockParamUnion{}, fmt.Errorf("unsupported content type %q", doc.ContentType)
	}
}

// StripFences removes a surrounding markdown code fence, with or without a
// language tag, and trims whitespace.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
