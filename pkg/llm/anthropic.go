package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// defaultAnthropicMaxTokens applies when the request doesn't set a cap —
// the Messages API requires max_tokens.
const defaultAnthropicMaxTokens = 8192

// anthropicBackend calls the Anthropic Messages API.
type anthropicBackend struct{}

func (b *anthropicBackend) generate(ctx context.Context, req Request) (*Response, error) {
	client := anthropic.NewClient(option.WithAPIKey(req.APIKey))

	maxTokens := int64(req.MaxOutputTokens)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	blocks := []anthropic.ContentBlockParamUnion{
		anthropic.NewTextBlock(req.UserPrompt),
	}
	for _, att := range req.Attachments {
		blocks = append(blocks, anthropic.NewImageBlockBase64(
			att.MIMEType, base64.StdEncoding.EncodeToString(att.Data)))
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		},
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(req.Temperature))
	}

	msg, err := client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic generate failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, fmt.Errorf("anthropic returned empty response")
	}

	in := int(msg.Usage.InputTokens)
	out := int(msg.Usage.OutputTokens)
	return &Response{
		Text: sb.String(),
		Usage: Usage{
			InputTokens:  &in,
			OutputTokens: &out,
		},
	}, nil
}
