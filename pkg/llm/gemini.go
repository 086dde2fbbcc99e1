package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// geminiBackend calls the Gemini API through the google genai SDK.
// Clients are constructed per call because API keys arrive per request.
type geminiBackend struct{}

func (b *geminiBackend) generate(ctx context.Context, req Request) (*Response, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: req.APIKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	parts := []*genai.Part{genai.NewPartFromText(req.UserPrompt)}
	for _, att := range req.Attachments {
		parts = append(parts, genai.NewPartFromBytes(att.Data, att.MIMEType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	cfg := &genai.GenerateContentConfig{}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxOutputTokens)
	}
	if req.Temperature > 0 {
		temp := req.Temperature
		cfg.Temperature = &temp
	}
	if req.JSONMode {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("gemini returned empty response")
	}

	out := &Response{Text: text}
	if um := resp.UsageMetadata; um != nil {
		in := int(um.PromptTokenCount)
		outTok := int(um.CandidatesTokenCount)
		out.Usage.InputTokens = &in
		out.Usage.OutputTokens = &outTok
	}
	return out, nil
}

// GenerateImage synthesizes a single raster image with the given Imagen
// model. Returns raw image bytes (PNG).
func GenerateImage(ctx context.Context, apiKey, model, prompt string) ([]byte, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	resp, err := client.Models.GenerateImages(ctx, model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("image generation failed (model=%s): %w", model, err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, fmt.Errorf("image generation returned no images (model=%s)", model)
	}
	return resp.GeneratedImages[0].Image.ImageBytes, nil
}

// EditImage runs an image-to-image edit: the source raster plus an edit
// instruction go to a multimodal model that answers with image parts.
func EditImage(ctx context.Context, apiKey, model, prompt string, source []byte) ([]byte, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	parts := []*genai.Part{
		genai.NewPartFromBytes(source, "image/png"),
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}

	resp, err := client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("image edit failed (model=%s): %w", model, err)
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
		}
	}
	return nil, fmt.Errorf("image edit returned no image data (model=%s)", model)
}
