/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package generate

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"
)

type googleBackend struct {
	client *genai.Client
}

func newGoogle(ctx context.Context, token, baseURL string) (*googleBackend, error) {
	cfg := &genai.ClientConfig{
		APIKey:  token,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &googleBackend{client: client}, nil
}

func (b *googleBackend) complete(ctx context.Context, c call) (completion, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(c.temperature)),
		MaxOutputTokens: int32(c.maxTokens),
	}
	if c.system != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: c.system}},
		}
	}

	resp, err := b.client.Models.GenerateContent(ctx, c.model, genai.Text(c.prompt), cfg)
	if err != nil {
		return completion{}, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return completion{}, ErrEmptyResponse
	}

	var out completion
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		// Thought summaries are not part of the answer.
		if part.Text != "" && !part.Thought {
			text.WriteString(part.Text)
		}
	}
	out.text = text.String()
	if resp.UsageMetadata != nil {
		out.promptTokens = int64(resp.UsageMetadata.PromptTokenCount)
		out.completionTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}

func (b *googleBackend) retryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429, 500, 503, 504:
			return true
		}
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(msg, "UNAVAILABLE") ||
		strings.Contains(msg, "429") ||
		strings.Contains(msg, "503")
}
