/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package generate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

type ollamaBackend struct {
	client *api.Client
}

func newOllama(hostURL string) (*ollamaBackend, error) {
	u, err := url.Parse(hostURL)
	if err != nil {
		return nil, fmt.Errorf("parse ollama url: %w", err)
	}
	return &ollamaBackend{client: api.NewClient(u, http.DefaultClient)}, nil
}

func (b *ollamaBackend) complete(ctx context.Context, c call) (completion, error) {
	messages := make([]api.Message, 0, 2)
	if c.system != "" {
		messages = append(messages, api.Message{Role: "system", Content: c.system})
	}
	messages = append(messages, api.Message{Role: "user", Content: c.prompt})

	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": c.temperature,
			"num_predict": c.maxTokens,
		},
	}

	var out completion
	var text strings.Builder
	if err := b.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		text.WriteString(resp.Message.Content)
		if resp.Done {
			out.promptTokens = int64(resp.PromptEvalCount)
			out.completionTokens = int64(resp.EvalCount)
		}
		return nil
	}); err != nil {
		return completion{}, err
	}
	out.text = text.String()
	return out, nil
}

// retryable treats an unreachable daemon and server-side overload as
// transient.
func (b *ollamaBackend) retryable(err error) bool {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests ||
			statusErr.StatusCode == http.StatusServiceUnavailable
	}
	return strings.Contains(err.Error(), "connection refused")
}
