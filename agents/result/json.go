/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package result pulls structured values out of free-form model responses.
package result

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON is returned when a response contains nothing that looks like a
// JSON object.
var ErrNoJSON = errors.New("no JSON object in response")

// ExtractJSON returns the JSON text embedded in a model response. It prefers
// a ```json fenced block, then any fenced block, and finally the span from
// the first '{' to the last '}'.
func ExtractJSON(response string) (string, error) {
	if body, ok := fenced(response, "```json"); ok {
		return body, nil
	}
	if body, ok := fenced(response, "```"); ok && strings.HasPrefix(body, "{") {
		return body, nil
	}
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end < start {
		return "", ErrNoJSON
	}
	return response[start : end+1], nil
}

// fenced returns the trimmed content between the opening marker and the next
// closing fence.
func fenced(response, marker string) (string, bool) {
	i := strings.Index(response, marker)
	if i < 0 {
		return "", false
	}
	rest := response[i+len(marker):]
	// Skip the remainder of the opening line, e.g. a language tag.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	}
	j := strings.Index(rest, "```")
	if j < 0 {
		return "", false
	}
	body := strings.TrimSpace(rest[:j])
	return body, body != ""
}

// Extract decodes the JSON embedded in response into a T.
func Extract[T any](response string) (T, error) {
	var out T
	body, err := ExtractJSON(response)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return out, fmt.Errorf("decode model response: %w", err)
	}
	return out, nil
}
