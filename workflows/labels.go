/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package workflows

import (
	"strings"

	"chainguard.dev/pmagent/githubapp/resources"
)

// FormatLabels renders labels one per line as "- name: description",
// dropping the description part when it is empty.
func FormatLabels(labels []resources.Label) string {
	var b strings.Builder
	for _, l := range labels {
		b.WriteString("- ")
		b.WriteString(l.Name)
		if l.Description != "" {
			b.WriteString(": ")
			b.WriteString(l.Description)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// FormatComments renders discussion comments for the milestone prompt.
func FormatComments(comments []resources.Comment) string {
	var b strings.Builder
	for i, c := range comments {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		b.WriteString(strings.TrimSpace(c.Body))
		b.WriteByte('\n')
	}
	return b.String()
}
