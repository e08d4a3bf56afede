/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package promptbuilder assembles model prompts from templates with
// `{{name}}` placeholders.
//
// Templates are tokenized once when the prompt is created and substitution is
// single-pass: text bound to a placeholder is never re-scanned, so issue
// bodies or discussion comments containing `{{...}}` are passed through
// verbatim rather than expanded.
//
// Prompts are immutable. Every Bind method returns a new Prompt, which lets a
// package-level template be shared by concurrent webhook deliveries:
//
//	var triage = promptbuilder.MustNewPrompt(`Title: {{title}}`)
//
//	p, err := triage.BindText("title", issue.GetTitle())
//	if err != nil {
//		return err
//	}
//	prompt, err := p.Build()
package promptbuilder
