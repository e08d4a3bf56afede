/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package generate produces text from a hosted or local language model.
//
// A Client hides the provider behind a single Generate call. Requests name a
// model class rather than a model so that workflows stay portable across
// providers; each provider maps the classes to concrete models, which can be
// overridden with WithModel.
//
//	gen, err := generate.New(ctx, generate.OpenAI, token)
//	if err != nil {
//		return err
//	}
//	text, err := gen.Generate(ctx, generate.Request{
//		System: "You are a product manager.",
//		Prompt: prompt,
//		Class:  generate.Small,
//	})
package generate
