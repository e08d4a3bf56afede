/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package agentruntime is the agent's working context: who it is (its
// Character), whom it has talked to and what was said (its memory store),
// and how it produces text (its generator).
//
// Workflows drive a Runtime through a fixed sequence for every GitHub event:
// EnsureConnection, CreateMemory, ComposeState, Generate, Evaluate.
package agentruntime
