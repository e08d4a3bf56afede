/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package voting instantiates feature-vote contracts and renders the ballot
// that links to them.
package voting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chainguard-dev/clog"
)

// VotingPeriod is how long a vote stays open.
const VotingPeriod = 24 * time.Hour

// ErrContractInstantiationFailed is returned when a broadcast succeeded but
// did not report a contract address.
var ErrContractInstantiationFailed = errors.New("contract instantiation failed")

// InstantiateMsg is the vote contract's instantiate message.
type InstantiateMsg struct {
	Candidates []string `json:"candidates"`
	// Deadline is in nanoseconds since the Unix epoch, the unit of block time.
	Deadline uint64 `json:"deadline"`
}

// InstantiateRequest asks the broadcaster to instantiate stored code.
type InstantiateRequest struct {
	CodeID uint64
	Label  string
	Msg    InstantiateMsg
}

// Attribute is a key/value pair of a transaction event.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Event is an event emitted by a transaction.
type Event struct {
	Type       string      `json:"type"`
	Attributes []Attribute `json:"attributes"`
}

// TxResult is the outcome of a broadcast transaction.
type TxResult struct {
	TxHash string  `json:"txhash"`
	Code   uint32  `json:"code"`
	RawLog string  `json:"raw_log"`
	Events []Event `json:"events"`
}

// Broadcaster signs and submits transactions.
type Broadcaster interface {
	Instantiate(ctx context.Context, req InstantiateRequest) (*TxResult, error)
}

// ContractAddress returns the _contract_address attribute of the first
// instantiate event.
func ContractAddress(events []Event) (string, error) {
	for _, e := range events {
		if e.Type != "instantiate" {
			continue
		}
		for _, a := range e.Attributes {
			if a.Key == "_contract_address" && a.Value != "" {
				return a.Value, nil
			}
		}
	}
	return "", fmt.Errorf("%w: no instantiate event with a contract address", ErrContractInstantiationFailed)
}

// Instantiator creates vote contracts from a stored code ID.
type Instantiator struct {
	codeID      uint64
	broadcaster Broadcaster
	now         func() time.Time
}

// InstantiatorOption configures an Instantiator.
type InstantiatorOption func(*Instantiator)

// WithClock replaces time.Now when computing deadlines.
func WithClock(now func() time.Time) InstantiatorOption {
	return func(i *Instantiator) { i.now = now }
}

// NewInstantiator returns an Instantiator for codeID.
func NewInstantiator(codeID uint64, b Broadcaster, opts ...InstantiatorOption) *Instantiator {
	i := &Instantiator{codeID: codeID, broadcaster: b, now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Instantiate opens a vote over candidates that closes VotingPeriod from
// now, and returns the new contract's address.
func (i *Instantiator) Instantiate(ctx context.Context, label string, candidates []string) (string, error) {
	deadline := i.now().Add(VotingPeriod)
	res, err := i.broadcaster.Instantiate(ctx, InstantiateRequest{
		CodeID: i.codeID,
		Label:  label,
		Msg: InstantiateMsg{
			Candidates: candidates,
			Deadline:   uint64(deadline.UnixNano()),
		},
	})
	if err != nil {
		return "", fmt.Errorf("broadcast instantiate: %w", err)
	}
	if res.Code != 0 {
		return "", fmt.Errorf("%w: tx %s returned code %d: %s", ErrContractInstantiationFailed, res.TxHash, res.Code, res.RawLog)
	}
	addr, err := ContractAddress(res.Events)
	if err != nil {
		return "", fmt.Errorf("tx %s: %w", res.TxHash, err)
	}
	clog.FromContext(ctx).With("tx", res.TxHash).
		With("contract", addr).
		With("deadline", deadline).
		Info("Instantiated vote contract")
	return addr, nil
}
