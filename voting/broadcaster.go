/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package voting

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

// SignatureHeader carries the HMAC of the request body.
const SignatureHeader = "X-Signature-256"

// HTTPBroadcaster submits transactions to a broadcast service that holds the
// chain account. Requests are signed with a key derived from the account's
// mnemonic; the mnemonic itself is never sent.
type HTTPBroadcaster struct {
	url     string
	client  *http.Client
	sender  string
	signing []byte
}

var _ Broadcaster = (*HTTPBroadcaster)(nil)

// BroadcasterOption configures an HTTPBroadcaster.
type BroadcasterOption func(*HTTPBroadcaster)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(c *http.Client) BroadcasterOption {
	return func(b *HTTPBroadcaster) { b.client = c }
}

// NewHTTPBroadcaster returns a broadcaster posting to url.
func NewHTTPBroadcaster(url, mnemonic string, opts ...BroadcasterOption) (*HTTPBroadcaster, error) {
	if err := ValidateMnemonic(mnemonic); err != nil {
		return nil, err
	}
	seed := Seed(strings.Join(strings.Fields(mnemonic), " "), "")

	signing := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, seed, nil, []byte("pmagent broadcast signing")), signing); err != nil {
		return nil, fmt.Errorf("derive signing key: %w", err)
	}
	id := sha256.Sum256(seed)

	b := &HTTPBroadcaster{
		url:     strings.TrimRight(url, "/"),
		client:  http.DefaultClient,
		sender:  hex.EncodeToString(id[:20]),
		signing: signing,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// ValidateMnemonic checks that mnemonic has a BIP-39 word count.
func ValidateMnemonic(mnemonic string) error {
	switch n := len(strings.Fields(mnemonic)); n {
	case 12, 15, 18, 21, 24:
		return nil
	default:
		return fmt.Errorf("mnemonic has %d words, want 12, 15, 18, 21 or 24", n)
	}
}

// Seed derives the BIP-39 seed of a mnemonic.
func Seed(mnemonic, passphrase string) []byte {
	return pbkdf2.Key([]byte(mnemonic), []byte("mnemonic"+passphrase), 2048, 64, sha512.New)
}

// Sender identifies the account to the broadcast service.
func (b *HTTPBroadcaster) Sender() string { return b.sender }

// Sign returns the signature header value for body.
func (b *HTTPBroadcaster) Sign(body []byte) string {
	mac := hmac.New(sha256.New, b.signing)
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

type instantiateBody struct {
	CodeID uint64         `json:"code_id"`
	Label  string         `json:"label"`
	Msg    InstantiateMsg `json:"msg"`
	Sender string         `json:"sender"`
}

// Instantiate posts req to <url>/instantiate and decodes the transaction
// result.
func (b *HTTPBroadcaster) Instantiate(ctx context.Context, req InstantiateRequest) (*TxResult, error) {
	body, err := json.Marshal(instantiateBody{
		CodeID: req.CodeID,
		Label:  req.Label,
		Msg:    req.Msg,
		Sender: b.sender,
	})
	if err != nil {
		return nil, fmt.Errorf("encode instantiate request: %w", err)
	}

	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url+"/instantiate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	hr.Header.Set("Content-Type", "application/json")
	hr.Header.Set(SignatureHeader, b.Sign(body))

	resp, err := b.client.Do(hr)
	if err != nil {
		return nil, fmt.Errorf("post instantiate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("broadcast service returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	var res TxResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode broadcast result: %w", err)
	}
	if res.TxHash == "" {
		return nil, errors.New("broadcast result has no transaction hash")
	}
	return &res, nil
}
