/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package webhook

import (
	"github.com/google/go-github/v84/github"
)

// Kind enumerates the deliveries the agent reacts to.
type Kind int

const (
	KindUnsupported Kind = iota
	KindIssueOpened
	KindDiscussionClosed
	KindInstallation
)

func (k Kind) String() string {
	switch k {
	case KindIssueOpened:
		return "issues.opened"
	case KindDiscussionClosed:
		return "discussion.closed"
	case KindInstallation:
		return "installation"
	}
	return "unsupported"
}

// Event is a classified delivery. The set of implementations is closed.
type Event interface {
	Kind() Kind
	event()
}

// IssueOpened is an issues event with action "opened".
type IssueOpened struct {
	Payload *github.IssuesEvent
}

// DiscussionClosed is a discussion event with action "closed".
type DiscussionClosed struct {
	Payload *github.DiscussionEvent
}

// InstallationChanged reports the App being installed, removed, or granted
// access to more repositories.
type InstallationChanged struct {
	InstallationID int64
	// Action is the delivery's action, e.g. "created", "deleted" or "added".
	Action string
}

// Removed reports whether the installation can no longer be used.
func (e InstallationChanged) Removed() bool {
	return e.Action == "deleted" || e.Action == "suspend"
}

// Unsupported is every other delivery.
type Unsupported struct {
	EventType string
	Action    string
}

func (IssueOpened) Kind() Kind         { return KindIssueOpened }
func (DiscussionClosed) Kind() Kind    { return KindDiscussionClosed }
func (InstallationChanged) Kind() Kind { return KindInstallation }
func (Unsupported) Kind() Kind         { return KindUnsupported }

func (IssueOpened) event()         {}
func (DiscussionClosed) event()    {}
func (InstallationChanged) event() {}
func (Unsupported) event()         {}

// actioned is satisfied by every go-github event payload with an action.
type actioned interface {
	GetAction() string
}

// Classify maps a parsed go-github payload onto an Event.
func Classify(eventType string, payload any) Event {
	switch p := payload.(type) {
	case *github.IssuesEvent:
		if p.GetAction() == "opened" {
			return IssueOpened{Payload: p}
		}
	case *github.DiscussionEvent:
		if p.GetAction() == "closed" {
			return DiscussionClosed{Payload: p}
		}
	case *github.InstallationEvent:
		switch p.GetAction() {
		case "created", "deleted", "suspend", "unsuspend":
			return InstallationChanged{InstallationID: p.GetInstallation().GetID(), Action: p.GetAction()}
		}
	case *github.InstallationRepositoriesEvent:
		if p.GetAction() == "added" {
			return InstallationChanged{InstallationID: p.GetInstallation().GetID(), Action: p.GetAction()}
		}
	}

	u := Unsupported{EventType: eventType}
	if a, ok := payload.(actioned); ok {
		u.Action = a.GetAction()
	}
	return u
}
