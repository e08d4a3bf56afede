/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agentruntime

import (
	"fmt"

	"github.com/google/uuid"
)

// namespace scopes every derived identifier to this agent.
var namespace = uuid.MustParse("6f3c2b9e-5d0a-4f8e-9c41-2a7d8e1b0c55")

// StringToUUID derives a stable UUID from s. The same input always yields
// the same identifier, which makes record creation idempotent across
// webhook redeliveries.
func StringToUUID(s string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(s))
}

// UserID identifies a GitHub user.
func UserID(githubUserID int64) uuid.UUID {
	return StringToUUID(fmt.Sprintf("github-user-%d", githubUserID))
}

// RoomID identifies the conversation for one GitHub issue or discussion.
func RoomID(kind string, id int64) uuid.UUID {
	return StringToUUID(fmt.Sprintf("github-%s-%d-room", kind, id))
}

// MemoryID identifies a message within a room.
func MemoryID(kind string, id int64, role string) uuid.UUID {
	return StringToUUID(fmt.Sprintf("github-%s-%d-%s", kind, id, role))
}
