/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package githubapp

import (
	"errors"
	"fmt"
)

// ErrMissingInstallation matches any MissingInstallationError.
var ErrMissingInstallation = errors.New("missing installation")

// MissingInstallationError reports a lookup of an installation the cache
// has never authenticated.
type MissingInstallationError struct {
	InstallationID int64
}

func (e *MissingInstallationError) Error() string {
	return fmt.Sprintf("missing installation %d", e.InstallationID)
}

// Is lets errors.Is(err, ErrMissingInstallation) succeed.
func (e *MissingInstallationError) Is(target error) bool {
	return target == ErrMissingInstallation
}
