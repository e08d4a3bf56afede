/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package githubapp authenticates as a GitHub App and caches one API client
// per installation.
//
// Installation access tokens are valid for an hour. The Cache stamps every
// client it creates with that lifetime and transparently replaces expired
// clients on Get, so callers never hold a stale token for long:
//
//	auth, err := githubapp.NewAppAuthenticator(appID, key)
//	if err != nil {
//		return err
//	}
//	cache := githubapp.NewCache(auth)
//	if _, err := cache.ReconcileAll(ctx); err != nil {
//		return err
//	}
//	client, err := cache.Get(ctx, installationID)
package githubapp
