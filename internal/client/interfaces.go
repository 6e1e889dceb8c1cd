// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ENotebook Authors

package client

// Client defines the minimal lifecycle contract for runnable daemon
// applications.
type Client interface {
	// Run starts the daemon and blocks until exit.
	Run() error
}
