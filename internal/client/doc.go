// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ENotebook Authors

// Package client implements the sync daemon runtime.
//
// It wires the event bus, background jobs and the sync orchestrator into a
// single process lifecycle: an initial cycle at startup, periodic probes and
// syncs afterwards, and a clean shutdown on SIGINT/SIGTERM.
package client
