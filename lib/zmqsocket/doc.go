// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package zmqsocket binds kernel channels on ZeroMQ sockets.
//
// Socket types follow the role: ROUTER for shell, control, and stdin
// so replies can be routed back by identity; PUB for iopub; REP for
// heartbeat. Endpoints are the tcp:// and ipc:// addresses produced by
// kernel.ConnectionConfig.Endpoint.
//
//	binder, err := zmqsocket.New()
//	defer binder.Close()
//	connection, err := kernel.Open(config, binder, nil)
//
// Polling uses the socket's ZMQ_EVENTS, so Poll never blocks. The
// package links libzmq through cgo; everything else in the kernel is
// tested against in-memory sockets and does not need it.
package zmqsocket
