// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package kernel implements the server side of the interactive kernel
// protocol: the five-channel [Connection], the stateless [Dispatcher]
// that answers each request type, and the [Server] polling loop.
//
// A kernel process loads a [ConnectionConfig] from the connection file
// written by its front-end, opens a Connection through a [Binder] (the
// ZeroMQ binder lives in lib/zmqsocket), and runs a Server:
//
//	config, err := kernel.LoadConnectionFile(path)
//	connection, err := kernel.Open(config, binder, nil)
//	composer := wire.NewComposer("kernel", clock.Now)
//	publisher := kernel.NewPublisher(connection.IOPub(), composer, logger)
//	server := kernel.NewServer(kernel.ServerConfig{
//	    Connection: connection,
//	    Dispatcher: kernel.NewDispatcher(kernel.DispatcherConfig{...}),
//	    Publisher:  publisher,
//	    Evaluator:  evaluator,
//	})
//	err = server.Run(ctx)
//
// Framing and signing happen at the [Channel] boundary: handlers see
// decoded [wire.Message] values only. The heartbeat channel bypasses
// decoding and echoes raw frames.
//
// Every execute_request runs the same sequence: status busy,
// execute_input, evaluation (output forwarded as stream broadcasts),
// execute_result, status idle, and finally execute_reply on the
// originating channel. The execution count comes from one
// [ExecutionCounter] shared by shell and control. Control executions
// never reach the evaluator and render "no repl".
//
// The loop has two states. A shutdown_request, or cancellation of the
// Run context, moves it from [StateRunning] to [StateStopping]; the
// shutdown reply is sent first, and the connection is closed on every
// exit path.
package kernel
