// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

// Package dblogger wires capture, sinks, and the pipe writer into one
// per-process [Context].
//
// An application builds a Context once at startup and installs its
// hooks on each database context it creates:
//
//	logs, err := dblogger.New(dblogger.Options{
//	    Logger:       logger,
//	    LogDirectory: "/var/log/myapp/sql",
//	    Pipe:         true,
//	    PipeWriter:   pipe.WriterConfig{SocketPath: socketPath},
//	})
//	if err != nil {
//	    return err
//	}
//	defer logs.Close()
//	db.SetLogHook(logs.Fragments("BlogContext"))
//
// Close gives the pipe writer its grace period to deliver what is
// queued. Nothing here is global; tests build as many Contexts as
// they like.
package dblogger
