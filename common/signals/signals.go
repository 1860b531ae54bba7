// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package signals turns termination signals into context cancellation.
package signals

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/orcid/sfid-tools/common/log"
)

// Handle returns a context that is cancelled when the process receives
// SIGINT or SIGTERM. The returned stop function releases the signal handler
// and must be called once the tool is done.
func Handle(parent context.Context, logger *log.ToolLogger) (context.Context, func()) {
	return handle(parent, logger, os.Interrupt, syscall.SIGTERM)
}

func handle(parent context.Context, logger *log.ToolLogger, sigs ...os.Signal) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, sigs...)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Logvf(log.Always, "signal '%s' received; attempting to shut down", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
