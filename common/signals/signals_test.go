// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package signals

import (
	"bytes"
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/orcid/sfid-tools/common/log"
	"github.com/orcid/sfid-tools/common/options"
	"github.com/orcid/sfid-tools/common/testtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalCancelsContext(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	buf := &bytes.Buffer{}
	logger := log.NewToolLogger(&options.Verbosity{})
	logger.SetWriter(buf)

	ctx, stop := handle(context.Background(), logger, syscall.SIGUSR1)
	defer stop()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR1))

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context was not cancelled by the signal")
	}
	// the line is written before the context is cancelled
	assert.Contains(t, buf.String(), "received; attempting to shut down")
}

func TestStopCancelsContext(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	ctx, stop := Handle(context.Background(), log.NewToolLogger(&options.Verbosity{}))
	stop()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
