// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package util

import (
	"github.com/pkg/errors"
)

const (
	ExitFailure    int = 1
	ExitSuccess    int = 0
	ExitBadOptions int = 3
	// Go reserves exit code 2 for its own use
)

var (
	ErrTerminated = errors.New("received termination signal")
)

// SetupError is returned by the tool constructors to convey what went wrong
// and the exit code the process should end with.
type SetupError struct {
	Err  error
	Code int
}

// Error implements the error interface.
func (se SetupError) Error() string {
	return se.Err.Error()
}

// Unwrap exposes the underlying error to errors.Is and errors.As.
func (se SetupError) Unwrap() error {
	return se.Err
}

// ShortUsage returns the message pointing the operator at --help.
func ShortUsage(tool string) string {
	return "try '" + tool + " --help' for more information"
}
