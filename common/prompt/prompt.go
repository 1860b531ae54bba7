// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package prompt asks the operator to confirm an action before the tools
// modify anything.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/orcid/sfid-tools/common/log"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

// ErrInterrupted is returned when the prompt was abandoned, either by an
// interrupt or by the end of the input, rather than answered.
var ErrInterrupted = errors.New("confirmation interrupted")

// IsTerminal reports whether standard input is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// ConfirmStdin asks question on stderr and reads the answer from stdin.
func ConfirmStdin(ctx context.Context, logger *log.ToolLogger, question string) (bool, error) {
	if IsTerminal() {
		logger.Logv(log.DebugLow, "standard input is a terminal; reading confirmation from terminal")
	} else {
		logger.Logv(log.Always, "reading confirmation from standard input")
	}
	return Confirm(ctx, os.Stdin, os.Stderr, question)
}

type answer struct {
	line string
	err  error
}

// Confirm writes question to out and reads one line from in. It returns true
// only for "yes" or "y", ignoring case and surrounding whitespace. A
// cancelled context or an input that ends before any answer yields
// ErrInterrupted.
func Confirm(ctx context.Context, in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s (yes/no): ", question)

	answers := make(chan answer, 1)
	go func() {
		line, err := bufio.NewReader(in).ReadString('\n')
		answers <- answer{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(out)
		return false, ErrInterrupted
	case a := <-answers:
		if a.err != nil {
			if a.err != io.EOF {
				return false, errors.Wrap(a.err, "reading confirmation")
			}
			if strings.TrimSpace(a.line) == "" {
				fmt.Fprintln(out)
				return false, ErrInterrupted
			}
		}
		return IsYes(a.line), nil
	}
}

// IsYes reports whether response is an affirmative answer.
func IsYes(response string) bool {
	switch strings.ToLower(strings.TrimSpace(response)) {
	case "yes", "y":
		return true
	}
	return false
}
