// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Main package for the findshortids tool.
package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/orcid/sfid-tools/common/log"
	"github.com/orcid/sfid-tools/common/options"
	"github.com/orcid/sfid-tools/common/signals"
	"github.com/orcid/sfid-tools/common/util"
	"github.com/orcid/sfid-tools/findshortids"
	"github.com/pkg/errors"
)

var (
	VersionStr = "built-without-version-string"
	GitCommit  = "build-without-git-commit"
)

func main() {
	os.Exit(run())
}

func run() int {
	// variables already set in the environment win over .env
	_ = godotenv.Load()

	logger := log.NewToolLogger(nil)

	// initialize command-line opts
	opts, err := findshortids.ParseOptions(os.Args[1:], VersionStr, GitCommit)
	if err != nil {
		logger.Logvf(log.Always, "error parsing command line options: %s", err.Error())
		logger.Logv(log.Always, util.ShortUsage("findshortids"))
		return util.ExitBadOptions
	}

	// print help, if specified
	if opts.PrintHelp(false) {
		return util.ExitSuccess
	}

	// print version, if specified
	if opts.PrintVersion() {
		return util.ExitSuccess
	}

	logger.SetVerbosity(opts.Verbosity)
	for _, warning := range options.SensitiveOptionWarnings(os.Args[1:]) {
		logger.Logv(log.Always, warning)
	}
	if err := logger.AddFile(opts.Config.LogFile); err != nil {
		logger.Warnf("%v; logging to stderr only", err)
	}
	defer logger.Close()

	ctx, stop := signals.Handle(context.Background(), logger)
	defer stop()

	tool, err := findshortids.New(ctx, opts, logger)
	if err != nil {
		logger.Errorf("%v. Exiting.", err)
		var setupErr util.SetupError
		if errors.As(err, &setupErr) {
			return setupErr.Code
		}
		return util.ExitFailure
	}
	defer tool.Close()

	if _, err := tool.Run(ctx); err != nil {
		if errors.Is(err, util.ErrTerminated) {
			logger.Logv(log.Always, "\n\n Operation cancelled by user (Ctrl+C)")
		} else {
			logger.Errorf("\n Unexpected error: %v", err)
		}
		return util.ExitFailure
	}
	return util.ExitSuccess
}
