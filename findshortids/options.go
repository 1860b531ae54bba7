// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package findshortids

import (
	"fmt"

	"github.com/orcid/sfid-tools/common/options"
)

var Usage = `<options>

Report salesforce_id references shorter than the configured identifier length
in the assertion, orcid_record, send_notifications_request and jhi_user
collections. Nothing is modified.

Environment variables:
  MONGO_URI or MONGO_DB        MongoDB connection string
  MONGO_DATABASE or DATABASE   assertion database (default: assertionservice)
  USER_DATABASE                user database (default: userservice)
  LOG_FILE                     log file (default: fix-short-sf-ids.log)`

// LogFile is the default log file of the tool.
const LogFile = "fix-short-sf-ids.log"

// Options defines the set of all options for configuring findshortids.
type Options struct {
	*options.ToolOptions
}

// ParseOptions reads command-line, config file and environment options.
func ParseOptions(rawArgs []string, versionStr, gitCommit string) (Options, error) {
	opts := options.New("findshortids", versionStr, gitCommit, Usage, LogFile)

	extraArgs, err := opts.ParseArgs(rawArgs)
	if err != nil {
		return Options{}, err
	}
	if len(extraArgs) > 0 {
		return Options{}, fmt.Errorf("error parsing positional arguments: unexpected %q", extraArgs)
	}
	return Options{opts}, nil
}
