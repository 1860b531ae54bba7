// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package manageorgs

import (
	"fmt"

	"github.com/orcid/sfid-tools/common/options"
	"github.com/orcid/sfid-tools/common/sfid"
)

var Usage = `<options>

Move every salesforce_id reference to the source organization (assertions,
orcid record tokens, send notifications requests and users) to the target
organization, then optionally delete (--merge) or relabel (--force_update)
the source member.

Example:
  manageorgs --target=0012i00000eiI3CAAU --source=0012i00000aQxlxAAC --merge

Environment variables:
  MONGO_URI or MONGO_DB        MongoDB connection string
  MONGO_DATABASE or DATABASE   assertion database (default: assertionservice)
  USER_DATABASE                user database (default: userservice)
  MEMBER_DATABASE              member database (default: memberservice)
  LOG_FILE                     log file (default: manage-organizations.log)`

// LogFile is the default log file of the tool.
const LogFile = "manage-organizations.log"

// Options defines the set of all options for configuring manageorgs.
type Options struct {
	*options.ToolOptions
	*OrganizationOptions
}

// OrganizationOptions defines the organizations to repair.
type OrganizationOptions struct {
	Target      string `long:"target" value-name:"<salesforce-id>" description:"target organization SF iD"`
	Source      string `long:"source" value-name:"<salesforce-id>" description:"organization SF iD to update"`
	Merge       bool   `long:"merge" description:"delete the member source after references are updated"`
	ForceUpdate bool   `long:"force_update" description:"update the member source salesforce id"`
}

// Name returns a human-readable group name for organization options.
func (*OrganizationOptions) Name() string {
	return "organization"
}

// Request returns the repair the options ask for.
func (o *OrganizationOptions) Request() sfid.Request {
	return sfid.Request{
		Source:      o.Source,
		Target:      o.Target,
		Merge:       o.Merge,
		ForceUpdate: o.ForceUpdate,
	}
}

// ParseOptions reads command-line, config file and environment options.
func ParseOptions(rawArgs []string, versionStr, gitCommit string) (Options, error) {
	opts := options.New("manageorgs", versionStr, gitCommit, Usage, LogFile)

	orgOpts := &OrganizationOptions{}
	opts.AddOptions(orgOpts)

	extraArgs, err := opts.ParseArgs(rawArgs)
	if err != nil {
		return Options{}, err
	}
	if len(extraArgs) > 0 {
		return Options{}, fmt.Errorf("error parsing positional arguments: unexpected %q", extraArgs)
	}
	return Options{opts, orgOpts}, nil
}
