// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package findshortids reports malformed salesforce_id references.
package findshortids

import (
	"context"

	"github.com/orcid/sfid-tools/common/db"
	"github.com/orcid/sfid-tools/common/log"
	"github.com/orcid/sfid-tools/common/options"
	"github.com/orcid/sfid-tools/common/sfid"
	"github.com/orcid/sfid-tools/common/util"
	"github.com/pkg/errors"
)

// FindShortIDs is a container for the user-specified options and the
// collections it searches.
type FindShortIDs struct {
	ToolOptions *options.ToolOptions
	Log         *log.ToolLogger
	Collections sfid.Collections

	connections []*db.Connection
}

// Result holds what the scan found.
type Result struct {
	Assertions    []sfid.AssertionRecord
	OrcidRecords  []sfid.OrcidRecord
	Notifications []sfid.Notification
	Users         []sfid.User
}

// Empty reports whether nothing needs fixing.
func (r Result) Empty() bool {
	return len(r.Assertions) == 0 && len(r.OrcidRecords) == 0 &&
		len(r.Notifications) == 0 && len(r.Users) == 0
}

// New connects to the assertion and user databases.
func New(ctx context.Context, opts Options, logger *log.ToolLogger) (*FindShortIDs, error) {
	f := &FindShortIDs{ToolOptions: opts.ToolOptions, Log: logger}
	dbs := opts.Config.Databases

	assertions, err := db.Connect(ctx, *opts.ToolOptions, dbs.Assertion)
	if err != nil {
		return nil, util.SetupError{Err: errors.Wrapf(err, "Failed to connect to %v MongoDB", dbs.Assertion), Code: util.ExitFailure}
	}
	f.connections = append(f.connections, assertions)

	users, err := db.Connect(ctx, *opts.ToolOptions, dbs.User)
	if err != nil {
		f.Close()
		return nil, util.SetupError{Err: errors.Wrapf(err, "Failed to connect to %v MongoDB", dbs.User), Code: util.ExitFailure}
	}
	f.connections = append(f.connections, users)

	f.Collections = sfid.Collections{
		Assertions:    assertions.Collection(db.AssertionCollection),
		OrcidRecords:  assertions.Collection(db.OrcidRecordCollection),
		Notifications: assertions.Collection(db.NotificationCollection),
		Users:         users.Collection(db.UserCollection),
	}
	return f, nil
}

// Close releases the connections opened by New.
func (f *FindShortIDs) Close() {
	for _, c := range f.connections {
		c.Close()
	}
	f.connections = nil
}

// Run searches every collection and reports what it found.
func (f *FindShortIDs) Run(ctx context.Context) (Result, error) {
	f.logHeader()

	finder := &sfid.Finder{Log: f.Log, Collections: f.Collections, IDLength: f.ToolOptions.Config.IDLength}
	reporter := &sfid.Reporter{Log: f.Log}

	var res Result
	res.Assertions = finder.FindShortAssertions(ctx)
	res.OrcidRecords = finder.FindShortOrcidRecords(ctx)
	res.Notifications = finder.FindShortNotifications(ctx)

	reporter.Assertions(res.Assertions)
	reporter.OrcidRecords(res.OrcidRecords, sfid.ShortIDs(finder.IDLength))
	reporter.Notifications(res.Notifications)

	res.Users = finder.FindShortUsers(ctx)
	reporter.Users(res.Users)

	if ctx.Err() != nil {
		return res, util.ErrTerminated
	}

	if res.Empty() {
		f.Log.Logv(log.Always, "\n No fixes needed. All assertions, orcid records, send notifications request and users are correct.")
		return res, nil
	}

	f.Log.Logv(log.Always, "\n"+sfid.Banner)
	f.Log.Logv(log.Always, "Script completed successfully")
	f.Log.Logv(log.Always, sfid.Banner)
	return res, nil
}

func (f *FindShortIDs) logHeader() {
	opts := f.ToolOptions
	dbs := opts.Config.Databases

	f.Log.Logv(log.Always, sfid.Banner)
	f.Log.Logv(log.Always, "Find short SF iD")
	f.Log.Logv(log.Always, sfid.Banner)
	f.Log.Logvf(log.Always, "Databases: %v, %v", dbs.Assertion, dbs.User)
	f.Log.Logvf(log.Always, "Collections: %v, %v, %v and %v",
		db.AssertionCollection, db.OrcidRecordCollection, db.UserCollection, db.NotificationCollection)
	f.Log.Logvf(log.Always, "MongoDB URI: %v", util.Truncate(util.SanitizeURI(opts.URI.ConnectionString), 20))
	f.Log.Logv(log.Always, sfid.Banner+"\n")
}
