// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package manageorgs moves salesforce_id references from one member
// organization to another and merges or relabels the source member.
package manageorgs

import (
	"context"

	"github.com/orcid/sfid-tools/common/db"
	"github.com/orcid/sfid-tools/common/log"
	"github.com/orcid/sfid-tools/common/prompt"
	"github.com/orcid/sfid-tools/common/sfid"
	"github.com/orcid/sfid-tools/common/util"
	"github.com/pkg/errors"
)

// ErrVerificationFailed is returned when references to the source remain
// after a rewrite. Updates already applied are kept.
var ErrVerificationFailed = errors.New("verification failed")

// ConfirmFunc asks the operator whether to proceed.
type ConfirmFunc func(ctx context.Context, question string) (bool, error)

// ManageOrgs is a container for the user-specified options and the
// collections the repair reads and patches.
type ManageOrgs struct {
	Options     Options
	Log         *log.ToolLogger
	Collections sfid.Collections

	// Confirm is asked once, after the reports and before the first write.
	Confirm ConfirmFunc

	connections []*db.Connection
}

// New connects to the assertion, user and member databases.
func New(ctx context.Context, opts Options, logger *log.ToolLogger) (*ManageOrgs, error) {
	m := &ManageOrgs{
		Options: opts,
		Log:     logger,
		Confirm: func(ctx context.Context, question string) (bool, error) {
			return prompt.ConfirmStdin(ctx, logger, question)
		},
	}

	dbs := opts.Config.Databases
	conns := make(map[string]*db.Connection)
	for _, name := range []string{dbs.Assertion, dbs.User, dbs.Member} {
		if _, ok := conns[name]; ok {
			continue
		}
		conn, err := db.Connect(ctx, *opts.ToolOptions, name)
		if err != nil {
			m.Close()
			return nil, util.SetupError{Err: errors.Wrapf(err, "Failed to connect to %v MongoDB", name), Code: util.ExitFailure}
		}
		conns[name] = conn
		m.connections = append(m.connections, conn)
	}

	m.Collections = sfid.Collections{
		Assertions:    conns[dbs.Assertion].Collection(db.AssertionCollection),
		OrcidRecords:  conns[dbs.Assertion].Collection(db.OrcidRecordCollection),
		Notifications: conns[dbs.Assertion].Collection(db.NotificationCollection),
		Users:         conns[dbs.User].Collection(db.UserCollection),
		Members:       conns[dbs.Member].Collection(db.MemberCollection),
	}
	return m, nil
}

// Close releases the connections opened by New.
func (m *ManageOrgs) Close() {
	for _, c := range m.connections {
		c.Close()
	}
	m.connections = nil
}

// Run performs the repair. It returns nil when the repair completed, when
// there was nothing to do, and when the operator declined to proceed.
// Validation errors are returned before anything is written.
func (m *ManageOrgs) Run(ctx context.Context) error {
	req := m.Options.Request()
	idLength := m.Options.Config.IDLength
	m.logHeader(req)

	finalizer := &sfid.MemberFinalizer{Log: m.Log, Members: m.Collections.Members, Request: req, IDLength: idLength}
	if _, err := finalizer.Check(ctx); err != nil {
		return err
	}

	finder := &sfid.Finder{Log: m.Log, Collections: m.Collections, IDLength: idLength}
	reporter := &sfid.Reporter{Log: m.Log}
	ref := sfid.References(req.Source)

	assertions := finder.FindAssertions(ctx, req.Source)
	records := finder.FindOrcidRecords(ctx, req.Source)
	notifications := finder.FindNotifications(ctx, req.Source)

	reporter.Assertions(assertions)
	reporter.OrcidRecords(records, ref)
	reporter.Notifications(notifications)

	resolver := &sfid.OwnerResolver{Log: m.Log, Finder: finder}
	owners, err := resolver.Resolve(ctx, req)
	if err != nil {
		return err
	}
	reporter.Users(owners.SourceUsers)

	if ctx.Err() != nil {
		return util.ErrTerminated
	}

	plan := sfid.Plan{
		Request:       req,
		Assertions:    len(assertions),
		OrcidRecords:  len(records),
		Notifications: len(notifications),
		Users:         len(owners.SourceUsers),
		ClearsOwner:   owners.ClearsOwner(),
	}
	if plan.Empty() {
		m.Log.Logv(log.Always, "\n No fixes needed. All assertions, orcid records, send notifications request and users are correct.")
		return nil
	}

	reporter.Summary(plan)
	ok, err := m.Confirm(ctx, "\nDo you want to proceed?")
	if err != nil {
		m.Log.Logv(log.Always, "\n\n Operation cancelled by user")
		return err
	}
	if !ok {
		m.Log.Logv(log.Always, "\n Operation cancelled by user")
		return nil
	}

	rewriter := &sfid.Rewriter{Log: m.Log, Collections: m.Collections, Source: req.Source, Target: req.Target}
	verifier := &sfid.Verifier{Log: m.Log, Finder: finder}

	steps := []struct {
		kind    string
		rewrite func() int64
		verify  func() bool
	}{
		{
			"assertions",
			func() int64 { return rewriter.RewriteAssertions(ctx, assertions) },
			func() bool { return verifier.VerifyAssertions(ctx, ref) },
		},
		{
			"orcid records",
			func() int64 { return rewriter.RewriteOrcidRecords(ctx, records) },
			func() bool { return verifier.VerifyOrcidRecords(ctx, ref) },
		},
		{
			"send notifications request",
			func() int64 { return rewriter.RewriteNotifications(ctx, notifications) },
			func() bool { return verifier.VerifyNotifications(ctx, ref) },
		},
		{
			"users",
			func() int64 { return rewriter.RewriteUsers(ctx, owners) },
			func() bool { return verifier.VerifyUsers(ctx, ref) },
		},
	}
	for _, step := range steps {
		modified := step.rewrite()
		if ctx.Err() != nil {
			return util.ErrTerminated
		}
		if modified > 0 && !step.verify() {
			m.Log.Warnf("\n Some %v may still need attention", step.kind)
			return errors.Wrapf(ErrVerificationFailed, "%v still reference %v", step.kind, req.Source)
		}
	}

	finalizer.Finalize(ctx)

	m.Log.Logv(log.Always, "\n"+sfid.Banner)
	m.Log.Logv(log.Always, "Script completed successfully")
	m.Log.Logv(log.Always, sfid.Banner)
	return nil
}

func (m *ManageOrgs) logHeader(req sfid.Request) {
	opts := m.Options
	dbs := opts.Config.Databases

	m.Log.Logv(log.Always, sfid.Banner)
	m.Log.Logv(log.Always, "Manage organizations")
	m.Log.Logv(log.Always, sfid.Banner)
	m.Log.Logvf(log.Always, "Databases: %v, %v and %v", dbs.Assertion, dbs.User, dbs.Member)
	m.Log.Logvf(log.Always, "Collections: %v, %v, %v, %v and %v",
		db.AssertionCollection, db.OrcidRecordCollection, db.NotificationCollection, db.UserCollection, db.MemberCollection)
	m.Log.Logvf(log.Always, "MongoDB URI: %v", util.Truncate(util.SanitizeURI(opts.URI.ConnectionString), 20))
	m.Log.Logvf(log.Always, "Target SF iD: %v", req.Target)
	m.Log.Logvf(log.Always, "Source SF iD: %v", req.Source)
	m.Log.Logvf(log.Always, "Merge option: %v", req.Merge)
	m.Log.Logvf(log.Always, "Force update member option: %v", req.ForceUpdate)
	m.Log.Logv(log.Always, sfid.Banner+"\n")
}
