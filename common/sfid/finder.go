// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package sfid

import (
	"context"

	"github.com/orcid/sfid-tools/common/db"
	"github.com/orcid/sfid-tools/common/log"
)

// Collections holds the collections a run reads and patches. Tools leave
// nil the ones they never touch.
type Collections struct {
	Assertions    db.Collection
	OrcidRecords  db.Collection
	Notifications db.Collection
	Users         db.Collection
	Members       db.Collection
}

// Finder runs the read-only queries. A failed query is logged and reported
// as no results so that the other collections are still searched.
type Finder struct {
	Log         *log.ToolLogger
	Collections Collections
	IDLength    int
}

func (f *Finder) FindShortAssertions(ctx context.Context) []AssertionRecord {
	return f.Assertions(ctx, ShortIDs(f.IDLength))
}

func (f *Finder) FindShortOrcidRecords(ctx context.Context) []OrcidRecord {
	return f.OrcidRecords(ctx, ShortIDs(f.IDLength))
}

func (f *Finder) FindShortNotifications(ctx context.Context) []Notification {
	return f.Notifications(ctx, ShortIDs(f.IDLength))
}

func (f *Finder) FindShortUsers(ctx context.Context) []User {
	return f.Users(ctx, ShortIDs(f.IDLength))
}

func (f *Finder) FindAssertions(ctx context.Context, source string) []AssertionRecord {
	return f.Assertions(ctx, References(source))
}

func (f *Finder) FindOrcidRecords(ctx context.Context, source string) []OrcidRecord {
	return f.OrcidRecords(ctx, References(source))
}

func (f *Finder) FindNotifications(ctx context.Context, source string) []Notification {
	return f.Notifications(ctx, References(source))
}

func (f *Finder) FindUsers(ctx context.Context, source string) []User {
	return f.Users(ctx, References(source))
}

// Assertions returns the assertions whose salesforce_id is selected by c.
func (f *Finder) Assertions(ctx context.Context, c Criterion) []AssertionRecord {
	return find[AssertionRecord](ctx, f.Log, f.Collections.Assertions, c.Query(SalesforceIDField), "assertions")
}

// OrcidRecords returns the ORCID records holding a token selected by c.
func (f *Finder) OrcidRecords(ctx context.Context, c Criterion) []OrcidRecord {
	return find[OrcidRecord](ctx, f.Log, f.Collections.OrcidRecords, c.TokensQuery(), "orcid records")
}

// Notifications returns the notification requests whose salesforce_id is
// selected by c.
func (f *Finder) Notifications(ctx context.Context, c Criterion) []Notification {
	return find[Notification](ctx, f.Log, f.Collections.Notifications, c.Query(SalesforceIDField), "send notifications request")
}

// Users returns the users whose salesforce_id is selected by c.
func (f *Finder) Users(ctx context.Context, c Criterion) []User {
	return find[User](ctx, f.Log, f.Collections.Users, c.Query(SalesforceIDField), "users")
}

func find[T any](ctx context.Context, logger *log.ToolLogger, coll db.Collection, q db.Query, kind string) []T {
	logger.Logvf(log.Info, "Searching for %v...", kind)
	logger.Logvf(log.DebugHigh, "filter on %v: %v", coll.Name(), q.Filter)

	var results []T
	err := coll.Find(ctx, q, &results)
	switch {
	case err == nil:
	case db.IsOperationFailure(err):
		logger.Errorf("Failed to query %v: %v", kind, err)
		return []T{}
	default:
		logger.Errorf("Unexpected error during query of %v: %v", kind, err)
		return []T{}
	}

	logger.Logvf(log.Always, "Found %d %v to fix", len(results), kind)
	if results == nil {
		return []T{}
	}
	return results
}
