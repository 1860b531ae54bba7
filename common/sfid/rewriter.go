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

// Rewriter moves references from Source to Target. Every step is best
// effort: a failed database call is logged and the step reports zero
// modified documents.
type Rewriter struct {
	Log         *log.ToolLogger
	Collections Collections
	Source      string
	Target      string
}

// RewriteAssertions rewrites every assertion referencing the source.
// found is what the finder returned; nothing is written when it is empty.
func (r *Rewriter) RewriteAssertions(ctx context.Context, found []AssertionRecord) int64 {
	return r.rewriteAll(ctx, r.Collections.Assertions, len(found), "assertions")
}

// RewriteNotifications rewrites every notification request referencing the
// source.
func (r *Rewriter) RewriteNotifications(ctx context.Context, found []Notification) int64 {
	return r.rewriteAll(ctx, r.Collections.Notifications, len(found), "send notifications request")
}

// RewriteOrcidRecords rewrites, one array element at a time, every token of
// the found records that references the source. Tokens referencing other
// organizations, or nothing, are left alone.
func (r *Rewriter) RewriteOrcidRecords(ctx context.Context, found []OrcidRecord) int64 {
	if len(found) == 0 {
		r.Log.Logv(log.Always, "No orcid records to fix")
		return 0
	}
	r.Log.Logvf(log.Always, "\n Applying fixes to %d orcid records...", len(found))

	var modified int64
	for _, record := range found {
		for i, token := range record.Tokens {
			if s, ok := token.Reference(); !ok || s != r.Source {
				continue
			}
			res, err := r.Collections.OrcidRecords.UpdateOne(ctx,
				TokenElementQuery(record.ID, i, r.Source),
				TokenElementUpdate(i, r.Target))
			if err != nil {
				r.logFailure("orcid records", err)
				return 0
			}
			if res.Matched != res.Modified {
				r.Log.Warnf("orcid record %v token %d: matched %d, modified %d", record.ID, i, res.Matched, res.Modified)
			}
			modified += res.Modified
			r.Log.Logvf(log.Info, "Updated SF iD on orcid record %v token %d: source=%v, target=%v", record.ID, i, r.Source, r.Target)
		}
	}

	r.Log.Logvf(log.Always, " Successfully updated %d orcid record tokens", modified)
	return modified
}

// RewriteUsers clears the owner flags named by the decision, then rewrites
// every user referencing the source.
func (r *Rewriter) RewriteUsers(ctx context.Context, d OwnerDecision) int64 {
	if len(d.SourceUsers) == 0 {
		r.Log.Logv(log.Always, "No users to fix")
		return 0
	}
	r.Log.Logvf(log.Always, "\n Applying fixes to %d users...", len(d.SourceUsers))

	for _, id := range d.Clear {
		res, err := r.Collections.Users.UpdateOne(ctx, IDQuery(id), SetUpdate(MainContactField, false))
		if err != nil {
			r.logFailure("users", err)
			return 0
		}
		if res.Modified == 1 {
			r.Log.Logvf(log.Always, "Removing organization owner flag from user %v of source member salesforce_id %v", id, r.Source)
		} else {
			r.Log.Errorf("Error updating organization owner flag of user %v from source member salesforce_id %v", id, r.Source)
		}
	}

	return r.bulkRewrite(ctx, r.Collections.Users, "users")
}

func (r *Rewriter) rewriteAll(ctx context.Context, coll db.Collection, found int, kind string) int64 {
	if found == 0 {
		r.Log.Logvf(log.Always, "No %v to fix", kind)
		return 0
	}
	r.Log.Logvf(log.Always, "\n Applying fixes to %d %v...", found, kind)
	return r.bulkRewrite(ctx, coll, kind)
}

func (r *Rewriter) bulkRewrite(ctx context.Context, coll db.Collection, kind string) int64 {
	res, err := coll.UpdateMany(ctx,
		EqualsQuery(SalesforceIDField, r.Source),
		SetUpdate(SalesforceIDField, r.Target))
	if err != nil {
		r.logFailure(kind, err)
		return 0
	}

	r.Log.Logvf(log.Always, " Successfully updated %d %v", res.Modified, kind)
	r.Log.Logvf(log.Always, "   Matched: %d", res.Matched)
	r.Log.Logvf(log.Always, "   Modified: %d", res.Modified)
	if res.Matched > res.Modified {
		r.Log.Warnf("%d of %d matched %v were not modified", res.Matched-res.Modified, res.Matched, kind)
	}
	return res.Modified
}

func (r *Rewriter) logFailure(kind string, err error) {
	if db.IsOperationFailure(err) {
		r.Log.Errorf(" Failed to update %v: %v", kind, err)
		return
	}
	r.Log.Errorf(" Unexpected error during update of %v: %v", kind, err)
}
