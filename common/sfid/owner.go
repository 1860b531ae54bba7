// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package sfid

import (
	"context"

	"github.com/orcid/sfid-tools/common/log"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// OwnerDecision is the outcome of inspecting the users of the source and
// target organizations.
type OwnerDecision struct {
	// SourceUsers are the users whose references will be rewritten.
	SourceUsers []User

	// TargetOwner is the target organization's flagged user, if any.
	TargetOwner *User

	// SourceOwners are the source organization's flagged users.
	SourceOwners []User

	// Clear holds the _id of every source user whose main_contact flag must
	// be cleared before the rewrite.
	Clear []interface{}
}

// ClearsOwner reports whether any flag will be cleared.
func (d OwnerDecision) ClearsOwner() bool {
	return len(d.Clear) > 0
}

// OwnerResolver keeps at most one main contact per organization when users
// are moved from the source organization to the target.
type OwnerResolver struct {
	Log    *log.ToolLogger
	Finder *Finder
}

// Resolve finds the source organization's users and decides which owner
// flags to clear. When req merges or force updates, one of the two
// organizations must have an owner; ErrNoOwner is returned otherwise.
func (o *OwnerResolver) Resolve(ctx context.Context, req Request) (OwnerDecision, error) {
	o.Log.Logv(log.Always, "\n"+Banner)
	o.Log.Logv(log.Always, "Searching for users to update...")
	o.Log.Logv(log.Always, Banner)

	d := OwnerDecision{SourceUsers: o.Finder.FindUsers(ctx, req.Source)}
	d.SourceOwners = lo.Filter(d.SourceUsers, func(u User, _ int) bool { return u.MainContact })

	targetUsers := o.Finder.FindUsers(ctx, req.Target)
	if owner, ok := lo.Find(targetUsers, func(u User) bool { return u.MainContact }); ok {
		o.Log.Logvf(log.Always, "User email=%v is the organization owner of the target salesforce_id=%v", owner.Email, req.Target)
		d.TargetOwner = &owner
	}

	if !req.NeedsOwner() {
		// a plain update moves every owner flag as is
		if d.TargetOwner != nil && len(d.SourceOwners) > 0 {
			o.Log.Warnf("target salesforce_id=%v already has an organization owner; %d owner(s) moved from source salesforce_id=%v will leave it with more than one",
				req.Target, len(d.SourceOwners), req.Source)
		}
		return d, nil
	}

	if d.TargetOwner != nil {
		d.Clear = lo.Map(d.SourceOwners, func(u User, _ int) interface{} { return u.ID })
	}

	if len(d.SourceOwners) == 0 && d.TargetOwner == nil {
		return d, errors.Wrapf(ErrNoOwner, "source=%s target=%s", req.Source, req.Target)
	}
	return d, nil
}
