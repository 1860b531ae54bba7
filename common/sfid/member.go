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
	"github.com/pkg/errors"
)

// MemberFinalizer checks the member preconditions before a run and deletes
// or relabels the source member once every reference has moved.
type MemberFinalizer struct {
	Log      *log.ToolLogger
	Members  db.Collection
	Request  Request
	IDLength int
}

// MemberCheck holds the members found by Check. A nil member was not found.
type MemberCheck struct {
	Source *Member
	Target *Member
}

// Check validates the request and the existence of the members it names.
// It never writes.
func (m *MemberFinalizer) Check(ctx context.Context) (MemberCheck, error) {
	m.Log.Logv(log.Always, "\n"+Banner)
	m.Log.Logv(log.Always, "Searching for members to update...")
	m.Log.Logv(log.Always, Banner)

	req := m.Request
	if err := req.Validate(m.IDLength); err != nil {
		return MemberCheck{}, err
	}

	var check MemberCheck
	var err error
	if check.Source, err = m.findMember(ctx, req.Source); err != nil {
		return MemberCheck{}, err
	}
	if check.Target, err = m.findMember(ctx, req.Target); err != nil {
		return MemberCheck{}, err
	}

	switch {
	case req.Merge:
		switch {
		case check.Source == nil && check.Target == nil:
			return check, errors.Wrapf(ErrMemberNotFound, "members to merge not found: source=%s, target=%s", req.Source, req.Target)
		case check.Target == nil:
			return check, errors.Wrapf(ErrMemberNotFound, "member to merge not found: target=%s", req.Target)
		case check.Source == nil:
			return check, errors.Wrapf(ErrMemberNotFound, "member to merge not found: source=%s", req.Source)
		}
	case req.ForceUpdate:
		if check.Source == nil {
			return check, errors.Wrapf(ErrMemberNotFound, "member to update not found: source=%s", req.Source)
		}
		if check.Target != nil {
			return check, errors.Wrapf(ErrMemberExists, "member to update already exists: target=%s", req.Target)
		}
	default:
		if check.Target == nil {
			return check, errors.Wrapf(ErrMemberNotFound, "target member should exist: target=%s", req.Target)
		}
	}

	action := req.Action()
	if check.Source != nil {
		m.Log.Logvf(log.Always, "Found source member to %v salesforce_id=%v, client_name=%v", action, check.Source.SalesforceID, check.Source.ClientName)
	} else {
		m.Log.Logvf(log.Always, "Source member not found to %v salesforce_id=%v", action, req.Source)
	}
	if check.Target != nil {
		m.Log.Logvf(log.Always, "Found target member to %v salesforce_id=%v, client_name=%v", action, check.Target.SalesforceID, check.Target.ClientName)
	} else {
		m.Log.Logvf(log.Always, "Target member to %v not found salesforce_id=%v", action, req.Target)
	}
	m.Log.Logv(log.Always, "\n"+Banner)
	return check, nil
}

func (m *MemberFinalizer) findMember(ctx context.Context, id string) (*Member, error) {
	var member Member
	found, err := m.Members.FindOne(ctx, EqualsQuery(SalesforceIDField, id), &member)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query members")
	}
	if !found {
		return nil, nil
	}
	return &member, nil
}

// Finalize deletes the source member on merge or relabels it on force
// update. Failures are logged; the references have already moved.
func (m *MemberFinalizer) Finalize(ctx context.Context) {
	req := m.Request
	if !req.Merge && !req.ForceUpdate {
		return
	}
	m.Log.Logvf(log.Always, "Updating member salesforce_id=%v", req.Source)

	if req.Merge {
		deleted, err := m.Members.DeleteOne(ctx, EqualsQuery(SalesforceIDField, req.Source))
		switch {
		case err != nil:
			m.Log.Errorf("Failed to delete member salesforce_id=%v: %v", req.Source, err)
		case deleted == 1:
			m.Log.Logvf(log.Always, "Member deleted %v", req.Source)
		default:
			m.Log.Errorf("Failed to delete member salesforce_id=%v", req.Source)
		}
	}

	if req.ForceUpdate {
		res, err := m.Members.UpdateOne(ctx,
			EqualsQuery(SalesforceIDField, req.Source),
			SetUpdate(SalesforceIDField, req.Target))
		switch {
		case err != nil:
			m.Log.Errorf("Failed to update member salesforce_id=%v: %v", req.Source, err)
		case res.Modified == 1:
			m.Log.Logvf(log.Always, "Updated member salesforce_id from %v to %v", req.Source, req.Target)
		default:
			m.Log.Warnf("Member salesforce_id=%v already up to date", req.Source)
		}
	}
}
