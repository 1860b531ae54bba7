// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package sfid

import (
	"context"

	"github.com/orcid/sfid-tools/common/log"
)

// Verifier re-runs the finder after a rewrite and reports whether anything
// selected by the criterion is left.
type Verifier struct {
	Log    *log.ToolLogger
	Finder *Finder
}

func (v *Verifier) VerifyAssertions(ctx context.Context, c Criterion) bool {
	v.Log.Logv(log.Always, "\n Verifying fixes assertions...")
	return v.result(len(v.Finder.Assertions(ctx, c)), "assertions")
}

func (v *Verifier) VerifyOrcidRecords(ctx context.Context, c Criterion) bool {
	v.Log.Logv(log.Always, "\n Verifying fixes orcid records...")
	return v.result(len(v.Finder.OrcidRecords(ctx, c)), "orcid records")
}

func (v *Verifier) VerifyNotifications(ctx context.Context, c Criterion) bool {
	v.Log.Logv(log.Always, "\n Verifying fixes send notifications request...")
	return v.result(len(v.Finder.Notifications(ctx, c)), "send notifications request")
}

func (v *Verifier) VerifyUsers(ctx context.Context, c Criterion) bool {
	v.Log.Logv(log.Always, "\n Verifying fixes users...")
	return v.result(len(v.Finder.Users(ctx, c)), "users")
}

func (v *Verifier) result(remaining int, kind string) bool {
	if remaining == 0 {
		v.Log.Logvf(log.Always, " Verification passed: No problematic %v found", kind)
		return true
	}
	v.Log.Warnf(" Verification failed: %d problematic %v still exist", remaining, kind)
	return false
}
