// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package sfid

import (
	"context"
	"testing"

	"github.com/orcid/sfid-tools/common/testtype"
	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func TestOwnerResolver(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	ctx := context.Background()
	merge := Request{Source: sourceID, Target: targetID, Merge: true}

	Convey("With users in the source and target organizations", t, func() {
		f := newFixture()
		logger, buf := newTestLogger()
		resolver := &OwnerResolver{Log: logger, Finder: f.finder(logger)}

		Convey("both owners flagged clears the source owner only", func() {
			u1 := f.users.Insert(user("u1@example.com", sourceID, true))
			f.users.Insert(user("u3@example.com", sourceID, false))
			f.users.Insert(user("u2@example.com", targetID, true))

			d, err := resolver.Resolve(ctx, merge)
			So(err, ShouldBeNil)
			So(d.SourceUsers, ShouldHaveLength, 2)
			So(d.TargetOwner, ShouldNotBeNil)
			So(d.TargetOwner.Email, ShouldEqual, "u2@example.com")
			So(d.Clear, ShouldResemble, []interface{}{u1})
			So(d.ClearsOwner(), ShouldBeTrue)
			So(buf.String(), ShouldContainSubstring, "User email=u2@example.com is the organization owner")
		})

		Convey("only the source owner flagged carries it over", func() {
			f.users.Insert(user("u1@example.com", sourceID, true))
			f.users.Insert(user("u2@example.com", targetID, false))

			d, err := resolver.Resolve(ctx, merge)
			So(err, ShouldBeNil)
			So(d.TargetOwner, ShouldBeNil)
			So(d.SourceOwners, ShouldHaveLength, 1)
			So(d.ClearsOwner(), ShouldBeFalse)
		})

		Convey("only the target owner flagged clears nothing", func() {
			f.users.Insert(user("u1@example.com", sourceID, false))
			f.users.Insert(user("u2@example.com", targetID, true))

			d, err := resolver.Resolve(ctx, Request{Source: sourceID, Target: targetID, ForceUpdate: true})
			So(err, ShouldBeNil)
			So(d.TargetOwner, ShouldNotBeNil)
			So(d.ClearsOwner(), ShouldBeFalse)
		})

		Convey("no owner on either side fails on merge and force update", func() {
			f.users.Insert(user("u1@example.com", sourceID, false))
			f.users.Insert(user("u2@example.com", targetID, false))

			_, err := resolver.Resolve(ctx, merge)
			So(errors.Is(err, ErrNoOwner), ShouldBeTrue)

			_, err = resolver.Resolve(ctx, Request{Source: sourceID, Target: targetID, ForceUpdate: true})
			So(errors.Is(err, ErrNoOwner), ShouldBeTrue)
			So(f.writes(), ShouldEqual, 0)
		})

		Convey("a plain update has no owner requirement", func() {
			f.users.Insert(user("u1@example.com", sourceID, true))
			f.users.Insert(user("u2@example.com", targetID, true))

			d, err := resolver.Resolve(ctx, Request{Source: sourceID, Target: targetID})
			So(err, ShouldBeNil)
			So(d.SourceUsers, ShouldHaveLength, 1)
			So(d.ClearsOwner(), ShouldBeFalse)
			So(buf.String(), ShouldContainSubstring,
				"WARNING: target salesforce_id="+targetID+" already has an organization owner; 1 owner(s) moved from source salesforce_id="+sourceID+" will leave it with more than one")

			f.users.Insert(user("u4@example.com", sourceID, false))
			_, err = resolver.Resolve(ctx, Request{Source: otherID, Target: targetID})
			So(err, ShouldBeNil)
		})

		Convey("a plain update onto an organization without an owner does not warn", func() {
			f.users.Insert(user("u1@example.com", sourceID, true))
			f.users.Insert(user("u2@example.com", targetID, false))

			_, err := resolver.Resolve(ctx, Request{Source: sourceID, Target: targetID})
			So(err, ShouldBeNil)
			So(buf.String(), ShouldNotContainSubstring, "WARNING")
		})
	})
}
