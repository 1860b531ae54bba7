// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package sfid

import (
	"strings"
	"testing"

	"github.com/orcid/sfid-tools/common/testtype"
	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func TestIsShort(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	Convey("An identifier is short when it has fewer than n characters", t, func() {
		So(IsShort(shortID, idLength), ShouldBeTrue)
		So(IsShort(targetID[:17], idLength), ShouldBeTrue)
		So(IsShort("", idLength), ShouldBeTrue)
		So(IsShort(targetID, idLength), ShouldBeFalse)
		So(IsShort(targetID+"X", idLength), ShouldBeFalse)

		Convey("counting code points, not bytes", func() {
			id := strings.Repeat("é", 17)
			So(len(id), ShouldBeGreaterThan, idLength)
			So(IsShort(id, idLength), ShouldBeTrue)
		})
	})
}

func TestRequestValidate(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	Convey("Validating a request", t, func() {
		Convey("a well formed pair passes", func() {
			So(Request{Source: shortID, Target: targetID}.Validate(idLength), ShouldBeNil)
			So(Request{Source: sourceID, Target: targetID, Merge: true}.Validate(idLength), ShouldBeNil)
		})

		Convey("both identifiers are required", func() {
			err := Request{Target: targetID}.Validate(idLength)
			So(errors.Is(err, ErrMissingID), ShouldBeTrue)
			err = Request{Source: shortID}.Validate(idLength)
			So(errors.Is(err, ErrMissingID), ShouldBeTrue)
		})

		Convey("the target must have the configured length", func() {
			err := Request{Source: sourceID, Target: shortID}.Validate(idLength)
			So(errors.Is(err, ErrTargetLength), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, shortID)

			So(Request{Source: sourceID, Target: shortID}.Validate(len(shortID)), ShouldBeNil)
		})

		Convey("source and target must differ", func() {
			err := Request{Source: targetID, Target: targetID}.Validate(idLength)
			So(errors.Is(err, ErrSameID), ShouldBeTrue)
		})

		Convey("merge and force update exclude each other", func() {
			err := Request{Source: sourceID, Target: targetID, Merge: true, ForceUpdate: true}.Validate(idLength)
			So(errors.Is(err, ErrConflictingModes), ShouldBeTrue)
		})
	})

	Convey("The action and owner requirement follow the mode", t, func() {
		So(Request{}.Action(), ShouldEqual, "update")
		So(Request{Merge: true}.Action(), ShouldEqual, "merge")
		So(Request{ForceUpdate: true}.Action(), ShouldEqual, "force update")
		So(Request{}.NeedsOwner(), ShouldBeFalse)
		So(Request{Merge: true}.NeedsOwner(), ShouldBeTrue)
		So(Request{ForceUpdate: true}.NeedsOwner(), ShouldBeTrue)
	})
}
