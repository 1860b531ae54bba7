// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package sfid

import (
	"bytes"

	"github.com/orcid/sfid-tools/common/log"
	"github.com/orcid/sfid-tools/common/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	shortID  = "0012i00000aQxlx"
	sourceID = "0012i00000aQxlxAAC"
	targetID = "0012i00000eiI3CAAU"
	otherID  = "0012i00000zZzZzAAA"
	idLength = 18
)

type verbosity struct{}

func (verbosity) Level() int    { return log.DebugHigh }
func (verbosity) IsQuiet() bool { return false }

func newTestLogger() (*log.ToolLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := log.NewToolLogger(verbosity{})
	logger.SetWriter(buf)
	return logger, buf
}

type fixture struct {
	assertions    *testutil.MemCollection
	orcidRecords  *testutil.MemCollection
	notifications *testutil.MemCollection
	users         *testutil.MemCollection
	members       *testutil.MemCollection
}

func newFixture() *fixture {
	return &fixture{
		assertions:    testutil.NewMemCollection("assertionservice.assertion"),
		orcidRecords:  testutil.NewMemCollection("assertionservice.orcid_record"),
		notifications: testutil.NewMemCollection("assertionservice.send_notifications_request"),
		users:         testutil.NewMemCollection("userservice.jhi_user"),
		members:       testutil.NewMemCollection("memberservice.member"),
	}
}

func (f *fixture) collections() Collections {
	return Collections{
		Assertions:    f.assertions,
		OrcidRecords:  f.orcidRecords,
		Notifications: f.notifications,
		Users:         f.users,
		Members:       f.members,
	}
}

func (f *fixture) writes() int {
	return f.assertions.Writes() + f.orcidRecords.Writes() + f.notifications.Writes() +
		f.users.Writes() + f.members.Writes()
}

func (f *fixture) finder(logger *log.ToolLogger) *Finder {
	return &Finder{Log: logger, Collections: f.collections(), IDLength: idLength}
}

func user(email, salesforceID string, mainContact bool) bson.D {
	return bson.D{{Key: "email", Value: email}, {Key: "salesforce_id", Value: salesforceID}, {Key: "main_contact", Value: mainContact}}
}

func token(salesforceID interface{}) bson.D {
	if salesforceID == nil {
		return bson.D{{Key: "token_id", Value: "no-reference"}}
	}
	return bson.D{{Key: "salesforce_id", Value: salesforceID}}
}

func orcidRecord(email string, tokens ...bson.D) bson.D {
	arr := bson.A{}
	for _, t := range tokens {
		arr = append(arr, t)
	}
	return bson.D{{Key: "email", Value: email}, {Key: "tokens", Value: arr}}
}

// tokenRefs returns the salesforce_id of each token of doc, nil where the
// token has none.
func tokenRefs(doc bson.M) []interface{} {
	var out []interface{}
	tokens, _ := doc["tokens"].(bson.A)
	for _, t := range tokens {
		var m bson.M
		switch v := t.(type) {
		case bson.M:
			m = v
		case bson.D:
			m = v.Map()
		}
		out = append(out, m["salesforce_id"])
	}
	return out
}
