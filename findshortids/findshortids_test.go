// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package findshortids

import (
	"bytes"
	"context"
	"testing"

	"github.com/orcid/sfid-tools/common/db"
	"github.com/orcid/sfid-tools/common/log"
	"github.com/orcid/sfid-tools/common/options"
	"github.com/orcid/sfid-tools/common/sfid"
	"github.com/orcid/sfid-tools/common/testtype"
	"github.com/orcid/sfid-tools/common/testutil"
	"github.com/orcid/sfid-tools/common/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	shortID  = "0012i00000aQxlx"
	targetID = "0012i00000eiI3CAAU"
)

func newTool(t *testing.T, colls sfid.Collections) (*FindShortIDs, *bytes.Buffer) {
	opts := testutil.GetToolOptions(t)
	buf := &bytes.Buffer{}
	logger := log.NewToolLogger(opts.Verbosity)
	logger.SetWriter(buf)
	return &FindShortIDs{ToolOptions: opts, Log: logger, Collections: colls}, buf
}

func memCollections() sfid.Collections {
	return sfid.Collections{
		Assertions:    testutil.NewMemCollection(db.AssertionCollection),
		OrcidRecords:  testutil.NewMemCollection(db.OrcidRecordCollection),
		Notifications: testutil.NewMemCollection(db.NotificationCollection),
		Users:         testutil.NewMemCollection(db.UserCollection),
	}
}

func TestParseOptions(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	t.Setenv("LOG_FILE", "")
	opts, err := ParseOptions([]string{"--mongo-uri", "mongodb://db-a:27017"}, "1.0", "abc")
	require.NoError(t, err)
	assert.Equal(t, "findshortids", opts.AppName)
	assert.Equal(t, "mongodb://db-a:27017", opts.URI.ConnectionString)
	assert.Equal(t, LogFile, opts.Config.LogFile)

	_, err = ParseOptions([]string{"stray"}, "", "")
	assert.Error(t, err)

	_, err = ParseOptions([]string{"--target", targetID}, "", "")
	assert.Error(t, err, "findshortids has no --target")
}

func TestRunReportsShortIDs(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	colls := memCollections()
	colls.Assertions.(*testutil.MemCollection).Insert(bson.D{{Key: "email", Value: "a@example.com"}, {Key: "salesforce_id", Value: shortID}})
	colls.Assertions.(*testutil.MemCollection).Insert(bson.D{{Key: "email", Value: "b@example.com"}, {Key: "salesforce_id", Value: targetID}})
	colls.OrcidRecords.(*testutil.MemCollection).Insert(bson.D{
		{Key: "email", Value: "r@example.com"},
		{Key: "tokens", Value: bson.A{bson.D{{Key: "salesforce_id", Value: targetID}}, bson.D{{Key: "salesforce_id", Value: shortID}}}},
	})

	tool, buf := newTool(t, colls)
	res, err := tool.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, res.Assertions, 1)
	assert.Len(t, res.OrcidRecords, 1)
	assert.Empty(t, res.Notifications)
	assert.Empty(t, res.Users)
	assert.False(t, res.Empty())

	out := buf.String()
	assert.Contains(t, out, "Find short SF iD")
	assert.Contains(t, out, "MongoDB URI: mongodb://localhost:...")
	assert.Contains(t, out, "PROBLEMATIC ASSERTIONS REPORT")
	assert.Contains(t, out, "PROBLEMATIC ORCID RECORDS REPORT")
	assert.Contains(t, out, "No problematic send notifications request found")
	assert.Contains(t, out, "No problematic users found")
	assert.Contains(t, out, "Script completed successfully")

	for _, c := range []db.Collection{colls.Assertions, colls.OrcidRecords, colls.Notifications, colls.Users} {
		assert.Zero(t, c.(*testutil.MemCollection).Writes(), "%v was written to", c.Name())
	}
}

func TestRunWithNothingToFix(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	tool, buf := newTool(t, memCollections())
	res, err := tool.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Contains(t, buf.String(), "No fixes needed.")
}

func TestRunInterrupted(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tool, buf := newTool(t, memCollections())
	_, err := tool.Run(ctx)
	assert.ErrorIs(t, err, util.ErrTerminated)
	assert.Contains(t, buf.String(), "ERROR: Unexpected error during query")
}

func TestFindShortIDsIntegration(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.IntegrationTestType)

	ctx := context.Background()
	uri := testutil.IntegrationURI(t)

	opts := options.New("findshortids", "", "", Usage, LogFile)
	opts.Getenv = func(name string) string {
		return map[string]string{
			"MONGO_URI":      uri,
			"MONGO_DATABASE": "findshortids_assertions",
			"USER_DATABASE":  "findshortids_users",
		}[name]
	}
	_, err := opts.ParseArgs(nil)
	require.NoError(t, err)

	seed := testutil.Connect(t, uri, "findshortids_assertions")
	coll := seed.Database().Collection(db.AssertionCollection)
	require.NoError(t, coll.Drop(ctx))
	_, err = coll.InsertMany(ctx, []interface{}{
		bson.D{{Key: "salesforce_id", Value: shortID}},
		bson.D{{Key: "salesforce_id", Value: targetID}},
		bson.D{{Key: "salesforce_id", Value: int32(42)}},
		bson.D{{Key: "salesforce_id", Value: nil}},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = coll.Drop(context.Background()) })

	logger := testutil.NewLogger()
	tool, err := New(ctx, Options{opts}, logger)
	require.NoError(t, err)
	defer tool.Close()

	res, err := tool.Run(ctx)
	require.NoError(t, err)
	require.Len(t, res.Assertions, 1)
	assert.Equal(t, shortID, res.Assertions[0].SalesforceID)
}
