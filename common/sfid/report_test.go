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
	"github.com/stretchr/testify/assert"
)

// logLines strips the timestamps from the logged lines.
func logLines(s string) []string {
	var out []string
	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		if i := strings.Index(line, "\t"); i >= 0 {
			line = line[i+1:]
		}
		out = append(out, line)
	}
	return out
}

func TestReporterSections(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	logger, buf := newTestLogger()
	r := &Reporter{Log: logger}

	r.Assertions(nil)
	r.Users([]User{{ID: "u1", Email: "u@x.io", SalesforceID: sourceID, MainContact: true}})

	lines := logLines(buf.String())
	assert.Equal(t, "No problematic assertions found", lines[0])
	assert.Equal(t, []string{
		"",
		Banner,
		"PROBLEMATIC USERS REPORT",
		Banner,
		" _id: u1, email: u@x.io Salesforce Id: " + sourceID + " Main contact: true",
		"",
		Banner,
	}, lines[1:])
}

func TestReporterOrcidRecords(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	logger, buf := newTestLogger()
	r := &Reporter{Log: logger}

	records := []OrcidRecord{
		{ID: "r1", Email: "a@example.com", Tokens: []Token{{SalesforceID: targetID}, {SalesforceID: shortID}, {SalesforceID: "ABC"}}},
		{ID: "r2", Email: "b@example.com", Tokens: []Token{{SalesforceID: shortID}, {SalesforceID: int32(4)}, {}}},
	}
	r.OrcidRecords(records, ShortIDs(idLength))

	out := buf.String()
	assert.Contains(t, out, "PROBLEMATIC ORCID RECORDS REPORT")
	assert.Contains(t, out, " _id: r1, email: a@example.com Salesforce Ids: "+shortID+", ABC")
	assert.Contains(t, out, " _id: r2, email: b@example.com Salesforce Ids: "+shortID+"\n")
	assert.Contains(t, out, " 2 distinct Salesforce Ids referenced: "+shortID+", ABC")
}

func TestReporterWrapsLongLines(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	logger, buf := newTestLogger()
	r := &Reporter{Log: logger}
	r.Notifications([]Notification{{ID: "n1", Email: strings.Repeat("long ", 30) + "@example.com", SalesforceID: shortID}})

	for _, line := range logLines(buf.String()) {
		assert.LessOrEqual(t, len(line), ReportWidth)
	}
}

func TestReporterSummary(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	assert.True(t, Plan{}.Empty())
	assert.False(t, Plan{Users: 1}.Empty())

	logger, buf := newTestLogger()
	r := &Reporter{Log: logger}
	r.Summary(Plan{
		Request:      Request{Source: sourceID, Target: targetID, Merge: true},
		Assertions:   3,
		OrcidRecords: 1,
		Users:        2,
		ClearsOwner:  true,
	})

	out := buf.String()
	assert.Contains(t, out, "WARNING: This will modify the database!")
	assert.Contains(t, out, "  3 assertions will be updated")
	assert.Contains(t, out, "  1 orcid records will be updated")
	assert.Contains(t, out, "  0 send notifications request will be updated")
	assert.Contains(t, out, "  2 users will be updated")
	assert.Contains(t, out, "The organization owner user from the source member will be removed")
	assert.Contains(t, out, "Member "+sourceID+" will be deleted")
	assert.NotContains(t, out, "relabelled")
}
