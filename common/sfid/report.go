// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package sfid

import (
	"fmt"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/mitchellh/go-wordwrap"
	"github.com/orcid/sfid-tools/common/log"
	"github.com/samber/lo"
)

// ReportWidth is the column at which report lines are wrapped.
const ReportWidth = 80

// Banner frames report sections.
var Banner = strings.Repeat("=", ReportWidth)

// Reporter writes the found documents for an operator reading the log.
type Reporter struct {
	Log *log.ToolLogger
}

func (r *Reporter) Assertions(assertions []AssertionRecord) {
	r.section("assertions", "PROBLEMATIC ASSERTIONS REPORT", lo.Map(assertions, func(a AssertionRecord, _ int) string {
		return fmt.Sprintf(" _id: %v, email: %v Salesforce Id: %v", a.ID, a.Email, a.SalesforceID)
	}))
}

// OrcidRecords lists the records and the distinct organizations their
// selected tokens reference.
func (r *Reporter) OrcidRecords(records []OrcidRecord, c Criterion) {
	ids := mapset.NewThreadUnsafeSet[string]()
	lines := lo.Map(records, func(rec OrcidRecord, _ int) string {
		var refs []string
		for _, token := range rec.Tokens {
			if s, ok := token.Reference(); ok && c.Matches(s) {
				refs = append(refs, s)
				ids.Add(s)
			}
		}
		return fmt.Sprintf(" _id: %v, email: %v Salesforce Ids: %v", rec.ID, rec.Email, strings.Join(refs, ", "))
	})
	if len(lines) > 0 {
		distinct := ids.ToSlice()
		sort.Strings(distinct)
		lines = append(lines, fmt.Sprintf(" %d distinct Salesforce Ids referenced: %v", len(distinct), strings.Join(distinct, ", ")))
	}
	r.section("orcid records", "PROBLEMATIC ORCID RECORDS REPORT", lines)
}

func (r *Reporter) Notifications(notifications []Notification) {
	r.section("send notifications request", "PROBLEMATIC NOTIFICATIONS REPORT", lo.Map(notifications, func(n Notification, _ int) string {
		return fmt.Sprintf(" _id: %v, email: %v Salesforce Id: %v", n.ID, n.Email, n.SalesforceID)
	}))
}

func (r *Reporter) Users(users []User) {
	r.section("users", "PROBLEMATIC USERS REPORT", lo.Map(users, func(u User, _ int) string {
		return fmt.Sprintf(" _id: %v, email: %v Salesforce Id: %v Main contact: %v", u.ID, u.Email, u.SalesforceID, u.MainContact)
	}))
}

// Plan counts what a repair run is about to change.
type Plan struct {
	Request       Request
	Assertions    int
	OrcidRecords  int
	Notifications int
	Users         int
	ClearsOwner   bool
}

// Empty reports whether the run has nothing to change.
func (p Plan) Empty() bool {
	return p.Assertions == 0 && p.OrcidRecords == 0 && p.Notifications == 0 && p.Users == 0
}

// Summary writes the warning shown before the confirmation prompt.
func (r *Reporter) Summary(p Plan) {
	r.Log.Logv(log.Always, "\n"+Banner)
	r.Log.Logv(log.Always, "  WARNING: This will modify the database!")
	r.Log.Logvf(log.Always, "  %d assertions will be updated", p.Assertions)
	r.Log.Logvf(log.Always, "  %d orcid records will be updated", p.OrcidRecords)
	r.Log.Logvf(log.Always, "  %d send notifications request will be updated", p.Notifications)
	r.Log.Logvf(log.Always, "  %d users will be updated", p.Users)
	if p.ClearsOwner {
		r.line("  The organization owner user from the source member will be removed, since there is already one on the target")
	}
	if p.Request.Merge {
		r.Log.Logvf(log.Always, "  Member %v will be deleted", p.Request.Source)
	}
	if p.Request.ForceUpdate {
		r.Log.Logvf(log.Always, "  Member %v will be relabelled to %v", p.Request.Source, p.Request.Target)
	}
	r.Log.Logv(log.Always, Banner)
}

func (r *Reporter) section(kind, title string, lines []string) {
	if len(lines) == 0 {
		r.Log.Logvf(log.Always, "No problematic %v found", kind)
		return
	}

	r.Log.Logv(log.Always, "\n"+Banner)
	r.Log.Logv(log.Always, title)
	r.Log.Logv(log.Always, Banner)
	for _, line := range lines {
		r.line(line)
	}
	r.Log.Logv(log.Always, "\n"+Banner)
}

func (r *Reporter) line(s string) {
	r.Log.Logv(log.Always, wordwrap.WrapString(s, ReportWidth))
}
