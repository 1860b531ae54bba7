// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package db

import (
	"github.com/orcid/sfid-tools/common/bsonutil"
	"go.mongodb.org/mongo-driver/bson"
)

// Query pairs the filter document sent to the server with the equivalent
// predicate over a decoded document. The two must select the same
// documents; Match is what in-memory collections evaluate.
type Query struct {
	Filter bson.D
	Match  func(doc bson.M) bool
}

// Update pairs the update document sent to the server with the equivalent
// in-process mutation. Apply reports whether it changed doc.
type Update struct {
	Doc   bson.D
	Apply func(doc bson.M) bool
}

// Eq selects documents whose top-level field equals value.
func Eq(field string, value interface{}) Query {
	return Query{
		Filter: bson.D{{Key: field, Value: value}},
		Match: func(doc bson.M) bool {
			v, ok := doc[field]
			return ok && bsonutil.Equal(v, value)
		},
	}
}

// ByID selects the document with the given _id.
func ByID(id interface{}) Query {
	return Eq("_id", id)
}

// Set sets a top-level field to value.
func Set(field string, value interface{}) Update {
	return Update{
		Doc: bson.D{{Key: "$set", Value: bson.D{{Key: field, Value: value}}}},
		Apply: func(doc bson.M) bool {
			if v, ok := doc[field]; ok && bsonutil.Equal(v, value) {
				return false
			}
			doc[field] = value
			return true
		},
	}
}
