// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package bsonutil provides helpers for inspecting decoded BSON values in
// process.
package bsonutil

import (
	"fmt"
	"reflect"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AsDocument returns x as a bson.M if x is any of the document shapes the
// driver produces when decoding.
func AsDocument(x interface{}) (bson.M, bool) {
	switch v := x.(type) {
	case bson.M:
		return v, true
	case map[string]interface{}:
		return bson.M(v), true
	case bson.D:
		return v.Map(), true
	case bson.Raw:
		var m bson.M
		if err := bson.Unmarshal(v, &m); err != nil {
			return nil, false
		}
		return m, true
	}
	return nil, false
}

// AsArray returns x as a slice if x is any of the array shapes the driver
// produces when decoding.
func AsArray(x interface{}) ([]interface{}, bool) {
	switch v := x.(type) {
	case bson.A:
		return v, true
	case []interface{}:
		return v, true
	case []bson.M:
		out := make([]interface{}, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out, true
	}
	return nil, false
}

// StringField returns doc[key] if it is present and a string.
func StringField(doc bson.M, key string) (string, bool) {
	s, ok := doc[key].(string)
	return s, ok
}

// DisplayField returns doc[key] as text for logs and reports: the value
// itself if it is a string, its printed form otherwise, "" if absent.
func DisplayField(doc bson.M, key string) string {
	switch v := doc[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// BoolField returns doc[key] if it is present and a bool, false otherwise.
func BoolField(doc bson.M, key string) bool {
	b, ok := doc[key].(bool)
	return ok && b
}

// Equal compares two decoded BSON values.
func Equal(a, b interface{}) bool {
	if oa, ok := a.(primitive.ObjectID); ok {
		ob, ok := b.(primitive.ObjectID)
		return ok && oa == ob
	}
	return reflect.DeepEqual(a, b)
}
