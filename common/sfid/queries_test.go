// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package sfid

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/orcid/sfid-tools/common/testtype"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestShortIDQuery(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	q := ShortIDQuery("salesforce_id", idLength)

	expected := bson.D{
		{Key: "salesforce_id", Value: bson.D{{Key: "$exists", Value: true}, {Key: "$ne", Value: nil}}},
		{Key: "$expr", Value: bson.D{{Key: "$and", Value: bson.A{
			bson.D{{Key: "$eq", Value: bson.A{bson.D{{Key: "$type", Value: "$salesforce_id"}}, "string"}}},
			bson.D{{Key: "$lt", Value: bson.A{bson.D{{Key: "$strLenCP", Value: "$salesforce_id"}}, 18}}},
		}}}},
	}
	if diff := cmp.Diff(expected, q.Filter); diff != "" {
		t.Errorf("unexpected filter (-want +got):\n%s", diff)
	}

	cases := []struct {
		name string
		doc  bson.M
		want bool
	}{
		{"15 characters", bson.M{"salesforce_id": shortID}, true},
		{"17 characters", bson.M{"salesforce_id": targetID[:17]}, true},
		{"18 characters", bson.M{"salesforce_id": targetID}, false},
		{"empty string", bson.M{"salesforce_id": ""}, true},
		{"missing", bson.M{"email": "a@example.com"}, false},
		{"null", bson.M{"salesforce_id": nil}, false},
		{"not a string", bson.M{"salesforce_id": int32(12)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, q.Match(tc.doc))
		})
	}
}

func TestTokensQueries(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	t.Run("server filter", func(t *testing.T) {
		q := TokensEqualQuery(sourceID)
		expected := bson.D{{Key: "$expr", Value: bson.D{{Key: "$gt", Value: bson.A{
			bson.D{{Key: "$size", Value: bson.D{{Key: "$filter", Value: bson.D{
				{Key: "input", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$tokens", bson.A{}}}}},
				{Key: "as", Value: "token"},
				{Key: "cond", Value: bson.D{{Key: "$and", Value: bson.A{
					bson.D{{Key: "$eq", Value: bson.A{bson.D{{Key: "$type", Value: "$$token.salesforce_id"}}, "string"}}},
					bson.D{{Key: "$eq", Value: bson.A{"$$token.salesforce_id", sourceID}}},
				}}}},
			}}}}},
			0,
		}}}}}
		if diff := cmp.Diff(expected, q.Filter); diff != "" {
			t.Errorf("unexpected filter (-want +got):\n%s", diff)
		}
	})

	record := func(tokens ...interface{}) bson.M {
		return bson.M{"_id": primitive.NewObjectID(), "tokens": bson.A(tokens)}
	}

	cases := []struct {
		name      string
		doc       bson.M
		short     bool
		reference bool
	}{
		{"no tokens field", bson.M{"email": "a@example.com"}, false, false},
		{"empty tokens", record(), false, false},
		{"only long ids", record(bson.M{"salesforce_id": targetID}, bson.M{"salesforce_id": otherID}), false, false},
		{"one short id among long ones", record(bson.M{"salesforce_id": targetID}, bson.M{"salesforce_id": shortID}), true, false},
		{"token without reference", record(bson.M{"token_id": "x"}), false, false},
		{"non-string reference", record(bson.M{"salesforce_id": int64(5)}), false, false},
		{"source as a bson.D token", record(bson.D{{Key: "salesforce_id", Value: sourceID}}), false, true},
		{"source after a short id", record(bson.M{"salesforce_id": shortID}, bson.M{"salesforce_id": sourceID}), true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.short, TokensShortIDQuery(idLength).Match(tc.doc), "short")
			assert.Equal(t, tc.reference, TokensEqualQuery(sourceID).Match(tc.doc), "reference")
		})
	}
}

func TestCriterion(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	short := ShortIDs(idLength)
	assert.True(t, short.Matches(shortID))
	assert.False(t, short.Matches(targetID))
	assert.Contains(t, short.String(), "18")

	ref := References(sourceID)
	assert.True(t, ref.Matches(sourceID))
	assert.False(t, ref.Matches(shortID))
	assert.Equal(t, bson.D{{Key: "salesforce_id", Value: sourceID}}, ref.Query("salesforce_id").Filter)
	assert.Equal(t, TokensEqualQuery(sourceID).Filter, ref.TokensQuery().Filter)
	assert.Equal(t, ShortIDQuery("salesforce_id", idLength).Filter, short.Query("salesforce_id").Filter)
}

func TestTokenElementQueryAndUpdate(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	id := primitive.NewObjectID()
	newDoc := func() bson.M {
		return bson.M{"_id": id, "tokens": bson.A{
			bson.M{"salesforce_id": otherID},
			bson.M{"salesforce_id": sourceID},
			bson.M{"token_id": "none"},
		}}
	}

	q := TokenElementQuery(id, 1, sourceID)
	assert.Equal(t, bson.D{{Key: "_id", Value: id}, {Key: "tokens.1.salesforce_id", Value: sourceID}}, q.Filter)
	assert.True(t, q.Match(newDoc()))
	assert.False(t, TokenElementQuery(id, 0, sourceID).Match(newDoc()))
	assert.False(t, TokenElementQuery(id, 2, sourceID).Match(newDoc()))
	assert.False(t, TokenElementQuery(id, 7, sourceID).Match(newDoc()))
	assert.False(t, TokenElementQuery(primitive.NewObjectID(), 1, sourceID).Match(newDoc()))

	u := TokenElementUpdate(1, targetID)
	assert.Equal(t, bson.D{{Key: "$set", Value: bson.D{{Key: "tokens.1.salesforce_id", Value: targetID}}}}, u.Doc)

	doc := newDoc()
	assert.True(t, u.Apply(doc))
	assert.Equal(t, []interface{}{otherID, targetID, nil}, tokenRefs(doc))
	assert.False(t, u.Apply(doc), "applying twice changes nothing")
	assert.False(t, TokenElementUpdate(9, targetID).Apply(doc))
}
