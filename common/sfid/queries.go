// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package sfid

import (
	"fmt"

	"github.com/orcid/sfid-tools/common/bsonutil"
	"github.com/orcid/sfid-tools/common/db"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
)

// Criterion selects the references the finder looks for: either every
// identifier shorter than IDLength, or exactly Source.
type Criterion struct {
	Source   string
	IDLength int
}

// ShortIDs selects identifiers shorter than n code points.
func ShortIDs(n int) Criterion {
	return Criterion{IDLength: n}
}

// References selects identifiers equal to source.
func References(source string) Criterion {
	return Criterion{Source: source}
}

// Matches reports whether the identifier s is selected.
func (c Criterion) Matches(s string) bool {
	if c.Source != "" {
		return s == c.Source
	}
	return IsShort(s, c.IDLength)
}

func (c Criterion) String() string {
	if c.Source != "" {
		return "salesforce_id=" + c.Source
	}
	return fmt.Sprintf("salesforce_id shorter than %d characters", c.IDLength)
}

// Query selects documents whose top-level field is selected by c.
func (c Criterion) Query(field string) db.Query {
	if c.Source != "" {
		return EqualsQuery(field, c.Source)
	}
	return ShortIDQuery(field, c.IDLength)
}

// TokensQuery selects ORCID records with at least one token selected by c.
func (c Criterion) TokensQuery() db.Query {
	if c.Source != "" {
		return TokensEqualQuery(c.Source)
	}
	return TokensShortIDQuery(c.IDLength)
}

// ShortIDQuery selects documents whose field is a string shorter than n code
// points.
func ShortIDQuery(field string, n int) db.Query {
	ref := "$" + field
	return db.Query{
		Filter: bson.D{
			{Key: field, Value: bson.D{{Key: "$exists", Value: true}, {Key: "$ne", Value: nil}}},
			{Key: "$expr", Value: bson.D{{Key: "$and", Value: bson.A{
				isString(ref),
				bson.D{{Key: "$lt", Value: bson.A{bson.D{{Key: "$strLenCP", Value: ref}}, n}}},
			}}}},
		},
		Match: func(doc bson.M) bool {
			s, ok := bsonutil.StringField(doc, field)
			return ok && IsShort(s, n)
		},
	}
}

// EqualsQuery selects documents whose field equals value.
func EqualsQuery(field, value string) db.Query {
	return db.Eq(field, value)
}

// TokensShortIDQuery selects ORCID records holding a token whose
// salesforce_id is a string shorter than n code points.
func TokensShortIDQuery(n int) db.Query {
	const ref = "$$token." + SalesforceIDField
	return tokensQuery(
		bson.D{{Key: "$lt", Value: bson.A{bson.D{{Key: "$strLenCP", Value: ref}}, n}}},
		func(s string) bool { return IsShort(s, n) },
	)
}

// TokensEqualQuery selects ORCID records holding a token whose
// salesforce_id equals source.
func TokensEqualQuery(source string) db.Query {
	const ref = "$$token." + SalesforceIDField
	return tokensQuery(
		bson.D{{Key: "$eq", Value: bson.A{ref, source}}},
		func(s string) bool { return s == source },
	)
}

// tokensQuery selects ORCID records with at least one token whose
// salesforce_id is a string satisfying cond on the server and pred in
// process.
func tokensQuery(cond bson.D, pred func(string) bool) db.Query {
	const ref = "$$token." + SalesforceIDField
	return db.Query{
		Filter: bson.D{{Key: "$expr", Value: bson.D{{Key: "$gt", Value: bson.A{
			bson.D{{Key: "$size", Value: bson.D{{Key: "$filter", Value: bson.D{
				{Key: "input", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$" + TokensField, bson.A{}}}}},
				{Key: "as", Value: "token"},
				{Key: "cond", Value: bson.D{{Key: "$and", Value: bson.A{isString(ref), cond}}}},
			}}}}},
			0,
		}}}}},
		Match: func(doc bson.M) bool {
			tokens, _ := bsonutil.AsArray(doc[TokensField])
			return lo.SomeBy(tokens, func(token interface{}) bool {
				s, ok := tokenReference(token)
				return ok && pred(s)
			})
		},
	}
}

// IDQuery selects the document with the given _id.
func IDQuery(id interface{}) db.Query {
	return db.ByID(id)
}

// TokenElementQuery selects the ORCID record id if its token at index still
// references source.
func TokenElementQuery(id interface{}, index int, source string) db.Query {
	byID := db.ByID(id)
	return db.Query{
		Filter: bson.D{
			{Key: "_id", Value: id},
			{Key: tokenPath(index), Value: source},
		},
		Match: func(doc bson.M) bool {
			if !byID.Match(doc) {
				return false
			}
			tokens, _ := bsonutil.AsArray(doc[TokensField])
			if index >= len(tokens) {
				return false
			}
			s, ok := tokenReference(tokens[index])
			return ok && s == source
		},
	}
}

// SetUpdate sets a top-level field.
func SetUpdate(field string, value interface{}) db.Update {
	return db.Set(field, value)
}

// TokenElementUpdate sets the salesforce_id of the token at index, leaving
// every other token alone.
func TokenElementUpdate(index int, target string) db.Update {
	return db.Update{
		Doc: bson.D{{Key: "$set", Value: bson.D{{Key: tokenPath(index), Value: target}}}},
		Apply: func(doc bson.M) bool {
			tokens, ok := bsonutil.AsArray(doc[TokensField])
			if !ok || index >= len(tokens) {
				return false
			}
			token, ok := bsonutil.AsDocument(tokens[index])
			if !ok {
				return false
			}
			if s, ok := bsonutil.StringField(token, SalesforceIDField); ok && s == target {
				return false
			}
			token[SalesforceIDField] = target
			tokens[index] = token
			doc[TokensField] = bson.A(tokens)
			return true
		},
	}
}

func tokenPath(index int) string {
	return fmt.Sprintf("%s.%d.%s", TokensField, index, SalesforceIDField)
}

func tokenReference(token interface{}) (string, bool) {
	doc, ok := bsonutil.AsDocument(token)
	if !ok {
		return "", false
	}
	return bsonutil.StringField(doc, SalesforceIDField)
}

func isString(ref string) bson.D {
	return bson.D{{Key: "$eq", Value: bson.A{bson.D{{Key: "$type", Value: ref}}, "string"}}}
}
