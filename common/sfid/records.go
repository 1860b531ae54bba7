// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package sfid

import (
	"github.com/orcid/sfid-tools/common/bsonutil"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
)

// Field names shared by the collections.
const (
	SalesforceIDField = "salesforce_id"
	MainContactField  = "main_contact"
	TokensField       = "tokens"
	EmailField        = "email"
	TokenIDField      = "token_id"
	ClientNameField   = "client_name"
)

// The record types decode leniently: a field of an unexpected type reads as
// its zero value (or its printed form, for display-only fields) instead of
// failing the whole cursor.

type AssertionRecord struct {
	ID           interface{} `bson:"_id"`
	Email        string      `bson:"email,omitempty"`
	SalesforceID string      `bson:"salesforce_id"`
}

func (a *AssertionRecord) UnmarshalBSON(data []byte) error {
	doc, err := decodeDocument(data, "assertion")
	if err != nil {
		return err
	}
	a.ID = doc["_id"]
	a.Email = bsonutil.DisplayField(doc, EmailField)
	a.SalesforceID, _ = bsonutil.StringField(doc, SalesforceIDField)
	return nil
}

// Token is one element of an ORCID record's tokens array. SalesforceID is
// left undecoded because it may be absent or of any type.
type Token struct {
	SalesforceID interface{} `bson:"salesforce_id,omitempty"`
	TokenID      string      `bson:"token_id,omitempty"`
}

// Reference returns the token's salesforce id if it is a string.
func (t Token) Reference() (string, bool) {
	s, ok := t.SalesforceID.(string)
	return s, ok
}

func (t *Token) fill(doc bson.M) {
	t.SalesforceID = doc[SalesforceIDField]
	t.TokenID = bsonutil.DisplayField(doc, TokenIDField)
}

type OrcidRecord struct {
	ID     interface{} `bson:"_id"`
	Email  string      `bson:"email,omitempty"`
	Tokens []Token     `bson:"tokens,omitempty"`
}

// UnmarshalBSON keeps one Token per array element, so Tokens[i] is always
// tokens.<i> on the server. Elements that are not documents read as an
// empty Token.
func (r *OrcidRecord) UnmarshalBSON(data []byte) error {
	doc, err := decodeDocument(data, "orcid record")
	if err != nil {
		return err
	}
	r.ID = doc["_id"]
	r.Email = bsonutil.DisplayField(doc, EmailField)
	r.Tokens = nil
	elems, _ := bsonutil.AsArray(doc[TokensField])
	for _, elem := range elems {
		var t Token
		if m, ok := bsonutil.AsDocument(elem); ok {
			t.fill(m)
		}
		r.Tokens = append(r.Tokens, t)
	}
	return nil
}

type Notification struct {
	ID           interface{} `bson:"_id"`
	Email        string      `bson:"email,omitempty"`
	SalesforceID string      `bson:"salesforce_id"`
}

func (n *Notification) UnmarshalBSON(data []byte) error {
	doc, err := decodeDocument(data, "notification")
	if err != nil {
		return err
	}
	n.ID = doc["_id"]
	n.Email = bsonutil.DisplayField(doc, EmailField)
	n.SalesforceID, _ = bsonutil.StringField(doc, SalesforceIDField)
	return nil
}

// User is a jhi_user document. Only a boolean true main_contact marks the
// organization owner, as with a {main_contact: true} filter.
type User struct {
	ID           interface{} `bson:"_id"`
	Email        string      `bson:"email,omitempty"`
	SalesforceID string      `bson:"salesforce_id"`
	MainContact  bool        `bson:"main_contact"`
}

func (u *User) UnmarshalBSON(data []byte) error {
	doc, err := decodeDocument(data, "user")
	if err != nil {
		return err
	}
	u.ID = doc["_id"]
	u.Email = bsonutil.DisplayField(doc, EmailField)
	u.SalesforceID, _ = bsonutil.StringField(doc, SalesforceIDField)
	u.MainContact = bsonutil.BoolField(doc, MainContactField)
	return nil
}

type Member struct {
	ID           interface{} `bson:"_id"`
	SalesforceID string      `bson:"salesforce_id"`
	ClientName   string      `bson:"client_name,omitempty"`
}

func (m *Member) UnmarshalBSON(data []byte) error {
	doc, err := decodeDocument(data, "member")
	if err != nil {
		return err
	}
	m.ID = doc["_id"]
	m.SalesforceID, _ = bsonutil.StringField(doc, SalesforceIDField)
	m.ClientName = bsonutil.DisplayField(doc, ClientNameField)
	return nil
}

func decodeDocument(data []byte, kind string) (bson.M, error) {
	var doc bson.M
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "error decoding %v", kind)
	}
	return doc, nil
}
