// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package testutil

import (
	"context"
	"reflect"
	"sync"

	"github.com/orcid/sfid-tools/common/db"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Operation names accepted by MemCollection.Fail.
const (
	OpFind       = "find"
	OpFindOne    = "findOne"
	OpUpdateOne  = "updateOne"
	OpUpdateMany = "updateMany"
	OpDeleteOne  = "deleteOne"
)

// MemCollection is an in-memory db.Collection. Documents are stored in the
// shape the driver decodes them into and selected with the in-process side
// of each db.Query.
type MemCollection struct {
	mutex    sync.Mutex
	name     string
	docs     []bson.M
	failures map[string]error
	writes   int
}

var _ db.Collection = (*MemCollection)(nil)

// NewMemCollection returns a collection seeded with docs. Each document is
// round-tripped through BSON; documents without an _id get an ObjectID.
func NewMemCollection(name string, docs ...interface{}) *MemCollection {
	c := &MemCollection{name: name, failures: map[string]error{}}
	for _, doc := range docs {
		c.Insert(doc)
	}
	return c
}

// Insert adds doc to the collection and returns its _id.
func (c *MemCollection) Insert(doc interface{}) interface{} {
	m, err := roundTrip(doc)
	if err != nil {
		panic(errors.Wrap(err, "seeding in-memory collection"))
	}
	if _, ok := m["_id"]; !ok {
		m["_id"] = primitive.NewObjectID()
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.docs = append(c.docs, m)
	return m["_id"]
}

// Fail makes every later call of the named operation return err. A nil err
// clears the failure.
func (c *MemCollection) Fail(op string, err error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if err == nil {
		delete(c.failures, op)
		return
	}
	c.failures[op] = err
}

// Writes returns the number of update and delete calls made so far,
// including ones that changed nothing.
func (c *MemCollection) Writes() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.writes
}

// Docs returns a copy of every stored document.
func (c *MemCollection) Docs() []bson.M {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	out := make([]bson.M, 0, len(c.docs))
	for _, doc := range c.docs {
		out = append(out, mustCopy(doc))
	}
	return out
}

// Get returns a copy of the document with the given _id.
func (c *MemCollection) Get(id interface{}) (bson.M, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	q := db.ByID(id)
	for _, doc := range c.docs {
		if q.Match(doc) {
			return mustCopy(doc), true
		}
	}
	return nil, false
}

func (c *MemCollection) Name() string {
	return c.name
}

func (c *MemCollection) Find(ctx context.Context, q db.Query, results interface{}) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if err := c.check(ctx, OpFind); err != nil {
		return err
	}

	rv := reflect.ValueOf(results)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Slice {
		return errors.Errorf("results argument must be a pointer to a slice, got %T", results)
	}
	slice := reflect.MakeSlice(rv.Elem().Type(), 0, len(c.docs))
	elemType := slice.Type().Elem()
	for _, doc := range c.matching(q) {
		elem := reflect.New(elemType)
		if err := decode(doc, elem.Interface()); err != nil {
			return errors.Wrapf(err, "error reading results from %v", c.name)
		}
		slice = reflect.Append(slice, elem.Elem())
	}
	rv.Elem().Set(slice)
	return nil
}

func (c *MemCollection) FindOne(ctx context.Context, q db.Query, result interface{}) (bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if err := c.check(ctx, OpFindOne); err != nil {
		return false, err
	}

	docs := c.matching(q)
	if len(docs) == 0 {
		return false, nil
	}
	return true, decode(docs[0], result)
}

func (c *MemCollection) UpdateOne(ctx context.Context, q db.Query, u db.Update) (db.UpdateResult, error) {
	return c.update(ctx, OpUpdateOne, q, u, 1)
}

func (c *MemCollection) UpdateMany(ctx context.Context, q db.Query, u db.Update) (db.UpdateResult, error) {
	return c.update(ctx, OpUpdateMany, q, u, -1)
}

func (c *MemCollection) DeleteOne(ctx context.Context, q db.Query) (int64, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.writes++
	if err := c.check(ctx, OpDeleteOne); err != nil {
		return 0, err
	}

	for i, doc := range c.docs {
		if q.Match(doc) {
			c.docs = append(c.docs[:i], c.docs[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (c *MemCollection) update(ctx context.Context, op string, q db.Query, u db.Update, limit int) (db.UpdateResult, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.writes++
	if err := c.check(ctx, op); err != nil {
		return db.UpdateResult{}, err
	}

	var res db.UpdateResult
	for _, doc := range c.docs {
		if limit >= 0 && res.Matched >= int64(limit) {
			break
		}
		if !q.Match(doc) {
			continue
		}
		res.Matched++
		if u.Apply(doc) {
			res.Modified++
		}
	}
	return res, nil
}

// matching returns the stored documents selected by q. Must be called with
// the mutex held.
func (c *MemCollection) matching(q db.Query) []bson.M {
	var out []bson.M
	for _, doc := range c.docs {
		if q.Match(doc) {
			out = append(out, doc)
		}
	}
	return out
}

func (c *MemCollection) check(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.failures[op]
}

func roundTrip(doc interface{}) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func mustCopy(doc bson.M) bson.M {
	m, err := roundTrip(doc)
	if err != nil {
		panic(err)
	}
	return m
}

func decode(doc bson.M, result interface{}) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, result)
}
