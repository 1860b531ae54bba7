// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package db

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
)

// UpdateResult carries the counts the server reports for an update.
type UpdateResult struct {
	Matched  int64
	Modified int64
}

// Collection is the set of operations the tools perform against one
// collection. Every call blocks until the server answers.
type Collection interface {
	Name() string

	// Find decodes every matching document into results, which must be a
	// pointer to a slice.
	Find(ctx context.Context, q Query, results interface{}) error

	// FindOne decodes the first matching document into result and reports
	// whether one was found.
	FindOne(ctx context.Context, q Query, result interface{}) (bool, error)

	UpdateOne(ctx context.Context, q Query, u Update) (UpdateResult, error)
	UpdateMany(ctx context.Context, q Query, u Update) (UpdateResult, error)

	// DeleteOne returns the number of deleted documents.
	DeleteOne(ctx context.Context, q Query) (int64, error)
}

type mongoCollection struct {
	coll *mongo.Collection
}

// WrapCollection adapts a driver collection to Collection.
func WrapCollection(coll *mongo.Collection) Collection {
	return &mongoCollection{coll: coll}
}

func (c *mongoCollection) Name() string {
	return c.coll.Database().Name() + "." + c.coll.Name()
}

func (c *mongoCollection) Find(ctx context.Context, q Query, results interface{}) error {
	cursor, err := c.coll.Find(ctx, q.Filter)
	if err != nil {
		return err
	}
	if err := cursor.All(ctx, results); err != nil {
		return errors.Wrapf(err, "error reading results from %v", c.Name())
	}
	return nil
}

func (c *mongoCollection) FindOne(ctx context.Context, q Query, result interface{}) (bool, error) {
	err := c.coll.FindOne(ctx, q.Filter).Decode(result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *mongoCollection) UpdateOne(ctx context.Context, q Query, u Update) (UpdateResult, error) {
	res, err := c.coll.UpdateOne(ctx, q.Filter, u.Doc)
	if err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

func (c *mongoCollection) UpdateMany(ctx context.Context, q Query, u Update) (UpdateResult, error) {
	res, err := c.coll.UpdateMany(ctx, q.Filter, u.Doc)
	if err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

func (c *mongoCollection) DeleteOne(ctx context.Context, q Query) (int64, error) {
	res, err := c.coll.DeleteOne(ctx, q.Filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
