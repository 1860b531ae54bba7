// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package db implements the connection to MongoDB and the collection
// operations the tools run against it.
package db

import (
	"context"
	"sync"

	"github.com/orcid/sfid-tools/common/options"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	mopt "go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// Collections read and patched by the tools.
const (
	AssertionCollection    = "assertion"
	OrcidRecordCollection  = "orcid_record"
	NotificationCollection = "send_notifications_request"
	UserCollection         = "jhi_user"
	MemberCollection       = "member"
)

// Default port for integration tests
const (
	DefaultTestPort = "33333"
)

// Used to manage database sessions
type SessionProvider struct {
	sync.Mutex

	// the master client used for operations
	client *mongo.Client
}

// GetSession returns the mongo.Client connected to the database server for
// which the session provider is configured. The tools go through DB; tests
// use GetSession to reach the client directly.
func (sp *SessionProvider) GetSession() (*mongo.Client, error) {
	sp.Lock()
	defer sp.Unlock()

	if sp.client == nil {
		return nil, errors.New("SessionProvider already closed")
	}

	return sp.client, nil
}

// Close disconnects the client. Calling Close more than once is a no-op.
func (sp *SessionProvider) Close() {
	sp.Lock()
	defer sp.Unlock()
	if sp.client != nil {
		_ = sp.client.Disconnect(context.Background())
		sp.client = nil
	}
}

// DB provides a database with the default read preference
func (sp *SessionProvider) DB(name string) *mongo.Database {
	return sp.client.Database(name)
}

// NewSessionProvider constructs a session provider, including a connected
// client that has answered a ping.
func NewSessionProvider(ctx context.Context, opts options.ToolOptions) (*SessionProvider, error) {
	clientopt, err := configureClient(opts)
	if err != nil {
		return nil, errors.Wrap(err, "error configuring the connector")
	}
	client, err := mongo.Connect(ctx, clientopt)
	if err != nil {
		return nil, err
	}
	err = client.Ping(ctx, readpref.Primary())
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "could not connect to server")
	}

	return &SessionProvider{client: client}, nil
}

// configure the client from the connection string, filling in what the
// connection string leaves unset from the tool configuration.
func configureClient(opts options.ToolOptions) (*mopt.ClientOptions, error) {
	if opts.URI == nil || opts.URI.ConnectionString == "" {
		return nil, errors.New("no connection string")
	}
	if opts.URI.ConnString.Original == "" {
		// options were built by hand rather than by ParseArgs
		if err := opts.NormalizeURI(); err != nil {
			return nil, err
		}
	}
	cs := opts.URI.ConnString

	clientopt := mopt.Client().ApplyURI(opts.URI.ConnectionString)
	clientopt.SetAppName(opts.AppName)

	timeout := opts.Config.Timeout()
	if timeout > 0 {
		if !cs.ConnectTimeoutSet {
			clientopt.SetConnectTimeout(timeout)
		}
		if !cs.ServerSelectionTimeoutSet {
			clientopt.SetServerSelectionTimeout(timeout)
		}
	}

	if !(cs.JSet || cs.WString != "" || cs.WNumberSet || cs.WTimeoutSet) {
		// If no write concern was specified, default to majority
		clientopt.SetWriteConcern(writeconcern.Majority())
	}

	return clientopt, clientopt.Validate()
}

// Connection is the handle to one named database. It owns its session
// provider; Close releases both.
type Connection struct {
	Name     string
	provider *SessionProvider
}

// Connect opens a client and returns the handle for the named database.
func Connect(ctx context.Context, opts options.ToolOptions, name string) (*Connection, error) {
	provider, err := NewSessionProvider(ctx, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to database %v", name)
	}
	return &Connection{Name: name, provider: provider}, nil
}

// Collection returns the named collection of the connection's database.
func (c *Connection) Collection(name string) Collection {
	return WrapCollection(c.Database().Collection(name))
}

// Database returns the driver handle of the connection's database.
func (c *Connection) Database() *mongo.Database {
	return c.provider.DB(c.Name)
}

// Close releases the connection.
func (c *Connection) Close() {
	if c == nil || c.provider == nil {
		return
	}
	c.provider.Close()
}
