// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package testutil implements the collections and server connections the
// tests run against.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/orcid/sfid-tools/common/db"
	"github.com/orcid/sfid-tools/common/log"
	"github.com/orcid/sfid-tools/common/options"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const (
	uriEnvVar    = "TOOLS_TESTING_MONGOD"
	imageEnvVar  = "TOOLS_TESTING_MONGOD_IMAGE"
	defaultImage = "mongo:7.0"
)

// IntegrationURI returns the connection string of the server integration
// tests run against. It is taken from TOOLS_TESTING_MONGOD when set;
// otherwise a MongoDB container is started and terminated when the test
// ends.
func IntegrationURI(t *testing.T) string {
	t.Helper()

	if uri := os.Getenv(uriEnvVar); uri != "" {
		_, err := connstring.ParseAndValidate(uri)
		require.NoError(t, err, "%#q from the %#q env var is not a valid connection string", uri, uriEnvVar)
		return uri
	}

	image := os.Getenv(imageEnvVar)
	if image == "" {
		image = defaultImage
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor: wait.ForListeningPort("27017/tcp").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start MongoDB container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017")
	require.NoError(t, err)

	return fmt.Sprintf("mongodb://%s:%s/?directConnection=true", host, port.Port())
}

// GetToolOptions returns tool options parsed from args with the environment
// hidden, so only args and the defaults apply.
func GetToolOptions(t *testing.T, args ...string) *options.ToolOptions {
	t.Helper()

	opts := options.New("sfid-tools-test", "", "", "", "")
	opts.Getenv = func(string) string { return "" }
	_, err := opts.ParseArgs(args)
	require.NoError(t, err)
	return opts
}

// Connect opens a connection to the named database on the integration
// server and closes it when the test ends.
func Connect(t *testing.T, uri, database string) *db.Connection {
	t.Helper()

	conn, err := db.Connect(context.Background(), *GetToolOptions(t, "--mongo-uri", uri), database)
	require.NoError(t, err)
	t.Cleanup(conn.Close)
	return conn
}

// NewLogger returns a logger that keeps everything quiet unless the tests
// run verbosely.
func NewLogger() *log.ToolLogger {
	level := &options.Verbosity{Quiet: !testing.Verbose()}
	if testing.Verbose() {
		level.VLevel = log.DebugHigh
	}
	return log.NewToolLogger(level)
}
