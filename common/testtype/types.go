// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package testtype selects which classes of tests run, based on environment
// variables.
package testtype

import (
	"os"
	"testing"
)

const (
	// Unit tests need nothing beyond the Go toolchain. They run unless
	// TOOLS_TESTING_UNIT is set to "false".
	UnitTestType = "TOOLS_TESTING_UNIT"

	// Integration tests need a MongoDB server, either from
	// TOOLS_TESTING_MONGOD or a container started by testutil.
	IntegrationTestType = "TOOLS_TESTING_INTEGRATION"
)

// HasTestType reports whether the given class of tests is enabled.
func HasTestType(testType string) bool {
	envVal := os.Getenv(testType)
	if testType == UnitTestType {
		return envVal != "false"
	}
	return envVal == "true"
}

// SkipUnlessTestType skips the current test unless the given class of tests
// is enabled.
func SkipUnlessTestType(t *testing.T, testType string) {
	t.Helper()
	if !HasTestType(testType) {
		t.SkipNow()
	}
}
