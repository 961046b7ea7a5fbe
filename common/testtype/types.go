// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package testtype gates tests on environment variables so that unit and
// integration suites can be selected independently.
package testtype

import (
	"os"
	"testing"
)

const (
	// Unit tests need no running server.
	UnitTestType = "TOOLS_TESTING_UNIT"

	// Integration tests require a mongod reachable through TOOLS_TESTING_MONGOD
	// or the default test port.
	IntegrationTestType = "TOOLS_TESTING_INTEGRATION"

	// Auth tests require a server started with auth and a created user.
	AuthTestType = "TOOLS_TESTING_AUTH"

	// SSL tests require a server started with TLS.
	SSLTestType = "TOOLS_TESTING_SSL"
)

func HasTestType(testType string) bool {
	envVal := os.Getenv(testType)
	return envVal == "true"
}

// SkipUnlessTestType skips the test unless the environment variable for
// testType is set to "true".
func SkipUnlessTestType(t *testing.T, testType string) {
	if !HasTestType(testType) {
		t.SkipNow()
	}
}
