// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package testutil implements functions for filtering and configuring tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/mongodb/mongo-index-tools/common/db"
	"github.com/mongodb/mongo-index-tools/common/options"
	"github.com/mongodb/mongo-index-tools/common/testtype"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const uriEnvVar = "TOOLS_TESTING_MONGOD"

// Credentials of the user created for auth test runs.
const (
	CreatedUserNameEnv     = "TOOLS_TESTING_AUTH_USERNAME"
	CreatedUserPasswordEnv = "TOOLS_TESTING_AUTH_PASSWORD"
)

// GetBareSession returns a client from the environment or
// from a default host and port.
func GetBareSession() (*mongo.Client, error) {
	sessionProvider, _, err := GetBareSessionProvider()
	if err != nil {
		return nil, err
	}
	return sessionProvider.GetSession()
}

// GetBareSessionProvider returns a session provider from the environment or
// from a default host and port.
func GetBareSessionProvider() (*db.SessionProvider, *options.ToolOptions, error) {
	toolOptions, err := GetToolOptions()
	if err != nil {
		return nil, nil, fmt.Errorf(
			"error getting tool options to create a bare session provider: %w",
			err,
		)
	}

	sessionProvider, err := db.NewSessionProvider(*toolOptions)
	if err != nil {
		return nil, nil, err
	}

	return sessionProvider, toolOptions, nil
}

func GetToolOptions() (*options.ToolOptions, error) {
	var toolOptions *options.ToolOptions
	// get ToolOptions from URI or defaults
	if uri := os.Getenv(uriEnvVar); uri != "" {
		parse, err := connstring.ParseAndValidate(uri)
		if err != nil {
			return nil, fmt.Errorf(
				"%#q from the %#q env var is not a valid connection string: %w",
				uri,
				uriEnvVar,
				err,
			)
		}

		fakeArgs := []string{"--uri=" + uri}
		opts := options.EnabledOptions{Auth: parse.Username != "", Connection: true, URI: true}
		toolOptions = options.New("mongoindexes", "", "", "", true, opts)

		_, err = toolOptions.ParseArgs(fakeArgs)
		if err != nil {
			return nil, fmt.Errorf(
				"could not create toolOptions with %#q from the %#q env var: %w",
				uri,
				uriEnvVar,
				err,
			)
		}
		return toolOptions, nil
	}

	ssl := GetSSLOptions()
	auth := GetAuthOptions()
	toolOptions = &options.ToolOptions{
		AppName: "mongoindexes",
		General: &options.General{},
		SSL:     &ssl,
		Connection: &options.Connection{
			Host:    "localhost",
			Port:    db.DefaultTestPort,
			Timeout: 3,
		},
		Auth:         &auth,
		Verbosity:    &options.Verbosity{},
		URI:          &options.URI{},
		Namespace:    &options.Namespace{},
		WriteConcern: writeconcern.Majority(),
	}

	if err := toolOptions.NormalizeOptionsAndURI(); err != nil {
		return nil, err
	}

	return toolOptions, nil
}

// GetAuthOptions returns the credentials of the created test user when the
// auth test type is enabled.
func GetAuthOptions() options.Auth {
	if testtype.HasTestType(testtype.AuthTestType) {
		return options.Auth{
			Username: os.Getenv(CreatedUserNameEnv),
			Password: os.Getenv(CreatedUserPasswordEnv),
			Source:   "admin",
		}
	}

	return options.Auth{}
}

func GetSSLOptions() options.SSL {
	if testtype.HasTestType(testtype.SSLTestType) {
		return options.SSL{
			UseSSL:        true,
			SSLCAFile:     "../common/db/testdata/ca.pem",
			SSLPEMKeyFile: "../common/db/testdata/client.pem",
		}
	}

	return options.SSL{}
}

// GetBareArgs returns the command-line arguments that reach the test server.
func GetBareArgs() []string {
	args := []string{}

	if testtype.HasTestType(testtype.SSLTestType) {
		ssl := GetSSLOptions()
		args = append(args, "--ssl", "--sslCAFile", ssl.SSLCAFile, "--sslPEMKeyFile", ssl.SSLPEMKeyFile)
	}
	if testtype.HasTestType(testtype.AuthTestType) {
		auth := GetAuthOptions()
		args = append(args, "--username", auth.Username, "--password", auth.Password, "--authenticationDatabase", auth.Source)
	}
	if uri := os.Getenv(uriEnvVar); uri != "" {
		args = append(args, "--uri", uri)
	} else {
		args = append(args, "--host", "localhost", "--port", db.DefaultTestPort)
	}

	return args
}

// DropDatabase drops name now and again when the test finishes.
func DropDatabase(t *testing.T, client *mongo.Client, name string) {
	require.NoError(t, client.Database(name).Drop(context.Background()), "can drop %s", name)
	t.Cleanup(func() {
		_ = client.Database(name).Drop(context.Background())
	})
}

var atlasDomains = []string{
	".mongo.com",
	".mongodb.net",
	".mongodb-qa.net",
	".mongodb-dev.net",
}

// SkipForAtlasCluster will skip the test if `TOOLS_TESTING_MONGOD` is an Atlas URI.
func SkipForAtlasCluster(t *testing.T, reason string) {
	uri := os.Getenv(uriEnvVar)
	if uri == "" {
		return
	}

	for _, d := range atlasDomains {
		if strings.Contains(uri, d) {
			t.Skipf(
				"The %#q env var is for an Atlas cluster: %s",
				uriEnvVar,
				reason,
			)
		}
	}
}
