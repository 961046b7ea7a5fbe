// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package util

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	InvalidDBChars         = "/\\. \"\x00$"
	InvalidCollectionChars = "$\x00"
	DefaultHost            = "localhost"
)

var userInfoRegex = regexp.MustCompile(`^(mongodb(?:\+srv)?://)[^/?]*@`)

// SplitHostArg splits a host string of the form "setname/host1,host2" into
// its seed list and replica set name.
func SplitHostArg(connString string) ([]string, string) {
	slashIndex := strings.Index(connString, "/")
	if slashIndex == -1 {
		return strings.Split(connString, ","), ""
	}

	return strings.Split(connString[slashIndex+1:], ","), connString[:slashIndex]
}

// CreateConnectionAddrs appends port to every host in host that lacks one.
func CreateConnectionAddrs(host, port string) []string {
	hosts, _ := SplitHostArg(host)

	if port == "" {
		return hosts
	}

	addrs := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if !strings.Contains(h, ":") {
			h = h + ":" + port
		}
		addrs = append(addrs, h)
	}
	return addrs
}

// BuildURI assembles a connection string from --host and --port.
func BuildURI(host, port string) string {
	seeds, setName := SplitHostArg(host)
	if len(seeds) == 1 && seeds[0] == "" {
		seeds = []string{DefaultHost}
	}

	for i, seed := range seeds {
		if port != "" && !strings.Contains(seed, ":") {
			seeds[i] = seed + ":" + port
		}
	}

	uri := "mongodb://" + strings.Join(seeds, ",") + "/"
	if setName != "" {
		uri += "?replicaSet=" + setName
	}
	return uri
}

// SanitizeURI redacts any user info in a connection string so it can be
// logged.
func SanitizeURI(uri string) string {
	return userInfoRegex.ReplaceAllString(uri, "${1}[**REDACTED**]@")
}

// ValidateDBName validates that a string is a valid name for a database.
func ValidateDBName(database string) error {
	if len(database) == 0 {
		return fmt.Errorf("database name cannot be empty")
	}
	if len(database) > 63 {
		return fmt.Errorf("db name '%v' is longer than 63 characters", database)
	}
	if strings.ContainsAny(database, InvalidDBChars) {
		return fmt.Errorf("db name '%v' contains invalid characters", database)
	}
	return nil
}

// ValidateCollectionName validates that a string is a valid name for a
// collection.
func ValidateCollectionName(collection string) error {
	if len(collection) == 0 {
		return fmt.Errorf("collection name cannot be an empty string")
	}
	if strings.ContainsAny(collection, InvalidCollectionChars) {
		return fmt.Errorf("collection name '%v' contains invalid characters", collection)
	}
	return nil
}

// ValidateFullNamespace validates a "db.collection" string.
func ValidateFullNamespace(namespace string) error {
	database, collection, found := strings.Cut(namespace, ".")
	if !found {
		return fmt.Errorf("namespace '%v' must be of the form <database>.<collection>", namespace)
	}
	if err := ValidateDBName(database); err != nil {
		return err
	}
	return ValidateCollectionName(collection)
}
