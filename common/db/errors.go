// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package db

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
)

// Server error codes the index tools react to.
const (
	ErrCodeUnauthorized          = 13
	ErrCodeAuthenticationFailed  = 18
	ErrCodeNamespaceNotFound     = 26
	ErrCodeIndexNotFound         = 27
	ErrCodeIndexOptionsConflict  = 85
	ErrCodeIndexKeySpecsConflict = 86
)

const (
	ErrLostConnection     = "lost connection to server"
	ErrNoReachableServers = "no reachable servers"
	ErrNsNotFound         = "ns not found"
)

// serverCode extracts the server error code carried by err, if any.
func serverCode(err error) (int32, bool) {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code, true
	}
	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		if writeErr.WriteConcernError != nil {
			return int32(writeErr.WriteConcernError.Code), true
		}
		if len(writeErr.WriteErrors) > 0 {
			return int32(writeErr.WriteErrors[0].Code), true
		}
	}
	return 0, false
}

func hasCode(err error, codes ...int32) bool {
	code, ok := serverCode(err)
	if !ok {
		return false
	}
	for _, c := range codes {
		if code == c {
			return true
		}
	}
	return false
}

// IsNamespaceNotFound reports whether err means the database or collection
// does not exist. Older servers only set the message.
func IsNamespaceNotFound(err error) bool {
	if err == nil {
		return false
	}
	if hasCode(err, ErrCodeNamespaceNotFound) {
		return true
	}
	return strings.Contains(err.Error(), ErrNsNotFound)
}

// IsIndexNotFound reports whether err means the named index does not exist.
func IsIndexNotFound(err error) bool {
	return err != nil && hasCode(err, ErrCodeIndexNotFound)
}

// IsIndexConflict reports whether err is the server refusing an index whose
// name or key pattern collides with an existing index of a different shape.
func IsIndexConflict(err error) bool {
	return err != nil && hasCode(err, ErrCodeIndexOptionsConflict, ErrCodeIndexKeySpecsConflict)
}

// IsTransientError reports whether err is a connectivity, timeout or
// authentication failure rather than a semantic rejection of the request.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if hasCode(err, ErrCodeUnauthorized, ErrCodeAuthenticationFailed) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, ErrLostConnection) || strings.Contains(msg, ErrNoReachableServers)
}
