// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package reconcile

import (
	"testing"

	"github.com/mongodb/mongo-index-tools/common/options"
	"github.com/mongodb/mongo-index-tools/common/testtype"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateString(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "reading snapshot", ReadingSnapshot.String())
	assert.Equal(t, "dropping", Dropping.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "State(42)", State(42).String())
}

func TestError(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	ns := options.Namespace{DB: "app", Collection: "users"}
	cause := errors.New("boom")
	err := error(&Error{
		Namespace: ns,
		Stage:     Dropping,
		Index:     "age_1",
		Dropped:   []string{"name_1"},
		Err:       errors.Wrap(ErrIndexNotFound, cause.Error()),
	})

	require.Equal(t, "app.users: dropping index age_1 (already dropped: name_1): boom: index not found", err.Error())
	require.True(t, errors.Is(err, ErrIndexNotFound))

	var rerr *Error
	require.True(t, errors.As(errors.Wrap(err, "outer"), &rerr))
	require.Equal(t, []string{"name_1"}, rerr.Dropped)
	require.Equal(t, ErrIndexNotFound, errors.Cause(err))
}
