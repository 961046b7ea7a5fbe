// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package password

import (
	"strings"
	"testing"

	"github.com/mongodb/mongo-index-tools/common/testtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLine(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	cases := map[string]string{
		"secret\n":        "secret",
		"secret\r\n":      "secret",
		"secret":          "secret",
		"first\nsecond\n": "first",
		"":                "",
	}
	for input, expected := range cases {
		got, err := readLine(strings.NewReader(input))
		require.NoError(t, err)
		assert.Equal(t, expected, got, "input %q", input)
	}
}
