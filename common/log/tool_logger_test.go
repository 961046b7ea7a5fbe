// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package log

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/mongodb/mongo-index-tools/common/testtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verbosity struct {
	L int
	Q bool
}

func (v verbosity) IsQuiet() bool { return v.Q }
func (v verbosity) Level() int    { return v.L }

func TestToolLoggerLevels(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	before := time.Now().Add(-time.Second)

	tl := NewToolLogger(&verbosity{L: DebugLow})
	require.NotNil(t, tl)
	assert.Equal(t, DebugLow, tl.verbosity)

	assert.Panics(t, func() { tl.Logvf(-1, "nope") }, "negative verbosity panics")

	buf := &bytes.Buffer{}
	tl.SetWriter(buf)

	tl.Logvf(Always, "reconciling %v", "app.users")
	tl.Logvf(DebugHigh, "state transition hidden at this level")
	tl.Logv(Info, "created [age_1]")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "reconciling app.users")
	assert.Contains(t, lines[1], "created [age_1]")

	timestamp := lines[0][:strings.Index(lines[0], "\t")]
	parsed, err := time.Parse(ToolTimeFormat, timestamp)
	require.NoError(t, err)
	assert.True(t, parsed.After(before), "timestamp is after test start")
}

func TestToolLoggerQuiet(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	buf := &bytes.Buffer{}
	tl := NewToolLogger(&verbosity{L: DebugHigh, Q: true})
	tl.SetWriter(buf)
	tl.Logvf(Always, "even Always is hidden when quiet")
	assert.Empty(t, buf.String())

	tl.SetVerbosity(nil)
	tl.Logvf(Always, "visible")
	tl.Logvf(Info, "hidden")
	assert.Contains(t, buf.String(), "visible")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestToolLoggerWriter(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	buf := &bytes.Buffer{}
	tl := NewToolLogger(&verbosity{L: Info})
	tl.SetWriter(buf)

	t.Run("writer within verbosity", func(t *testing.T) {
		w := tl.Writer(Info)
		for _, s := range []string{"One", "Two"} {
			_, err := w.Write([]byte(s))
			require.NoError(t, err)
		}
		assert.Contains(t, buf.String(), "One")
		assert.Contains(t, buf.String(), "Two")
	})

	t.Run("writer above verbosity", func(t *testing.T) {
		w := tl.Writer(DebugHigh)
		n, err := w.Write([]byte("nothing to see here"))
		require.NoError(t, err)
		assert.Equal(t, len("nothing to see here"), n)
		assert.NotContains(t, buf.String(), "nothing")
	})
}

func TestGlobalToolLogger(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	old := globalToolLogger
	defer func() { globalToolLogger = old }()

	globalToolLogger = NewToolLogger(&verbosity{L: Info})
	buf := &bytes.Buffer{}
	SetWriter(buf)

	assert.True(t, IsInVerbosity(Info))
	assert.False(t, IsInVerbosity(DebugLow))

	Logvf(Info, "woooo")
	assert.Contains(t, buf.String(), "woooo")

	assert.NotPanics(t, func() { SetVerbosity(&verbosity{Q: true}) })
	assert.NotPanics(t, func() { SetDateFormat(time.RFC3339) })
}

func TestToolLoggerLogvVerbatim(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	buf := &bytes.Buffer{}
	tl := NewToolLogger(&verbosity{L: Info})
	tl.SetWriter(buf)

	tl.Logv(Always, "try 'mongo%dindexes --help' for more information")
	assert.Contains(t, buf.String(), "try 'mongo%dindexes --help' for more information")
	assert.NotContains(t, buf.String(), "%!d")
}
