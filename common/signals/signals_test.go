// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package signals

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/mongodb/mongo-index-tools/common/testtype"
	"github.com/mongodb/mongo-index-tools/common/util"
	"github.com/stretchr/testify/require"
	"gopkg.in/tomb.v2"
)

func TestHandleKillsTomb(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	var sink chan<- os.Signal
	exited := make(chan int, 1)
	origNotify, origStop, origExit := notify, stop, exit
	notify = func(c chan<- os.Signal) { sink = c }
	stop = func(chan<- os.Signal) {}
	exit = func(code int) { exited <- code }
	defer func() { notify, stop, exit = origNotify, origStop, origExit }()

	var tb tomb.Tomb
	Handle(&tb)
	require.NotNil(t, sink)

	sink <- syscall.SIGINT
	select {
	case <-tb.Dying():
	case <-time.After(5 * time.Second):
		t.Fatal("tomb was not killed by the first signal")
	}
	require.ErrorIs(t, tb.Wait(), util.ErrTerminated)

	sink <- syscall.SIGTERM
	select {
	case code := <-exited:
		require.Equal(t, util.ExitKill, code)
	case <-time.After(5 * time.Second):
		t.Fatal("second signal did not exit")
	}
}

func TestHandleStopsWithTomb(t *testing.T) {
	testtype.SkipUnlessTestType(t, testtype.UnitTestType)

	stopped := make(chan struct{})
	origNotify, origStop := notify, stop
	notify = func(chan<- os.Signal) {}
	stop = func(chan<- os.Signal) { close(stopped) }
	defer func() { notify, stop = origNotify, origStop }()

	var tb tomb.Tomb
	Handle(&tb)
	tb.Kill(nil)
	require.NoError(t, tb.Wait())

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("signal notifications were not stopped")
	}
}
