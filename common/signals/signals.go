// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package signals ties process termination signals to the lifecycle of a
// tool run.
package signals

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/mongodb/mongo-index-tools/common/log"
	"github.com/mongodb/mongo-index-tools/common/util"
	"gopkg.in/tomb.v2"
)

// overridden in tests
var (
	notify = func(c chan<- os.Signal) {
		signal.Notify(c, syscall.SIGTERM, syscall.SIGINT, syscall.SIGPIPE)
	}
	stop = signal.Stop
	exit = os.Exit
)

// Handle watches for SIGTERM, SIGINT and SIGPIPE for as long as t is alive.
// The first signal kills t with util.ErrTerminated so that the run can stop
// between operations. A second signal exits the process with util.ExitKill.
//
// Handle must be called before t is dead.
func Handle(t *tomb.Tomb) {
	sigChan := make(chan os.Signal, 2)
	notify(sigChan)

	t.Go(func() error {
		select {
		case <-t.Dying():
			stop(sigChan)
			return nil
		case sig := <-sigChan:
			log.Logvf(log.Always, "signal '%s' received; attempting to shut down", sig)
			t.Kill(util.ErrTerminated)
		}

		go func() {
			sig := <-sigChan
			log.Logvf(log.Always, "signal '%s' received; forcefully terminating", sig)
			exit(util.ExitKill)
		}()
		return nil
	})
}
