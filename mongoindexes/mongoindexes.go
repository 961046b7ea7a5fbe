// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package mongoindexes reconciles the indexes of MongoDB collections with
// the declarations in a bindings file.
package mongoindexes

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/mongodb/mongo-index-tools/common/db"
	"github.com/mongodb/mongo-index-tools/common/log"
	"github.com/mongodb/mongo-index-tools/common/options"
	"github.com/mongodb/mongo-index-tools/common/signals"
	"github.com/mongodb/mongo-index-tools/common/util"
	"github.com/mongodb/mongo-index-tools/reconcile"
	"github.com/pkg/errors"
	"gopkg.in/tomb.v2"
)

const lockRetryDelay = 200 * time.Millisecond

// MongoIndexes is a container for the user-specified options and
// internal state used for running mongoindexes.
type MongoIndexes struct {
	ToolOptions      *options.ToolOptions
	InputOptions     *InputOptions
	ReconcileOptions *ReconcileOptions

	SessionProvider *db.SessionProvider

	// Store is where indexes are read and written. New sets it to a
	// MongoStore over SessionProvider.
	Store reconcile.Store

	// RunID tags the summary and the JSON report.
	RunID string

	// Out receives the JSON report.
	Out io.Writer
}

// New connects to the deployment described by opts.
func New(opts Options) (*MongoIndexes, error) {
	provider, err := db.NewSessionProvider(*opts.ToolOptions)
	if err != nil {
		return nil, fmt.Errorf("error connecting to host: %v", err)
	}
	return &MongoIndexes{
		ToolOptions:      opts.ToolOptions,
		InputOptions:     opts.InputOptions,
		ReconcileOptions: opts.ReconcileOptions,
		SessionProvider:  provider,
		Store:            reconcile.NewMongoStore(provider, opts.CommitQuorum),
		RunID:            uuid.NewString(),
		Out:              os.Stdout,
	}, nil
}

// Close releases the connection to the deployment.
func (mi *MongoIndexes) Close() {
	if mi.SessionProvider != nil {
		mi.SessionProvider.Close()
	}
}

// Run reconciles every binding, stopping early on an interrupt. The error
// is util.ErrTerminated when a signal ended the run.
func (mi *MongoIndexes) Run() (reconcile.AggregateResult, error) {
	var results reconcile.AggregateResult
	var t tomb.Tomb
	signals.Handle(&t)
	t.Go(func() error {
		// Kill with a nil reason so the signal handler exits; a returned
		// error still becomes the tomb's reason.
		defer t.Kill(nil)
		var err error
		results, err = mi.reconcile(t.Context(nil))
		return err
	})
	err := t.Wait()
	if errors.Is(err, util.ErrTerminated) {
		return results, util.ErrTerminated
	}
	return results, err
}

func (mi *MongoIndexes) reconcile(ctx context.Context) (reconcile.AggregateResult, error) {
	if mi.ReconcileOptions.LockFile != "" {
		lock, err := acquireLock(ctx, mi.ReconcileOptions.LockFile,
			time.Duration(mi.ReconcileOptions.LockTimeout)*time.Second)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				log.Logvf(log.Always, "error releasing lock %v: %v", mi.ReconcileOptions.LockFile, err)
			}
		}()
	}

	defaultDB := ""
	if mi.ToolOptions.Namespace != nil {
		defaultDB = mi.ToolOptions.Namespace.DB
	}
	bindings, err := LoadBindings(mi.InputOptions.File, mi.InputOptions.Type, defaultDB)
	if err != nil {
		return nil, err
	}
	log.Logvf(log.DebugLow, "run %v: loaded %v %v from %v", mi.RunID, len(bindings),
		util.Pluralize(len(bindings), "binding", "bindings"), mi.InputOptions.File)

	orchestrator := reconcile.NewOrchestrator(mi.Store, reconcile.Options{
		ContinueOnError: mi.ReconcileOptions.ContinueOnError,
		Filter:          mi.filter(),
	})
	for _, binding := range bindings {
		orchestrator.Declare(binding.Namespace, binding.Indexes...)
	}

	var results reconcile.AggregateResult
	if mi.ReconcileOptions.DryRun {
		results, err = orchestrator.PlanAll(ctx)
	} else {
		results, err = orchestrator.ReconcileAll(ctx)
	}
	if err == nil {
		if failed := results.Failed(); len(failed) > 0 {
			err = fmt.Errorf("%v of %v %v failed, first: %v", len(failed), len(results),
				util.Pluralize(len(results), "collection", "collections"), failed.Err())
		}
	}
	if err != nil && db.IsTransientError(err) {
		log.Logvf(log.Info, "run %v: the deployment could not be reached or rejected the credentials", mi.RunID)
	}

	if mi.ReconcileOptions.JSON {
		if werr := NewReport(mi.RunID, mi.ReconcileOptions.DryRun, results, err).WriteJSON(mi.Out); werr != nil {
			return results, werr
		}
	} else {
		logResults(mi.RunID, results)
	}
	return results, err
}

// filter restricts the run to --db and --collection when given. The file's
// own db is not a filter.
func (mi *MongoIndexes) filter() options.Namespace {
	if mi.ToolOptions.Namespace == nil {
		return options.Namespace{}
	}
	return *mi.ToolOptions.Namespace
}

// acquireLock takes an exclusive advisory lock on path, retrying until
// timeout elapses.
func acquireLock(ctx context.Context, path string, timeout time.Duration) (*flock.Flock, error) {
	lock := flock.New(path)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	locked, err := lock.TryLock()
	for err == nil && !locked {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("another run holds the lock %v", path)
		case <-time.After(lockRetryDelay):
		}
		locked, err = lock.TryLock()
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot acquire lock %v", path)
	}
	return lock, nil
}
