// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package failpoint

// Supported failpoint names
const (
	// FailDropIndex makes the Mongo store fail every dropIndexes whose index
	// name equals the failpoint's value (or every drop if the value is empty).
	FailDropIndex = "FailDropIndex"
	// FailListIndexes makes the Mongo store fail listIndexes.
	FailListIndexes = "FailListIndexes"
)
