// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package password handles cleanly reading in a user's password from
// the command line.
package password

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mongodb/mongo-index-tools/common/log"
	"golang.org/x/term"
)

// Prompt displays a prompt asking for the password and returns the
// password the user enters as a string.
func Prompt(what string) (string, error) {
	fmt.Fprintf(os.Stderr, "Enter password for %s:", what)

	var pass string
	var err error
	if IsTerminal() {
		log.Logv(log.DebugLow, "standard input is a terminal; reading password from terminal")
		var raw []byte
		raw, err = term.ReadPassword(int(os.Stdin.Fd()))
		pass = string(raw)
	} else {
		log.Logv(log.Always, "reading password from standard input")
		pass, err = readLine(os.Stdin)
	}
	if err != nil {
		return "", err
	}
	fmt.Fprintln(os.Stderr)
	return pass, nil
}

// IsTerminal reports whether standard input is attached to a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// readLine reads up to the first line terminator, returning what was read
// even when the input ends without one.
func readLine(reader io.Reader) (string, error) {
	line, err := bufio.NewReader(reader).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
