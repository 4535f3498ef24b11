// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
)

// Process exit codes.
const (
	ExitOK    = 0
	ExitDeny  = 1
	ExitUsage = 2
)

// ExitError signals a non-zero exit code without printing an extra
// error message. Commands return it after writing their own output,
// for example a denied evaluation.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// Denied is the ExitError for a deny or block decision.
func Denied() error {
	return &ExitError{Code: ExitDeny}
}

// UsageError is a command-line mistake: unknown command or flag,
// missing argument.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string { return e.Message }

// Usagef formats a UsageError.
func Usagef(format string, args ...any) error {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// ExitCodeOf maps a command error to the process exit code.
func ExitCodeOf(err error) int {
	if err == nil {
		return ExitOK
	}
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return ExitUsage
}

// Silent reports whether err was already reported by the command and
// needs no "error:" line.
func Silent(err error) bool {
	var exitError *ExitError
	return errors.As(err, &exitError)
}
