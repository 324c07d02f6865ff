// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package spawn launches child processes and coordinates groups of them.
//
// A call is first normalized into an Invocation: the command, an optional
// argument vector, merged Options and a completion callback. With an argument
// vector the program is started directly and every element is passed verbatim;
// without one the command is a line handed to the system shell.
//
// Spawn starts a process and returns at once. Exec does the same but captures
// stdout and stderr and reports (error, output, exit code) once the process has
// exited and both streams have ended. Series runs tasks one after another and
// stops at the first failure; Parallel starts every task together and reports
// a positional list of errors once all of them have finished.
//
// Malformed calls fail synchronously with an *InvalidArgumentError before
// anything is launched. Failures of the children themselves are never raised;
// they are delivered to the completion callbacks as data.
package spawn
