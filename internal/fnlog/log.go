// firm is a server implementing the ActivityPub federation protocol.
// Copyright (C) 2019 Cory Slep
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package fnlog carries the teacher's google/logger-based logging
// conventions: two package-level loggers that can be redirected at
// startup, used instead of bare log.Printf throughout the module.
package fnlog

import (
	"io"
	"os"

	"github.com/google/logger"
)

var (
	// Info logs request/dispatch/auth narration. Error logs failures that
	// don't abort the current request (delivery, fetch-fallback).
	Info  *logger.Logger = logger.Init("firm", false, false, os.Stdout)
	Error *logger.Logger = logger.Init("firm", false, false, os.Stderr)
)

// ToStdout restores both loggers to stdout/stderr, their initial
// destinations.
func ToStdout() {
	redirect(&Info, false, os.Stdout)
	redirect(&Error, false, os.Stderr)
}

// To redirects both loggers to w, optionally also logging to the system
// log (syslog/eventlog).
func To(system bool, w io.Writer) {
	redirect(&Info, system, w)
	redirect(&Error, system, w)
}

func redirect(l **logger.Logger, system bool, w io.Writer) {
	(*l).Close()
	*l = logger.Init("firm", false, system, w)
}
