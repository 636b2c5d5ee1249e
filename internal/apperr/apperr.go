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

// Package apperr is the typed error boundary described in §7: a status
// code plus a human-readable reason, distinguishing error kinds
// (BadRequest, Unauthenticated, Forbidden, NotFound, MethodNotAllowed,
// NotImplemented, InternalError) without forcing every layer to depend on
// net/http status mapping directly. The authentication-failure kind is
// auth.ErrAuthentication, not a type of this package.
package apperr

import (
	"fmt"
	"net/http"
)

// Error carries an HTTP status and a reason, mirroring the Python
// HttpException used throughout firm's service layer.
type Error struct {
	Status int
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Reason)
}

func New(status int, format string, args ...interface{}) *Error {
	return &Error{Status: status, Reason: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...interface{}) *Error {
	return New(http.StatusBadRequest, format, args...)
}

func Unauthenticated(format string, args ...interface{}) *Error {
	return New(http.StatusUnauthorized, format, args...)
}

func Forbidden(format string, args ...interface{}) *Error {
	return New(http.StatusForbidden, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return New(http.StatusNotFound, format, args...)
}

func MethodNotAllowed(format string, args ...interface{}) *Error {
	return New(http.StatusMethodNotAllowed, format, args...)
}

func NotImplemented(format string, args ...interface{}) *Error {
	return New(http.StatusNotImplemented, format, args...)
}

func Internal(format string, args ...interface{}) *Error {
	return New(http.StatusInternalServerError, format, args...)
}

// FromDecision converts a failed authz.Decision-shaped (authorized,
// reason, status) result into an Error. Callers pass the fields rather
// than the authz type itself to avoid a dependency from apperr onto authz.
func FromDecision(reason string, status int) *Error {
	return New(status, "%s", reason)
}
