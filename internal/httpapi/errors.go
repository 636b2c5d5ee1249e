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

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/stevebate/firm/internal/apperr"
	"github.com/stevebate/firm/internal/auth"
	"github.com/stevebate/firm/internal/fnlog"
)

// writeJSON encodes v as status with the given content type.
func writeJSON(w http.ResponseWriter, status int, contentType string, v interface{}) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fnlog.Error.Errorf("httpapi: encode response: %v", err)
	}
}

// writeError maps an error to its HTTP representation: a typed
// *apperr.Error carries its own status; malformed credentials surface as
// 400 per §7's AuthenticationError; anything else is an unexpected
// internal failure, logged and reported as 500.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		writeJSON(w, appErr.Status, "application/json", map[string]string{"error": appErr.Reason})
		return
	}
	if errors.Is(err, auth.ErrAuthentication) {
		writeJSON(w, http.StatusBadRequest, "application/json", map[string]string{"error": err.Error()})
		return
	}
	fnlog.Error.Errorf("httpapi: %v", err)
	writeJSON(w, http.StatusInternalServerError, "application/json", map[string]string{"error": "internal error"})
}
