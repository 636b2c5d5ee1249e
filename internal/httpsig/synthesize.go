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

package httpsig

import (
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"
)

// synthesizeHeaders fills in Date, Digest, and Host on r when they are
// listed in headers but not already present, mirroring
// firm.auth.http_signature.HttpSignatureMixin.synthesize_headers.
func synthesizeHeaders(r *http.Request, body []byte, headers []string) {
	for _, h := range headers {
		switch strings.ToLower(h) {
		case "date":
			if r.Header.Get("Date") == "" {
				r.Header.Set("Date", nowRFC1123GMT())
			}
		case "digest":
			if r.Header.Get("Digest") == "" && len(body) > 0 {
				sum := sha256.Sum256(body)
				r.Header.Set("Digest", "SHA-256="+base64.StdEncoding.EncodeToString(sum[:]))
			}
		case "host":
			if r.Host == "" && r.URL != nil {
				r.Host = r.URL.Host
			}
		}
	}
}

// nowRFC1123GMT formats the current time per RFC 1123 in GMT, the format
// email.utils.formatdate(usegmt=True) produces in the original.
func nowRFC1123GMT() string {
	return time.Now().UTC().Format(http.TimeFormat)
}
