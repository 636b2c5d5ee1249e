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

package authz

import (
	"context"
	"fmt"
	"net/url"

	"github.com/stevebate/firm/internal/resource"
	"github.com/stevebate/firm/internal/store"
)

// isBlocked looks up the tenant's firm:Blocks document and reports
// whether principalURI's host or the URI itself is blocked. This is the
// only block rule consulted at the instance level (§4.3); per-actor
// blocks are a documented extension point, not implemented here.
func isBlocked(ctx context.Context, s store.Store, tenantPrefix, principalURI string) (bool, string, error) {
	blocks, err := s.QueryOne(ctx, store.Criteria{
		"@prefix":      "urn:",
		"type":         resource.TypeBlocks,
		"attributedTo": tenantPrefix,
	})
	if err != nil {
		return false, "", err
	}
	if blocks == nil {
		return false, "", nil
	}

	if host := hostOf(principalURI); host != "" && resource.HasValue(blocks, resource.PropBlockedDomain, host) {
		return true, fmt.Sprintf("domain %s is blocked", host), nil
	}
	if resource.HasValue(blocks, resource.PropBlockedActor, principalURI) {
		return true, fmt.Sprintf("actor %s is blocked", principalURI), nil
	}
	return false, "", nil
}

func hostOf(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
