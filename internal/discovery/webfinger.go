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

// Package discovery implements the thin WebFinger and NodeInfo
// responders of §6, both reusing the resource store rather than keeping
// any state of their own, grounded on firm.services.webfinger and
// firm.services.nodeinfo.
package discovery

import (
	"context"

	"github.com/stevebate/firm/internal/apperr"
	"github.com/stevebate/firm/internal/resource"
	"github.com/stevebate/firm/internal/store"
)

// JRD is the JSON Resource Descriptor both discovery endpoints return.
type JRD struct {
	Subject string    `json:"subject,omitempty"`
	Links   []JRDLink `json:"links"`
}

// JRDLink is a single JRD link entry.
type JRDLink struct {
	Rel        string            `json:"rel"`
	Type       string            `json:"type,omitempty"`
	Href       string            `json:"href,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

// DefaultAKAPredicates is the field WebFinger falls back to when a
// resource isn't stored under its own id, matching the original's
// "alsoKnownAs" fallback query (SPEC_FULL §C.4).
var DefaultAKAPredicates = []string{"alsoKnownAs"}

// WebFingerService answers /.well-known/webfinger?resource=... lookups.
type WebFingerService struct {
	Store         store.Store
	AKAPredicates []string // defaults to DefaultAKAPredicates if nil
}

func (w *WebFingerService) akaPredicates() []string {
	if w.AKAPredicates != nil {
		return w.AKAPredicates
	}
	return DefaultAKAPredicates
}

// Lookup resolves resourceParam to its actor and builds the JRD, per
// §6. An empty resourceParam is a 400; an unresolvable one is a 404.
func (w *WebFingerService) Lookup(ctx context.Context, tenantPrefix, resourceParam string) (JRD, error) {
	if resourceParam == "" {
		return JRD{}, apperr.BadRequest("missing resource parameter")
	}
	actor, err := w.resolve(ctx, tenantPrefix, resourceParam)
	if err != nil {
		return JRD{}, err
	}
	if actor == nil {
		return JRD{}, apperr.NotFound("unknown resource %s", resourceParam)
	}

	asType := ""
	if types := actor.Types(); len(types) > 0 {
		asType = types[0]
	}
	return JRD{
		Subject: resourceParam,
		Links: []JRDLink{{
			Rel:        "self",
			Type:       "application/activity+json",
			Href:       actor.ID(),
			Properties: map[string]string{"as#type": asType},
		}},
	}, nil
}

// resolve tries resourceParam as a direct document id first (the
// WebFinger "resource" parameter may itself be the actor's URI), then
// falls back to the configured aka predicates, scoped to the requesting
// tenant.
func (w *WebFingerService) resolve(ctx context.Context, tenantPrefix, resourceParam string) (resource.Doc, error) {
	direct, err := w.Store.QueryOne(ctx, store.Criteria{
		"@prefix": tenantPrefix,
		"id":      resourceParam,
	})
	if err != nil {
		return nil, err
	}
	if direct != nil {
		return direct, nil
	}
	for _, predicate := range w.akaPredicates() {
		found, err := w.Store.QueryOne(ctx, store.Criteria{
			"@prefix": tenantPrefix,
			predicate: resourceParam,
		})
		if err != nil {
			return nil, err
		}
		if found != nil {
			return found, nil
		}
	}
	return nil, nil
}
