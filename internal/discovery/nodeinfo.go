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

package discovery

import (
	"context"

	"github.com/stevebate/firm/internal/resource"
	"github.com/stevebate/firm/internal/store"
)

const nodeInfoSchemaRel = "http://nodeinfo.diaspora.software/ns/schema/2.0"

// NodeInfoSoftware names the server and its version.
type NodeInfoSoftware struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// NodeInfoServices is always empty -- the core doesn't bridge other
// protocols -- but is carried for schema completeness.
type NodeInfoServices struct {
	Inbound  []string `json:"inbound"`
	Outbound []string `json:"outbound"`
}

// NodeInfoDocument is the fixed /nodeinfo/2.0 response shape, per §6.
type NodeInfoDocument struct {
	Version           string                 `json:"version"`
	Software          NodeInfoSoftware       `json:"software"`
	Protocols         []string               `json:"protocols"`
	Services          NodeInfoServices       `json:"services"`
	OpenRegistrations bool                   `json:"openRegistrations"`
	Metadata          map[string]interface{} `json:"metadata"`
}

// NodeInfoService answers /.well-known/nodeinfo and /nodeinfo/2.0.
type NodeInfoService struct {
	Store    store.Store
	Software string
	Version  string
}

// WellKnown builds the /.well-known/nodeinfo JRD pointing at
// {tenantPrefix}/nodeinfo/2.0.
func (n *NodeInfoService) WellKnown(tenantPrefix string) JRD {
	return JRD{
		Links: []JRDLink{{
			Rel:  nodeInfoSchemaRel,
			Href: tenantPrefix + "/nodeinfo/2.0",
		}},
	}
}

// Document builds the /nodeinfo/2.0 document, applying a per-tenant
// firm:NodeInfo metadata override if one is stored (SPEC_FULL §C.5).
func (n *NodeInfoService) Document(ctx context.Context, tenantPrefix string) (NodeInfoDocument, error) {
	doc := NodeInfoDocument{
		Version:           "2.0",
		Software:          NodeInfoSoftware{Name: n.Software, Version: n.Version},
		Protocols:         []string{"activitypub"},
		Services:          NodeInfoServices{Inbound: []string{}, Outbound: []string{}},
		OpenRegistrations: false,
		Metadata: map[string]interface{}{
			"nodeName":        tenantPrefix,
			"nodeDescription": "",
		},
	}

	override, err := n.Store.QueryOne(ctx, store.Criteria{
		"@prefix":      "urn:",
		"type":         resource.TypeNodeInfo,
		"attributedTo": tenantPrefix,
	})
	if err != nil {
		return NodeInfoDocument{}, err
	}
	if override != nil {
		if meta, ok := resource.AsDoc(override["metadata"]); ok {
			doc.Metadata = meta
		}
	}
	return doc, nil
}
