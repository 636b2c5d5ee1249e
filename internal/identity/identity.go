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

// Package identity holds the resolved-principal types shared by the
// authentication and authorization packages, grounded on
// firm.interfaces.Identity/Principal.
package identity

import "github.com/stevebate/firm/internal/resource"

// Identity is an authenticated principal: the actor document the request
// was attributed to.
type Identity interface {
	URI() string
	Actor() resource.Doc
}

// Principal is the concrete Identity every authenticator returns.
type Principal struct {
	actor resource.Doc
}

// New wraps an actor document as a Principal.
func New(actor resource.Doc) Principal {
	return Principal{actor: actor}
}

// URI returns the actor's id.
func (p Principal) URI() string {
	return p.actor.ID()
}

// Actor returns the underlying actor document.
func (p Principal) Actor() resource.Doc {
	return p.actor
}
