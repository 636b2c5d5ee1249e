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

package resource

// Firm namespace type and property names, grounded on firm.interfaces.FIRM_NS.
const (
	FirmNSPrefix = "https://firm.stevebate.dev/ns#"

	TypeNodeInfo    = "firm:NodeInfo"
	TypeWebFinger   = "firm:WebFinger"
	TypeCredentials = "firm:Credentials"
	TypeBlocks      = "firm:Blocks"

	PropPrivateKey    = "firm:privateKey"
	PropPassword      = "firm:password"
	PropToken         = "firm:token"
	PropRole          = "firm:role"
	PropBlockedActor  = "firm:blockedActor"
	PropBlockedDomain = "firm:blockedDomain"
	PropBlockedSubnet = "firm:blockedSubnet"
)
