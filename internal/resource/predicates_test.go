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

import "testing"

func TestIsPublic(t *testing.T) {
	public := Doc{"to": []interface{}{"https://www.w3.org/ns/activitystreams#Public"}}
	if !public.IsPublic() {
		t.Fatalf("expected public addressing to be detected")
	}
	private := Doc{"to": []interface{}{"https://example.test/actor"}}
	if private.IsPublic() {
		t.Fatalf("expected non-public addressing to be rejected")
	}
	if (Doc{}).IsPublic() {
		t.Fatalf("expected doc with no addressing fields to be non-public")
	}
}

func TestIsActorObject(t *testing.T) {
	person := Doc{"type": "Person"}
	if !person.IsActorObject() {
		t.Fatalf("expected Person to be an actor object")
	}
	note := Doc{"type": "Note"}
	if note.IsActorObject() {
		t.Fatalf("expected Note to not be an actor object")
	}
}

func TestIsRecipient(t *testing.T) {
	d := Doc{"cc": "https://example.test/bob"}
	if !d.IsRecipient("https://example.test/bob") {
		t.Fatalf("expected bob to be a recipient")
	}
	if d.IsRecipient("https://example.test/carol") {
		t.Fatalf("expected carol not to be a recipient")
	}
}

func TestIsActivityActorChecksActorThenAttributedTo(t *testing.T) {
	byActor := Doc{"actor": "https://example.test/alice"}
	if !byActor.IsActivityActor("https://example.test/alice") {
		t.Fatalf("expected string actor to match")
	}

	byEmbeddedActor := Doc{"actor": map[string]interface{}{"id": "https://example.test/alice"}}
	if !byEmbeddedActor.IsActivityActor("https://example.test/alice") {
		t.Fatalf("expected embedded actor doc to match")
	}

	byActorList := Doc{"actor": []interface{}{"https://example.test/other", "https://example.test/alice"}}
	if !byActorList.IsActivityActor("https://example.test/alice") {
		t.Fatalf("expected actor list membership to match")
	}

	fallback := Doc{"attributedTo": "https://example.test/alice"}
	if !fallback.IsActivityActor("https://example.test/alice") {
		t.Fatalf("expected fallback to attributedTo when actor is absent")
	}

	neither := Doc{"actor": "https://example.test/mallory"}
	if neither.IsActivityActor("https://example.test/alice") {
		t.Fatalf("expected no match when actor names someone else")
	}
}

func TestIsActorCollection(t *testing.T) {
	actor := Doc{
		"followers": "https://example.test/actor/followers",
		"following": "https://example.test/actor/following",
	}
	if !IsActorCollection(actor, "https://example.test/actor/followers") {
		t.Fatalf("expected followers to be recognized as an actor collection")
	}
	if IsActorCollection(actor, "https://example.test/somewhere-else") {
		t.Fatalf("expected unrelated uri to not be an actor collection")
	}
}
