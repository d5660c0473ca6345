package uuid

import "testing"

func TestGenUUID(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 10000; i++ {
		id := GenUUID()
		if len(id) != UUID_LENGTH {
			t.Fatalf("wrong uuid length: %s (len=%d)", id, len(id))
		}
		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate uuid: %s", id)
		}
		seen[id] = struct{}{}
	}
}

func TestGenFixedUUID(t *testing.T) {
	id1 := GenFixedUUID([]byte{1, 2, 3})
	id2 := GenFixedUUID([]byte{1, 2, 3})
	if id1 != id2 {
		t.Fatalf("fixed uuid should be deterministic: %s != %s", id1, id2)
	}
	if len(id1) != UUID_LENGTH {
		t.Fatalf("wrong uuid length: %s", id1)
	}
}
