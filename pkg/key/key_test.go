package key

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		tag Tag
		id  uint64
	}{
		{Nop, 0},
		{Shutdown, 0},
		{EventSource, 1},
		{EventSource, 1<<20 + 7},
		{ChildExit, 42},
	}
	for _, c := range cases {
		k := Encode(c.tag, c.id)
		gotTag, gotID := k.Decode()
		if gotTag != c.tag || gotID != c.id {
			t.Fatalf("Encode(%v, %d).Decode() = (%v, %d), want (%v, %d)", c.tag, c.id, gotTag, gotID, c.tag, c.id)
		}
		if k.Tag() != c.tag {
			t.Fatalf("Tag() = %v, want %v", k.Tag(), c.tag)
		}
	}
}

func TestOverlappedTagIgnoresID(t *testing.T) {
	k := Encode(Overlapped, 0)
	if k.Tag() != Overlapped {
		t.Fatalf("Tag() = %v, want Overlapped", k.Tag())
	}
}

func TestTagString(t *testing.T) {
	if Nop.String() != "nop" {
		t.Fatalf("Nop.String() = %q", Nop.String())
	}
	if Tag(200).String() != "unknown" {
		t.Fatalf("unknown tag should stringify as unknown")
	}
}
