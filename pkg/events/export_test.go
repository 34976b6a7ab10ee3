package events

import "testing"

func TestMarshalCBORRoundTrip(t *testing.T) {
	root := NewFrame(New("transfer").WithAttribute("amount", "10"))
	root.AddChild(NewFrame(New("fee").WithAttribute("amount", "1")))
	flat := Flatten(root)

	data, err := MarshalCBOR(flat)
	if err != nil {
		t.Fatalf("MarshalCBOR: %v", err)
	}
	got, err := UnmarshalCBOR(data)
	if err != nil {
		t.Fatalf("UnmarshalCBOR: %v", err)
	}
	if len(got) != len(flat) {
		t.Fatalf("round trip length mismatch: got %d, want %d", len(got), len(flat))
	}
	for i := range flat {
		if got[i].Path != flat[i].Path || got[i].Event.Type != flat[i].Event.Type {
			t.Fatalf("round trip mismatch at %d: got %+v, want %+v", i, got[i], flat[i])
		}
	}
}
