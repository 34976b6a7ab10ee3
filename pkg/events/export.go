package events

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// MarshalCBOR encodes a flattened event log in CBOR, the compact binary
// export format cmd/chaincli's "events to-cbor" command writes alongside the
// default JSON ABCI event encoding -- useful for archiving a large replay
// log without JSON's per-field key overhead.
func MarshalCBOR(flat []FlatEvent) ([]byte, error) {
	out, err := cbor.Marshal(flat)
	if err != nil {
		return nil, fmt.Errorf("events: marshal cbor: %w", err)
	}
	return out, nil
}

// UnmarshalCBOR decodes a flattened event log previously written by
// MarshalCBOR.
func UnmarshalCBOR(data []byte) ([]FlatEvent, error) {
	var out []FlatEvent
	if err := cbor.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("events: unmarshal cbor: %w", err)
	}
	return out, nil
}
