package storage

import "encoding/json"

// JSONCodec is the default Codec, used for chain state that must remain
// human-inspectable in genesis files and query responses.
type JSONCodec[T any] struct{}

func (JSONCodec[T]) Marshal(v T) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec[T]) Unmarshal(data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}
