package storage

// Codec converts typed values to and from the bytes stored in the KVStore.
// Kept as an injected dependency rather than hard-coding JSON or Borsh.
// pkg/app uses JSONCodec for its state; pkg/vm uses no Codec, since
// contracts read and write raw bytes through the Host's db imports.
type Codec[T any] interface {
	Marshal(v T) ([]byte, error)
	Unmarshal(data []byte) (T, error)
}
