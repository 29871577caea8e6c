// Package snapshot persists field registries as compressed blobs.
// Used by hosts that cache a compiled schema between runs instead of
// re-reading and re-flattening the schema file on every start.
package snapshot

import (
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/veldtlab/searchql/schema"
)

// Version guards the payload layout. Bump on incompatible change.
const Version = 1

// payload is the stored form of a registry: its flattened field
// definitions, which rebuild the same registry through schema.New.
type payload struct {
	Version int                     `msgpack:"version"`
	Fields  map[string]schema.Field `msgpack:"fields"`
}

// Marshal encodes a registry into a compressed blob.
func Marshal(r *schema.Registry) ([]byte, error) {
	data, err := msgpack.Marshal(payload{Version: Version, Fields: r.Definitions()})
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	defer encoder.Close()

	// EncodeAll with a pre-allocated destination avoids a second grow
	// for typical schema sizes.
	return encoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// Unmarshal rebuilds a registry from a compressed blob.
func Unmarshal(blob []byte) (*schema.Registry, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("empty snapshot data")
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer decoder.Close()

	data, err := decoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot: %w", err)
	}

	var p payload
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if p.Version != Version {
		return nil, fmt.Errorf("unsupported snapshot version %d", p.Version)
	}
	return schema.New(p.Fields), nil
}

// WriteFile marshals a registry and writes it to path.
func WriteFile(path string, r *schema.Registry) error {
	blob, err := Marshal(r)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	return nil
}

// ReadFile loads a registry snapshot from path.
func ReadFile(path string) (*schema.Registry, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}
	return Unmarshal(blob)
}
