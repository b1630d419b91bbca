package checkpoint

import (
	"encoding/base64"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec encodes checkpoint payloads into the opaque blob strings stored in
// the persisted envelope: msgpack, optionally zstd-compressed, then base64.
type Codec struct {
	compress bool
	enc      *zstd.Encoder
	dec      *zstd.Decoder
}

// NewCodec creates a codec. With compression enabled, blobs are
// zstd-compressed before the base64 step; either codec can decode blobs
// produced by the other because compressed blobs carry a one-byte marker.
func NewCodec(compress bool) (*Codec, error) {
	c := &Codec{compress: compress}
	var err error
	if c.enc, err = zstd.NewWriter(nil); err != nil {
		return nil, fmt.Errorf("init zstd encoder: %w", err)
	}
	if c.dec, err = zstd.NewReader(nil); err != nil {
		return nil, fmt.Errorf("init zstd decoder: %w", err)
	}
	return c, nil
}

const (
	markerRaw  = 0x00
	markerZstd = 0x01
)

// Encode serializes v into an opaque blob string.
func (c *Codec) Encode(v any) (string, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("msgpack encode: %w", err)
	}
	if c.compress {
		data = append([]byte{markerZstd}, c.enc.EncodeAll(data, nil)...)
	} else {
		data = append([]byte{markerRaw}, data...)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Decode deserializes a blob string produced by Encode into v.
func (c *Codec) Decode(blob string, v any) error {
	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadBlob, err)
	}
	if len(data) == 0 {
		return ErrBadBlob
	}
	marker, payload := data[0], data[1:]
	if marker == markerZstd {
		if payload, err = c.dec.DecodeAll(payload, nil); err != nil {
			return fmt.Errorf("%w: zstd: %v", ErrBadBlob, err)
		}
	} else if marker != markerRaw {
		return fmt.Errorf("%w: unknown marker 0x%02x", ErrBadBlob, marker)
	}
	if err := msgpack.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: msgpack: %v", ErrBadBlob, err)
	}
	return nil
}
