package checkpoint

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_RoundTrip(t *testing.T) {
	for _, compress := range []bool{true, false} {
		name := "raw"
		if compress {
			name = "compressed"
		}
		t.Run(name, func(t *testing.T) {
			codec, err := NewCodec(compress)
			require.NoError(t, err)

			original := Checkpoint{
				ID:        NewID(),
				ThreadID:  "t1",
				ParentID:  "parent",
				State:     []byte(`{"platform":"iOS"}`),
				NextNode:  "build_validation",
				CreatedAt: time.Now().UTC().Truncate(time.Second),
			}
			blob, err := codec.Encode(original)
			require.NoError(t, err)

			var decoded Checkpoint
			require.NoError(t, codec.Decode(blob, &decoded))
			// msgpack decodes times into the local zone; compare the
			// instant, then the rest of the struct.
			assert.True(t, decoded.CreatedAt.Equal(original.CreatedAt),
				"CreatedAt = %v, want %v", decoded.CreatedAt, original.CreatedAt)
			decoded.CreatedAt = original.CreatedAt
			assert.Equal(t, original, decoded)
		})
	}
}

func TestCodec_CrossDecode(t *testing.T) {
	// Either codec decodes the other's blobs thanks to the marker byte.
	plain, err := NewCodec(false)
	require.NoError(t, err)
	zipped, err := NewCodec(true)
	require.NoError(t, err)

	md := Metadata{Source: "loop", Step: 4, NodeName: "build_validation"}

	blob, err := plain.Encode(md)
	require.NoError(t, err)
	var fromPlain Metadata
	require.NoError(t, zipped.Decode(blob, &fromPlain))
	assert.Equal(t, md, fromPlain)

	blob, err = zipped.Encode(md)
	require.NoError(t, err)
	var fromZipped Metadata
	require.NoError(t, plain.Decode(blob, &fromZipped))
	assert.Equal(t, md, fromZipped)
}

func TestCodec_DecodeErrors(t *testing.T) {
	codec, err := NewCodec(true)
	require.NoError(t, err)

	var out Metadata
	assert.ErrorIs(t, codec.Decode("not base64!!!", &out), ErrBadBlob)
	assert.ErrorIs(t, codec.Decode("", &out), ErrBadBlob)

	unknownMarker := base64.StdEncoding.EncodeToString([]byte{0xFF, 0x01, 0x02})
	assert.ErrorIs(t, codec.Decode(unknownMarker, &out), ErrBadBlob)

	truncatedZstd := base64.StdEncoding.EncodeToString([]byte{markerZstd, 0x01})
	assert.ErrorIs(t, codec.Decode(truncatedZstd, &out), ErrBadBlob)
}
