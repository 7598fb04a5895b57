package store

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Embeddings are persisted as a little-endian float32 array behind a small
// header so the blob stays readable from any language:
//
//	byte 0    codec version (currently 1)
//	bytes 1-2 vector dimension, uint16 little-endian
//	bytes 3+  dimension * 4 bytes of IEEE-754 float32 values
const embeddingCodecVersion = 1

// EncodeEmbedding serializes a vector into the versioned blob format.
func EncodeEmbedding(vec []float32) ([]byte, error) {
	if len(vec) == 0 {
		return nil, fmt.Errorf("cannot encode empty embedding")
	}
	if len(vec) > math.MaxUint16 {
		return nil, fmt.Errorf("embedding dimension %d exceeds encodable maximum", len(vec))
	}
	buf := make([]byte, 3+4*len(vec))
	buf[0] = embeddingCodecVersion
	binary.LittleEndian.PutUint16(buf[1:3], uint16(len(vec)))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[3+4*i:], math.Float32bits(v))
	}
	return buf, nil
}

// DecodeEmbedding parses a blob written by EncodeEmbedding.
func DecodeEmbedding(blob []byte) ([]float32, error) {
	if len(blob) < 3 {
		return nil, fmt.Errorf("embedding blob too short (%d bytes)", len(blob))
	}
	if blob[0] != embeddingCodecVersion {
		return nil, fmt.Errorf("unsupported embedding codec version %d", blob[0])
	}
	dim := int(binary.LittleEndian.Uint16(blob[1:3]))
	if len(blob) != 3+4*dim {
		return nil, fmt.Errorf("embedding blob length %d does not match dimension %d", len(blob), dim)
	}
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[3+4*i:]))
	}
	return vec, nil
}
